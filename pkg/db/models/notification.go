package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oneclickretail/oneclick-backend/pkg/enums"
)

// Notification is one append-only entry in the admin event feed.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type      enums.NotificationType `gorm:"column:type;not null"`
	Message   string                 `gorm:"column:message;not null"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
