package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oneclickretail/oneclick-backend/pkg/enums"
)

// StaffAccount is an admin-panel login.
type StaffAccount struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string          `gorm:"column:username;not null;uniqueIndex"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	Role         enums.ActorRole `gorm:"column:role;not null;default:'admin'"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
