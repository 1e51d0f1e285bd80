package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User is a storefront customer account. UserNumber is assigned by a
// database sequence; the legacy "read max id and increment" scheme from the
// old backend is gone.
type User struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserNumber   int64     `gorm:"column:user_number;autoIncrement;not null;uniqueIndex"`
	Username     string    `gorm:"column:username;not null;uniqueIndex"`
	Email        string    `gorm:"column:email;not null;uniqueIndex"`
	Phone        string    `gorm:"column:phone;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// PublicID renders the human-readable customer id shown in the admin panel.
func (u User) PublicID() string {
	return fmt.Sprintf("usr%06d", u.UserNumber)
}
