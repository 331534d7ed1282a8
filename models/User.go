package models

import (
	"time"

	"gorm.io/gorm"
)

type RoleType string

const (
	RoleAdmin RoleType = "admin"
	RoleOwner RoleType = "owner"
)

func (r RoleType) Valid() bool {
	return r == RoleAdmin || r == RoleOwner
}

type User struct {
	ID           uint64         `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"type:varchar(255);not null"`
	Email        string         `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string         `json:"-" gorm:"type:varchar(255);not null"`
	Role         RoleType       `json:"role" gorm:"type:varchar(16);not null"`
	IsActive     bool           `json:"is_active" gorm:"not null;default:true"`
	LastLoginAt  *time.Time     `json:"last_login_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

type LoginHistory struct {
	ID        uint64    `json:"id" gorm:"primaryKey"`
	UserID    uint64    `json:"user_id" gorm:"not null;index"`
	IPAddress string    `json:"ip_address" gorm:"type:varchar(45)"`
	LoginTime time.Time `json:"login_time" gorm:"not null"`
}

// RevokedToken keeps logged-out token ids until the token would have expired anyway.
type RevokedToken struct {
	TokenID   string    `json:"token_id" gorm:"primaryKey;type:varchar(64)"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
}
