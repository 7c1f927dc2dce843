package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles are a fixed enumeration; anything else is rejected at validation time.
const (
	RoleAdmin      = "admin"
	RoleStaff      = "staff"
	RoleAccountant = "accountant"
	RoleKitchen    = "kitchen"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleStaff, RoleAccountant, RoleKitchen:
		return true
	}
	return false
}

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:20;uniqueIndex;not null" json:"username"`
	Password string `gorm:"not null" json:"-"` // bcrypt hash
	Role     string `gorm:"size:20;not null;default:'staff'" json:"role"`
	// Current refresh session token; nulled out on logout.
	RefreshToken *string        `gorm:"column:refresh_token" json:"-"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedAt    time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}
