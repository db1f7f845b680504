package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email,omitempty"`
	Password    string     `gorm:"not null" json:"-"` // Hash
	DisplayName string     `gorm:"size:100" json:"display_name"`
	Bio         string     `gorm:"size:500" json:"bio"`
	AvatarURL   string     `json:"avatar_url"`
	Role        string     `gorm:"size:20;default:'user';not null" json:"role"` // user, admin
	Reputation  int        `gorm:"default:0;not null" json:"reputation"`
	LastLogin   *time.Time `json:"last_login"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
