package models

import (
	"time"
)

type UserPreference struct {
	UserID             uint      `gorm:"primaryKey" json:"user_id"`
	EmailNotifications bool      `gorm:"default:true;not null" json:"email_notifications"`
	DarkMode           bool      `gorm:"default:false;not null" json:"dark_mode"`
	DefaultView        string    `gorm:"size:20;default:'trending';not null" json:"default_view"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (UserPreference) TableName() string {
	return "user_preferences"
}
