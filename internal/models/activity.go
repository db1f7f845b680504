package models

import (
	"time"
)

// UserActivity 只追加的审计日志，不更新也不删除
type UserActivity struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	ActivityType string    `gorm:"size:50;not null;index" json:"activity_type"`
	EntityID     uint      `gorm:"index" json:"entity_id"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (UserActivity) TableName() string {
	return "user_activity"
}

type Badge struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description string `json:"description"`
	Icon        string `gorm:"size:50" json:"icon"`
}

type UserBadge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeID   uint      `gorm:"not null;uniqueIndex:idx_user_badge" json:"badge_id"`
	Badge     Badge     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"badge"`
	AwardedAt time.Time `gorm:"autoCreateTime" json:"awarded_at"`
}
