package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeUpvote     NotificationType = "upvote"
	NotificationTypeModeration NotificationType = "moderation"
	NotificationTypeSystem     NotificationType = "system"
)

type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"` // Receiver
	User      User             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ActorID   *uint            `gorm:"index" json:"actor_id"` // Sender
	Type      NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	EntityID  uint             `gorm:"index" json:"entity_id"`
	Message   string           `gorm:"type:text" json:"message"`
	IsRead    bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
