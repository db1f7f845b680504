package models

import (
	"time"
)

// Feed 导入过的订阅源
type Feed struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	URL         string     `gorm:"uniqueIndex;not null" json:"url"`
	Title       string     `gorm:"not null" json:"title"`
	LastFetchAt *time.Time `json:"last_fetch_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
