package models

import (
	"time"
)

type ArticleStatus string

const (
	StatusPending  ArticleStatus = "pending"
	StatusApproved ArticleStatus = "approved"
	StatusRejected ArticleStatus = "rejected"
)

func (s ArticleStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Article 投稿文章。Upvotes/Downvotes 只由投票事务根据 votes 表重算。
type Article struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Title       string        `gorm:"size:255;not null" json:"title"`
	Description string        `gorm:"type:text;not null" json:"description"`
	URL         string        `gorm:"size:2048;index" json:"url"` // Optional
	CategoryID  uint          `gorm:"not null;index" json:"category_id"`
	Category    Category      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
	Tags        []Tag         `gorm:"many2many:article_tags;constraint:OnDelete:CASCADE;" json:"tags"`
	Status      ArticleStatus `gorm:"type:varchar(20);default:'pending';not null;index" json:"status"`
	Upvotes     int           `gorm:"default:0;not null" json:"upvotes"`
	Downvotes   int           `gorm:"default:0;not null" json:"downvotes"`
	Views       int           `gorm:"default:0;not null" json:"views"`
	IsFeatured  bool          `gorm:"default:false;not null" json:"is_featured"`
	SubmittedBy uint          `gorm:"not null;index" json:"submitted_by"`
	User        User          `gorm:"foreignKey:SubmittedBy;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt   time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// 非数据库字段，用于查询时填充
	CommentCount int64 `gorm:"-" json:"comment_count"`
}

func (a *Article) Score() int {
	return a.Upvotes - a.Downvotes
}

// TagNames returns the tag names in stored order.
func (a *Article) TagNames() []string {
	names := make([]string, 0, len(a.Tags))
	for _, t := range a.Tags {
		names = append(names, t.Name)
	}
	return names
}
