package services

import (
	"context"

	"echonews/internal/apperr"
	"echonews/internal/models"
	"echonews/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 用户动态类型
const (
	ActivityRegister       = "user_register"
	ActivityArticleSubmit  = "article_submit"
	ActivityArticleUpdate  = "article_update"
	ActivityArticleDelete  = "article_delete"
	ActivityArticleApprove = "article_approve"
	ActivityArticleReject  = "article_reject"
	ActivityArticleUpvote  = "article_upvote"
	ActivityArticleDown    = "article_downvote"
	ActivityArticleUnvote  = "article_unvote"
	ActivityCommentCreate  = "comment_create"
	ActivityCommentUpdate  = "comment_update"
	ActivityCommentDelete  = "comment_delete"
)

// logActivity appends to the audit log inside the caller's transaction.
func logActivity(tx *gorm.DB, userID uint, activityType string, entityID uint) error {
	entry := models.UserActivity{
		UserID:       userID,
		ActivityType: activityType,
		EntityID:     entityID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return apperr.Internalf(err, "log activity %s", activityType)
	}
	return nil
}

// awardBadge is a no-op when the user already holds the badge.
func awardBadge(tx *gorm.DB, userID uint, badgeName string) error {
	var badge models.Badge
	if err := tx.Where("name = ?", badgeName).Take(&badge).Error; err != nil {
		return notFoundOr(err, "badge "+badgeName)
	}
	ub := models.UserBadge{UserID: userID, BadgeID: badge.ID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ub).Error; err != nil {
		return apperr.Internalf(err, "award badge %s", badgeName)
	}
	return nil
}

type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(conn *gorm.DB) *ActivityService {
	return &ActivityService{db: conn}
}

// List returns a user's activity, newest first.
func (s *ActivityService) List(ctx context.Context, userID uint, p utils.PaginationParams) ([]models.UserActivity, utils.PaginationResult, error) {
	query := s.db.WithContext(ctx).Model(&models.UserActivity{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, utils.PaginationResult{}, apperr.Internalf(err, "count activity")
	}

	var items []models.UserActivity
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&items).Error
	if err != nil {
		return nil, utils.PaginationResult{}, apperr.Internalf(err, "list activity")
	}
	return items, utils.NewPaginationResult(p, total), nil
}
