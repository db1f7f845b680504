package services

import (
	"context"

	"echonews/internal/apperr"
	"echonews/internal/db"
	"echonews/internal/models"
	"echonews/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxCommentLen = 10000

type CreateCommentInput struct {
	ArticleID uint
	ParentID  *uint
	Text      string
}

// CommentNode is a comment with its direct replies. Threads are one level deep.
type CommentNode struct {
	models.Comment
	Username string         `json:"username"`
	Replies  []*CommentNode `json:"replies"`
}

type CommentService struct {
	db    *gorm.DB
	guard *Guard
}

func NewCommentService(conn *gorm.DB, guard *Guard) *CommentService {
	return &CommentService{db: conn, guard: guard}
}

// Create adds a top-level comment or a reply to a top-level comment.
func (s *CommentService) Create(ctx context.Context, actor *models.User, in CreateCommentInput) (*models.Comment, error) {
	if actor == nil {
		return nil, apperr.Unauthenticatedf("authentication required")
	}
	text, err := requireText(in.Text, "text", maxCommentLen)
	if err != nil {
		return nil, err
	}

	var comment models.Comment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var article models.Article
		if err := tx.Select("id", "status").Take(&article, in.ArticleID).Error; err != nil {
			return notFoundOr(err, "article")
		}
		if article.Status != models.StatusApproved {
			return apperr.InvalidStatef("cannot comment on an article that is %s", article.Status)
		}

		if in.ParentID != nil {
			var parent models.Comment
			if err := tx.Take(&parent, *in.ParentID).Error; err != nil {
				return notFoundOr(err, "parent comment")
			}
			if parent.ArticleID != in.ArticleID {
				return apperr.InvalidArgumentf("parent comment belongs to another article")
			}
			if parent.ParentID != nil {
				return apperr.InvalidArgumentf("replies cannot be nested more than one level")
			}
			if parent.IsDeleted {
				return apperr.InvalidStatef("cannot reply to a deleted comment")
			}
		}

		comment = models.Comment{
			ArticleID: in.ArticleID,
			UserID:    actor.ID,
			ParentID:  in.ParentID,
			Text:      text,
		}
		if err := tx.Omit(clause.Associations).Create(&comment).Error; err != nil {
			return apperr.Internalf(err, "create comment")
		}
		if err := logActivity(tx, actor.ID, ActivityCommentCreate, comment.ID); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Comment{}).Where("user_id = ?", actor.ID).Count(&count).Error; err != nil {
			return apperr.Internalf(err, "count comments")
		}
		if count == 1 {
			return awardBadge(tx, actor.ID, db.BadgeFirstComment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Thread returns the comments of an article as top-level nodes with nested
// replies, oldest first. Deleted comments stay in place as placeholders.
// The thread of a non-approved article is hidden like the article itself.
func (s *CommentService) Thread(ctx context.Context, viewer *models.User, articleID uint) ([]*CommentNode, error) {
	conn := s.db.WithContext(ctx)
	var article models.Article
	if err := conn.Select("id", "status", "submitted_by").Take(&article, articleID).Error; err != nil {
		return nil, notFoundOr(err, "article")
	}
	if article.Status != models.StatusApproved && !s.guard.CanSeeUnapproved(viewer, article.SubmittedBy) {
		return nil, apperr.NotFoundf("article not found")
	}

	var comments []models.Comment
	err := conn.Preload("User").
		Where("article_id = ?", articleID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, apperr.Internalf(err, "list comments")
	}
	return BuildThread(comments), nil
}

// BuildThread groups replies under their parents, keeping input order.
func BuildThread(comments []models.Comment) []*CommentNode {
	nodes := make(map[uint]*CommentNode, len(comments))
	for _, c := range comments {
		nodes[c.ID] = &CommentNode{Comment: c, Username: c.User.Username, Replies: []*CommentNode{}}
	}

	roots := make([]*CommentNode, 0)
	for _, c := range comments {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

func (s *CommentService) Update(ctx context.Context, actor *models.User, id uint, text string) (*models.Comment, error) {
	if actor == nil {
		return nil, apperr.Unauthenticatedf("authentication required")
	}
	text, err := requireText(text, "text", maxCommentLen)
	if err != nil {
		return nil, err
	}

	var comment models.Comment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&comment, id).Error; err != nil {
			return notFoundOr(err, "comment")
		}
		if err := s.guard.RequireMutate(actor, comment.UserID, "comment"); err != nil {
			return err
		}
		if comment.IsDeleted {
			return apperr.InvalidStatef("cannot edit a deleted comment")
		}
		if err := tx.Model(&comment).Update("text", text).Error; err != nil {
			return apperr.Internalf(err, "update comment")
		}
		comment.Text = text
		return logActivity(tx, actor.ID, ActivityCommentUpdate, comment.ID)
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete soft-deletes: the row stays so replies keep their parent.
// Deleting an already deleted comment succeeds without changes.
func (s *CommentService) Delete(ctx context.Context, actor *models.User, id uint) error {
	if actor == nil {
		return apperr.Unauthenticatedf("authentication required")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&comment, id).Error; err != nil {
			return notFoundOr(err, "comment")
		}
		if err := s.guard.RequireMutate(actor, comment.UserID, "comment"); err != nil {
			return err
		}
		if comment.IsDeleted {
			return nil
		}
		err := tx.Model(&comment).Updates(map[string]interface{}{
			"text":       models.DeletedCommentText,
			"is_deleted": true,
		}).Error
		if err != nil {
			return apperr.Internalf(err, "delete comment")
		}
		return logActivity(tx, actor.ID, ActivityCommentDelete, comment.ID)
	})
}

// ListByUser returns a user's visible comments, newest first.
func (s *CommentService) ListByUser(ctx context.Context, userID uint, p utils.PaginationParams) ([]models.Comment, utils.PaginationResult, error) {
	conn := s.db.WithContext(ctx)

	var total int64
	if err := conn.Model(&models.Comment{}).Where("user_id = ? AND is_deleted = ?", userID, false).Count(&total).Error; err != nil {
		return nil, utils.PaginationResult{}, apperr.Internalf(err, "count comments")
	}

	var comments []models.Comment
	err := conn.Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at DESC, id DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&comments).Error
	if err != nil {
		return nil, utils.PaginationResult{}, apperr.Internalf(err, "list comments")
	}
	return comments, utils.NewPaginationResult(p, total), nil
}
