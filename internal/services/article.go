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

const (
	maxTitleLen       = 255
	maxDescriptionLen = 10000
)

type SubmitInput struct {
	Title       string
	Description string
	URL         string
	Category    string
	Tags        []string
}

// UpdateInput fields left nil are not changed. Tags, when set, replace the
// whole tag set.
type UpdateInput struct {
	Title       *string
	Description *string
	URL         *string
	Category    *string
	Tags        *[]string
}

type ArticleService struct {
	db    *gorm.DB
	guard *Guard
}

func NewArticleService(conn *gorm.DB, guard *Guard) *ArticleService {
	return &ArticleService{db: conn, guard: guard}
}

// Submit stores a new article in pending state together with its category,
// tags, activity entry and first-article badge.
func (s *ArticleService) Submit(ctx context.Context, actor *models.User, in SubmitInput) (*models.Article, error) {
	if actor == nil {
		return nil, apperr.Unauthenticatedf("authentication required")
	}
	title, err := requireText(in.Title, "title", maxTitleLen)
	if err != nil {
		return nil, err
	}
	description, err := requireText(in.Description, "description", maxDescriptionLen)
	if err != nil {
		return nil, err
	}
	link, err := validateURL(in.URL)
	if err != nil {
		return nil, err
	}

	var article models.Article
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := getOrCreateCategory(tx, in.Category)
		if err != nil {
			return err
		}
		tags, err := getOrCreateTags(tx, in.Tags)
		if err != nil {
			return err
		}

		article = models.Article{
			Title:       title,
			Description: description,
			URL:         link,
			CategoryID:  category.ID,
			Status:      models.StatusPending,
			SubmittedBy: actor.ID,
		}
		if err := tx.Omit(clause.Associations).Create(&article).Error; err != nil {
			return apperr.Internalf(err, "create article")
		}
		if err := replaceArticleTags(tx, article.ID, tags); err != nil {
			return err
		}
		if err := logActivity(tx, actor.ID, ActivityArticleSubmit, article.ID); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Article{}).Where("submitted_by = ?", actor.ID).Count(&count).Error; err != nil {
			return apperr.Internalf(err, "count articles")
		}
		if count == 1 {
			if err := awardBadge(tx, actor.ID, db.BadgeFirstArticle); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.db.WithContext(ctx), article.ID)
}

// Get returns one article and counts the view. Articles that are not
// approved are only shown to their owner and to moderators.
func (s *ArticleService) Get(ctx context.Context, viewer *models.User, id uint) (*models.Article, error) {
	conn := s.db.WithContext(ctx)

	var head models.Article
	if err := conn.Select("id", "status", "submitted_by").Take(&head, id).Error; err != nil {
		return nil, notFoundOr(err, "article")
	}
	if head.Status != models.StatusApproved && !s.guard.CanSeeUnapproved(viewer, head.SubmittedBy) {
		return nil, apperr.NotFoundf("article not found")
	}

	if err := conn.Model(&models.Article{}).Where("id = ?", id).UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		return nil, apperr.Internalf(err, "count view")
	}
	return s.load(ctx, conn, id)
}

// Update edits an article. Changing title, description or category of an
// approved article sends it back to pending.
func (s *ArticleService) Update(ctx context.Context, actor *models.User, id uint, in UpdateInput) (*models.Article, error) {
	if actor == nil {
		return nil, apperr.Unauthenticatedf("authentication required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var article models.Article
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&article, id).Error; err != nil {
			return notFoundOr(err, "article")
		}
		if err := s.guard.RequireMutate(actor, article.SubmittedBy, "article"); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		var edited EditedFields

		if in.Title != nil {
			title, err := requireText(*in.Title, "title", maxTitleLen)
			if err != nil {
				return err
			}
			if title != article.Title {
				updates["title"] = title
				edited.Title = true
			}
		}
		if in.Description != nil {
			description, err := requireText(*in.Description, "description", maxDescriptionLen)
			if err != nil {
				return err
			}
			if description != article.Description {
				updates["description"] = description
				edited.Description = true
			}
		}
		if in.URL != nil {
			link, err := validateURL(*in.URL)
			if err != nil {
				return err
			}
			if link != article.URL {
				updates["url"] = link
			}
		}
		if in.Category != nil {
			category, err := getOrCreateCategory(tx, *in.Category)
			if err != nil {
				return err
			}
			if category.ID != article.CategoryID {
				updates["category_id"] = category.ID
				edited.Category = true
			}
		}
		if in.Tags != nil {
			tags, err := getOrCreateTags(tx, *in.Tags)
			if err != nil {
				return err
			}
			if err := replaceArticleTags(tx, article.ID, tags); err != nil {
				return err
			}
		}

		if next := StatusAfterEdit(article.Status, edited); next != article.Status {
			updates["status"] = next
		}
		if len(updates) > 0 {
			if err := tx.Model(&article).Updates(updates).Error; err != nil {
				return apperr.Internalf(err, "update article")
			}
		}
		return logActivity(tx, actor.ID, ActivityArticleUpdate, article.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.db.WithContext(ctx), id)
}

// Delete removes an article with its votes, comments and tag links.
func (s *ArticleService) Delete(ctx context.Context, actor *models.User, id uint) error {
	if actor == nil {
		return apperr.Unauthenticatedf("authentication required")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var article models.Article
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&article, id).Error; err != nil {
			return notFoundOr(err, "article")
		}
		if err := s.guard.RequireMutate(actor, article.SubmittedBy, "article"); err != nil {
			return err
		}

		if err := tx.Where("article_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return apperr.Internalf(err, "delete votes")
		}
		// 先删回复再删顶层评论
		if err := tx.Where("article_id = ? AND parent_id IS NOT NULL", id).Delete(&models.Comment{}).Error; err != nil {
			return apperr.Internalf(err, "delete replies")
		}
		if err := tx.Where("article_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return apperr.Internalf(err, "delete comments")
		}
		if err := tx.Where("article_id = ?", id).Delete(&models.ArticleTag{}).Error; err != nil {
			return apperr.Internalf(err, "delete tag links")
		}
		if err := tx.Delete(&article).Error; err != nil {
			return apperr.Internalf(err, "delete article")
		}
		return logActivity(tx, actor.ID, ActivityArticleDelete, id)
	})
}

// ListByUser returns every article of a user regardless of status, newest first.
func (s *ArticleService) ListByUser(ctx context.Context, userID uint, p utils.PaginationParams) ([]models.Article, utils.PaginationResult, error) {
	conn := s.db.WithContext(ctx)

	var total int64
	if err := conn.Model(&models.Article{}).Where("submitted_by = ?", userID).Count(&total).Error; err != nil {
		return nil, utils.PaginationResult{}, apperr.Internalf(err, "count articles")
	}

	var articles []models.Article
	err := withArticleRelations(conn).
		Where("submitted_by = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&articles).Error
	if err != nil {
		return nil, utils.PaginationResult{}, apperr.Internalf(err, "list articles")
	}
	if err := fillCommentCounts(conn, articles); err != nil {
		return nil, utils.PaginationResult{}, err
	}
	return articles, utils.NewPaginationResult(p, total), nil
}

// URLExists reports whether any article already links to url.
func (s *ArticleService) URLExists(ctx context.Context, url string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Article{}).Where("url = ?", url).Count(&count).Error; err != nil {
		return false, apperr.Internalf(err, "check url")
	}
	return count > 0, nil
}

func (s *ArticleService) load(ctx context.Context, conn *gorm.DB, id uint) (*models.Article, error) {
	var article models.Article
	if err := withArticleRelations(conn).Take(&article, id).Error; err != nil {
		return nil, notFoundOr(err, "article")
	}
	articles := []models.Article{article}
	if err := fillCommentCounts(conn, articles); err != nil {
		return nil, err
	}
	return &articles[0], nil
}

func withArticleRelations(conn *gorm.DB) *gorm.DB {
	return conn.Preload("Category").
		Preload("Tags", func(q *gorm.DB) *gorm.DB { return q.Order("tags.name ASC") }).
		Preload("User")
}

// fillCommentCounts counts visible comments per article in one query.
func fillCommentCounts(conn *gorm.DB, articles []models.Article) error {
	if len(articles) == 0 {
		return nil
	}
	ids := make([]uint, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
	}

	var rows []struct {
		ArticleID uint
		Count     int64
	}
	err := conn.Model(&models.Comment{}).
		Select("article_id, COUNT(*) AS count").
		Where("article_id IN ? AND is_deleted = ?", ids, false).
		Group("article_id").
		Scan(&rows).Error
	if err != nil {
		return apperr.Internalf(err, "count comments")
	}

	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.ArticleID] = r.Count
	}
	for i := range articles {
		articles[i].CommentCount = counts[articles[i].ID]
	}
	return nil
}
