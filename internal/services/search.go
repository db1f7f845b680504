package services

import (
	"context"
	"strings"

	"echonews/internal/apperr"
	"echonews/internal/models"

	"gorm.io/gorm"
)

type SearchType string

const (
	SearchArticles SearchType = "articles"
	SearchUsers    SearchType = "users"
	SearchComments SearchType = "comments"
	SearchAll      SearchType = "all"
)

type SearchResult struct {
	Query    string           `json:"query"`
	Articles []models.Article `json:"articles,omitempty"`
	Users    []models.User    `json:"users,omitempty"`
	Comments []models.Comment `json:"comments,omitempty"`
}

type SearchService struct {
	db *gorm.DB
}

func NewSearchService(conn *gorm.DB) *SearchService {
	return &SearchService{db: conn}
}

// likePattern escapes LIKE wildcards and wraps q for a substring match.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(q)) + "%"
}

// Search does a case-insensitive substring match. Only approved articles and
// comments on them are searched.
func (s *SearchService) Search(ctx context.Context, q string, typ string, limit int) (*SearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperr.InvalidArgumentf("query is required")
	}
	if limit < 1 || limit > 100 {
		return nil, apperr.InvalidArgumentf("limit must be between 1 and 100")
	}
	st := SearchType(typ)
	if typ == "" {
		st = SearchAll
	}
	switch st {
	case SearchArticles, SearchUsers, SearchComments, SearchAll:
	default:
		return nil, apperr.InvalidArgumentf("invalid search type %q", typ)
	}

	conn := s.db.WithContext(ctx)
	pattern := likePattern(q)
	result := &SearchResult{Query: q}

	if st == SearchArticles || st == SearchAll {
		err := withArticleRelations(conn).
			Where("articles.status = ?", models.StatusApproved).
			Where(`(LOWER(articles.title) LIKE ? ESCAPE '\' OR LOWER(articles.description) LIKE ? ESCAPE '\')`, pattern, pattern).
			Order("(articles.upvotes - articles.downvotes) DESC, articles.created_at DESC, articles.id DESC").
			Limit(limit).
			Find(&result.Articles).Error
		if err != nil {
			return nil, apperr.Internalf(err, "search articles")
		}
	}
	if st == SearchUsers || st == SearchAll {
		err := conn.Omit("email").
			Where(`(LOWER(username) LIKE ? ESCAPE '\' OR LOWER(display_name) LIKE ? ESCAPE '\')`, pattern, pattern).
			Order("reputation DESC, id ASC").
			Limit(limit).
			Find(&result.Users).Error
		if err != nil {
			return nil, apperr.Internalf(err, "search users")
		}
	}
	if st == SearchComments || st == SearchAll {
		err := conn.Joins("JOIN articles ON articles.id = comments.article_id").
			Where("comments.is_deleted = ? AND articles.status = ?", false, models.StatusApproved).
			Where(`LOWER(comments.text) LIKE ? ESCAPE '\'`, pattern).
			Order("comments.created_at DESC, comments.id DESC").
			Limit(limit).
			Find(&result.Comments).Error
		if err != nil {
			return nil, apperr.Internalf(err, "search comments")
		}
	}
	return result, nil
}
