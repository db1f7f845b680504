package services

import (
	"context"
	"time"

	"echonews/internal/apperr"
	"echonews/internal/models"
	"echonews/internal/utils"

	"gorm.io/gorm"
)

// Filter is one typed predicate of an article list query.
type Filter interface {
	Apply(q *gorm.DB) *gorm.DB
}

type CategoryFilter struct{ Name string }

func (f CategoryFilter) Apply(q *gorm.DB) *gorm.DB {
	return q.Where("articles.category_id IN (SELECT categories.id FROM categories WHERE categories.name = ?)", f.Name)
}

type TagFilter struct{ Name string }

func (f TagFilter) Apply(q *gorm.DB) *gorm.DB {
	return q.Where("articles.id IN (SELECT article_tags.article_id FROM article_tags JOIN tags ON tags.id = article_tags.tag_id WHERE tags.name = ?)", f.Name)
}

// TimeframeFilter keeps articles created at or after Since.
type TimeframeFilter struct{ Since time.Time }

func (f TimeframeFilter) Apply(q *gorm.DB) *gorm.DB {
	return q.Where("articles.created_at >= ?", f.Since)
}

type StatusFilter struct{ Status models.ArticleStatus }

func (f StatusFilter) Apply(q *gorm.DB) *gorm.DB {
	return q.Where("articles.status = ?", f.Status)
}

// OwnerFilter restricts to one submitter.
type OwnerFilter struct{ UserID uint }

func (f OwnerFilter) Apply(q *gorm.DB) *gorm.DB {
	return q.Where("articles.submitted_by = ?", f.UserID)
}

// ParseTimeframe maps day|today|week|month to a lookback window.
func ParseTimeframe(s string) (time.Duration, bool) {
	switch s {
	case "day", "today":
		return 24 * time.Hour, true
	case "week":
		return 7 * 24 * time.Hour, true
	case "month":
		return 30 * 24 * time.Hour, true
	}
	return 0, false
}

// ListQuery is the parsed form of GET /articles.
type ListQuery struct {
	Category  string
	Tag       string
	Timeframe string
	Status    string
	Sort      string
	Mode      string
	Page      int
	Limit     int
}

type ArticlePage struct {
	Articles   []models.Article       `json:"articles"`
	Pagination utils.PaginationResult `json:"pagination"`
	Sort       utils.SortOrder        `json:"sort"`
	Mode       utils.TrendingMode     `json:"mode,omitempty"`
}

// RankingService answers list queries: filter, count, order, paginate.
type RankingService struct {
	db          *gorm.DB
	guard       *Guard
	defaultMode utils.TrendingMode
	now         func() time.Time
}

func NewRankingService(conn *gorm.DB, guard *Guard, defaultMode utils.TrendingMode) *RankingService {
	if defaultMode == "" {
		defaultMode = utils.ModeSimple
	}
	return &RankingService{db: conn, guard: guard, defaultMode: defaultMode, now: time.Now}
}

// BuildFilters turns a list query into predicates. Listing anything other
// than approved articles needs a caller; moderators see every submitter,
// everyone else only themselves.
func (s *RankingService) BuildFilters(viewer *models.User, q ListQuery, now time.Time) ([]Filter, error) {
	status := models.StatusApproved
	if q.Status != "" {
		status = models.ArticleStatus(q.Status)
		if !status.Valid() {
			return nil, apperr.InvalidArgumentf("invalid status %q", q.Status)
		}
	}

	filters := []Filter{StatusFilter{Status: status}}
	if status != models.StatusApproved {
		if viewer == nil {
			return nil, apperr.Unauthenticatedf("listing %s articles requires authentication", status)
		}
		if !s.guard.CanModerate(viewer) {
			filters = append(filters, OwnerFilter{UserID: viewer.ID})
		}
	}
	if q.Category != "" {
		filters = append(filters, CategoryFilter{Name: q.Category})
	}
	if q.Tag != "" {
		filters = append(filters, TagFilter{Name: q.Tag})
	}
	if q.Timeframe != "" {
		window, ok := ParseTimeframe(q.Timeframe)
		if !ok {
			return nil, apperr.InvalidArgumentf("invalid timeframe %q: must be day, week or month", q.Timeframe)
		}
		filters = append(filters, TimeframeFilter{Since: now.Add(-window)})
	}
	return filters, nil
}

func (s *RankingService) List(ctx context.Context, viewer *models.User, q ListQuery) (*ArticlePage, error) {
	order, ok := utils.ParseSortOrder(q.Sort)
	if !ok {
		return nil, apperr.InvalidArgumentf("invalid sort %q", q.Sort)
	}
	mode := s.defaultMode
	if q.Mode != "" {
		if mode, ok = utils.ParseTrendingMode(q.Mode); !ok {
			return nil, apperr.InvalidArgumentf("invalid mode %q: must be simple or decayed", q.Mode)
		}
	}
	page, err := utils.NewPaginationParams(q.Page, q.Limit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	filters, err := s.BuildFilters(viewer, q, now)
	if err != nil {
		return nil, err
	}

	conn := s.db.WithContext(ctx)
	base := conn.Model(&models.Article{})
	for _, f := range filters {
		base = f.Apply(base)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, apperr.Internalf(err, "count articles")
	}

	var articles []models.Article
	if order == utils.SortTrending && mode == utils.ModeDecayed {
		articles, err = s.pageDecayed(conn, base, page, now)
	} else {
		err = withArticleRelations(base).
			Order(orderClause(order)).
			Offset(page.Offset).Limit(page.Limit).
			Find(&articles).Error
	}
	if err != nil {
		return nil, apperr.Internalf(err, "list articles")
	}
	if err := fillCommentCounts(conn, articles); err != nil {
		return nil, err
	}

	result := &ArticlePage{
		Articles:   articles,
		Pagination: utils.NewPaginationResult(page, total),
		Sort:       order,
	}
	if order == utils.SortTrending {
		result.Mode = mode
	}
	return result, nil
}

func orderClause(order utils.SortOrder) string {
	switch order {
	case utils.SortNewest:
		return "articles.created_at DESC, articles.id DESC"
	case utils.SortMostVoted:
		return "(articles.upvotes - articles.downvotes) DESC, articles.id DESC"
	}
	return "(articles.upvotes - articles.downvotes) DESC, articles.views DESC, articles.created_at DESC, articles.id DESC"
}

// pageDecayed ranks the matching rows with the decayed formula in memory,
// since the hours-since-creation term has no portable SQL form, then loads
// the requested page.
func (s *RankingService) pageDecayed(conn, base *gorm.DB, page utils.PaginationParams, now time.Time) ([]models.Article, error) {
	var items []utils.RankItem
	err := base.Select("articles.id, articles.upvotes, articles.downvotes, articles.views, articles.is_featured, articles.created_at").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	utils.Rank(items, utils.SortTrending, utils.ModeDecayed, now)

	if page.Offset >= len(items) {
		return []models.Article{}, nil
	}
	end := page.Offset + page.Limit
	if end > len(items) {
		end = len(items)
	}
	window := items[page.Offset:end]

	ids := make([]uint, len(window))
	for i, it := range window {
		ids[i] = it.ID
	}
	var rows []models.Article
	if err := withArticleRelations(conn).Where("articles.id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Article, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	ordered := make([]models.Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			ordered = append(ordered, a)
		}
	}
	return ordered, nil
}
