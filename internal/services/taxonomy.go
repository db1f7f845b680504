package services

import (
	"context"

	"echonews/internal/apperr"
	"echonews/internal/models"
	"echonews/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxTagsPerArticle = 10

// getOrCreateCategory relies on the unique index on name: the insert is a
// no-op when another transaction created the row first, and the reselect
// returns whichever row won.
func getOrCreateCategory(tx *gorm.DB, name string) (*models.Category, error) {
	name, err := requireText(name, "category", 100)
	if err != nil {
		return nil, err
	}

	insert := models.Category{Name: name}
	if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).Create(&insert).Error; err != nil {
		return nil, apperr.Internalf(err, "create category")
	}

	var category models.Category
	if err := tx.Where("name = ?", name).Take(&category).Error; err != nil {
		return nil, notFoundOr(err, "category")
	}
	return &category, nil
}

// getOrCreateTags resolves names to tag rows the same way, in one batch.
func getOrCreateTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	names = utils.NormalizeNames(names)
	if len(names) == 0 {
		return nil, nil
	}
	if len(names) > maxTagsPerArticle {
		return nil, apperr.InvalidArgumentf("at most %d tags are allowed", maxTagsPerArticle)
	}

	inserts := make([]models.Tag, 0, len(names))
	for _, n := range names {
		n, err := requireText(n, "tag", 100)
		if err != nil {
			return nil, err
		}
		inserts = append(inserts, models.Tag{Name: n})
	}
	if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).Create(&inserts).Error; err != nil {
		return nil, apperr.Internalf(err, "create tags")
	}

	var tags []models.Tag
	if err := tx.Where("name IN ?", names).Find(&tags).Error; err != nil {
		return nil, apperr.Internalf(err, "load tags")
	}
	return tags, nil
}

// replaceArticleTags rewrites the article_tags rows for one article.
func replaceArticleTags(tx *gorm.DB, articleID uint, tags []models.Tag) error {
	if err := tx.Where("article_id = ?", articleID).Delete(&models.ArticleTag{}).Error; err != nil {
		return apperr.Internalf(err, "clear article tags")
	}
	if len(tags) == 0 {
		return nil
	}
	links := make([]models.ArticleTag, 0, len(tags))
	for _, t := range tags {
		links = append(links, models.ArticleTag{ArticleID: articleID, TagID: t.ID})
	}
	if err := tx.Create(&links).Error; err != nil {
		return apperr.Internalf(err, "link article tags")
	}
	return nil
}

// TaxonomyCount is a category or tag with the number of approved articles using it.
type TaxonomyCount struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	ArticleCount int64  `json:"article_count"`
}

type TaxonomyService struct {
	db *gorm.DB
}

func NewTaxonomyService(conn *gorm.DB) *TaxonomyService {
	return &TaxonomyService{db: conn}
}

func (s *TaxonomyService) Categories(ctx context.Context) ([]TaxonomyCount, error) {
	var out []TaxonomyCount
	err := s.db.WithContext(ctx).
		Table("categories").
		Select("categories.id, categories.name, COUNT(articles.id) AS article_count").
		Joins("LEFT JOIN articles ON articles.category_id = categories.id AND articles.status = ?", models.StatusApproved).
		Group("categories.id, categories.name").
		Order("categories.name ASC").
		Scan(&out).Error
	if err != nil {
		return nil, apperr.Internalf(err, "list categories")
	}
	return out, nil
}

// Tags returns the most used tags first.
func (s *TaxonomyService) Tags(ctx context.Context, limit int) ([]TaxonomyCount, error) {
	var out []TaxonomyCount
	err := s.db.WithContext(ctx).
		Table("tags").
		Select("tags.id, tags.name, COUNT(articles.id) AS article_count").
		Joins("LEFT JOIN article_tags ON article_tags.tag_id = tags.id").
		Joins("LEFT JOIN articles ON articles.id = article_tags.article_id AND articles.status = ?", models.StatusApproved).
		Group("tags.id, tags.name").
		Order("article_count DESC, tags.name ASC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, apperr.Internalf(err, "list tags")
	}
	return out, nil
}
