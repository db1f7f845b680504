package services

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"echonews/internal/apperr"
	"echonews/internal/models"
	"echonews/internal/utils"

	"github.com/mmcdole/gofeed"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const importDescriptionLen = 1000

type ImportResult struct {
	FeedTitle string `json:"feed_title"`
	Imported  int    `json:"imported"`
	Skipped   int    `json:"skipped"`
}

// FeedImporter submits the items of an RSS/Atom feed as pending articles.
type FeedImporter struct {
	db       *gorm.DB
	guard    *Guard
	articles *ArticleService
	crawler  *CrawlerService
	parser   *gofeed.Parser
	timeout  time.Duration
}

func NewFeedImporter(conn *gorm.DB, guard *Guard, articles *ArticleService, timeout time.Duration) *FeedImporter {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}

	return &FeedImporter{
		db:       conn,
		guard:    guard,
		articles: articles,
		crawler:  NewCrawlerService(timeout),
		parser:   parser,
		timeout:  timeout,
	}
}

// Import parses feedURL and submits each new item under category, owned by
// actor. Items without a link, or whose link is already submitted, are skipped.
func (f *FeedImporter) Import(ctx context.Context, actor *models.User, feedURL, category string) (*ImportResult, error) {
	if err := f.guard.Require(actor, ObjFeed, ActImport); err != nil {
		return nil, err
	}
	feedURL, err := validateURL(feedURL)
	if err != nil {
		return nil, err
	}
	if feedURL == "" {
		return nil, apperr.InvalidArgumentf("feed_url is required")
	}
	if strings.TrimSpace(category) == "" {
		return nil, apperr.InvalidArgumentf("category is required")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	feed, err := f.parser.ParseURLWithContext(feedURL, fetchCtx)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidArgument, err, "could not read feed")
	}

	if err := f.recordFeed(ctx, feedURL, feed.Title); err != nil {
		return nil, err
	}

	result := &ImportResult{FeedTitle: feed.Title}
	for _, item := range feed.Items {
		ok, err := f.importItem(ctx, actor, item, category)
		if err != nil {
			if apperr.KindOf(err) == apperr.Internal {
				return result, err
			}
			slog.Warn("skipping feed item", "feed", feedURL, "link", item.Link, "error", err)
		}
		if ok {
			result.Imported++
		} else {
			result.Skipped++
		}
	}
	slog.Info("feed imported", "feed", feedURL, "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}

func (f *FeedImporter) importItem(ctx context.Context, actor *models.User, item *gofeed.Item, category string) (bool, error) {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return false, nil
	}
	exists, err := f.articles.URLExists(ctx, link)
	if err != nil || exists {
		return false, err
	}

	title := strings.TrimSpace(utils.StripHTML(item.Title))
	description := strings.TrimSpace(utils.StripHTML(item.Description))
	if description == "" {
		description = f.crawler.FetchWithFallback(ctx, link)
	}
	if description == "" {
		description = title
	}

	tags := utils.NormalizeNames(item.Categories)
	if len(tags) > maxTagsPerArticle {
		tags = tags[:maxTagsPerArticle]
	}

	_, err = f.articles.Submit(ctx, actor, SubmitInput{
		Title:       truncateRunes(title, maxTitleLen),
		Description: truncateRunes(description, importDescriptionLen),
		URL:         link,
		Category:    category,
		Tags:        tags,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (f *FeedImporter) recordFeed(ctx context.Context, feedURL, title string) error {
	now := time.Now()
	if title == "" {
		title = feedURL
	}
	feed := models.Feed{URL: feedURL, Title: title, LastFetchAt: &now}
	err := f.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "last_fetch_at", "updated_at"}),
	}).Create(&feed).Error
	if err != nil {
		return apperr.Internalf(err, "record feed")
	}
	return nil
}
