package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"echonews/internal/db"
	"echonews/internal/models"
	"echonews/internal/utils"
)

// recordingDispatcher keeps every dispatched event.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []NotificationEvent
}

func (r *recordingDispatcher) Dispatch(_ context.Context, ev NotificationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingDispatcher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func setupTestApp(t *testing.T) (*App, *recordingDispatcher) {
	t.Helper()
	conn := db.OpenTest(t)
	rec := &recordingDispatcher{}
	app, err := NewApp(conn, Options{
		JWTSecret:   "test-secret",
		TokenTTL:    time.Hour,
		RankingMode: utils.ModeSimple,
		Dispatcher:  rec,
	})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	return app, rec
}

func createUser(t *testing.T, app *App, username, role string) *models.User {
	t.Helper()
	u := models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "x",
		Role:     role,
	}
	if err := app.DB.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return &u
}

func submitArticle(t *testing.T, app *App, owner *models.User, title string, tags ...string) *models.Article {
	t.Helper()
	a, err := app.Articles.Submit(context.Background(), owner, SubmitInput{
		Title:       title,
		Description: "About " + title,
		URL:         "https://example.com/" + fmt.Sprint(time.Now().UnixNano()),
		Category:    "Technology",
		Tags:        tags,
	})
	if err != nil {
		t.Fatalf("Submit(%q) error = %v", title, err)
	}
	return a
}

func approve(t *testing.T, app *App, a *models.Article) {
	t.Helper()
	if err := app.DB.Model(&models.Article{}).Where("id = ?", a.ID).Update("status", models.StatusApproved).Error; err != nil {
		t.Fatalf("approve article %d: %v", a.ID, err)
	}
	a.Status = models.StatusApproved
}

func approvedArticle(t *testing.T, app *App, owner *models.User, title string, tags ...string) *models.Article {
	t.Helper()
	a := submitArticle(t, app, owner, title, tags...)
	approve(t, app, a)
	return a
}

func reloadArticle(t *testing.T, app *App, id uint) models.Article {
	t.Helper()
	var a models.Article
	if err := app.DB.Take(&a, id).Error; err != nil {
		t.Fatalf("reload article %d: %v", id, err)
	}
	return a
}

func countRows(t *testing.T, app *App, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := app.DB.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func mustPage(t *testing.T, page, limit int) utils.PaginationParams {
	t.Helper()
	p, err := utils.NewPaginationParams(page, limit)
	if err != nil {
		t.Fatal(err)
	}
	return p
}
