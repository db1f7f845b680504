package services

import (
	"context"
	"testing"
	"time"

	"echonews/internal/apperr"
	"echonews/internal/models"
	"echonews/internal/utils"
)

func setCreatedAt(t *testing.T, app *App, id uint, at time.Time) {
	t.Helper()
	if err := app.DB.Model(&models.Article{}).Where("id = ?", id).UpdateColumn("created_at", at).Error; err != nil {
		t.Fatal(err)
	}
}

func setCounters(t *testing.T, app *App, id uint, up, down, views int) {
	t.Helper()
	err := app.DB.Model(&models.Article{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"upvotes": up, "downvotes": down, "views": views,
	}).Error
	if err != nil {
		t.Fatal(err)
	}
}

func articleIDs(page *ArticlePage) []uint {
	ids := make([]uint, len(page.Articles))
	for i, a := range page.Articles {
		ids[i] = a.ID
	}
	return ids
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func firstPage(q ListQuery) ListQuery {
	q.Page, q.Limit = 1, utils.DefaultPageSize
	return q
}

func TestListSortOrders(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()
	owner := createUser(t, app, "owner", models.RoleUser)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	app.Ranking.now = func() time.Time { return now }

	old := approvedArticle(t, app, owner, "Old but loved")
	mid := approvedArticle(t, app, owner, "Middle")
	fresh := approvedArticle(t, app, owner, "Fresh")
	setCreatedAt(t, app, old.ID, now.Add(-48*time.Hour))
	setCreatedAt(t, app, mid.ID, now.Add(-10*time.Hour))
	setCreatedAt(t, app, fresh.ID, now.Add(-1*time.Hour))
	setCounters(t, app, old.ID, 10, 0, 5)
	setCounters(t, app, mid.ID, 3, 1, 50)
	setCounters(t, app, fresh.ID, 2, 0, 1)

	tests := []struct {
		sort string
		mode string
		want []uint
	}{
		{"newest", "", []uint{fresh.ID, mid.ID, old.ID}},
		{"new", "", []uint{fresh.ID, mid.ID, old.ID}},
		// mid and fresh tie on score 2, the newer id wins
		{"most_voted", "", []uint{old.ID, fresh.ID, mid.ID}},
		// mid and fresh tie on score 2, mid has more views
		{"trending", "simple", []uint{old.ID, mid.ID, fresh.ID}},
		// decayed: 10/48, 2/10, 2/1
		{"trending", "decayed", []uint{fresh.ID, old.ID, mid.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.sort+"/"+tt.mode, func(t *testing.T) {
			page, err := app.Ranking.List(ctx, nil, firstPage(ListQuery{Sort: tt.sort, Mode: tt.mode}))
			if err != nil {
				t.Fatal(err)
			}
			if got := articleIDs(page); !equalIDs(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListDecayedPutsFeaturedFirst(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()
	owner := createUser(t, app, "owner", models.RoleUser)
	admin := createUser(t, app, "admin", models.RoleAdmin)

	popular := approvedArticle(t, app, owner, "Popular")
	quiet := approvedArticle(t, app, owner, "Quiet")
	setCounters(t, app, popular.ID, 20, 0, 0)
	if _, err := app.Moderation.ToggleFeatured(ctx, admin, quiet.ID); err != nil {
		t.Fatal(err)
	}

	page, err := app.Ranking.List(ctx, nil, ListQuery{Mode: "decayed", Page: 1, Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Articles) != 1 || page.Articles[0].ID != quiet.ID {
		t.Errorf("first page = %v, want featured article", articleIDs(page))
	}
	if page.Pagination.Total != 2 || !page.Pagination.HasNext {
		t.Errorf("pagination = %+v", page.Pagination)
	}

	page, _ = app.Ranking.List(ctx, nil, ListQuery{Mode: "decayed", Page: 2, Limit: 1})
	if len(page.Articles) != 1 || page.Articles[0].ID != popular.ID {
		t.Errorf("second page = %v", articleIDs(page))
	}
	page, _ = app.Ranking.List(ctx, nil, ListQuery{Mode: "decayed", Page: 5, Limit: 1})
	if len(page.Articles) != 0 {
		t.Errorf("page past the end = %v", articleIDs(page))
	}
}

func TestListFilters(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()
	owner := createUser(t, app, "owner", models.RoleUser)
	now := time.Now()

	goPost := approvedArticle(t, app, owner, "Go generics", "go")
	rustPost := approvedArticle(t, app, owner, "Rust traits", "rust")
	oldPost := approvedArticle(t, app, owner, "Ancient go", "go")
	setCreatedAt(t, app, oldPost.ID, now.Add(-40*24*time.Hour))
	submitArticle(t, app, owner, "Not approved yet", "go")

	science, err := app.Articles.Update(ctx, owner, rustPost.ID, UpdateInput{Category: strPtr("Science")})
	if err != nil {
		t.Fatal(err)
	}
	approve(t, app, science)

	tests := []struct {
		name  string
		query ListQuery
		want  int64
	}{
		{"all approved", ListQuery{}, 3},
		{"tag", ListQuery{Tag: "go"}, 2},
		{"tag and week", ListQuery{Tag: "go", Timeframe: "week"}, 1},
		{"month", ListQuery{Timeframe: "month"}, 2},
		{"category", ListQuery{Category: "Science"}, 1},
		{"unknown tag", ListQuery{Tag: "cobol"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := app.Ranking.List(ctx, nil, firstPage(tt.query))
			if err != nil {
				t.Fatal(err)
			}
			if page.Pagination.Total != tt.want || int64(len(page.Articles)) != tt.want {
				t.Errorf("total = %d, len = %d, want %d", page.Pagination.Total, len(page.Articles), tt.want)
			}
		})
	}

	page, _ := app.Ranking.List(ctx, nil, firstPage(ListQuery{Tag: "go", Timeframe: "week"}))
	if len(page.Articles) == 1 && page.Articles[0].ID != goPost.ID {
		t.Errorf("week filter returned %d", page.Articles[0].ID)
	}
}

func TestListNonApprovedStatus(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()
	alice := createUser(t, app, "alice", models.RoleUser)
	bob := createUser(t, app, "bob", models.RoleUser)
	admin := createUser(t, app, "admin", models.RoleAdmin)
	submitArticle(t, app, alice, "Alice pending")
	submitArticle(t, app, bob, "Bob pending")

	if _, err := app.Ranking.List(ctx, nil, firstPage(ListQuery{Status: "pending"})); !apperr.Is(err, apperr.Unauthenticated) {
		t.Errorf("anonymous pending list err = %v", err)
	}

	page, err := app.Ranking.List(ctx, alice, firstPage(ListQuery{Status: "pending"}))
	if err != nil {
		t.Fatal(err)
	}
	if page.Pagination.Total != 1 || page.Articles[0].SubmittedBy != alice.ID {
		t.Errorf("alice sees %d pending articles", page.Pagination.Total)
	}

	page, err = app.Ranking.List(ctx, admin, firstPage(ListQuery{Status: "pending"}))
	if err != nil {
		t.Fatal(err)
	}
	if page.Pagination.Total != 2 {
		t.Errorf("admin sees %d pending articles, want 2", page.Pagination.Total)
	}
}

func TestListRejectsBadParameters(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()

	for name, q := range map[string]ListQuery{
		"sort":       firstPage(ListQuery{Sort: "random"}),
		"mode":       firstPage(ListQuery{Mode: "viral"}),
		"status":     firstPage(ListQuery{Status: "archived"}),
		"timeframe":  firstPage(ListQuery{Timeframe: "decade"}),
		"page":       {Page: -1, Limit: 10},
		"zero page":  {Page: 0, Limit: 10},
		"limit":      {Page: 1, Limit: 500},
		"zero limit": {Page: 1, Limit: 0},
	} {
		if _, err := app.Ranking.List(ctx, nil, q); !apperr.Is(err, apperr.InvalidArgument) {
			t.Errorf("%s: err = %v, want InvalidArgument", name, err)
		}
	}
}

func TestListIncludesCommentCount(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()
	owner := createUser(t, app, "owner", models.RoleUser)
	a := approvedArticle(t, app, owner, "Discussed")

	c, err := app.Comments.Create(ctx, owner, CreateCommentInput{ArticleID: a.ID, Text: "one"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := app.Comments.Create(ctx, owner, CreateCommentInput{ArticleID: a.ID, Text: "two"}); err != nil {
		t.Fatal(err)
	}
	if err := app.Comments.Delete(ctx, owner, c.ID); err != nil {
		t.Fatal(err)
	}

	page, err := app.Ranking.List(ctx, nil, firstPage(ListQuery{Sort: string(utils.SortNewest)}))
	if err != nil {
		t.Fatal(err)
	}
	if page.Articles[0].CommentCount != 1 {
		t.Errorf("comment_count = %d, want 1", page.Articles[0].CommentCount)
	}
}
