package services

import (
	"context"
	"testing"

	"echonews/internal/apperr"
	"echonews/internal/models"
)

func TestSearch(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()
	owner := createUser(t, app, "gopher", models.RoleUser)
	a := approvedArticle(t, app, owner, "Gophers in space")
	submitArticle(t, app, owner, "Gophers pending")
	approvedArticle(t, app, owner, "100% coverage")
	if _, err := app.Comments.Create(ctx, owner, CreateCommentInput{ArticleID: a.ID, Text: "Go gophers go"}); err != nil {
		t.Fatal(err)
	}

	res, err := app.Search.Search(ctx, "GOPHER", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Articles) != 1 || res.Articles[0].ID != a.ID {
		t.Errorf("articles = %d", len(res.Articles))
	}
	if len(res.Users) != 1 || res.Users[0].Email != "" {
		t.Errorf("users = %+v", res.Users)
	}
	if len(res.Comments) != 1 {
		t.Errorf("comments = %d", len(res.Comments))
	}

	res, err = app.Search.Search(ctx, "gopher", "users", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Articles) != 0 || len(res.Users) != 1 {
		t.Errorf("users-only search = %+v", res)
	}

	// wildcards are matched literally
	res, _ = app.Search.Search(ctx, "%", "articles", 10)
	if len(res.Articles) != 1 {
		t.Errorf("percent search = %d articles, want 1", len(res.Articles))
	}
}

func TestSearchValidation(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()

	for name, call := range map[string]func() error{
		"empty":    func() error { _, err := app.Search.Search(ctx, "  ", "", 10); return err },
		"type":     func() error { _, err := app.Search.Search(ctx, "go", "videos", 10); return err },
		"limit":    func() error { _, err := app.Search.Search(ctx, "go", "", 0); return err },
		"too many": func() error { _, err := app.Search.Search(ctx, "go", "", 101); return err },
	} {
		if err := call(); !apperr.Is(err, apperr.InvalidArgument) {
			t.Errorf("%s: err = %v", name, err)
		}
	}
}
