package services

import (
	"context"
	"testing"

	"echonews/internal/apperr"
	"echonews/internal/db"
	"echonews/internal/models"
	"echonews/internal/utils"
)

func TestCommentThreadNesting(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()
	owner := createUser(t, app, "owner", models.RoleUser)
	reader := createUser(t, app, "reader", models.RoleUser)
	a := approvedArticle(t, app, owner, "Threaded")

	top, err := app.Comments.Create(ctx, reader, CreateCommentInput{ArticleID: a.ID, Text: "Great read"})
	if err != nil {
		t.Fatal(err)
	}
	reply, err := app.Comments.Create(ctx, owner, CreateCommentInput{ArticleID: a.ID, ParentID: &top.ID, Text: "Thanks"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := app.Comments.Create(ctx, reader, CreateCommentInput{ArticleID: a.ID, Text: "Second thought"}); err != nil {
		t.Fatal(err)
	}

	// replies to replies are refused
	_, err = app.Comments.Create(ctx, reader, CreateCommentInput{ArticleID: a.ID, ParentID: &reply.ID, Text: "deeper"})
	if !apperr.Is(err, apperr.InvalidArgument) {
		t.Errorf("nested reply err = %v, want InvalidArgument", err)
	}

	thread, err := app.Comments.Thread(ctx, nil, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(thread) != 2 {
		t.Fatalf("top-level comments = %d, want 2", len(thread))
	}
	if thread[0].ID != top.ID || len(thread[0].Replies) != 1 || thread[0].Replies[0].ID != reply.ID {
		t.Errorf("thread[0] = %+v", thread[0])
	}
	if thread[0].Username != "reader" || thread[0].Replies[0].Username != "owner" {
		t.Errorf("usernames = %q / %q", thread[0].Username, thread[0].Replies[0].Username)
	}
	if len(thread[1].Replies) != 0 {
		t.Errorf("thread[1] replies = %d", len(thread[1].Replies))
	}
}

func TestCreateCommentErrors(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()
	owner := createUser(t, app, "owner", models.RoleUser)
	a := approvedArticle(t, app, owner, "Open")
	b := approvedArticle(t, app, owner, "Other")
	pending := submitArticle(t, app, owner, "Closed")

	onB, err := app.Comments.Create(ctx, owner, CreateCommentInput{ArticleID: b.ID, Text: "on b"})
	if err != nil {
		t.Fatal(err)
	}
	missing := uint(9999)

	tests := []struct {
		name string
		in   CreateCommentInput
		want apperr.Kind
	}{
		{"empty text", CreateCommentInput{ArticleID: a.ID, Text: "   "}, apperr.InvalidArgument},
		{"missing article", CreateCommentInput{ArticleID: 9999, Text: "x"}, apperr.NotFound},
		{"pending article", CreateCommentInput{ArticleID: pending.ID, Text: "x"}, apperr.InvalidState},
		{"missing parent", CreateCommentInput{ArticleID: a.ID, ParentID: &missing, Text: "x"}, apperr.NotFound},
		{"parent on other article", CreateCommentInput{ArticleID: a.ID, ParentID: &onB.ID, Text: "x"}, apperr.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := app.Comments.Create(ctx, owner, tt.in); !apperr.Is(err, tt.want) {
				t.Errorf("err = %v, want %s", err, tt.want)
			}
		})
	}
	if _, err := app.Comments.Create(ctx, nil, CreateCommentInput{ArticleID: a.ID, Text: "x"}); !apperr.Is(err, apperr.Unauthenticated) {
		t.Errorf("anonymous err = %v", err)
	}
}

func TestCommentSoftDelete(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()
	owner := createUser(t, app, "owner", models.RoleUser)
	reader := createUser(t, app, "reader", models.RoleUser)
	a := approvedArticle(t, app, owner, "Deletions")

	top, _ := app.Comments.Create(ctx, reader, CreateCommentInput{ArticleID: a.ID, Text: "to be removed"})
	if _, err := app.Comments.Create(ctx, owner, CreateCommentInput{ArticleID: a.ID, ParentID: &top.ID, Text: "reply"}); err != nil {
		t.Fatal(err)
	}

	if err := app.Comments.Delete(ctx, owner, top.ID); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("delete by non-author err = %v", err)
	}
	if err := app.Comments.Delete(ctx, reader, top.ID); err != nil {
		t.Fatal(err)
	}
	// repeated deletes are a no-op
	if err := app.Comments.Delete(ctx, reader, top.ID); err != nil {
		t.Errorf("second delete err = %v", err)
	}

	thread, err := app.Comments.Thread(ctx, nil, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(thread) != 1 || !thread[0].IsDeleted || thread[0].Text != models.DeletedCommentText {
		t.Fatalf("thread after delete = %+v", thread)
	}
	if len(thread[0].Replies) != 1 {
		t.Errorf("reply lost after parent delete")
	}

	if _, err := app.Comments.Update(ctx, reader, top.ID, "edited"); !apperr.Is(err, apperr.InvalidState) {
		t.Errorf("edit deleted err = %v", err)
	}
	_, err = app.Comments.Create(ctx, owner, CreateCommentInput{ArticleID: a.ID, ParentID: &top.ID, Text: "late reply"})
	if !apperr.Is(err, apperr.InvalidState) {
		t.Errorf("reply to deleted err = %v", err)
	}
}

func TestCommentUpdate(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()
	owner := createUser(t, app, "owner", models.RoleUser)
	other := createUser(t, app, "other", models.RoleUser)
	a := approvedArticle(t, app, owner, "Edits")
	c, _ := app.Comments.Create(ctx, owner, CreateCommentInput{ArticleID: a.ID, Text: "tpyo"})

	if _, err := app.Comments.Update(ctx, other, c.ID, "hijack"); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("update by other err = %v", err)
	}
	got, err := app.Comments.Update(ctx, owner, c.ID, "typo")
	if err != nil || got.Text != "typo" {
		t.Errorf("Update() = %+v, %v", got, err)
	}
}

func TestFirstCommentBadgeAndListByUser(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()
	owner := createUser(t, app, "owner", models.RoleUser)
	a := approvedArticle(t, app, owner, "Badges")

	for _, text := range []string{"one", "two"} {
		if _, err := app.Comments.Create(ctx, owner, CreateCommentInput{ArticleID: a.ID, Text: text}); err != nil {
			t.Fatal(err)
		}
	}

	profile, err := app.Users.Profile(ctx, "owner")
	if err != nil {
		t.Fatal(err)
	}
	var first int
	for _, b := range profile.Badges {
		if b.Badge.Name == db.BadgeFirstComment {
			first++
		}
	}
	if first != 1 {
		t.Errorf("first comment badges = %d, want 1", first)
	}

	p, _ := utils.NewPaginationParams(1, 1)
	comments, page, err := app.Comments.ListByUser(ctx, owner.ID, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 1 || page.Total != 2 || !page.HasNext {
		t.Errorf("ListByUser() = %d comments, %+v", len(comments), page)
	}
}

func TestBuildThreadKeepsOrphansAtTop(t *testing.T) {
	parent := uint(42)
	comments := []models.Comment{
		{ID: 1, Text: "root"},
		{ID: 2, ParentID: &parent, Text: "orphan"},
	}
	thread := BuildThread(comments)
	if len(thread) != 2 {
		t.Errorf("roots = %d, want 2", len(thread))
	}
}

func TestCommentThreadHiddenWhenArticleNotApproved(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()
	owner := createUser(t, app, "owner", models.RoleUser)
	reader := createUser(t, app, "reader", models.RoleUser)
	admin := createUser(t, app, "admin", models.RoleAdmin)
	a := approvedArticle(t, app, owner, "Soon edited")

	if _, err := app.Comments.Create(ctx, reader, CreateCommentInput{ArticleID: a.ID, Text: "first"}); err != nil {
		t.Fatal(err)
	}
	// 修改标题后回到 pending
	if _, err := app.Articles.Update(ctx, owner, a.ID, UpdateInput{Title: strPtr("Edited title")}); err != nil {
		t.Fatal(err)
	}

	for name, viewer := range map[string]*models.User{"anonymous": nil, "reader": reader} {
		if _, err := app.Comments.Thread(ctx, viewer, a.ID); !apperr.Is(err, apperr.NotFound) {
			t.Errorf("%s: Thread() err = %v, want NotFound", name, err)
		}
	}
	for name, viewer := range map[string]*models.User{"owner": owner, "admin": admin} {
		thread, err := app.Comments.Thread(ctx, viewer, a.ID)
		if err != nil || len(thread) != 1 {
			t.Errorf("%s: Thread() = %d comments, %v", name, len(thread), err)
		}
	}
}
