package services

import (
	"context"
	"testing"

	"echonews/internal/apperr"
	"echonews/internal/models"
)

func TestNotificationInbox(t *testing.T) {
	app, _ := setupTestApp(t)
	ctx := context.Background()
	owner := createUser(t, app, "owner", models.RoleUser)
	stranger := createUser(t, app, "stranger", models.RoleUser)
	a := approvedArticle(t, app, owner, "Inbox")

	for _, name := range []string{"v1", "v2"} {
		v := createUser(t, app, name, models.RoleUser)
		if _, err := app.Votes.CastVote(ctx, v, a.ID, "upvote"); err != nil {
			t.Fatal(err)
		}
	}

	items, page, err := app.Notifications.List(ctx, owner.ID, mustPage(t, 1, 10))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || page.Total != 2 {
		t.Fatalf("List() = %d items", len(items))
	}
	if n, _ := app.Notifications.UnreadCount(ctx, owner.ID); n != 2 {
		t.Errorf("unread = %d, want 2", n)
	}

	if err := app.Notifications.MarkRead(ctx, stranger.ID, items[0].ID); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("MarkRead by stranger err = %v", err)
	}
	if err := app.Notifications.MarkRead(ctx, owner.ID, items[0].ID); err != nil {
		t.Fatal(err)
	}
	if n, _ := app.Notifications.UnreadCount(ctx, owner.ID); n != 1 {
		t.Errorf("unread after MarkRead = %d, want 1", n)
	}

	marked, err := app.Notifications.MarkAllRead(ctx, owner.ID)
	if err != nil || marked != 1 {
		t.Errorf("MarkAllRead() = %d, %v", marked, err)
	}

	if err := app.Notifications.Delete(ctx, stranger.ID, items[1].ID); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("Delete by stranger err = %v", err)
	}
	if err := app.Notifications.Delete(ctx, owner.ID, items[1].ID); err != nil {
		t.Fatal(err)
	}
	if n := countRows(t, app, &models.Notification{}, "user_id = ?", owner.ID); n != 1 {
		t.Errorf("remaining notifications = %d", n)
	}
}

func TestNotifyCarriesEmailPreference(t *testing.T) {
	app, rec := setupTestApp(t)
	ctx := context.Background()
	owner, err := app.Users.Register(ctx, RegisterInput{Username: "owner", Email: "owner@example.com", Password: "password1"})
	if err != nil {
		t.Fatal(err)
	}
	voter := createUser(t, app, "voter", models.RoleUser)
	a := approvedArticle(t, app, owner, "Mail me")

	if _, err := app.Votes.CastVote(ctx, voter, a.ID, "upvote"); err != nil {
		t.Fatal(err)
	}
	off := false
	if _, err := app.Users.UpdatePreferences(ctx, owner.ID, PreferencesInput{EmailNotifications: &off}); err != nil {
		t.Fatal(err)
	}
	if _, err := app.Votes.CastVote(ctx, voter, a.ID, "none"); err != nil {
		t.Fatal(err)
	}
	if _, err := app.Votes.CastVote(ctx, voter, a.ID, "upvote"); err != nil {
		t.Fatal(err)
	}

	if rec.count() != 2 {
		t.Fatalf("events = %d, want 2", rec.count())
	}
	first, second := rec.events[0], rec.events[1]
	if !first.EmailOptIn || first.RecipientEmail != "owner@example.com" {
		t.Errorf("first event = %+v", first)
	}
	if second.EmailOptIn {
		t.Error("second event ignores the opt-out")
	}
}

func TestMultiDispatcherFansOut(t *testing.T) {
	a, b := &recordingDispatcher{}, &recordingDispatcher{}
	MultiDispatcher{a, NopDispatcher{}, b}.Dispatch(context.Background(), NotificationEvent{NotificationID: 1})
	if a.count() != 1 || b.count() != 1 {
		t.Errorf("counts = %d, %d", a.count(), b.count())
	}
}
