package services

import (
	"fmt"
	"sync"
	"testing"

	"echonews/internal/apperr"
	"echonews/internal/models"
)

func TestCanMutate(t *testing.T) {
	owner := &models.User{ID: 1, Role: models.RoleUser}
	other := &models.User{ID: 2, Role: models.RoleUser}
	admin := &models.User{ID: 3, Role: models.RoleAdmin}

	tests := []struct {
		name  string
		actor *models.User
		want  bool
	}{
		{"owner", owner, true},
		{"other", other, false},
		{"admin", admin, true},
		{"anonymous", nil, false},
	}
	for _, tt := range tests {
		if got := CanMutate(tt.actor, owner.ID); got != tt.want {
			t.Errorf("%s: CanMutate() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGuardCapabilities(t *testing.T) {
	app, _ := setupTestApp(t)
	admin := createUser(t, app, "admin", models.RoleAdmin)
	user := createUser(t, app, "user", models.RoleUser)

	if !app.Guard.Can(admin, ObjFeed, ActImport) || !app.Guard.Can(admin, ObjModerator, ActGrant) {
		t.Error("admin lacks a capability")
	}
	if app.Guard.Can(user, ObjArticle, ActModerate) {
		t.Error("plain user can moderate")
	}
	if err := app.Guard.Require(nil, ObjArticle, ActModerate); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("anonymous Require err = %v", err)
	}
	if err := app.Guard.RequireMutate(nil, user.ID, "article"); !apperr.Is(err, apperr.Unauthenticated) {
		t.Errorf("anonymous RequireMutate err = %v", err)
	}

	// granted moderators cannot grant further
	if err := app.Guard.GrantModerator(admin, user.ID); err != nil {
		t.Fatal(err)
	}
	if !app.Guard.CanModerate(user) || app.Guard.Can(user, ObjModerator, ActGrant) {
		t.Error("moderator capabilities wrong")
	}
}

func TestGuardsShareGrantsThroughDatabase(t *testing.T) {
	app, _ := setupTestApp(t)
	admin := createUser(t, app, "admin", models.RoleAdmin)
	user := createUser(t, app, "user", models.RoleUser)

	other, err := NewGuard(app.DB)
	if err != nil {
		t.Fatal(err)
	}

	if err := app.Guard.GrantModerator(admin, user.ID); err != nil {
		t.Fatal(err)
	}
	if !other.CanModerate(user) {
		t.Error("grant not visible to a second guard")
	}

	if err := other.RevokeModerator(admin, user.ID); err != nil {
		t.Fatal(err)
	}
	if app.Guard.CanModerate(user) {
		t.Error("revoke not visible to the first guard")
	}
}

func TestGuardConcurrentGrantAndCheck(t *testing.T) {
	app, _ := setupTestApp(t)
	admin := createUser(t, app, "admin", models.RoleAdmin)

	const n = 10
	users := make([]*models.User, n)
	for i := range users {
		users[i] = createUser(t, app, fmt.Sprintf("user%d", i), models.RoleUser)
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, u := range users {
		wg.Add(2)
		go func(u *models.User) {
			defer wg.Done()
			if err := app.Guard.GrantModerator(admin, u.ID); err != nil {
				errs <- err
			}
		}(u)
		go func(u *models.User) {
			defer wg.Done()
			app.Guard.CanModerate(u)
		}(u)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("grant: %v", err)
	}

	for _, u := range users {
		if !app.Guard.CanModerate(u) {
			t.Errorf("user %s not a moderator after grant", u.Username)
		}
	}
}
