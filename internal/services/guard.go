package services

import (
	"fmt"
	"log/slog"

	"echonews/internal/apperr"
	"echonews/internal/models"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

// 权限对象与动作
const (
	ObjArticle   = "article"
	ObjFeed      = "feed"
	ObjModerator = "moderator"

	ActModerate = "moderate"
	ActFeature  = "feature"
	ActImport   = "import"
	ActGrant    = "grant"

	RoleModerator = "moderator"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

var defaultPolicies = [][]string{
	{models.RoleAdmin, ObjArticle, ActModerate},
	{models.RoleAdmin, ObjArticle, ActFeature},
	{models.RoleAdmin, ObjFeed, ActImport},
	{models.RoleAdmin, ObjModerator, ActGrant},
	{RoleModerator, ObjArticle, ActModerate},
	{RoleModerator, ObjArticle, ActFeature},
	{RoleModerator, ObjFeed, ActImport},
}

// CanMutate reports whether actor may change a resource owned by ownerID.
func CanMutate(actor *models.User, ownerID uint) bool {
	if actor == nil {
		return false
	}
	return actor.ID == ownerID || actor.Role == models.RoleAdmin
}

// Guard answers ownership and capability questions for mutation paths.
// Ownership is a plain comparison; capabilities (moderation, featuring,
// feed import) come from casbin policies stored next to the data.
// casbin_rule is the source of truth and is reloaded on every check.
type Guard struct {
	enforcer *casbin.SyncedEnforcer
}

func NewGuard(conn *gorm.DB) (*Guard, error) {
	adapter, err := gormadapter.NewAdapterByDB(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	for _, p := range defaultPolicies {
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, fmt.Errorf("failed to add policy %v: %w", p, err)
		}
	}
	return &Guard{enforcer: enforcer}, nil
}

// RequireMutate returns Forbidden unless actor owns the resource or is admin.
func (g *Guard) RequireMutate(actor *models.User, ownerID uint, what string) error {
	if actor == nil {
		return apperr.Unauthenticatedf("authentication required")
	}
	if !CanMutate(actor, ownerID) {
		return apperr.Forbiddenf("not allowed to modify this %s", what)
	}
	return nil
}

func (g *Guard) Can(actor *models.User, obj, act string) bool {
	if actor == nil {
		return false
	}
	if err := g.enforcer.LoadPolicy(); err != nil {
		slog.Error("failed to reload casbin policy", "error", err)
		return false
	}
	for _, sub := range []string{actor.Role, userSubject(actor.ID)} {
		ok, err := g.enforcer.Enforce(sub, obj, act)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// Require returns Forbidden for anonymous callers too: capability checks do
// not distinguish the two.
func (g *Guard) Require(actor *models.User, obj, act string) error {
	if !g.Can(actor, obj, act) {
		return apperr.Forbiddenf("%s %s requires moderation rights", act, obj)
	}
	return nil
}

func (g *Guard) CanModerate(actor *models.User) bool {
	return g.Can(actor, ObjArticle, ActModerate)
}

// CanSeeUnapproved: pending and rejected articles are shown to their owner
// and to moderators only.
func (g *Guard) CanSeeUnapproved(viewer *models.User, ownerID uint) bool {
	if viewer == nil {
		return false
	}
	return viewer.ID == ownerID || g.CanModerate(viewer)
}

// GrantModerator gives a single user the moderator capabilities.
func (g *Guard) GrantModerator(actor *models.User, userID uint) error {
	if err := g.Require(actor, ObjModerator, ActGrant); err != nil {
		return err
	}
	if _, err := g.enforcer.AddGroupingPolicy(userSubject(userID), RoleModerator); err != nil {
		return apperr.Internalf(err, "grant moderator")
	}
	return nil
}

func (g *Guard) RevokeModerator(actor *models.User, userID uint) error {
	if err := g.Require(actor, ObjModerator, ActGrant); err != nil {
		return err
	}
	if _, err := g.enforcer.RemoveGroupingPolicy(userSubject(userID), RoleModerator); err != nil {
		return apperr.Internalf(err, "revoke moderator")
	}
	return nil
}

func userSubject(id uint) string {
	return fmt.Sprintf("user:%d", id)
}
