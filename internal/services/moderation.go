package services

import (
	"context"
	"fmt"

	"echonews/internal/apperr"
	"echonews/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionReject  ModerationAction = "reject"
)

func ParseModerationAction(s string) (ModerationAction, bool) {
	switch ModerationAction(s) {
	case ActionApprove, ActionReject:
		return ModerationAction(s), true
	}
	return "", false
}

// moderationTransitions is the complete table of moderator transitions.
// A rejected article can be approved later; nothing leaves approved through
// moderation, it only goes back to pending when edited.
var moderationTransitions = map[models.ArticleStatus]map[ModerationAction]models.ArticleStatus{
	models.StatusPending: {
		ActionApprove: models.StatusApproved,
		ActionReject:  models.StatusRejected,
	},
	models.StatusRejected: {
		ActionApprove: models.StatusApproved,
	},
}

// Transition returns the status reached by applying action to current.
func Transition(current models.ArticleStatus, action ModerationAction) (models.ArticleStatus, error) {
	if next, ok := moderationTransitions[current][action]; ok {
		return next, nil
	}
	return current, apperr.InvalidStatef("cannot %s an article that is %s", action, current)
}

// EditedFields records which moderated fields an update actually changed.
type EditedFields struct {
	Title       bool
	Description bool
	Category    bool
}

func (e EditedFields) Any() bool {
	return e.Title || e.Description || e.Category
}

// StatusAfterEdit sends an approved article back to the queue when its
// title, description or category changed. Other states are kept.
func StatusAfterEdit(current models.ArticleStatus, edited EditedFields) models.ArticleStatus {
	if current == models.StatusApproved && edited.Any() {
		return models.StatusPending
	}
	return current
}

type ModerationService struct {
	db         *gorm.DB
	guard      *Guard
	dispatcher Dispatcher
}

func NewModerationService(conn *gorm.DB, guard *Guard, dispatcher Dispatcher) *ModerationService {
	return &ModerationService{db: conn, guard: guard, dispatcher: dispatcher}
}

// Moderate applies approve or reject to an article.
func (s *ModerationService) Moderate(ctx context.Context, actor *models.User, articleID uint, action string) (*models.Article, error) {
	if err := s.guard.Require(actor, ObjArticle, ActModerate); err != nil {
		return nil, err
	}
	act, ok := ParseModerationAction(action)
	if !ok {
		return nil, apperr.InvalidArgumentf("invalid action %q: must be approve or reject", action)
	}

	var article models.Article
	var event *NotificationEvent

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&article, articleID).Error; err != nil {
			return notFoundOr(err, "article")
		}

		next, err := Transition(article.Status, act)
		if err != nil {
			return err
		}
		if err := tx.Model(&article).Update("status", next).Error; err != nil {
			return apperr.Internalf(err, "update article status")
		}
		article.Status = next

		activity := ActivityArticleApprove
		verb := "approved"
		if act == ActionReject {
			activity = ActivityArticleReject
			verb = "rejected"
		}
		if err := logActivity(tx, actor.ID, activity, article.ID); err != nil {
			return err
		}

		if article.SubmittedBy != actor.ID {
			actorID := actor.ID
			event, err = notify(tx, models.Notification{
				UserID:   article.SubmittedBy,
				ActorID:  &actorID,
				Type:     models.NotificationTypeModeration,
				EntityID: article.ID,
				Message:  fmt.Sprintf("Your article %q was %s", article.Title, verb),
			}, "Your article was "+verb)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dispatchAll(ctx, s.dispatcher, []*NotificationEvent{event})
	return &article, nil
}

// ToggleFeatured flips is_featured. Featured articles lead the decayed ranking.
func (s *ModerationService) ToggleFeatured(ctx context.Context, actor *models.User, articleID uint) (*models.Article, error) {
	if err := s.guard.Require(actor, ObjArticle, ActFeature); err != nil {
		return nil, err
	}

	var article models.Article
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&article, articleID).Error; err != nil {
			return notFoundOr(err, "article")
		}
		if article.Status != models.StatusApproved {
			return apperr.InvalidStatef("only approved articles can be featured")
		}
		article.IsFeatured = !article.IsFeatured
		if err := tx.Model(&article).UpdateColumn("is_featured", article.IsFeatured).Error; err != nil {
			return apperr.Internalf(err, "toggle featured")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}
