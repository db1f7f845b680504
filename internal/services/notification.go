package services

import (
	"context"
	"errors"
	"log/slog"

	"echonews/internal/apperr"
	"echonews/internal/models"
	"echonews/internal/utils"

	"gorm.io/gorm"
)

// NotificationEvent is handed to a Dispatcher after the transaction that
// stored the notification has committed.
type NotificationEvent struct {
	NotificationID uint
	Type           models.NotificationType
	RecipientID    uint
	RecipientEmail string
	EmailOptIn     bool
	ActorID        uint
	EntityID       uint
	Subject        string
	Message        string
}

// Dispatcher delivers notification events outside the request transaction.
// Implementations must not block the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev NotificationEvent)
}

type NopDispatcher struct{}

func (NopDispatcher) Dispatch(context.Context, NotificationEvent) {}

// MultiDispatcher fans an event out to every dispatcher.
type MultiDispatcher []Dispatcher

func (m MultiDispatcher) Dispatch(ctx context.Context, ev NotificationEvent) {
	for _, d := range m {
		d.Dispatch(ctx, ev)
	}
}

// notify stores a notification row in tx and returns the event to dispatch
// once tx commits.
func notify(tx *gorm.DB, n models.Notification, subject string) (*NotificationEvent, error) {
	if err := tx.Create(&n).Error; err != nil {
		return nil, apperr.Internalf(err, "create notification")
	}

	var recipient models.User
	if err := tx.Select("id", "email").Take(&recipient, n.UserID).Error; err != nil {
		return nil, notFoundOr(err, "notification recipient")
	}

	optIn := true
	var pref models.UserPreference
	err := tx.Take(&pref, "user_id = ?", n.UserID).Error
	switch {
	case err == nil:
		optIn = pref.EmailNotifications
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.Internalf(err, "load preferences")
	}

	ev := &NotificationEvent{
		NotificationID: n.ID,
		Type:           n.Type,
		RecipientID:    n.UserID,
		RecipientEmail: recipient.Email,
		EmailOptIn:     optIn,
		EntityID:       n.EntityID,
		Subject:        subject,
		Message:        n.Message,
	}
	if n.ActorID != nil {
		ev.ActorID = *n.ActorID
	}
	return ev, nil
}

func dispatchAll(ctx context.Context, d Dispatcher, events []*NotificationEvent) {
	if d == nil {
		return
	}
	for _, ev := range events {
		if ev != nil {
			d.Dispatch(ctx, *ev)
		}
	}
}

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(conn *gorm.DB) *NotificationService {
	return &NotificationService{db: conn}
}

func (s *NotificationService) List(ctx context.Context, userID uint, p utils.PaginationParams) ([]models.Notification, utils.PaginationResult, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, utils.PaginationResult{}, apperr.Internalf(err, "count notifications")
	}

	var items []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&items).Error
	if err != nil {
		return nil, utils.PaginationResult{}, apperr.Internalf(err, "list notifications")
	}
	return items, utils.NewPaginationResult(p, total), nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, apperr.Internalf(err, "count unread notifications")
	}
	return count, nil
}

// MarkRead only touches the caller's own notifications; others are NotFound.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return apperr.Internalf(res.Error, "mark notification read")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFoundf("notification not found")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, apperr.Internalf(res.Error, "mark notifications read")
	}
	return res.RowsAffected, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return apperr.Internalf(res.Error, "delete notification")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFoundf("notification not found")
	}
	return nil
}

// LogDispatcher writes events to the structured log. It is the fallback when
// neither mail nor a stream is configured.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, ev NotificationEvent) {
	slog.Info("notification",
		"id", ev.NotificationID,
		"type", ev.Type,
		"recipient_id", ev.RecipientID,
		"entity_id", ev.EntityID,
	)
}
