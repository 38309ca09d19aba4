package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dompet/internal/core"
	"dompet/internal/storage"
)

const (
	DefaultNotificationLimit = 50
	MaxNotificationLimit     = 100
)

// NotificationService serves the notification feed.
type NotificationService struct {
	stores storage.Provider
	now    func() time.Time
}

func NewNotificationService(stores storage.Provider) *NotificationService {
	return &NotificationService{
		stores: stores,
		now:    time.Now,
	}
}

// List returns the newest notifications first. limit must be within
// 1..MaxNotificationLimit.
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]core.NotificationView, error) {
	if limit < 1 || limit > MaxNotificationLimit {
		return nil, core.ErrInvalidQuery
	}

	store, err := s.stores.Get(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := store.ListNotifications(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	out := make([]core.NotificationView, 0, len(rows))
	for _, n := range rows {
		out = append(out, n.View())
	}
	return out, nil
}

// Create stores a new unread notification.
func (s *NotificationService) Create(ctx context.Context, userID string, in core.NotificationInput) (core.NotificationView, error) {
	if err := in.Normalize(); err != nil {
		return core.NotificationView{}, err
	}

	store, err := s.stores.Get(ctx)
	if err != nil {
		return core.NotificationView{}, err
	}

	n := NewNotification(userID, in, s.now())
	if err := store.InsertNotification(ctx, n); err != nil {
		return core.NotificationView{}, fmt.Errorf("insert notification: %w", err)
	}
	return n.View(), nil
}

// NewNotification builds an unread notification from normalized input.
func NewNotification(userID string, in core.NotificationInput, now time.Time) core.Notification {
	now = now.UTC()
	date := now
	if in.Date != nil && !in.Date.IsZero() {
		date = in.Date.UTC()
	}
	sender := in.SenderName
	if sender == "" {
		sender = core.DefaultSenderName
	}
	return core.Notification{
		ID:              core.NewID(),
		UserID:          userID,
		Unread:          true,
		SenderName:      sender,
		SenderAvatarSrc: in.SenderAvatarSrc,
		Body:            in.Body,
		Date:            date,
		To:              in.To,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// MarkRead clears the unread flag of one notification.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) (core.NotificationView, error) {
	if !core.ValidID(id) {
		return core.NotificationView{}, core.Invalid("Invalid notification id")
	}

	store, err := s.stores.Get(ctx)
	if err != nil {
		return core.NotificationView{}, err
	}

	n, err := store.MarkNotificationRead(ctx, userID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.NotificationView{}, &core.NotFoundError{Resource: "Notification"}
	}
	if err != nil {
		return core.NotificationView{}, fmt.Errorf("mark notification read: %w", err)
	}
	return n.View(), nil
}
