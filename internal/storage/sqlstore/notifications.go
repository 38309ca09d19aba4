package sqlstore

import (
	"context"
	"fmt"

	"dompet/internal/core"
)

const notificationColumns = "id, user_id, unread, sender_name, sender_avatar_src, body, sent_at, recipient, created_at, updated_at"

func scanNotification(row scanner) (core.Notification, error) {
	var (
		n                      core.Notification
		unread                 int64
		sent, created, updated int64
	)
	err := row.Scan(&n.ID, &n.UserID, &unread, &n.SenderName, &n.SenderAvatarSrc, &n.Body, &sent, &n.To, &created, &updated)
	if err != nil {
		return core.Notification{}, err
	}
	n.Unread = unread != 0
	n.Date = fromMillis(sent)
	n.CreatedAt = fromMillis(created)
	n.UpdatedAt = fromMillis(updated)
	return n, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, limit int) ([]core.Notification, error) {
	rows, err := s.queryRows(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE user_id = ? ORDER BY sent_at DESC, id DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) InsertNotification(ctx context.Context, n core.Notification) error {
	_, err := s.exec(ctx,
		"INSERT INTO notifications ("+notificationColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		n.ID, n.UserID, boolInt(n.Unread), n.SenderName, n.SenderAvatarSrc, n.Body,
		millis(n.Date), n.To, millis(n.CreatedAt), millis(n.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) (core.Notification, error) {
	n, err := scanNotification(s.queryRow(ctx, `
		UPDATE notifications SET unread = 0, updated_at = ?
		WHERE id = ? AND user_id = ?
		RETURNING `+notificationColumns,
		millis(s.now()), id, userID))
	if err != nil {
		return core.Notification{}, notFound(err)
	}
	return n, nil
}
