package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/duetask/internal/logger"
	"github.com/nhle/duetask/internal/model"
)

// trackingRow is one notification_tracking row.
type trackingRow struct {
	NotificationID string          `db:"notification_id"`
	Tag            string          `db:"tag"`
	CreatedAt      model.Timestamp `db:"created_at"`
}

// RecordSent stores that notificationID was booked for key.
func (s *SQLStore) RecordSent(ctx context.Context, key model.Key, notificationID string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO notification_tracking (id, notification_id, tag, created_at)
		VALUES (?, ?, ?, ?)`),
		uuid.New().String(), notificationID, key.String(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording notification %s for %s: %w", notificationID, key, err)
	}
	return nil
}

// ListForDate returns the records whose key belongs to date, oldest first.
func (s *SQLStore) ListForDate(ctx context.Context, date model.Date) ([]model.Record, error) {
	var rows []trackingRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT notification_id, tag, created_at FROM notification_tracking
		WHERE tag LIKE ?
		ORDER BY created_at, tag`),
		model.KeyPrefix(date)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("listing tracking records for %s: %w", date, err)
	}

	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		key, err := model.ParseKey(row.Tag)
		if err != nil {
			logger.WarnLog(ctx, "tracking row %s has bad key: %v", row.NotificationID, err)
			key = model.Key{Date: date}
		}
		records = append(records, model.Record{
			NotificationID: row.NotificationID,
			Key:            key,
			CreatedAt:      row.CreatedAt.Time,
		})
	}
	return records, nil
}

// DeleteForDate removes every record whose key belongs to date.
func (s *SQLStore) DeleteForDate(ctx context.Context, date model.Date) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		"DELETE FROM notification_tracking WHERE tag LIKE ?"),
		model.KeyPrefix(date)+"%",
	)
	if err != nil {
		return fmt.Errorf("deleting tracking records for %s: %w", date, err)
	}
	return nil
}
