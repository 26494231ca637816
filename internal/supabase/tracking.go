package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nhle/duetask/internal/logger"
	"github.com/nhle/duetask/internal/model"
	"github.com/nhle/duetask/internal/restclient"
)

// trackingRow is the wire shape of one tracking table row.
type trackingRow struct {
	NotificationID string          `json:"notification_id"`
	Tag            string          `json:"tag"`
	CreatedAt      model.Timestamp `json:"created_at"`
}

// trackingInsert is the body of an insert; created_at is left to the
// column default.
type trackingInsert struct {
	NotificationID string `json:"notification_id"`
	Tag            string `json:"tag"`
}

// TrackingStore keeps tracking records in a PostgREST table with columns
// notification_id, tag and created_at. The tag column holds the key in its
// "<date>_<tag>" form.
type TrackingStore struct {
	client *restclient.Client
	table  string
}

// NewTrackingStore creates a TrackingStore over table.
func NewTrackingStore(client *restclient.Client, table string) *TrackingStore {
	return &TrackingStore{client: client, table: table}
}

// RecordSent stores that notificationID was booked for key.
func (s *TrackingStore) RecordSent(ctx context.Context, key model.Key, notificationID string) error {
	header := http.Header{}
	header.Set("Prefer", "return=minimal")

	err := s.client.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   "/" + s.table,
		Body: trackingInsert{
			NotificationID: notificationID,
			Tag:            key.String(),
		},
		Header: header,
	}, nil)
	if err != nil {
		return fmt.Errorf("recording notification %s for %s: %w", notificationID, key, err)
	}
	return nil
}

// ListForDate returns the records whose key belongs to date. A response
// that is not a JSON array of rows is logged and read as no rows.
func (s *TrackingStore) ListForDate(ctx context.Context, date model.Date) ([]model.Record, error) {
	query := url.Values{
		"select": {"notification_id,tag,created_at"},
		"tag":    {prefixLike(model.KeyPrefix(date))},
	}

	var raw json.RawMessage
	if err := s.client.Get(ctx, "/"+s.table, query, &raw); err != nil {
		return nil, fmt.Errorf("listing tracking records for %s: %w", date, err)
	}

	var rows []trackingRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		logger.WarnLog(ctx, "unexpected tracking rows for %s, treating as empty: %v", date, err)
		return nil, nil
	}

	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		if row.NotificationID == "" {
			continue
		}
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
func (s *TrackingStore) DeleteForDate(ctx context.Context, date model.Date) error {
	query := url.Values{
		"tag": {prefixLike(model.KeyPrefix(date))},
	}
	if err := s.client.Delete(ctx, "/"+s.table, query); err != nil {
		return fmt.Errorf("deleting tracking records for %s: %w", date, err)
	}
	return nil
}
