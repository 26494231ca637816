// Package onesignal books, sends and cancels push notifications through the
// OneSignal REST API.
package onesignal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nhle/duetask/internal/model"
	"github.com/nhle/duetask/internal/restclient"
)

var (
	// ErrSendTimeElapsed is returned by ScheduleAt for a send time that is
	// not in the future. No request is made.
	ErrSendTimeElapsed = errors.New("send time is not in the future")

	// ErrMissingID is returned when the provider accepts a create request
	// but does not hand back a notification id.
	ErrMissingID = errors.New("provider response has no notification id")
)

// language is the only content language the notifications carry.
const language = "en"

// Client talks to one OneSignal app.
type Client struct {
	rest    *restclient.Client
	appID   string
	segment string
	now     func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a OneSignal client from cfg. restOpts tune the
// underlying HTTP client.
func NewClient(
	cfg model.OneSignalConfig,
	restOpts []restclient.Option,
	opts ...Option,
) *Client {
	header := http.Header{}
	header.Set("Authorization", "Basic "+cfg.APIKey)

	segment := cfg.Segment
	if segment == "" {
		segment = "All"
	}

	c := &Client{
		rest:    restclient.New(cfg.BaseURL, header, restOpts...),
		appID:   cfg.AppID,
		segment: segment,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ScheduleAt books a notification for delivery at sendAt and returns the
// provider-assigned id.
func (c *Client) ScheduleAt(
	ctx context.Context,
	heading string,
	body string,
	sendAt time.Time,
) (string, error) {
	if !sendAt.After(c.now()) {
		return "", fmt.Errorf("scheduling %q for %s: %w",
			heading, sendAt.Format(time.RFC3339), ErrSendTimeElapsed)
	}

	req := c.newRequest(heading, body)
	req.SendAfter = sendAt.Format(time.RFC3339)

	id, err := c.create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("scheduling %q for %s: %w",
			heading, req.SendAfter, err)
	}
	return id, nil
}

// SendNow delivers a notification immediately.
func (c *Client) SendNow(ctx context.Context, heading string, body string) error {
	if _, err := c.create(ctx, c.newRequest(heading, body)); err != nil {
		return fmt.Errorf("sending %q: %w", heading, err)
	}
	return nil
}

// Cancel deletes a scheduled notification by id.
func (c *Client) Cancel(ctx context.Context, notificationID string) error {
	path := "/notifications/" + url.PathEscape(notificationID)
	query := url.Values{"app_id": {c.appID}}
	if err := c.rest.Delete(ctx, path, query); err != nil {
		return fmt.Errorf("cancelling notification %s: %w", notificationID, err)
	}
	return nil
}

func (c *Client) newRequest(heading, body string) createRequest {
	return createRequest{
		AppID:            c.appID,
		IncludedSegments: []string{c.segment},
		Headings:         map[string]string{language: heading},
		Contents:         map[string]string{language: body},
	}
}

func (c *Client) create(ctx context.Context, req createRequest) (string, error) {
	var resp createResponse
	if err := c.rest.Post(ctx, "/notifications", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		if resp.Errors != nil {
			return "", fmt.Errorf("%w: %v", ErrMissingID, resp.Errors)
		}
		return "", ErrMissingID
	}
	return resp.ID, nil
}
