package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Scheduled is one notification booked with a FakeProvider.
type Scheduled struct {
	ID      string
	Heading string
	Body    string
	SendAt  time.Time
}

// Sent is one immediate notification delivered through a FakeProvider.
type Sent struct {
	Heading string
	Body    string
}

// FakeProvider records notification calls in memory. Setting a *Func field
// replaces the default behavior of that call; the call is still recorded
// when the override returns no error.
type FakeProvider struct {
	ScheduleFunc func(ctx context.Context, heading, body string, sendAt time.Time) (string, error)
	SendNowFunc  func(ctx context.Context, heading, body string) error
	CancelFunc   func(ctx context.Context, notificationID string) error

	mu        sync.Mutex
	next      int
	scheduled []Scheduled
	sent      []Sent
	cancelled []string
}

func (p *FakeProvider) ScheduleAt(ctx context.Context, heading, body string, sendAt time.Time) (string, error) {
	var id string
	if p.ScheduleFunc != nil {
		var err error
		if id, err = p.ScheduleFunc(ctx, heading, body, sendAt); err != nil {
			return "", err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if id == "" {
		p.next++
		id = fmt.Sprintf("notif-%d", p.next)
	}
	p.scheduled = append(p.scheduled, Scheduled{ID: id, Heading: heading, Body: body, SendAt: sendAt})
	return id, nil
}

func (p *FakeProvider) SendNow(ctx context.Context, heading, body string) error {
	if p.SendNowFunc != nil {
		if err := p.SendNowFunc(ctx, heading, body); err != nil {
			return err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, Sent{Heading: heading, Body: body})
	return nil
}

func (p *FakeProvider) Cancel(ctx context.Context, notificationID string) error {
	if p.CancelFunc != nil {
		if err := p.CancelFunc(ctx, notificationID); err != nil {
			return err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, notificationID)
	return nil
}

// Scheduled returns every booked notification in call order.
func (p *FakeProvider) Scheduled() []Scheduled {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Scheduled(nil), p.scheduled...)
}

// Sent returns every immediate notification in call order.
func (p *FakeProvider) Sent() []Sent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Sent(nil), p.sent...)
}

// Cancelled returns every cancelled id in call order.
func (p *FakeProvider) Cancelled() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.cancelled...)
}

// Reset forgets recorded calls but keeps the id counter running.
func (p *FakeProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scheduled = nil
	p.sent = nil
	p.cancelled = nil
}
