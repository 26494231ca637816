// Package reconcile keeps the push notifications booked for each due date
// in line with the tasks currently due on it.
//
// The tracking store is the only durable memory of what was booked. Every
// reconciliation of a date cancels everything tracked for it, then books a
// fresh set from current task data, so repeated runs converge on one live
// notification per reminder slot.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/duetask/internal/logger"
	"github.com/nhle/duetask/internal/model"
)

// maxParallelDates bounds how many dates one call reconciles at once.
const maxParallelDates = 4

// Deps are the capabilities the engine drives.
type Deps struct {
	Provider   NotificationProvider
	Tracking   TrackingStore
	Tasks      TaskSource
	Summarizer Summarizer
}

// Config holds scheduling settings fixed at construction.
type Config struct {
	// Location is the wall clock slots are anchored to.
	Location *time.Location

	// Slots defaults to DefaultSlots.
	Slots []Slot

	// Now defaults to time.Now.
	Now func() time.Time
}

// Engine reconciles due dates.
type Engine struct {
	provider   NotificationProvider
	tracking   TrackingStore
	tasks      TaskSource
	summarizer Summarizer

	loc   *time.Location
	slots []Slot
	now   func() time.Time
	locks *dateLocks
}

// New creates an Engine. Every dependency and the location are required.
func New(deps Deps, cfg Config) (*Engine, error) {
	switch {
	case deps.Provider == nil:
		return nil, errors.New("reconcile: notification provider is required")
	case deps.Tracking == nil:
		return nil, errors.New("reconcile: tracking store is required")
	case deps.Tasks == nil:
		return nil, errors.New("reconcile: task source is required")
	case deps.Summarizer == nil:
		return nil, errors.New("reconcile: summarizer is required")
	case cfg.Location == nil:
		return nil, errors.New("reconcile: location is required")
	}

	e := &Engine{
		provider:   deps.Provider,
		tracking:   deps.Tracking,
		tasks:      deps.Tasks,
		summarizer: deps.Summarizer,
		loc:        cfg.Location,
		slots:      cfg.Slots,
		now:        cfg.Now,
		locks:      newDateLocks(),
	}
	if len(e.slots) == 0 {
		e.slots = DefaultSlots
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// Result describes one reconciliation of a date.
type Result struct {
	Date model.Date

	// Cancelled counts tracked notifications cancelled with the provider;
	// CancelFailed counts those whose cancel call failed.
	Cancelled    int
	CancelFailed int

	// Active is how many open tasks are due on Date.
	Active int

	// Scheduled lists slots booked and tracked. Elapsed lists slots whose
	// time had passed. Failed lists slots the provider did not book.
	// Untracked lists slots booked but not recorded, so they cannot be
	// cancelled later.
	Scheduled []model.Tag
	Elapsed   []model.Tag
	Failed    []model.Tag
	Untracked []model.Tag

	// Err is set when the date could not be rebuilt.
	Err error
}

// Outcome is what handling one change event did.
type Outcome struct {
	Plan    Plan
	Results []Result
}

// Handle processes one change event: it announces a completion when the
// event carries one, then reconciles every affected date. Only a malformed
// event is returned as an error; everything downstream is logged.
func (e *Engine) Handle(ctx context.Context, ev model.ChangeEvent) (Outcome, error) {
	change, err := ev.Change()
	if err != nil {
		return Outcome{}, fmt.Errorf("reading change event: %w", err)
	}

	plan := Derive(change)
	log := logger.From(ctx)
	log.Info().
		Str("type", string(ev.Type)).
		Strs("dates", datesToStrings(plan.Dates)).
		Bool("completed", plan.Completed != nil).
		Msg("handling change")

	if plan.Completed != nil {
		heading, body := e.summarizer.Completed(*plan.Completed)
		if err := e.provider.SendNow(ctx, heading, body); err != nil {
			log.Error().Err(err).Int64("task_id", plan.Completed.ID).
				Msg("completion notification not sent")
		}
	}

	return Outcome{Plan: plan, Results: e.ReconcileDates(ctx, plan.Dates)}, nil
}

// ReconcileDates reconciles several dates concurrently. Results are in the
// order of dates.
func (e *Engine) ReconcileDates(ctx context.Context, dates []model.Date) []Result {
	results := make([]Result, len(dates))

	var g errgroup.Group
	g.SetLimit(maxParallelDates)
	for i, date := range dates {
		i, date := i, date
		g.Go(func() error {
			res, err := e.Reconcile(ctx, date)
			if err != nil {
				res.Err = err
				logger.From(ctx).Error().Err(err).Str("date", date.String()).
					Msg("reconciliation incomplete")
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Sweep reconciles days consecutive dates starting at from.
func (e *Engine) Sweep(ctx context.Context, from model.Date, days int) []Result {
	dates := make([]model.Date, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, from.AddDays(i))
	}
	return e.ReconcileDates(ctx, dates)
}

// Today returns the current date on the engine's clock and location.
func (e *Engine) Today() model.Date {
	return model.DateOf(e.now().In(e.loc))
}

// Reconcile rebuilds the notifications for date. The steps run in a fixed
// order: cancel what is tracked, clear the tracking rows, re-read the open
// tasks, and book and track a fresh set for the slots still in the future.
// Provider failures are logged and skipped; an error is returned only when
// the date could not be cleared or its tasks could not be read.
func (e *Engine) Reconcile(ctx context.Context, date model.Date) (Result, error) {
	unlock := e.locks.lock(date)
	defer unlock()

	ctx = logger.With(ctx, "date", date.String())
	log := logger.From(ctx)
	res := Result{Date: date}

	if err := e.clear(ctx, date, &res); err != nil {
		return res, err
	}

	tasks, err := e.tasks.ActiveTasksOn(ctx, date)
	if err != nil {
		return res, fmt.Errorf("reading tasks due %s: %w", date, err)
	}
	res.Active = len(tasks)
	if len(tasks) == 0 {
		log.Info().Int("cancelled", res.Cancelled).Msg("no open tasks, date cleared")
		return res, nil
	}

	body := e.summarizer.Summarize(tasks)
	if strings.TrimSpace(body) == "" {
		log.Warn().Int("active", res.Active).Int("cancelled", res.Cancelled).
			Msg("open tasks have no titles, nothing booked")
		return res, nil
	}

	now := e.now()
	for _, slot := range e.slots {
		sendAt, err := slot.SendAt(date, e.loc)
		if err != nil {
			return res, fmt.Errorf("computing %s slot for %s: %w", slot.Tag, date, err)
		}
		if !sendAt.After(now) {
			res.Elapsed = append(res.Elapsed, slot.Tag)
			continue
		}

		id, err := e.provider.ScheduleAt(ctx, slot.Heading, body, sendAt)
		if err != nil {
			log.Error().Err(err).Str("tag", string(slot.Tag)).Msg("notification not scheduled")
			res.Failed = append(res.Failed, slot.Tag)
			continue
		}

		key := model.Key{Date: date, Tag: slot.Tag}
		if err := e.tracking.RecordSent(ctx, key, id); err != nil {
			log.Error().Err(err).Str("tag", string(slot.Tag)).Str("notification_id", id).
				Msg("notification scheduled but not tracked")
			res.Untracked = append(res.Untracked, slot.Tag)
			continue
		}
		res.Scheduled = append(res.Scheduled, slot.Tag)
	}

	log.Info().
		Int("active", res.Active).
		Int("cancelled", res.Cancelled).
		Int("scheduled", len(res.Scheduled)).
		Int("elapsed", len(res.Elapsed)).
		Msg("date reconciled")
	return res, nil
}

// clear cancels every notification tracked for date and deletes the
// tracking rows. A failed listing is read as no rows and a failed cancel
// leaves an orphan; both are logged. A failed delete is returned, since
// booking on top of stale rows would leave two records for one key.
func (e *Engine) clear(ctx context.Context, date model.Date, res *Result) error {
	log := logger.From(ctx)

	records, err := e.tracking.ListForDate(ctx, date)
	if err != nil {
		log.Error().Err(err).Msg("listing tracked notifications failed, treating as none")
		records = nil
	}

	for _, rec := range records {
		if err := e.provider.Cancel(ctx, rec.NotificationID); err != nil {
			log.Warn().Err(err).Str("notification_id", rec.NotificationID).
				Msg("cancel failed, notification may still fire")
			res.CancelFailed++
			continue
		}
		res.Cancelled++
	}

	if err := e.tracking.DeleteForDate(ctx, date); err != nil {
		return fmt.Errorf("clearing tracking records for %s: %w", date, err)
	}
	return nil
}

func datesToStrings(dates []model.Date) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return out
}
