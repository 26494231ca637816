// Package app assembles the reminder service from configuration: the push
// provider, the task and tracking backends, the summary phrasing and the
// reconciliation engine.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/duetask/internal/credential"
	"github.com/nhle/duetask/internal/logger"
	"github.com/nhle/duetask/internal/model"
	"github.com/nhle/duetask/internal/onesignal"
	"github.com/nhle/duetask/internal/reconcile"
	"github.com/nhle/duetask/internal/store"
	"github.com/nhle/duetask/internal/summary"
	"github.com/nhle/duetask/internal/supabase"
	appsync "github.com/nhle/duetask/internal/sync"
	"github.com/nhle/duetask/internal/webhook"
)

// App holds the wired components for one process.
type App struct {
	Config   *model.AppConfig
	Engine   *reconcile.Engine
	Tracking reconcile.TrackingStore

	closers []func() error
}

// New builds an App from cfg. Empty API keys are looked up in the OS
// keyring before the configuration is validated.
func New(ctx context.Context, cfg *model.AppConfig) (*App, error) {
	fillCredentials(ctx, cfg, credential.NewSystemStore())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loc, err := cfg.Schedule.Location()
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg}

	var tasks reconcile.TaskSource
	switch cfg.Store.Driver {
	case model.StoreDriverREST:
		client := supabase.NewClient(cfg.Supabase)
		tasks = supabase.NewTaskSource(client, cfg.Supabase.TasksTable)
		a.Tracking = supabase.NewTrackingStore(client, cfg.Supabase.TrackingTable)
	default:
		s, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
		}
		a.closers = append(a.closers, s.Close)
		tasks = s
		a.Tracking = s
	}

	engine, err := reconcile.New(reconcile.Deps{
		Provider:   onesignal.NewClient(cfg.OneSignal, nil),
		Tracking:   a.Tracking,
		Tasks:      tasks,
		Summarizer: summary.New(cfg.Couple.First, cfg.Couple.Second, phrasebook(cfg.Couple)),
	}, reconcile.Config{Location: loc})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Engine = engine

	logger.InfoLog(ctx, "reminder service ready (store=%s, zone=%s)", cfg.Store.Driver, loc)
	return a, nil
}

// Server returns the webhook server bound to the engine.
func (a *App) Server() *webhook.Server {
	handler := webhook.NewHandler(a.Engine, a.Config.Supabase.TasksTable)
	return webhook.NewServer(handler, a.Config.Server)
}

// Sweeper returns the periodic sweep worker, or nil when disabled.
func (a *App) Sweeper() *appsync.Poller {
	if a.Config.Sweep.IntervalMin <= 0 {
		return nil
	}
	return appsync.New(
		a.Engine,
		time.Duration(a.Config.Sweep.IntervalMin)*time.Minute,
		a.Config.Sweep.Days,
	)
}

// Close releases any database handles.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// fillCredentials reads missing API keys from the keyring. Lookup failures
// are only logged; Validate reports what is still missing.
func fillCredentials(ctx context.Context, cfg *model.AppConfig, creds *credential.Store) {
	if err := creds.Fill(&cfg.OneSignal.APIKey, credential.KeyOneSignalAPIKey); err != nil {
		logger.DebugLog(ctx, "no OneSignal key in keyring: %v", err)
	}
	if cfg.Store.Driver == model.StoreDriverREST {
		if err := creds.Fill(&cfg.Supabase.ServiceKey, credential.KeySupabaseServiceKey); err != nil {
			logger.DebugLog(ctx, "no Supabase key in keyring: %v", err)
		}
	}
}

// phrasebook starts from the English wording and applies the per-person
// verbs configured for the couple.
func phrasebook(c model.CoupleConfig) summary.Phrasebook {
	book := summary.English(c.First, c.Second)
	book.First = book.First.With(c.FirstVerb, c.FirstDone)
	book.Second = book.Second.With(c.SecondVerb, c.SecondDone)
	return book
}
