package reconcile

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/duetask/internal/model"
	"github.com/nhle/duetask/internal/store"
	"github.com/nhle/duetask/internal/summary"
	"github.com/nhle/duetask/internal/testutil"
)

var utcPlus2 = time.FixedZone("UTC+2", 2*3600)

type harness struct {
	engine   *Engine
	store    *store.SQLStore
	provider *testutil.FakeProvider
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()

	s := testutil.NewTestStore(t)
	p := &testutil.FakeProvider{}
	e, err := New(Deps{
		Provider:   p,
		Tracking:   s,
		Tasks:      s,
		Summarizer: summary.New("Dana", "Noa", summary.English("Dana", "Noa")),
	}, Config{
		Location: utcPlus2,
		Now:      func() time.Time { return now },
	})
	require.NoError(t, err)

	return &harness{engine: e, store: s, provider: p}
}

// save writes task and returns the change event for it.
func (h *harness) save(t *testing.T, task model.Task) model.ChangeEvent {
	t.Helper()
	ev, err := h.store.SaveTask(context.Background(), task)
	require.NoError(t, err)
	return ev
}

func (h *harness) trackedIDs(t *testing.T, date model.Date) []string {
	t.Helper()
	records, err := h.store.ListForDate(context.Background(), date)
	require.NoError(t, err)
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.NotificationID
	}
	sort.Strings(ids)
	return ids
}

func (h *harness) trackedTags(t *testing.T, date model.Date) []model.Tag {
	t.Helper()
	records, err := h.store.ListForDate(context.Background(), date)
	require.NoError(t, err)
	tags := make([]model.Tag, len(records))
	for i, r := range records {
		tags[i] = r.Key.Tag
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

func scheduledIDs(s []testutil.Scheduled) []string {
	ids := make([]string, len(s))
	for i, n := range s {
		ids[i] = n.ID
	}
	sort.Strings(ids)
	return ids
}

// earlyJune is well before every slot for dates in July.
var earlyJune = time.Date(2025, 6, 1, 12, 0, 0, 0, utcPlus2)

func TestNewRequiresDeps(t *testing.T) {
	s := testutil.NewTestStore(t)
	p := &testutil.FakeProvider{}
	sum := summary.New("Dana", "Noa", summary.English("Dana", "Noa"))

	_, err := New(Deps{Tracking: s, Tasks: s, Summarizer: sum}, Config{Location: utcPlus2})
	assert.Error(t, err)

	_, err = New(Deps{Provider: p, Tracking: s, Tasks: s, Summarizer: sum}, Config{})
	assert.Error(t, err)

	e, err := New(Deps{Provider: p, Tracking: s, Tasks: s, Summarizer: sum}, Config{Location: utcPlus2})
	require.NoError(t, err)
	assert.Len(t, e.slots, 3)
}

func TestReconcileSchedulesAllSlots(t *testing.T) {
	h := newHarness(t, earlyJune)
	h.save(t, model.Task{ID: 1, Title: "buy milk", Assignee: "Dana", DueDate: due("2025-07-10")})

	res, err := h.engine.Reconcile(context.Background(), "2025-07-10")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Active)
	assert.Equal(t, []model.Tag{model.TagEveningBefore, model.TagMorningOf, model.TagEveningOf}, res.Scheduled)

	scheduled := h.provider.Scheduled()
	require.Len(t, scheduled, 3)

	want := []struct {
		heading string
		at      time.Time
	}{
		{"Tomorrow's tasks", time.Date(2025, 7, 9, 21, 0, 0, 0, utcPlus2)},
		{"Today's tasks", time.Date(2025, 7, 10, 10, 0, 0, 0, utcPlus2)},
		{"Still on today's list", time.Date(2025, 7, 10, 18, 30, 0, 0, utcPlus2)},
	}
	for i, w := range want {
		assert.Equal(t, w.heading, scheduled[i].Heading)
		assert.True(t, w.at.Equal(scheduled[i].SendAt), "slot %d at %s", i, scheduled[i].SendAt)
		assert.Equal(t, "Dana needs to buy milk", scheduled[i].Body)
	}

	assert.Equal(t, scheduledIDs(scheduled), h.trackedIDs(t, "2025-07-10"))
}

func TestReconcileIsIdempotent(t *testing.T) {
	h := newHarness(t, earlyJune)
	ctx := context.Background()
	h.save(t, model.Task{ID: 1, Title: "buy milk", Assignee: "Dana", DueDate: due("2025-07-10")})
	h.save(t, model.Task{ID: 2, Title: "walk dog", Assignee: "both", DueDate: due("2025-07-10")})

	_, err := h.engine.Reconcile(ctx, "2025-07-10")
	require.NoError(t, err)
	first := h.trackedIDs(t, "2025-07-10")
	require.Len(t, first, 3)
	firstBodies := h.provider.Scheduled()

	h.provider.Reset()
	res, err := h.engine.Reconcile(ctx, "2025-07-10")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Cancelled)

	cancelled := h.provider.Cancelled()
	sort.Strings(cancelled)
	if diff := cmp.Diff(first, cancelled); diff != "" {
		t.Errorf("second run must cancel exactly the first run's ids (-want +got):\n%s", diff)
	}

	second := h.trackedIDs(t, "2025-07-10")
	assert.Len(t, second, 3)
	assert.Equal(t, scheduledIDs(h.provider.Scheduled()), second)
	assert.NotEqual(t, first, second)

	for i, n := range h.provider.Scheduled() {
		assert.Equal(t, firstBodies[i].Body, n.Body)
	}
}

func TestReconcileSkipsElapsedSlots(t *testing.T) {
	noon := time.Date(2025, 7, 10, 12, 0, 0, 0, utcPlus2)
	h := newHarness(t, noon)
	h.save(t, model.Task{ID: 1, Title: "buy milk", Assignee: "Dana", DueDate: due("2025-07-10")})

	res, err := h.engine.Reconcile(context.Background(), "2025-07-10")
	require.NoError(t, err)
	assert.Equal(t, []model.Tag{model.TagEveningBefore, model.TagMorningOf}, res.Elapsed)
	assert.Equal(t, []model.Tag{model.TagEveningOf}, res.Scheduled)
	assert.Len(t, h.provider.Scheduled(), 1)
	assert.Equal(t, []model.Tag{model.TagEveningOf}, h.trackedTags(t, "2025-07-10"))
}

func TestReconcileSlotExactlyNowIsElapsed(t *testing.T) {
	h := newHarness(t, time.Date(2025, 7, 10, 18, 30, 0, 0, utcPlus2))
	h.save(t, model.Task{ID: 1, Title: "buy milk", Assignee: "Dana", DueDate: due("2025-07-10")})

	res, err := h.engine.Reconcile(context.Background(), "2025-07-10")
	require.NoError(t, err)
	assert.Empty(t, res.Scheduled)
	assert.Len(t, res.Elapsed, 3)
	assert.Empty(t, h.trackedIDs(t, "2025-07-10"))
}

func TestReconcileClearsEmptyDate(t *testing.T) {
	h := newHarness(t, earlyJune)
	ctx := context.Background()
	h.save(t, model.Task{ID: 1, Title: "buy milk", Assignee: "Dana", DueDate: due("2025-07-10")})

	_, err := h.engine.Reconcile(ctx, "2025-07-10")
	require.NoError(t, err)
	require.Len(t, h.trackedIDs(t, "2025-07-10"), 3)

	_, err = h.store.DeleteTask(ctx, 1)
	require.NoError(t, err)
	h.provider.Reset()

	res, err := h.engine.Reconcile(ctx, "2025-07-10")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Cancelled)
	assert.Equal(t, 0, res.Active)
	assert.Empty(t, h.provider.Scheduled())
	assert.Empty(t, h.trackedIDs(t, "2025-07-10"))
}

func TestReconcileLeavesOtherDatesAlone(t *testing.T) {
	h := newHarness(t, earlyJune)
	ctx := context.Background()
	h.save(t, model.Task{ID: 1, Title: "buy milk", Assignee: "Dana", DueDate: due("2025-07-10")})
	h.save(t, model.Task{ID: 2, Title: "call bank", Assignee: "Noa", DueDate: due("2025-07-11")})

	for _, d := range []model.Date{"2025-07-10", "2025-07-11"} {
		_, err := h.engine.Reconcile(ctx, d)
		require.NoError(t, err)
	}
	other := h.trackedIDs(t, "2025-07-11")

	_, err := h.engine.Reconcile(ctx, "2025-07-10")
	require.NoError(t, err)
	assert.Equal(t, other, h.trackedIDs(t, "2025-07-11"))
}

func TestReconcileProviderScheduleFailure(t *testing.T) {
	h := newHarness(t, earlyJune)
	h.provider.ScheduleFunc = func(_ context.Context, heading, _ string, _ time.Time) (string, error) {
		if heading == "Today's tasks" {
			return "", errors.New("provider unavailable")
		}
		return "", nil
	}
	h.save(t, model.Task{ID: 1, Title: "buy milk", Assignee: "Dana", DueDate: due("2025-07-10")})

	res, err := h.engine.Reconcile(context.Background(), "2025-07-10")
	require.NoError(t, err)
	assert.Equal(t, []model.Tag{model.TagMorningOf}, res.Failed)
	assert.Equal(t, []model.Tag{model.TagEveningBefore, model.TagEveningOf}, res.Scheduled)
	assert.Equal(t, []model.Tag{model.TagEveningBefore, model.TagEveningOf}, h.trackedTags(t, "2025-07-10"))
}

func TestReconcileCancelFailureStillClears(t *testing.T) {
	h := newHarness(t, earlyJune)
	ctx := context.Background()
	h.save(t, model.Task{ID: 1, Title: "buy milk", Assignee: "Dana", DueDate: due("2025-07-10")})

	_, err := h.engine.Reconcile(ctx, "2025-07-10")
	require.NoError(t, err)

	h.provider.CancelFunc = func(context.Context, string) error { return errors.New("timeout") }
	res, err := h.engine.Reconcile(ctx, "2025-07-10")
	require.NoError(t, err)
	assert.Equal(t, 3, res.CancelFailed)
	assert.Equal(t, 0, res.Cancelled)
	assert.Len(t, h.trackedIDs(t, "2025-07-10"), 3)
}

// failingTracking wraps a TrackingStore and fails selected calls.
type failingTracking struct {
	TrackingStore
	listErr   error
	deleteErr error
	recordErr error
}

func (f *failingTracking) ListForDate(ctx context.Context, date model.Date) ([]model.Record, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.TrackingStore.ListForDate(ctx, date)
}

func (f *failingTracking) DeleteForDate(ctx context.Context, date model.Date) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.TrackingStore.DeleteForDate(ctx, date)
}

func (f *failingTracking) RecordSent(ctx context.Context, key model.Key, id string) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	return f.TrackingStore.RecordSent(ctx, key, id)
}

type failingTasks struct{}

func (failingTasks) ActiveTasksOn(context.Context, model.Date) ([]model.Task, error) {
	return nil, errors.New("connection refused")
}

// staticTasks serves a fixed task list for every date, bypassing the store's
// own title validation.
type staticTasks []model.Task

func (s staticTasks) ActiveTasksOn(context.Context, model.Date) ([]model.Task, error) {
	return s, nil
}

func newEngineWith(t *testing.T, tracking TrackingStore, tasks TaskSource, p *testutil.FakeProvider) *Engine {
	t.Helper()
	e, err := New(Deps{
		Provider:   p,
		Tracking:   tracking,
		Tasks:      tasks,
		Summarizer: summary.New("Dana", "Noa", summary.English("Dana", "Noa")),
	}, Config{Location: utcPlus2, Now: func() time.Time { return earlyJune }})
	require.NoError(t, err)
	return e
}

func TestReconcileDeleteFailureAbortsDate(t *testing.T) {
	s := testutil.NewTestStore(t)
	_, err := s.SaveTask(context.Background(),
		model.Task{ID: 1, Title: "buy milk", Assignee: "Dana", DueDate: due("2025-07-10")})
	require.NoError(t, err)

	p := &testutil.FakeProvider{}
	e := newEngineWith(t, &failingTracking{TrackingStore: s, deleteErr: errors.New("read-only")}, s, p)

	_, err = e.Reconcile(context.Background(), "2025-07-10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")
	assert.Empty(t, p.Scheduled())
}

func TestReconcileListFailureTreatedAsEmpty(t *testing.T) {
	s := testutil.NewTestStore(t)
	_, err := s.SaveTask(context.Background(),
		model.Task{ID: 1, Title: "buy milk", Assignee: "Dana", DueDate: due("2025-07-10")})
	require.NoError(t, err)

	p := &testutil.FakeProvider{}
	e := newEngineWith(t, &failingTracking{TrackingStore: s, listErr: errors.New("bad gateway")}, s, p)

	res, err := e.Reconcile(context.Background(), "2025-07-10")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Cancelled)
	assert.Len(t, res.Scheduled, 3)
	assert.Empty(t, p.Cancelled())
}

func TestReconcileRecordFailureMarksUntracked(t *testing.T) {
	s := testutil.NewTestStore(t)
	_, err := s.SaveTask(context.Background(),
		model.Task{ID: 1, Title: "buy milk", Assignee: "Dana", DueDate: due("2025-07-10")})
	require.NoError(t, err)

	p := &testutil.FakeProvider{}
	e := newEngineWith(t, &failingTracking{TrackingStore: s, recordErr: errors.New("disk full")}, s, p)

	res, err := e.Reconcile(context.Background(), "2025-07-10")
	require.NoError(t, err)
	assert.Len(t, res.Untracked, 3)
	assert.Empty(t, res.Scheduled)
}

func TestReconcileBlankTitlesBookNothing(t *testing.T) {
	s := testutil.NewTestStore(t)
	require.NoError(t, s.RecordSent(context.Background(),
		model.Key{Date: "2025-07-10", Tag: model.TagMorningOf}, "stale-1"))

	p := &testutil.FakeProvider{}
	e := newEngineWith(t, s, staticTasks{
		{ID: 1, Title: "  ", Assignee: "Dana", DueDate: due("2025-07-10")},
		{ID: 2, Title: "", Assignee: "Noa", DueDate: due("2025-07-10")},
	}, p)

	res, err := e.Reconcile(context.Background(), "2025-07-10")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Active)
	assert.Equal(t, 1, res.Cancelled)
	assert.Empty(t, res.Scheduled)
	assert.Empty(t, p.Scheduled())
	assert.Equal(t, []string{"stale-1"}, p.Cancelled())

	records, err := s.ListForDate(context.Background(), "2025-07-10")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReconcileTaskReadFailure(t *testing.T) {
	s := testutil.NewTestStore(t)
	p := &testutil.FakeProvider{}
	e := newEngineWith(t, s, failingTasks{}, p)

	_, err := e.Reconcile(context.Background(), "2025-07-10")
	require.Error(t, err)
	assert.Empty(t, p.Scheduled())
}

func TestHandleDateMove(t *testing.T) {
	h := newHarness(t, earlyJune)
	ctx := context.Background()

	ev := h.save(t, model.Task{ID: 1, Title: "buy milk", Assignee: "Dana", DueDate: due("2025-07-01")})
	_, err := h.engine.Handle(ctx, ev)
	require.NoError(t, err)
	require.Len(t, h.trackedIDs(t, "2025-07-01"), 3)

	ev = h.save(t, model.Task{ID: 1, Title: "buy milk", Assignee: "Dana", DueDate: due("2025-07-05")})
	out, err := h.engine.Handle(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, []model.Date{"2025-07-01", "2025-07-05"}, out.Plan.Dates)
	require.Len(t, out.Results, 2)

	assert.Empty(t, h.trackedIDs(t, "2025-07-01"))
	assert.Len(t, h.trackedIDs(t, "2025-07-05"), 3)
}

func TestHandleCompletion(t *testing.T) {
	h := newHarness(t, earlyJune)
	ctx := context.Background()

	ev := h.save(t, model.Task{ID: 1, Title: "fix sink", Assignee: "Noa", DueDate: due("2025-07-10")})
	_, err := h.engine.Handle(ctx, ev)
	require.NoError(t, err)
	h.provider.Reset()

	ev = h.save(t, model.Task{ID: 1, Title: "fix sink", Assignee: "Noa", DueDate: due("2025-07-10"), IsComplete: true})
	out, err := h.engine.Handle(ctx, ev)
	require.NoError(t, err)
	require.NotNil(t, out.Plan.Completed)

	sent := h.provider.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Task completed", sent[0].Heading)
	assert.Equal(t, "Noa finished: fix sink", sent[0].Body)

	assert.Len(t, h.provider.Cancelled(), 3)
	assert.Empty(t, h.provider.Scheduled())
	assert.Empty(t, h.trackedIDs(t, "2025-07-10"))
}

func TestHandleCompletionSendFailureStillReconciles(t *testing.T) {
	h := newHarness(t, earlyJune)
	ctx := context.Background()
	h.provider.SendNowFunc = func(context.Context, string, string) error { return errors.New("quota") }

	h.save(t, model.Task{ID: 1, Title: "fix sink", Assignee: "Noa", DueDate: due("2025-07-10")})
	h.save(t, model.Task{ID: 2, Title: "buy milk", Assignee: "Dana", DueDate: due("2025-07-10")})
	ev := h.save(t, model.Task{ID: 1, Title: "fix sink", Assignee: "Noa", DueDate: due("2025-07-10"), IsComplete: true})

	out, err := h.engine.Handle(ctx, ev)
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Len(t, out.Results[0].Scheduled, 3)
	for _, n := range h.provider.Scheduled() {
		assert.Equal(t, "Dana needs to buy milk", n.Body)
	}
}

func TestHandleDeleteWithSibling(t *testing.T) {
	h := newHarness(t, earlyJune)
	ctx := context.Background()

	h.save(t, model.Task{ID: 1, Title: "buy milk", Assignee: "Dana", DueDate: due("2025-07-10")})
	ev := h.save(t, model.Task{ID: 2, Title: "walk dog", Assignee: "both", DueDate: due("2025-07-10")})
	_, err := h.engine.Handle(ctx, ev)
	require.NoError(t, err)
	before := h.trackedIDs(t, "2025-07-10")
	require.Len(t, before, 3)
	h.provider.Reset()

	ev, err = h.store.DeleteTask(ctx, 1)
	require.NoError(t, err)
	out, err := h.engine.Handle(ctx, ev)
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, 3, out.Results[0].Cancelled)

	cancelled := h.provider.Cancelled()
	sort.Strings(cancelled)
	assert.Equal(t, before, cancelled)

	scheduled := h.provider.Scheduled()
	require.Len(t, scheduled, 3)
	for _, n := range scheduled {
		assert.Equal(t, "You both need to walk dog", n.Body)
	}
	assert.Len(t, h.trackedIDs(t, "2025-07-10"), 3)
}

func TestHandleMalformedEvent(t *testing.T) {
	h := newHarness(t, earlyJune)
	_, err := h.engine.Handle(context.Background(), model.ChangeEvent{Type: model.EventDelete})
	assert.Error(t, err)

	_, err = h.engine.Handle(context.Background(), model.ChangeEvent{Type: "MERGE"})
	assert.ErrorIs(t, err, model.ErrUnknownEventType)
}

func TestHandleUndatedTaskDoesNothing(t *testing.T) {
	h := newHarness(t, earlyJune)
	ev := h.save(t, model.Task{ID: 1, Title: "someday", Assignee: "both"})

	out, err := h.engine.Handle(context.Background(), ev)
	require.NoError(t, err)
	assert.Empty(t, out.Results)
	assert.Empty(t, h.provider.Scheduled())
}

func TestConcurrentReconcileOfOneDate(t *testing.T) {
	h := newHarness(t, earlyJune)
	h.save(t, model.Task{ID: 1, Title: "buy milk", Assignee: "Dana", DueDate: due("2025-07-10")})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.engine.Reconcile(context.Background(), "2025-07-10")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, h.trackedIDs(t, "2025-07-10"), 3)
	assert.Len(t, h.provider.Scheduled(), 24)
	assert.Len(t, h.provider.Cancelled(), 21)
	assert.Equal(t, 0, h.engine.locks.size())
}

func TestSweep(t *testing.T) {
	h := newHarness(t, earlyJune)
	h.save(t, model.Task{ID: 1, Title: "buy milk", Assignee: "Dana", DueDate: due("2025-06-02")})
	h.save(t, model.Task{ID: 2, Title: "call bank", Assignee: "Noa", DueDate: due("2025-06-04")})

	assert.Equal(t, model.Date("2025-06-01"), h.engine.Today())

	results := h.engine.Sweep(context.Background(), h.engine.Today(), 5)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, model.MustDate("2025-06-01").AddDays(i), r.Date)
		assert.NoError(t, r.Err)
	}
	assert.Len(t, h.trackedIDs(t, "2025-06-02"), 3)
	assert.Len(t, h.trackedIDs(t, "2025-06-04"), 3)
	assert.Empty(t, h.trackedIDs(t, "2025-06-03"))
}
