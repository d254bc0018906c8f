package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/OzanD26/halk-habercisi/internal/domain/enums"
	pgrepo "github.com/OzanD26/halk-habercisi/internal/repo/postgres"
)

// fakeStore hands out scripted subscriptions and remembers every query it
// was asked to serve.
type fakeStore struct {
	mu      sync.Mutex
	queries []Query
	subs    []*fakeSubscription
}

func (f *fakeStore) Subscribe(_ context.Context, q Query, onSnapshot func([]pgrepo.ReportRecord), onError func(error)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	sub := &fakeSubscription{onSnapshot: onSnapshot, onError: onError}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeStore) lastSub(t *testing.T) *fakeSubscription {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subs) == 0 {
		t.Fatalf("no subscriptions created")
	}
	return f.subs[len(f.subs)-1]
}

func (f *fakeStore) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, sub := range f.subs {
		if !sub.closed() {
			n++
		}
	}
	return n
}

type fakeSubscription struct {
	onSnapshot func([]pgrepo.ReportRecord)
	onError    func(error)

	mu       sync.Mutex
	isClosed bool
}

func (f *fakeSubscription) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.isClosed = true
}

func (f *fakeSubscription) closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isClosed
}

func (f *fakeSubscription) deliver(records []pgrepo.ReportRecord) {
	f.onSnapshot(records)
}

// fail mimics a store listener error: the subscription delivers the error
// and terminates itself.
func (f *fakeSubscription) fail(err error) {
	f.Close()
	f.onError(err)
}

type consumerLog struct {
	mu       sync.Mutex
	data     [][]ReportView
	diags    []string
	loadings []bool
}

func (c *consumerLog) consumer() Consumer {
	return Consumer{
		OnData: func(views []ReportView) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.data = append(c.data, views)
		},
		OnDiagnostic: func(mode QueryMode, lastErr string) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.diags = append(c.diags, string(mode)+"|"+lastErr)
		},
		OnLoadingChange: func(loading bool) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.loadings = append(c.loadings, loading)
		},
	}
}

func (c *consumerLog) lastData(t *testing.T) []ReportView {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.data) == 0 {
		t.Fatalf("no data delivered")
	}
	return c.data[len(c.data)-1]
}

func TestAttachStartsOrderedQuery(t *testing.T) {
	store := &fakeStore{}
	log := &consumerLog{}
	syn := NewSynchronizer(store, log.consumer(), nil)

	if err := syn.Attach(context.Background(), enums.FilterTabPending); err != nil {
		t.Fatalf("attach: %v", err)
	}

	if len(store.queries) != 1 {
		t.Fatalf("expected one query, got %d", len(store.queries))
	}
	q := store.queries[0]
	if q.Tab != enums.FilterTabPending || !q.Ordered {
		t.Fatalf("unexpected query: %+v", q)
	}
	if syn.Mode() != ModeOrdered {
		t.Fatalf("unexpected mode: %s", syn.Mode())
	}
}

func TestSingletonSubscriptionAcrossTabSwitch(t *testing.T) {
	store := &fakeStore{}
	syn := NewSynchronizer(store, Consumer{}, nil)

	if err := syn.Attach(context.Background(), enums.FilterTabPending); err != nil {
		t.Fatalf("attach pending: %v", err)
	}
	if err := syn.Attach(context.Background(), enums.FilterTabApproved); err != nil {
		t.Fatalf("attach approved: %v", err)
	}

	if len(store.subs) != 2 {
		t.Fatalf("expected two subscriptions total, got %d", len(store.subs))
	}
	if !store.subs[0].closed() {
		t.Fatalf("first subscription must be detached before the second attach")
	}
	if store.liveCount() != 1 {
		t.Fatalf("expected exactly one live subscription, got %d", store.liveCount())
	}
}

func TestListenerErrorDegradesOnceThenTerminal(t *testing.T) {
	store := &fakeStore{}
	log := &consumerLog{}
	syn := NewSynchronizer(store, log.consumer(), nil)

	if err := syn.Attach(context.Background(), enums.FilterTabAll); err != nil {
		t.Fatalf("attach: %v", err)
	}

	store.lastSub(t).fail(errors.New("missing index"))

	if len(store.queries) != 2 {
		t.Fatalf("expected one automatic reattachment, got %d queries", len(store.queries))
	}
	if store.queries[1].Ordered {
		t.Fatalf("fallback query must not be ordered")
	}
	if syn.Mode() != ModeFallback {
		t.Fatalf("unexpected mode after degrade: %s", syn.Mode())
	}
	if syn.LastError() != "missing index" {
		t.Fatalf("original error not kept as diagnostic: %q", syn.LastError())
	}

	store.lastSub(t).fail(errors.New("still broken"))

	if syn.Mode() != ModeError {
		t.Fatalf("expected terminal error mode, got %s", syn.Mode())
	}
	if len(store.queries) != 2 {
		t.Fatalf("terminal error must not reattach, got %d queries", len(store.queries))
	}
	if store.liveCount() != 0 {
		t.Fatalf("expected no live subscription in error mode, got %d", store.liveCount())
	}
}

func TestRefreshExitsTerminalError(t *testing.T) {
	store := &fakeStore{}
	syn := NewSynchronizer(store, Consumer{}, nil)

	if err := syn.Attach(context.Background(), enums.FilterTabPending); err != nil {
		t.Fatalf("attach: %v", err)
	}
	store.lastSub(t).fail(errors.New("e1"))
	store.lastSub(t).fail(errors.New("e2"))
	if syn.Mode() != ModeError {
		t.Fatalf("expected error mode, got %s", syn.Mode())
	}

	if err := syn.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if syn.Mode() != ModeOrdered {
		t.Fatalf("refresh must restart ordered, got %s", syn.Mode())
	}
	last := store.queries[len(store.queries)-1]
	if last.Tab != enums.FilterTabPending || !last.Ordered {
		t.Fatalf("refresh lost the selected tab: %+v", last)
	}
}

func TestSnapshotReplacesSetAndDefaultsFields(t *testing.T) {
	store := &fakeStore{}
	log := &consumerLog{}
	syn := NewSynchronizer(store, log.consumer(), nil)

	if err := syn.Attach(context.Background(), enums.FilterTabAll); err != nil {
		t.Fatalf("attach: %v", err)
	}

	lat, lon := 41.0, 29.0
	store.lastSub(t).deliver([]pgrepo.ReportRecord{
		{ID: "a", MediaType: "", CreatedAt: time.Now()},
		{ID: "b", MediaType: "video", Latitude: &lat, Longitude: &lon, CreatedAt: time.Now()},
	})
	store.lastSub(t).deliver([]pgrepo.ReportRecord{
		{ID: "c", MediaType: "image", CreatedAt: time.Now()},
	})

	views := log.lastData(t)
	if len(views) != 1 || views[0].ID != "c" {
		t.Fatalf("snapshot must replace the previous set: %+v", views)
	}

	log.mu.Lock()
	first := log.data[0]
	log.mu.Unlock()
	if first[0].MediaType != enums.MediaKindImage {
		t.Fatalf("missing media type must default to image, got %s", first[0].MediaType)
	}
	if first[0].Location != nil {
		t.Fatalf("missing coordinates must yield nil location")
	}
	if first[1].Location == nil || first[1].Location.Latitude != 41.0 {
		t.Fatalf("unexpected location: %+v", first[1].Location)
	}
}

func TestDetachReturnsToIdle(t *testing.T) {
	store := &fakeStore{}
	syn := NewSynchronizer(store, Consumer{}, nil)

	if err := syn.Attach(context.Background(), enums.FilterTabAll); err != nil {
		t.Fatalf("attach: %v", err)
	}
	syn.Detach()

	if syn.Mode() != ModeIdle {
		t.Fatalf("expected idle after detach, got %s", syn.Mode())
	}
	if store.liveCount() != 0 {
		t.Fatalf("expected no live subscription after detach")
	}
}

func TestStaleSnapshotFromOldSubscriptionIsIgnored(t *testing.T) {
	store := &fakeStore{}
	log := &consumerLog{}
	syn := NewSynchronizer(store, log.consumer(), nil)

	if err := syn.Attach(context.Background(), enums.FilterTabPending); err != nil {
		t.Fatalf("attach pending: %v", err)
	}
	old := store.lastSub(t)

	if err := syn.Attach(context.Background(), enums.FilterTabApproved); err != nil {
		t.Fatalf("attach approved: %v", err)
	}
	store.lastSub(t).deliver([]pgrepo.ReportRecord{{ID: "new", CreatedAt: time.Now()}})

	// a delivery from the superseded filter must not overwrite newer data
	old.deliver([]pgrepo.ReportRecord{{ID: "stale", CreatedAt: time.Now()}})

	views := log.lastData(t)
	if len(views) != 1 || views[0].ID != "new" {
		t.Fatalf("stale snapshot overwrote newer data: %+v", views)
	}
}
