package feed

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/OzanD26/halk-habercisi/internal/domain/enums"
	pgrepo "github.com/OzanD26/halk-habercisi/internal/repo/postgres"
)

// QueryMode governs how the feed is queried. Ordered asks the store for a
// filtered, time-descending snapshot; Fallback drops the ordering after the
// store rejected the compound query; Error is terminal until a refresh.
type QueryMode string

const (
	ModeIdle     QueryMode = "idle"
	ModeOrdered  QueryMode = "ordered"
	ModeFallback QueryMode = "fallback"
	ModeError    QueryMode = "error"
)

type Query struct {
	Tab     enums.FilterTab
	Ordered bool
}

// Subscription is one live listener on the feed. Close tears it down and
// returns only once no further callbacks will be delivered. A subscription
// that has reported an error terminates itself; Close is then a no-op.
type Subscription interface {
	Close()
}

// Store delivers a full snapshot on subscribe and again after every change
// until the subscription is closed or fails.
type Store interface {
	Subscribe(ctx context.Context, q Query, onSnapshot func([]pgrepo.ReportRecord), onError func(error)) (Subscription, error)
}

// Consumer receives the synchronizer's output. Nil callbacks are skipped.
type Consumer struct {
	OnData          func([]ReportView)
	OnDiagnostic    func(mode QueryMode, lastError string)
	OnLoadingChange func(loading bool)
}

// Synchronizer owns at most one live feed subscription at any instant. A
// listener error in Ordered mode degrades once to Fallback; a second error
// is terminal until Refresh reattaches from Ordered.
type Synchronizer struct {
	store    Store
	consumer Consumer
	logger   *zap.Logger

	mu      sync.Mutex
	gen     uint64
	sub     Subscription
	tab     enums.FilterTab
	mode    QueryMode
	lastErr string
}

func NewSynchronizer(store Store, consumer Consumer, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		store:    store,
		consumer: consumer,
		logger:   logger,
		tab:      enums.FilterTabAll,
		mode:     ModeIdle,
	}
}

// Attach selects a moderation tab and starts an ordered subscription. Any
// existing subscription is fully torn down first.
func (s *Synchronizer) Attach(ctx context.Context, tab enums.FilterTab) error {
	s.teardown()
	return s.attach(ctx, tab, ModeOrdered, "")
}

// Refresh tears the current subscription down unconditionally and
// reattaches starting from Ordered. It is the only way out of ModeError.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.teardown()
	s.mu.Lock()
	tab := s.tab
	s.mu.Unlock()
	return s.attach(ctx, tab, ModeOrdered, "")
}

// Detach stops the live subscription and returns the synchronizer to idle.
func (s *Synchronizer) Detach() {
	s.teardown()
	s.mu.Lock()
	s.mode = ModeIdle
	s.mu.Unlock()
}

// Mode reports the current query mode.
func (s *Synchronizer) Mode() QueryMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Tab reports the tab of the current (or last) subscription.
func (s *Synchronizer) Tab() enums.FilterTab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab
}

func (s *Synchronizer) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// teardown drops the current subscription, invalidating its callbacks
// before waiting for it to finish delivering.
func (s *Synchronizer) teardown() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.gen++
	s.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

func (s *Synchronizer) attach(ctx context.Context, tab enums.FilterTab, mode QueryMode, diag string) error {
	if s.store == nil {
		return fmt.Errorf("feed store is not configured")
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.tab = tab
	s.mode = mode
	s.lastErr = diag
	s.mu.Unlock()

	s.notifyLoading(true)

	q := Query{Tab: tab, Ordered: mode == ModeOrdered}
	sub, err := s.store.Subscribe(ctx, q,
		func(records []pgrepo.ReportRecord) { s.handleSnapshot(gen, mode, records) },
		func(listenErr error) { s.handleListenerError(ctx, gen, tab, mode, listenErr) },
	)
	if err != nil {
		return s.handleSubscribeError(ctx, tab, mode, err)
	}

	s.mu.Lock()
	if s.gen != gen {
		// superseded while subscribing
		s.mu.Unlock()
		sub.Close()
		return nil
	}
	s.sub = sub
	s.mu.Unlock()

	return nil
}

func (s *Synchronizer) handleSnapshot(gen uint64, mode QueryMode, records []pgrepo.ReportRecord) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.lastErr = ""
	s.mu.Unlock()

	// the delivered set replaces the previous one wholesale
	views := reshape(records)
	if s.consumer.OnData != nil {
		s.consumer.OnData(views)
	}
	s.notifyDiagnostic(mode, "")
	s.notifyLoading(false)
}

func (s *Synchronizer) handleListenerError(ctx context.Context, gen uint64, tab enums.FilterTab, mode QueryMode, err error) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	// the errored subscription terminates itself; just drop the handle
	s.sub = nil
	s.mu.Unlock()

	s.degrade(ctx, tab, mode, err)
}

func (s *Synchronizer) handleSubscribeError(ctx context.Context, tab enums.FilterTab, mode QueryMode, err error) error {
	s.degrade(ctx, tab, mode, err)
	if mode == ModeFallback {
		return err
	}
	return nil
}

// degrade moves Ordered to Fallback once, keeping the original error as
// diagnostic context; a Fallback failure is terminal.
func (s *Synchronizer) degrade(ctx context.Context, tab enums.FilterTab, mode QueryMode, err error) {
	diag := err.Error()

	if mode == ModeOrdered {
		s.logger.Warn("ordered feed subscription failed, falling back to unordered",
			zap.String("tab", string(tab)),
			zap.Error(err),
		)
		s.notifyDiagnostic(ModeFallback, diag)
		if attachErr := s.attach(ctx, tab, ModeFallback, diag); attachErr != nil {
			s.logger.Error("fallback feed subscription failed", zap.Error(attachErr))
		}
		return
	}

	s.logger.Error("feed subscription failed in fallback mode",
		zap.String("tab", string(tab)),
		zap.Error(err),
	)
	s.mu.Lock()
	s.mode = ModeError
	s.lastErr = diag
	s.mu.Unlock()
	s.notifyDiagnostic(ModeError, diag)
	s.notifyLoading(false)
}

func (s *Synchronizer) notifyDiagnostic(mode QueryMode, lastErr string) {
	if s.consumer.OnDiagnostic != nil {
		s.consumer.OnDiagnostic(mode, lastErr)
	}
}

func (s *Synchronizer) notifyLoading(loading bool) {
	if s.consumer.OnLoadingChange != nil {
		s.consumer.OnLoadingChange(loading)
	}
}
