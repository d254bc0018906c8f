package feed

import (
	"context"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/OzanD26/halk-habercisi/internal/domain/enums"
	pgrepo "github.com/OzanD26/halk-habercisi/internal/repo/postgres"
)

type ReportLister interface {
	List(ctx context.Context, tab enums.FilterTab, ordered bool) ([]pgrepo.ReportRecord, error)
}

type ChangeFeed interface {
	Subscribe(ctx context.Context) (*goredis.PubSub, error)
}

// LiveStore implements Store over the report table and the change channel:
// a full snapshot on subscribe, then a fresh snapshot after every change
// event, until the subscription is closed or a query fails.
type LiveStore struct {
	reports ReportLister
	changes ChangeFeed
	logger  *zap.Logger
}

func NewLiveStore(reports ReportLister, changes ChangeFeed, logger *zap.Logger) *LiveStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveStore{
		reports: reports,
		changes: changes,
		logger:  logger,
	}
}

func (s *LiveStore) Subscribe(ctx context.Context, q Query, onSnapshot func([]pgrepo.ReportRecord), onError func(error)) (Subscription, error) {
	if s.reports == nil || s.changes == nil {
		return nil, fmt.Errorf("live store dependencies are not configured")
	}

	pubsub, err := s.changes.Subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("open change feed: %w", err)
	}

	sub := &liveSubscription{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		defer func() { _ = pubsub.Close() }()

		deliver := func() bool {
			records, listErr := s.reports.List(ctx, q.Tab, q.Ordered)
			if listErr != nil {
				onError(listErr)
				return false
			}
			onSnapshot(records)
			return true
		}

		if !deliver() {
			return
		}

		events := pubsub.Channel()
		for {
			select {
			case <-sub.stop:
				return
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					onError(fmt.Errorf("change feed closed unexpectedly"))
					return
				}
				if !deliver() {
					return
				}
			}
		}
	}()

	return sub, nil
}

type liveSubscription struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Close signals the delivery loop to stop and waits for it to exit, so no
// callback can fire after Close returns.
func (s *liveSubscription) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}
