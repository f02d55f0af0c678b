// Package gathering implements the session and feed operations over one
// shared in-memory Store, persisting the whole Store after every mutation.
package gathering

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gathering/pkg/activity"
	"gathering/pkg/model"
	"gathering/pkg/persistence"
	"gathering/pkg/store"
	"gathering/pkg/utils"
)

// App owns the Store for the lifetime of the process: it is loaded once by
// Open and written a final time by Close. Every operation holds mu across
// "mutate Store, save Store", so concurrent callers see last-writer-wins
// whole-document writes and never a partial one.
type App struct {
	mu        sync.Mutex
	store     *store.Store
	adapter   *persistence.Adapter
	ids       *utils.IDGenerator
	now       func() time.Time
	publisher activity.Publisher
	logger    *slog.Logger

	Session *SessionService
	Feed    *FeedService
}

type Option func(*App)

// WithClock replaces time.Now for ids and rendered timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithPublisher sends an activity event after every committed mutation.
func WithPublisher(p activity.Publisher) Option {
	return func(a *App) { a.publisher = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// Open loads the persisted Store through adapter.
func Open(ctx context.Context, adapter *persistence.Adapter, opts ...Option) (*App, error) {
	a := &App{
		adapter:   adapter,
		now:       time.Now,
		publisher: activity.NopPublisher{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	s, err := adapter.Load(ctx)
	if err != nil {
		return nil, err
	}
	a.store = s
	a.ids = utils.NewIDGenerator(a.now)
	a.ids.Observe(s.MaxID())
	a.Session = &SessionService{app: a}
	a.Feed = &FeedService{app: a}

	a.logger.Info("store loaded", "key", adapter.Key(), "users", len(s.Users()), "posts", len(s.Posts()), "logged_in", s.Session() != nil)
	return a, nil
}

// Close writes the Store one last time.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.adapter.Save(ctx, a.store)
}

// Snapshot returns a deep copy of the whole Store in its persisted shape.
func (a *App) Snapshot() model.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.Snapshot()
}

// save persists the Store. Must be called with mu held. On failure the
// in-memory mutation is left in place.
func (a *App) save(ctx context.Context, op string) error {
	if err := a.adapter.Save(ctx, a.store); err != nil {
		a.logger.Error("error persisting store", "op", op, "msg", err.Error())
		return err
	}
	return nil
}

func (a *App) publish(ctx context.Context, event activity.Event) {
	if err := a.publisher.Publish(ctx, event); err != nil {
		a.logger.Warn("error publishing activity event", "kind", event.Kind, "msg", err.Error())
	}
}

func (a *App) timestamp() string {
	return a.now().Format(model.TimestampLayout)
}
