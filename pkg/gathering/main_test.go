package gathering

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"gathering/pkg/activity"
	"gathering/pkg/persistence"
	"gathering/pkg/storage"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []activity.Event
}

func (r *recordingPublisher) Publish(_ context.Context, event activity.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) kinds() []activity.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []activity.Kind
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// flakyKV fails every Set once failing is switched on.
type flakyKV struct {
	*storage.MemoryKV
	failing bool
}

var errQuota = errors.New("quota exceeded")

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failing {
		return errQuota
	}
	return f.MemoryKV.Set(ctx, key, value)
}

type fixture struct {
	app       *App
	kv        *flakyKV
	publisher *recordingPublisher
	clock     time.Time
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		kv:        &flakyKV{MemoryKV: storage.NewMemoryKV()},
		publisher: &recordingPublisher{},
		clock:     time.Date(2026, 10, 15, 15, 4, 5, 0, time.UTC),
	}
	f.app = f.open(t)
	return f
}

// open loads a fresh App over the fixture's storage, as a restarted
// process would.
func (f *fixture) open(t *testing.T) *App {
	t.Helper()
	app, err := Open(context.Background(), persistence.NewAdapter(f.kv, persistence.WithLogger(quietLogger)),
		WithClock(func() time.Time { return f.clock }),
		WithPublisher(f.publisher),
		WithLogger(quietLogger),
	)
	require.NoError(t, err)
	return app
}
