// Package persistence writes the whole Store as one JSON document under a
// fixed key of a storage.KV and reads it back.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sn_metrics "gathering/pkg/metrics"
	"gathering/pkg/model"
	"gathering/pkg/storage"
	"gathering/pkg/store"
)

// DefaultKey is the key the browser client used for its localStorage entry.
const DefaultKey = "gatheringData"

// ErrStorage marks every failure of the underlying store: unreachable
// backend, rejected write or an undecodable document. Callers do not retry.
var ErrStorage = errors.New("storage error")

type Adapter struct {
	kv      storage.KV
	key     string
	backend string
	logger  *slog.Logger
}

type Option func(*Adapter)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(a *Adapter) {
		if key != "" {
			a.key = key
		}
	}
}

// WithBackendName sets the label used on save metrics.
func WithBackendName(name string) Option {
	return func(a *Adapter) { a.backend = name }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) { a.logger = logger }
}

func NewAdapter(kv storage.KV, opts ...Option) *Adapter {
	a := &Adapter{
		kv:      kv,
		key:     DefaultKey,
		backend: "unknown",
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Key() string { return a.key }

// Save overwrites the stored document with the full state of s.
func (a *Adapter) Save(ctx context.Context, s *store.Store) error {
	return a.SaveSnapshot(ctx, s.Snapshot())
}

// SaveSnapshot overwrites the stored document with doc.
func (a *Adapter) SaveSnapshot(ctx context.Context, doc model.Snapshot) error {
	start := time.Now()
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: encoding snapshot: %w", ErrStorage, err)
	}
	if err := a.kv.Set(ctx, a.key, data); err != nil {
		sn_metrics.SaveFailures.Get(sn_metrics.BackendLabel{Backend: a.backend}).Inc()
		a.logger.Error("error saving snapshot", "key", a.key, "bytes", len(data), "msg", err.Error())
		return fmt.Errorf("%w: saving %s: %w", ErrStorage, a.key, err)
	}
	sn_metrics.SaveDurationMs.Get(sn_metrics.BackendLabel{Backend: a.backend}).Put(float64(time.Since(start).Milliseconds()))
	sn_metrics.SnapshotBytes.Set(float64(len(data)))
	a.logger.Debug("saved snapshot", "key", a.key, "bytes", len(data), "users", len(doc.Users), "posts", len(doc.Posts))
	return nil
}

// LoadSnapshot returns the stored document. A missing key yields an empty
// document; missing or null collections decode as empty.
func (a *Adapter) LoadSnapshot(ctx context.Context) (model.Snapshot, error) {
	data, err := a.kv.Get(ctx, a.key)
	if errors.Is(err, storage.ErrNotFound) {
		a.logger.Debug("no snapshot stored, starting empty", "key", a.key)
		return model.Snapshot{Users: []model.User{}, Posts: []model.Post{}}, nil
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: loading %s: %w", ErrStorage, a.key, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: %s: %w", ErrStorage, a.key, err)
	}
	return doc, nil
}

// Load rebuilds the Store from the stored document.
func (a *Adapter) Load(ctx context.Context) (*store.Store, error) {
	doc, err := a.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	s, ok := store.FromSnapshot(doc)
	if !ok {
		a.logger.Warn("stored session user is not among users, starting logged out", "user_id", doc.CurrentUser.ID)
	}
	return s, nil
}

// Decode parses a snapshot document and normalises absent collections.
func Decode(data []byte) (model.Snapshot, error) {
	var doc model.Snapshot
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	if doc.Users == nil {
		doc.Users = []model.User{}
	}
	if doc.Posts == nil {
		doc.Posts = []model.Post{}
	}
	for i := range doc.Posts {
		doc.Posts[i].Normalize()
	}
	return doc, nil
}
