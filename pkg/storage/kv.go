// Package storage provides the string-keyed persistent byte stores the
// snapshot can be written to, and the client constructors for the services
// backing them.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("key not found")

// KV is a persistent map from string keys to byte values. Set overwrites
// unconditionally.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendRedis     = "redis"
	BackendMemcached = "memcached"
	BackendMongoDB   = "mongodb"
)

// Options selects and addresses a backend. Only the fields of the chosen
// backend are read.
type Options struct {
	Backend       string `toml:"backend" yaml:"backend"`
	SQLitePath    string `toml:"sqlite_path" yaml:"sqlite_path"`
	PostgresDSN   string `toml:"postgres_dsn" yaml:"postgres_dsn"`
	RedisAddr     string `toml:"redis_address" yaml:"redis_address"`
	RedisPort     int    `toml:"redis_port" yaml:"redis_port"`
	MemCachedAddr string `toml:"memcached_address" yaml:"memcached_address"`
	MemCachedPort int    `toml:"memcached_port" yaml:"memcached_port"`
	MongoDBAddr   string `toml:"mongodb_address" yaml:"mongodb_address"`
	MongoDBPort   int    `toml:"mongodb_port" yaml:"mongodb_port"`
}

// Open connects to the backend named by opts.Backend. An empty backend
// defaults to a SQLite file.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryKV(), nil
	case "", BackendSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = "gathering.db"
		}
		return NewSQLiteKV(ctx, path)
	case BackendPostgres:
		return NewPostgresKV(ctx, opts.PostgresDSN)
	case BackendRedis:
		return NewRedisKV(ctx, opts.RedisAddr, opts.RedisPort)
	case BackendMemcached:
		return NewMemcacheKV(opts.MemCachedAddr, opts.MemCachedPort), nil
	case BackendMongoDB:
		return NewMongoKV(ctx, opts.MongoDBAddr, opts.MongoDBPort)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
