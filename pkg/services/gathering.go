package services

import (
	"context"
	"log/slog"
	"time"

	"gathering/pkg/activity"
	"gathering/pkg/gathering"
	"gathering/pkg/model"
	"gathering/pkg/persistence"
	"gathering/pkg/storage"

	"github.com/ServiceWeaver/weaver"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Gathering exposes the session and feed operations of one shared Store.
// Lookup misses are reported through the bool results.
type Gathering interface {
	Signup(ctx context.Context, name, email, password, confirm string) (model.User, error)
	Login(ctx context.Context, email, password string) (model.User, error)
	Logout(ctx context.Context) error
	EditProfile(ctx context.Context, name, bio string) (model.User, error)
	CurrentUser(ctx context.Context) (model.User, bool, error)

	CreatePost(ctx context.Context, content string, image, link *string) (model.Post, error)
	DeletePost(ctx context.Context, postID, requesterID int64) (bool, error)
	ToggleLike(ctx context.Context, postID, userID int64) (model.Post, bool, error)
	AddComment(ctx context.Context, postID, authorID int64, authorName, authorAvatar, text string) (model.Comment, bool, error)

	Feed(ctx context.Context) ([]model.Post, error)
	Post(ctx context.Context, postID int64) (model.Post, bool, error)
	Profile(ctx context.Context, userID int64) (model.Profile, bool, error)
	Stats(ctx context.Context) (model.Stats, error)
	SeedSampleData(ctx context.Context) (bool, error)
}

// Every mutation is applied before it is saved, so a retried call would be
// applied twice.
var _ weaver.NotRetriable = Gathering.Signup
var _ weaver.NotRetriable = Gathering.Login
var _ weaver.NotRetriable = Gathering.Logout
var _ weaver.NotRetriable = Gathering.EditProfile
var _ weaver.NotRetriable = Gathering.CreatePost
var _ weaver.NotRetriable = Gathering.DeletePost
var _ weaver.NotRetriable = Gathering.ToggleLike
var _ weaver.NotRetriable = Gathering.AddComment
var _ weaver.NotRetriable = Gathering.SeedSampleData

type gatheringServiceOptions struct {
	Backend       string `toml:"backend"`
	StorageKey    string `toml:"storage_key"`
	SQLitePath    string `toml:"sqlite_path"`
	PostgresDSN   string `toml:"postgres_dsn"`
	RedisAddr     string `toml:"redis_address"`
	RedisPort     int    `toml:"redis_port"`
	MemCachedAddr string `toml:"memcached_address"`
	MemCachedPort int    `toml:"memcached_port"`
	MongoDBAddr   string `toml:"mongodb_address"`
	MongoDBPort   int    `toml:"mongodb_port"`
	RabbitMQAddr  string `toml:"rabbitmq_address"`
	RabbitMQPort  int    `toml:"rabbitmq_port"`
	RabbitMQUser  string `toml:"rabbitmq_username"`
	RabbitMQPass  string `toml:"rabbitmq_password"`
	SeedOnStart   bool   `toml:"seed_on_start"`
}

func (o gatheringServiceOptions) storage() storage.Options {
	return storage.Options{
		Backend:       o.Backend,
		SQLitePath:    o.SQLitePath,
		PostgresDSN:   o.PostgresDSN,
		RedisAddr:     o.RedisAddr,
		RedisPort:     o.RedisPort,
		MemCachedAddr: o.MemCachedAddr,
		MemCachedPort: o.MemCachedPort,
		MongoDBAddr:   o.MongoDBAddr,
		MongoDBPort:   o.MongoDBPort,
	}
}

func (o gatheringServiceOptions) amqp() activity.AMQPOptions {
	return activity.AMQPOptions{
		Addr:     o.RabbitMQAddr,
		Port:     o.RabbitMQPort,
		Username: o.RabbitMQUser,
		Password: o.RabbitMQPass,
	}
}

type gatheringService struct {
	weaver.Implements[Gathering]
	weaver.WithConfig[gatheringServiceOptions]
	kv        storage.KV
	publisher activity.Publisher
	app       *gathering.App
}

func (g *gatheringService) Init(ctx context.Context) error {
	logger := g.Logger(ctx)
	cfg := g.Config()

	kv, err := storage.Open(ctx, cfg.storage())
	if err != nil {
		logger.Error("error opening storage backend", "backend", cfg.Backend, "msg", err.Error())
		return err
	}
	g.kv = kv
	g.app, g.publisher, err = start(ctx, *cfg, kv, logger)
	if err != nil {
		return err
	}

	logger.Info("gathering service running!", "backend", cfg.Backend, "activity", cfg.amqp().Enabled())
	return nil
}

// start connects the activity publisher and loads the App over kv. On failure
// everything it opened is closed, kv included.
func start(ctx context.Context, cfg gatheringServiceOptions, kv storage.KV, logger *slog.Logger) (*gathering.App, activity.Publisher, error) {
	var publisher activity.Publisher = activity.NopPublisher{}
	if cfg.amqp().Enabled() {
		amqpPublisher, err := activity.NewAMQPPublisher(cfg.amqp())
		if err != nil {
			logger.Error("error connecting to rabbitmq", "msg", err.Error())
			kv.Close()
			return nil, nil, err
		}
		publisher = amqpPublisher
	}
	fail := func(err error) (*gathering.App, activity.Publisher, error) {
		publisher.Close()
		kv.Close()
		return nil, nil, err
	}

	adapterOpts := []persistence.Option{persistence.WithBackendName(cfg.Backend), persistence.WithLogger(logger)}
	if cfg.StorageKey != "" {
		adapterOpts = append(adapterOpts, persistence.WithKey(cfg.StorageKey))
	}
	app, err := gathering.Open(ctx, persistence.NewAdapter(kv, adapterOpts...),
		gathering.WithPublisher(publisher),
		gathering.WithLogger(logger),
	)
	if err != nil {
		logger.Error("error loading store", "msg", err.Error())
		return fail(err)
	}

	if cfg.SeedOnStart {
		if _, err := app.SeedSampleData(ctx); err != nil {
			logger.Error("error seeding sample data", "msg", err.Error())
			return fail(err)
		}
	}
	return app, publisher, nil
}

func (g *gatheringService) Shutdown(ctx context.Context) error {
	logger := g.Logger(ctx)
	err := g.app.Close(ctx)
	if err != nil {
		logger.Error("error writing final snapshot", "msg", err.Error())
	}
	if perr := g.publisher.Close(); perr != nil {
		logger.Warn("error closing activity publisher", "msg", perr.Error())
	}
	if kerr := g.kv.Close(); kerr != nil {
		logger.Warn("error closing storage backend", "msg", kerr.Error())
	}
	return err
}

// span records an event on the caller's span once the operation returns.
func span(ctx context.Context, name string, start time.Time, attrs ...attribute.KeyValue) {
	attrs = append(attrs,
		attribute.Int64(name+"_start_ms", start.UnixMilli()),
		attribute.Int64(name+"_end_ms", time.Now().UnixMilli()),
	)
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

func (g *gatheringService) Signup(ctx context.Context, name, email, password, confirm string) (model.User, error) {
	defer span(ctx, "signup", time.Now())
	return g.app.Session.Signup(ctx, name, email, password, confirm)
}

func (g *gatheringService) Login(ctx context.Context, email, password string) (model.User, error) {
	defer span(ctx, "login", time.Now())
	return g.app.Session.Login(ctx, email, password)
}

func (g *gatheringService) Logout(ctx context.Context) error {
	defer span(ctx, "logout", time.Now())
	return g.app.Session.Logout(ctx)
}

func (g *gatheringService) EditProfile(ctx context.Context, name, bio string) (model.User, error) {
	defer span(ctx, "edit_profile", time.Now())
	return g.app.Session.EditProfile(ctx, name, bio)
}

func (g *gatheringService) CurrentUser(ctx context.Context) (model.User, bool, error) {
	user, ok := g.app.Session.CurrentUser(ctx)
	return user, ok, nil
}

func (g *gatheringService) CreatePost(ctx context.Context, content string, image, link *string) (model.Post, error) {
	defer span(ctx, "create_post", time.Now(), attribute.Int("content_length", len(content)))
	return g.app.Feed.CreatePost(ctx, content, image, link)
}

func (g *gatheringService) DeletePost(ctx context.Context, postID, requesterID int64) (bool, error) {
	defer span(ctx, "delete_post", time.Now(), attribute.Int64("post_id", postID))
	return g.app.Feed.DeletePost(ctx, postID, requesterID)
}

func (g *gatheringService) ToggleLike(ctx context.Context, postID, userID int64) (model.Post, bool, error) {
	defer span(ctx, "toggle_like", time.Now(), attribute.Int64("post_id", postID))
	return g.app.Feed.ToggleLike(ctx, postID, userID)
}

func (g *gatheringService) AddComment(ctx context.Context, postID, authorID int64, authorName, authorAvatar, text string) (model.Comment, bool, error) {
	defer span(ctx, "add_comment", time.Now(), attribute.Int64("post_id", postID))
	return g.app.Feed.AddComment(ctx, postID, authorID, authorName, authorAvatar, text)
}

func (g *gatheringService) Feed(ctx context.Context) ([]model.Post, error) {
	return g.app.Feed.Feed(ctx), nil
}

func (g *gatheringService) Post(ctx context.Context, postID int64) (model.Post, bool, error) {
	post, ok := g.app.Feed.Post(ctx, postID)
	return post, ok, nil
}

func (g *gatheringService) Profile(ctx context.Context, userID int64) (model.Profile, bool, error) {
	profile, ok := g.app.Feed.Profile(ctx, userID)
	return profile, ok, nil
}

func (g *gatheringService) Stats(ctx context.Context) (model.Stats, error) {
	return g.app.Feed.Stats(ctx), nil
}

func (g *gatheringService) SeedSampleData(ctx context.Context) (bool, error) {
	defer span(ctx, "seed", time.Now())
	return g.app.SeedSampleData(ctx)
}
