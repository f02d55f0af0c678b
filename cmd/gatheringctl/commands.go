package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gathering/pkg/activity"
	"gathering/pkg/gathering"
	"gathering/pkg/persistence"
	"gathering/pkg/storage"
	"gathering/pkg/store"
	sn_trace "gathering/pkg/trace"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	exportOut string
	importIn  string
	tailQueue string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the persisted document",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print user, post, comment and like totals",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install the two demo accounts when the store has no users",
	Args:  cobra.NoArgs,
	RunE:  runSeed,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the persisted document to a file",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the persisted document with a file's contents",
	Long: `Reads a {currentUser, users, posts} document, checks that it decodes, and
writes it under the configured key, replacing whatever was stored.`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log activity events from the broker until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runTail,
}

// coreLogger is handed to the persistence and service packages, which log
// through slog.
func coreLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// withAdapter opens the configured backend for the duration of fn.
func withAdapter(ctx context.Context, fn func(*persistence.Adapter) error) error {
	kv, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer kv.Close()
	logger.Debug("opened storage backend", zap.String("backend", cfg.Storage.Backend), zap.String("key", cfg.StorageKey))
	return fn(persistence.NewAdapter(kv,
		persistence.WithKey(cfg.StorageKey),
		persistence.WithBackendName(cfg.Storage.Backend),
		persistence.WithLogger(coreLogger()),
	))
}

func withApp(ctx context.Context, fn func(*gathering.App) error) error {
	return withAdapter(ctx, func(adapter *persistence.Adapter) error {
		app, err := gathering.Open(ctx, adapter, gathering.WithLogger(coreLogger()))
		if err != nil {
			return err
		}
		return fn(app)
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runShow(cmd *cobra.Command, args []string) error {
	return withAdapter(cmd.Context(), func(adapter *persistence.Adapter) error {
		doc, err := adapter.LoadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), doc)
	})
}

func runStats(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(app *gathering.App) error {
		return printJSON(cmd.OutOrStdout(), app.Feed.Stats(cmd.Context()))
	})
}

func runSeed(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(app *gathering.App) error {
		seeded, err := app.SeedSampleData(cmd.Context())
		if err != nil {
			return err
		}
		if !seeded {
			logger.Info("store already has users, nothing seeded")
			return nil
		}
		logger.Info("seeded sample data", zap.String("key", cfg.StorageKey))
		return nil
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	return withAdapter(cmd.Context(), func(adapter *persistence.Adapter) error {
		doc, err := adapter.LoadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		if exportOut == "-" {
			return printJSON(cmd.OutOrStdout(), doc)
		}
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		if err := printJSON(f, doc); err != nil {
			return err
		}
		logger.Info("exported document",
			zap.String("path", exportOut),
			zap.Int("users", len(doc.Users)),
			zap.Int("posts", len(doc.Posts)))
		return f.Close()
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(importIn)
	if err != nil {
		return fmt.Errorf("reading import file: %w", err)
	}
	doc, err := persistence.Decode(data)
	if err != nil {
		return err
	}
	if _, ok := store.FromSnapshot(doc); !ok {
		logger.Warn("currentUser is not among users, importing as logged out", zap.Int64("user_id", doc.CurrentUser.ID))
		doc.CurrentUser = nil
	}
	return withAdapter(cmd.Context(), func(adapter *persistence.Adapter) error {
		if err := adapter.SaveSnapshot(cmd.Context(), doc); err != nil {
			return err
		}
		logger.Info("imported document",
			zap.String("path", importIn),
			zap.Int("users", len(doc.Users)),
			zap.Int("posts", len(doc.Posts)))
		return nil
	})
}

func runTail(cmd *cobra.Command, args []string) error {
	if !cfg.Activity.Enabled() {
		return fmt.Errorf("no rabbitmq_address configured under activity")
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("tailing activity", zap.String("exchange", activity.Exchange), zap.String("queue", tailQueue))
	return activity.Consume(ctx, cfg.Activity, tailQueue, coreLogger(), logActivity)
}

// logActivity logs one event under the span of the request that caused it.
func logActivity(ctx context.Context, event activity.Event) error {
	ctx = sn_trace.ContextWithRemote(ctx, event.SpanContext)
	logger.Info("activity",
		zap.String("kind", string(event.Kind)),
		zap.Int64("user_id", event.UserID),
		zap.Int64("post_id", event.PostID),
		zap.Int64("comment_id", event.CommentID),
		zap.Bool("liked", event.Liked),
		zap.Int64("at_ms", event.Timestamp),
		zap.String("trace_id", trace.SpanContextFromContext(ctx).TraceID().String()))
	return nil
}
