package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/templink/internal/config"
	"github.com/conneroisu/templink/internal/deps"
	"github.com/conneroisu/templink/internal/logging"
	"github.com/conneroisu/templink/internal/manager"
	"github.com/conneroisu/templink/internal/notify"
	"github.com/conneroisu/templink/internal/parser"
	"github.com/conneroisu/templink/internal/threading"
	"github.com/conneroisu/templink/internal/types"
	"github.com/conneroisu/templink/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Track open documents and dispatch reparses on import changes",
	Long: `Open every templ document under the configured scan paths, watch the
import files they depend on, and dispatch a reparse to each dependent
document whenever a watched import changes on disk or an editor reports a
save over the notification server.

Examples:
  templink watch                  # Watch configured scan paths
  templink watch ./views          # Watch a specific path
  templink watch --serve          # Also serve editor notifications`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Bool("serve", false, "Serve reparse notifications over WebSocket")
	watchCmd.Flags().Int("debounce", 100, "Debounce window for file changes (ms)")
	bindFlag(watchCmd.Flags(), "server.enabled", "serve")
	bindFlag(watchCmd.Flags(), "watch.debounce_ms", "debounce")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if len(args) > 0 {
		cfg.Components.ScanPaths = args
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// All engine mutation runs on this goroutine; the loop channel is how
	// change sources marshal their notifications here.
	loop := make(chan func(), 256)
	dispatch := watch.Dispatcher(func(fn func()) {
		select {
		case loop <- fn:
		case <-ctx.Done():
		}
	})

	files, err := watch.NewFsnotifySource(time.Duration(cfg.Watch.DebounceMs)*time.Millisecond, dispatch, logger)
	if err != nil {
		return fmt.Errorf("failed to create file change source: %w", err)
	}
	defer files.Close()
	go files.Run(ctx)

	saves := watch.NewSaveBroadcaster(dispatch)
	table := watch.NewDocumentTable()

	index := deps.NewIndex()
	pool := watch.NewPool(files, saves, table, logger)
	mgr := manager.New(index, pool, threading.NewGoroutineChecker(), logger)

	var broadcaster *notify.Broadcaster
	if cfg.Server.Enabled {
		broadcaster = notify.NewBroadcaster(saveRelay(table, saves), logger)
		defer broadcaster.Shutdown()

		if err := serveNotifications(ctx, cfg.Server, broadcaster, logger); err != nil {
			return err
		}
	}

	mgr.SetReparseObserver(func(docPath, importPath string) {
		logger.Info(ctx, "reparse dispatched", "document", docPath, "import", importPath)
		if broadcaster != nil {
			broadcaster.BroadcastReparse(docPath, importPath)
		}
	})

	documents, err := discoverDocuments(cfg, logger)
	if err != nil {
		return err
	}
	if len(documents) == 0 {
		logger.Warn(ctx, nil, "no documents found", "scan_paths", cfg.Components.ScanPaths)
	}

	for _, doc := range documents {
		table.Open(doc.Path())
		if err := mgr.AddDocument(doc); err != nil {
			logger.Error(ctx, err, "document added with degraded watching", "document", doc.Path())
		}
	}

	logger.Info(ctx, "tracking documents",
		"documents", len(mgr.OpenDocuments()), "watched_imports", pool.Len())

	for {
		select {
		case <-ctx.Done():
			logger.Info(context.Background(), "shutting down")
			return nil
		case fn := <-loop:
			fn()
		}
	}
}

// saveRelay turns editor-reported save paths into save-source cookie
// notifications. Editors save import files, which are never open documents,
// so a path the table has not seen gets a cookie on the way through; Open is
// idempotent for paths that already have one.
func saveRelay(table *watch.DocumentTable, saves *watch.SaveBroadcaster) notify.SaveFunc {
	return func(path string) {
		saves.NotifySaved(table.Open(path))
	}
}

// discoverDocuments opens every non-auxiliary templ document under the scan
// paths. Files starting with "_" are auxiliary imports, not documents.
func discoverDocuments(cfg *config.Config, logger logging.Logger) ([]types.Document, error) {
	paths, err := scanTemplFiles(cfg.Components.ScanPaths, cfg.Components.ExcludePatterns, logger)
	if err != nil {
		return nil, err
	}

	documents := make([]types.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := parser.OpenDocument(path, logger,
			parser.WithExcludePatterns(cfg.Components.ExcludePatterns, logger))
		if err != nil {
			logger.Warn(context.Background(), err, "skipping document", "path", path)
			continue
		}
		documents = append(documents, doc)
	}

	return documents, nil
}

func serveNotifications(ctx context.Context, cfg config.ServerConfig, b *notify.Broadcaster, logger logging.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", b.HandleWebSocket)

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info(ctx, "notification server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, err, "notification server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	return nil
}
