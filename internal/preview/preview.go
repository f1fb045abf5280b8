// Package preview serves a built site locally and rebuilds it when content changes.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// Options configures a preview session.
type Options struct {
	Port      int
	OutputDir string
	// WatchDirs are watched recursively; missing directories are ignored.
	WatchDirs []string
	// Rebuild runs one full build into OutputDir.
	Rebuild func(context.Context) error
	// Metrics, when set, is served at /_blogbuilder/metrics.
	Metrics  http.Handler
	Debounce time.Duration
	Logger   *slog.Logger
}

// buildStatus tracks the current build state for error display.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool
	builds       int
}

func (bs *buildStatus) record(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.builds++
	bs.lastError = err
	if err == nil {
		bs.hasGoodBuild = true
	}
}

func (bs *buildStatus) get() (lastErr error, hasGoodBuild bool, builds int) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError, bs.hasGoodBuild, bs.builds
}

// Start builds the site, serves OutputDir on Port and rebuilds on changes
// until ctx is canceled.
func Start(ctx context.Context, opts Options) error {
	if opts.Rebuild == nil {
		return errors.New("preview requires a rebuild function")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	status := &buildStatus{}
	report := func(err error) {
		status.record(err)
		if err != nil {
			logger.Warn("Rebuild failed", logfields.Error(err))
			return
		}
		logger.Info("Site rebuilt", logfields.Output(opts.OutputDir))
	}
	report(opts.Rebuild(ctx))

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", opts.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", opts.Port, err)
	}
	srv := &http.Server{
		Handler:           newHandler(opts.OutputDir, status, opts.Metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Preview server stopped", logfields.Error(err))
		}
	}()
	logger.Info("Preview server listening", slog.String("url", fmt.Sprintf("http://localhost:%d", opts.Port)))

	watcher, err := setupFileWatcher(logger, opts.WatchDirs...)
	if err != nil {
		_ = srv.Close()
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	rb := newRebuilder(func(ctx context.Context) error {
		logger.Info("Change detected; rebuilding site")
		return opts.Rebuild(ctx)
	}, report, opts.Debounce)
	go rb.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			return shutdown(logger, srv)
		case ev, ok := <-watcher.Events:
			if !ok {
				return shutdown(logger, srv)
			}
			if handleFileEvent(logger, watcher, ev) {
				rb.Trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return shutdown(logger, srv)
			}
			logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func shutdown(logger *slog.Logger, srv *http.Server) error {
	logger.Info("Shutting down preview server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	return nil
}

// newHandler serves the output directory. Missing paths get the site's
// 404 page; until a build succeeds every request gets the last build error.
func newHandler(outputDir string, status *buildStatus, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/_blogbuilder/status", func(w http.ResponseWriter, _ *http.Request) {
		lastErr, good, builds := status.get()
		body := map[string]any{"ok": lastErr == nil, "has_good_build": good, "builds": builds}
		if lastErr != nil {
			body["error"] = lastErr.Error()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
	if metricsHandler != nil {
		mux.Handle("/_blogbuilder/metrics", metricsHandler)
	}

	files := http.FileServer(http.Dir(outputDir))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		lastErr, good, _ := status.get()
		if !good {
			msg := "no successful build yet"
			if lastErr != nil {
				msg = "build failed: " + lastErr.Error()
			}
			http.Error(w, msg, http.StatusServiceUnavailable)
			return
		}
		target := filepath.Join(outputDir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if _, err := os.Stat(target); os.IsNotExist(err) {
			if page, err := os.ReadFile(filepath.Join(outputDir, "404.html")); err == nil {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write(page)
				return
			}
		}
		files.ServeHTTP(w, r)
	})
	return mux
}
