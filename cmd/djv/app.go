package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/darbyjohnston/DJV-sub020/internal/adapter"
	"github.com/darbyjohnston/DJV-sub020/internal/search"
	"github.com/darbyjohnston/DJV-sub020/internal/service"
	"github.com/darbyjohnston/DJV-sub020/internal/store"
)

// app holds what every command needs once flags are parsed
type app struct {
	configPath string

	cfg    *adapter.Config
	logger *slog.Logger
	closer io.Closer
	svc    *service.Context
}

// command wraps fn with setup and teardown of the service context. fn
// runs with a context cancelled on interrupt.
func (a *app) command(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.setup(); err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.SetContext(ctx)
		return fn(cmd, args)
	}
}

func (a *app) setup() error {
	cfg, err := adapter.LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger, closer = adapter.NullLogger(), nil
	}
	a.logger, a.closer = logger, closer
	slog.SetDefault(logger)

	logger.Info("starting djv", "version", Version)

	mode, err := cfg.PlaybackMode()
	if err != nil {
		return err
	}
	opts := service.Options{
		CacheBytes: cfg.CacheBytes(),
		Prefetch:   cfg.Cache.Prefetch,
		Mode:       mode,
		EveryFrame: cfg.Playback.EveryFrame,
		Logger:     logger,
	}
	st, err := store.NewInfoStore(cfg.Store.Path)
	if err != nil {
		logger.Warn("clip store unavailable, keeping metadata in memory", "path", cfg.Store.Path, "error", err)
	} else {
		opts.Store = st
	}

	svc, err := service.NewContext(opts)
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		return fmt.Errorf("failed to create service: %w", err)
	}
	a.svc = svc
	return nil
}

func (a *app) close() {
	if a.svc != nil {
		if err := a.svc.Close(); err != nil {
			a.logger.Warn("failed to close service", "error", err)
		}
		a.svc = nil
	}
	a.logger.Info("shutting down")
	if a.closer != nil {
		_ = a.closer.Close()
		a.closer = nil
	}
}

// resolve turns a command line argument into a clip path. An existing
// file is used as is; anything else is looked up by name among the clips
// of its directory.
func (a *app) resolve(arg string) (string, error) {
	if st, err := os.Stat(arg); err == nil && !st.IsDir() {
		return arg, nil
	}
	dir := filepath.Dir(arg)
	clips, err := a.svc.Browse(dir)
	if err != nil {
		return "", fmt.Errorf("%s: %w", arg, err)
	}
	clip, err := search.Resolve(filepath.Base(arg), clips)
	if err != nil {
		return "", err
	}
	a.logger.Debug("resolved clip", "query", arg, "path", clip.Path())
	return clip.Path(), nil
}

func (a *app) openWindow(ctx context.Context, arg string) (*service.Window, error) {
	path, err := a.resolve(arg)
	if err != nil {
		return nil, err
	}
	return a.svc.OpenWindow(ctx, path)
}

func isDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}
