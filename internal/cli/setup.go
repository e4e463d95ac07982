package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adorostkar/gorate/internal/api"
	"github.com/adorostkar/gorate/internal/cache"
	"github.com/adorostkar/gorate/internal/config"
	"github.com/adorostkar/gorate/internal/library"
	"github.com/adorostkar/gorate/internal/logger"
	"github.com/adorostkar/gorate/internal/ops"
)

// cachePath locates the lookup cache database.
var cachePath = cache.DefaultPath

// loadConfig reads and validates the configuration and returns the path
// settings should be saved to.
func loadConfig() (config.Config, string, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, "", err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, "", err
	}
	savePath := cfgPath
	if savePath == "" {
		if savePath, err = config.DefaultPath(); err != nil {
			logger.Warn("%v", err)
			savePath = ""
		}
	}
	return cfg, savePath, nil
}

// resolveRoots turns folder arguments into absolute paths, defaulting to
// the working directory.
func resolveRoots(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	roots := make([]string, 0, len(args))
	for _, a := range args {
		abs, err := filepath.Abs(a)
		if err != nil {
			return nil, fmt.Errorf("resolve folder %s: %w", a, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("open folder: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("open folder %s: not a directory", abs)
		}
		roots = append(roots, abs)
	}
	return roots, nil
}

// newInformer builds the movie lookup chain for cfg. The returned close
// function releases the lookup cache, if one was opened.
func newInformer(cfg config.Config) (ops.Informer, func() error, error) {
	noop := func() error { return nil }
	if cfg.MovieAPI != config.MovieAPIOMDb {
		return ops.SelectInformer(cfg.MovieAPI, nil), noop, nil
	}

	client, err := api.NewClient(cfg.APIBaseURL, cfg.APIKey, cfg.RequestsPerSecond)
	if err != nil {
		return nil, nil, err
	}
	informer := ops.SelectInformer(cfg.MovieAPI, client)

	ttl, err := cfg.TTL()
	if err != nil {
		return nil, nil, err
	}
	if ttl == 0 {
		return informer, noop, nil
	}

	path, err := cachePath()
	if err != nil {
		logger.Warn("lookup cache disabled: %v", err)
		return informer, noop, nil
	}
	mc, err := cache.NewMovieCache(path, ttl)
	if err != nil {
		logger.Warn("lookup cache disabled: %v", err)
		return informer, noop, nil
	}
	if n, err := mc.Prune(context.Background()); err != nil {
		logger.Warn("%v", err)
	} else if n > 0 {
		logger.Info("pruned %d expired lookups", n)
	}
	return ops.CachedInformer{Cache: mc, Next: informer}, mc.Close, nil
}

// newLibrary wires the configured informer to a library over the folders
// in args.
func newLibrary(cfg config.Config, args []string) (*library.Library, func() error, error) {
	roots, err := resolveRoots(args)
	if err != nil {
		return nil, nil, err
	}
	informer, closeFn, err := newInformer(cfg)
	if err != nil {
		return nil, nil, err
	}
	return library.New(cfg, roots, informer), closeFn, nil
}
