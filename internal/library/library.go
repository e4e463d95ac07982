// Package library keeps the scanned and enriched movie list for the views.
package library

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/adorostkar/gorate/internal/config"
	"github.com/adorostkar/gorate/internal/logger"
	"github.com/adorostkar/gorate/internal/model"
	"github.com/adorostkar/gorate/internal/ops"
	"github.com/adorostkar/gorate/internal/scanner"
)

// Stats summarises the last Reload.
type Stats struct {
	Scanned  int
	Enriched int
	Failed   int
}

type Library struct {
	cfg   config.Config
	roots []string

	mu       sync.RWMutex
	informer ops.Informer
	movies   []model.Movie
	stats    Stats
}

func New(cfg config.Config, roots []string, informer ops.Informer) *Library {
	if informer == nil {
		informer = ops.Passthrough
	}
	return &Library{cfg: cfg, roots: roots, informer: informer}
}

// Reload scans every root, enriches the result and replaces the movie list
// sorted by title. onProgress is passed through to ops.Enrich. Roots that
// fail to scan are skipped unless all of them fail.
func (l *Library) Reload(ctx context.Context, onProgress func(completed, total int)) (Stats, error) {
	logger.Section("Scan")
	var (
		movies []model.Movie
		errs   []error
	)
	for _, root := range l.roots {
		found, err := scanner.Scan(ctx, root, l.cfg)
		if err != nil {
			if ctx.Err() != nil {
				return Stats{}, ctx.Err()
			}
			logger.Warn("%v", err)
			errs = append(errs, err)
			continue
		}
		logger.Info("%s: %d movies", root, len(found))
		movies = append(movies, found...)
	}
	if len(errs) > 0 && len(errs) == len(l.roots) {
		return Stats{}, errors.Join(errs...)
	}

	logger.Section("Enrich")
	l.mu.RLock()
	informer := l.informer
	l.mu.RUnlock()
	result, err := ops.Enrich(ctx, movies, informer, l.cfg.Concurrency, onProgress)
	if err != nil {
		return Stats{}, err
	}

	sort.SliceStable(movies, func(i, j int) bool {
		return strings.ToLower(movies[i].Title) < strings.ToLower(movies[j].Title)
	})

	stats := Stats{Scanned: len(movies), Failed: result.Failed}
	for _, m := range movies {
		if m.Enriched() {
			stats.Enriched++
		}
	}

	l.mu.Lock()
	l.movies = movies
	l.stats = stats
	l.mu.Unlock()
	return stats, nil
}

// SetInformer replaces the informer used by later reloads. A reload already
// running keeps the informer it started with.
func (l *Library) SetInformer(informer ops.Informer) {
	if informer == nil {
		informer = ops.Passthrough
	}
	l.mu.Lock()
	l.informer = informer
	l.mu.Unlock()
}

// Movies returns a copy of the current list.
func (l *Library) Movies() []model.Movie {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Movie, len(l.movies))
	copy(out, l.movies)
	return out
}

func (l *Library) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stats
}

func (l *Library) Roots() []string {
	return append([]string(nil), l.roots...)
}

func (l *Library) Config() config.Config {
	return l.cfg
}
