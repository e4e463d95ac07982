package ops

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/adorostkar/gorate/internal/cache"
	"github.com/adorostkar/gorate/internal/config"
	"github.com/adorostkar/gorate/internal/logger"
	"github.com/adorostkar/gorate/internal/model"
)

// Informer attaches metadata to a scanned movie. On error it returns the
// movie it was given.
type Informer interface {
	Inform(ctx context.Context, m model.Movie) (model.Movie, error)
}

// InformerFunc adapts a function to Informer.
type InformerFunc func(ctx context.Context, m model.Movie) (model.Movie, error)

func (f InformerFunc) Inform(ctx context.Context, m model.Movie) (model.Movie, error) {
	return f(ctx, m)
}

// Passthrough keeps movies as scanned.
var Passthrough Informer = InformerFunc(func(_ context.Context, m model.Movie) (model.Movie, error) {
	return m, nil
})

// SelectInformer picks the informer for the configured movie API. An
// unknown name or a nil client falls back to Passthrough.
func SelectInformer(name string, omdb Informer) Informer {
	switch name {
	case config.MovieAPIOMDb:
		if omdb != nil {
			return omdb
		}
		logger.Warn("movie api %q has no client, using file names only", name)
	case config.MovieAPINone, "":
	default:
		logger.Warn("unknown movie api %q, using file names only", name)
	}
	return Passthrough
}

// CachedInformer answers from Cache when possible and stores every
// successful lookup made through Next.
type CachedInformer struct {
	Cache *cache.MovieCache
	Next  Informer
}

func (c CachedInformer) Inform(ctx context.Context, m model.Movie) (model.Movie, error) {
	cached, ok, err := c.Cache.Get(ctx, m.Title, m.Year)
	if err != nil {
		logger.Warn("%v", err)
	}
	if ok {
		cached.Path = m.Path
		return cached, nil
	}

	info, err := c.Next.Inform(ctx, m)
	if err != nil {
		return m, err
	}
	if err := c.Cache.Store(ctx, m.Title, m.Year, info); err != nil {
		logger.Warn("%v", err)
	}
	return info, nil
}

type EnrichResult struct {
	Completed int
	Failed    int
	Errors    []error
}

// Enrich runs informer over movies with at most concurrency lookups in
// flight and replaces each entry in place. A failed lookup leaves the
// scanned movie as it was and is recorded in the result. onProgress, if
// set, is called after every movie.
func Enrich(ctx context.Context, movies []model.Movie, informer Informer, concurrency int, onProgress func(completed, total int)) (*EnrichResult, error) {
	result := &EnrichResult{}
	total := len(movies)
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range movies {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			info, err := informer.Inform(gctx, movies[i])

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Errorf("%s: %w", movies[i].Path, err))
				logger.Warn("inform %q: %v", movies[i].Title, err)
			} else {
				movies[i] = info
				result.Completed++
			}
			done++
			if onProgress != nil {
				onProgress(done, total)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}
