// Package server serves the movie table and settings page over HTTP.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/adorostkar/gorate/internal/config"
	"github.com/adorostkar/gorate/internal/filter"
	"github.com/adorostkar/gorate/internal/library"
	"github.com/adorostkar/gorate/internal/logger"
	"github.com/adorostkar/gorate/internal/model"
	"github.com/adorostkar/gorate/internal/ops"
)

//go:embed templates/*.html
var templateFS embed.FS

// InformerFactory builds the movie lookup chain for a configuration and
// returns a function releasing it.
type InformerFactory func(cfg config.Config) (ops.Informer, func() error, error)

type Options struct {
	// ConfigPath receives settings posted to /settings. Empty keeps them in
	// memory only.
	ConfigPath string
	// NewInformer rebuilds the library's informer when the movie API or its
	// key change. Nil leaves the informer alone.
	NewInformer InformerFactory
	// CloseInformer releases the informer the library was built with.
	CloseInformer func() error
}

type Server struct {
	lib         *library.Library
	cfgPath     string
	newInformer InformerFactory
	templates   *template.Template
	router      chi.Router

	mu            sync.RWMutex
	cfg           config.Config
	closeInformer func() error
}

// New builds the router over lib, whose settings start out as cfg.
func New(lib *library.Library, cfg config.Config, opts Options) (*Server, error) {
	funcs := template.FuncMap{
		"hasColumn": func(cols []int, col int) bool {
			for _, c := range cols {
				if c == col {
					return true
				}
			}
			return false
		},
	}
	templates, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		lib:           lib,
		cfg:           cfg,
		cfgPath:       opts.ConfigPath,
		newInformer:   opts.NewInformer,
		closeInformer: opts.CloseInformer,
		templates:     templates,
	}
	s.router = s.buildRouter()
	return s, nil
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.indexHandler)
	r.Get("/api/movies", s.moviesHandler)
	r.Get("/settings", s.settingsHandler)
	r.Post("/settings", s.saveSettingsHandler)
	r.Get("/healthz", healthzHandler)
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving movies on %s", addr)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen and serve: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases the library's current informer.
func (s *Server) Close() error {
	s.mu.Lock()
	closeFn := s.closeInformer
	s.closeInformer = nil
	s.mu.Unlock()
	if closeFn == nil {
		return nil
	}
	return closeFn()
}

func (s *Server) config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// movieRow is one table row; hidden rows are rendered with display:none.
type movieRow struct {
	Movie  model.Movie
	Cells  []string
	Hidden bool
}

type filterResult struct {
	Rows    []movieRow
	Visible int
	Label   string
}

// filterMovies runs the row filter for query over the current library.
func (s *Server) filterMovies(query string) (filterResult, error) {
	movies := s.lib.Movies()
	data := make([][]string, len(movies))
	for i, m := range movies {
		data[i] = m.Cells()
	}
	rows := filter.NewRows(model.Columns, data)

	var label filter.TextLabel
	f, err := filter.New(filter.Options{SearchColumns: s.config().SearchColumns}, filter.Query(query), rows, &label)
	if err != nil {
		return filterResult{}, err
	}
	n, err := f.Apply()
	if err != nil {
		return filterResult{}, err
	}

	result := filterResult{Rows: make([]movieRow, len(movies)), Visible: n, Label: label.Text}
	for i, m := range movies {
		result.Rows[i] = movieRow{Movie: m, Cells: data[i], Hidden: !rows.Visible(i)}
	}
	return result, nil
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	result, err := s.filterMovies(query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, http.StatusOK, "index.html", map[string]any{
		"Query":   query,
		"Columns": model.Columns,
		"Rows":    result.Rows,
		"Label":   result.Label,
		"Stats":   s.lib.Stats(),
	})
}

type moviesResponse struct {
	Query  string        `json:"query"`
	Count  int           `json:"count"`
	Label  string        `json:"label"`
	Movies []model.Movie `json:"movies"`
}

func (s *Server) moviesHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	result, err := s.filterMovies(query)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	resp := moviesResponse{Query: query, Count: result.Visible, Label: result.Label, Movies: []model.Movie{}}
	for _, row := range result.Rows {
		if !row.Hidden {
			resp.Movies = append(resp.Movies, row.Movie)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type settingsPage struct {
	Config  config.Config
	Columns []string
	Saved   bool
	Error   string
}

func (s *Server) settingsHandler(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "settings.html", settingsPage{Config: s.config(), Columns: model.Columns})
}

func (s *Server) saveSettingsHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	prev := s.config()
	cfg := prev
	cfg.MovieAPI = r.PostForm.Get("movie_api")
	// The key is never sent to the browser, so a blank field keeps it.
	if key := r.PostForm.Get("api_key"); key != "" {
		cfg.APIKey = key
	}
	cols := make([]int, 0, len(r.PostForm["search_columns"]))
	for _, v := range r.PostForm["search_columns"] {
		col, err := strconv.Atoi(v)
		if err != nil {
			s.render(w, http.StatusBadRequest, "settings.html", settingsPage{
				Config: cfg, Columns: model.Columns, Error: fmt.Sprintf("invalid search column %q", v),
			})
			return
		}
		cols = append(cols, col)
	}
	cfg.SearchColumns = cols

	if err := cfg.Validate(); err != nil {
		s.render(w, http.StatusBadRequest, "settings.html", settingsPage{Config: cfg, Columns: model.Columns, Error: err.Error()})
		return
	}

	swap := s.newInformer != nil && (cfg.MovieAPI != prev.MovieAPI || cfg.APIKey != prev.APIKey)
	var (
		informer ops.Informer
		closeNew func() error
	)
	if swap {
		var err error
		informer, closeNew, err = s.newInformer(cfg)
		if err != nil {
			logger.Warn("build movie lookup: %v", err)
			s.render(w, http.StatusInternalServerError, "settings.html", settingsPage{Config: cfg, Columns: model.Columns, Error: err.Error()})
			return
		}
	}
	if s.cfgPath != "" {
		if err := cfg.Save(s.cfgPath); err != nil {
			logger.Warn("save settings: %v", err)
			if closeNew != nil {
				_ = closeNew()
			}
			s.render(w, http.StatusInternalServerError, "settings.html", settingsPage{Config: cfg, Columns: model.Columns, Error: err.Error()})
			return
		}
	}

	s.mu.Lock()
	s.cfg = cfg
	closeOld := s.closeInformer
	if swap {
		s.closeInformer = closeNew
	}
	s.mu.Unlock()

	if swap {
		s.lib.SetInformer(informer)
		if closeOld != nil {
			if err := closeOld(); err != nil {
				logger.Warn("close previous movie lookup: %v", err)
			}
		}
	}
	logger.Info("settings updated: movie_api=%q search_columns=%v", cfg.MovieAPI, cfg.SearchColumns)

	s.render(w, http.StatusOK, "settings.html", settingsPage{Config: cfg, Columns: model.Columns, Saved: true})
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		logger.Warn("render %s: %v", name, err)
	}
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode JSON response: %v", err)
	}
}
