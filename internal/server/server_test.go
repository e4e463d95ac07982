package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adorostkar/gorate/internal/config"
	"github.com/adorostkar/gorate/internal/library"
	"github.com/adorostkar/gorate/internal/model"
	"github.com/adorostkar/gorate/internal/ops"
)

var genres = map[string][]string{
	"Heat":  {"Crime", "Drama"},
	"Alien": {"Horror", "Sci-Fi"},
	"Up":    {"Animation"},
}

func newTestServer(t *testing.T, cfgPath string) *Server {
	t.Helper()
	s, _ := newTestServerWith(t, Options{ConfigPath: cfgPath})
	return s
}

func newTestServerWith(t *testing.T, opts Options) (*Server, *library.Library) {
	t.Helper()
	root := t.TempDir()
	for _, name := range []string{"Heat (1995).mkv", "Alien.1979.mp4", "Up [2009].avi"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), nil, 0o644))
	}
	informer := ops.InformerFunc(func(_ context.Context, m model.Movie) (model.Movie, error) {
		m.Genre = genres[m.Title]
		if m.Title == "Alien" {
			m.ImdbID = "tt0078748"
		}
		return m, nil
	})
	lib := library.New(config.Default(), []string{root}, informer)
	_, err := lib.Reload(context.Background(), nil)
	require.NoError(t, err)

	s, err := New(lib, config.Default(), opts)
	require.NoError(t, err)
	return s, lib
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func postSettings(t *testing.T, s *Server, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/settings", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndexShowsAllMovies(t *testing.T) {
	s := newTestServer(t, "")
	rec := get(t, s, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<span id="numberOfMovies">3 Movies found</span>`)
	assert.Equal(t, 0, strings.Count(body, `style="display:none"`))
	assert.Contains(t, body, `<a href="https://www.imdb.com/title/tt0078748/">Alien</a>`)
}

func TestIndexHidesFilteredRows(t *testing.T) {
	s := newTestServer(t, "")
	rec := get(t, s, "/?q=crime")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<span id="numberOfMovies">1 Movies found</span>`)
	assert.Equal(t, 2, strings.Count(body, `style="display:none"`))
	assert.Contains(t, body, `value="crime"`)
}

func TestMoviesAPI(t *testing.T) {
	s := newTestServer(t, "")

	tests := []struct {
		query  string
		count  int
		titles []string
	}{
		{"", 3, []string{"Alien", "Heat", "Up"}},
		{"sci-fi alien", 1, []string{"Alien"}},
		{"DRAMA", 1, []string{"Heat"}},
		{"1995", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := get(t, s, "/api/movies?q="+url.QueryEscape(tt.query))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp moviesResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.count, resp.Count)
			assert.Len(t, resp.Movies, tt.count)
			for i, title := range tt.titles {
				assert.Equal(t, title, resp.Movies[i].Title)
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, "")
	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSettingsPage(t *testing.T) {
	s := newTestServer(t, "")
	rec := get(t, s, "/settings")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `name="api_key"`)
	assert.NotContains(t, body, `id="api_key_env"`)
	assert.Contains(t, body, `value="0" checked`)
	assert.Contains(t, body, `value="1" checked`)
	assert.NotContains(t, body, `value="2" checked`)
}

func TestSaveSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gorate", "config.toml")
	s := newTestServer(t, path)

	rec := postSettings(t, s, url.Values{
		"movie_api":      {"none"},
		"search_columns": {"0", "2"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="saved"`)

	saved, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, saved.SearchColumns)

	// The year column is searched from now on.
	var resp moviesResponse
	require.NoError(t, json.NewDecoder(get(t, s, "/api/movies?q=1995").Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)
}

func TestSaveSettingsRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	s := newTestServer(t, path)

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"omdb without key", url.Values{"movie_api": {"omdb"}, "search_columns": {"0"}}, "needs api_key"},
		{"no columns", url.Values{"movie_api": {"none"}}, "search column"},
		{"column out of range", url.Values{"movie_api": {"none"}, "search_columns": {"9"}}, "out of range"},
		{"column not a number", url.Values{"movie_api": {"none"}, "search_columns": {"x"}}, "invalid search column"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postSettings(t, s, tt.form)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "invalid settings must not be saved")
	assert.Equal(t, []int{0, 1}, s.config().SearchColumns)
}

func TestSettingsPageHidesAPIKey(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "env-secret")
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("movie_api = \"omdb\"\n"), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)

	lib := library.New(cfg, []string{t.TempDir()}, nil)
	s, err := New(lib, cfg, Options{ConfigPath: path})
	require.NoError(t, err)

	body := get(t, s, "/settings").Body.String()
	assert.NotContains(t, body, "env-secret")
	assert.Contains(t, body, `placeholder="unchanged"`)
	assert.Contains(t, body, `id="api_key_env"`)

	// A blank key field keeps the key without writing the environment's copy.
	rec := postSettings(t, s, url.Values{"movie_api": {"omdb"}, "search_columns": {"0"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "env-secret")
	assert.Equal(t, "env-secret", s.config().APIKey)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "env-secret")
}

// recordingFactory builds informers that tag movies with their API name.
type recordingFactory struct {
	built []config.Config
}

func (f *recordingFactory) build(cfg config.Config) (ops.Informer, func() error, error) {
	f.built = append(f.built, cfg)
	if cfg.MovieAPI != config.MovieAPIOMDb {
		return ops.Passthrough, func() error { return nil }, nil
	}
	return ops.InformerFunc(func(_ context.Context, m model.Movie) (model.Movie, error) {
		m.ImdbID = "tt" + cfg.APIKey
		return m, nil
	}), func() error { return nil }, nil
}

func TestSaveSettingsSwapsInformer(t *testing.T) {
	var factory recordingFactory
	closed := 0
	s, lib := newTestServerWith(t, Options{
		NewInformer:   factory.build,
		CloseInformer: func() error { closed++; return nil },
	})
	require.Equal(t, 1, lib.Stats().Enriched)

	rec := postSettings(t, s, url.Values{"movie_api": {"omdb"}, "api_key": {"123"}, "search_columns": {"0", "1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, factory.built, 1)
	assert.Equal(t, "123", factory.built[0].APIKey)
	assert.Equal(t, 1, closed, "the previous informer should be released")

	stats, err := lib.Reload(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Enriched)
	for _, m := range lib.Movies() {
		assert.Equal(t, "tt123", m.ImdbID)
	}

	// Switching the API off takes effect on the next reload.
	rec = postSettings(t, s, url.Values{"movie_api": {"none"}, "search_columns": {"0", "1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, factory.built, 2)

	stats, err = lib.Reload(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, library.Stats{Scanned: 3}, stats)

	require.NoError(t, s.Close())
	assert.Equal(t, 1, closed)
}

func TestSaveSettingsKeepsInformerWhenAPIUnchanged(t *testing.T) {
	var factory recordingFactory
	closed := 0
	s, lib := newTestServerWith(t, Options{
		NewInformer:   factory.build,
		CloseInformer: func() error { closed++; return nil },
	})

	rec := postSettings(t, s, url.Values{"movie_api": {"none"}, "search_columns": {"0", "2"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, factory.built)
	assert.Zero(t, closed)

	stats, err := lib.Reload(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Enriched)

	require.NoError(t, s.Close())
	assert.Equal(t, 1, closed)
}

func TestSaveSettingsInformerError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	s, _ := newTestServerWith(t, Options{
		ConfigPath: path,
		NewInformer: func(config.Config) (ops.Informer, func() error, error) {
			return nil, nil, errors.New("bad base url")
		},
	})

	rec := postSettings(t, s, url.Values{"movie_api": {"omdb"}, "api_key": {"k"}, "search_columns": {"0"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad base url")
	assert.Equal(t, config.MovieAPINone, s.config().MovieAPI)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "settings must not be saved when the lookup cannot be built")
}
