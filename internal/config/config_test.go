package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, []int{0, 1}, c.SearchColumns)
	assert.Equal(t, MovieAPINone, c.MovieAPI)
	assert.Len(t, c.NameParserExpressions, 3)

	ttl, err := c.TTL()
	require.NoError(t, err)
	assert.Equal(t, 168*time.Hour, ttl)
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("search_columns = [1]\nconcurrency = 2\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, c.SearchColumns)
	assert.Equal(t, 2, c.Concurrency)
	// untouched keys keep their defaults
	assert.Equal(t, Default().ExtensionExpression, c.ExtensionExpression)
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadAPIKeyFromEnv(t *testing.T) {
	t.Setenv(APIKeyEnv, "secret")
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`movie_api = "omdb"`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret", c.APIKey)
	assert.NoError(t, c.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	c := Default()
	c.SearchColumns = []int{0}
	c.MovieAPI = MovieAPIOMDb
	c.APIKey = "k"
	require.NoError(t, c.Save(path))

	t.Setenv(APIKeyEnv, "")
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}

func TestSaveKeepsEnvAPIKeyOutOfFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("movie_api = \"omdb\"\napi_key = \"from-file\"\n"), 0o600))

	t.Setenv(APIKeyEnv, "from-env")
	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", c.APIKey)
	assert.True(t, c.APIKeyFromEnv())

	c.SearchColumns = []int{1}
	require.NoError(t, c.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "from-env")
	assert.Contains(t, string(data), "from-file")

	// A key typed in by the user is saved even when the environment has one.
	c.APIKey = "typed"
	assert.False(t, c.APIKeyFromEnv())
	require.NoError(t, c.Save(path))
	t.Setenv(APIKeyEnv, "")
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "typed", loaded.APIKey)
	assert.Equal(t, []int{1}, loaded.SearchColumns)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad parser regex", func(c *Config) { c.NameParserExpressions = []string{"("} }},
		{"parser without title group", func(c *Config) { c.NameParserExpressions = []string{`^(.+)$`} }},
		{"no parsers", func(c *Config) { c.NameParserExpressions = nil }},
		{"bad cleanup regex", func(c *Config) { c.TitleCleanupExpression = "[" }},
		{"empty extension", func(c *Config) { c.ExtensionExpression = "" }},
		{"column out of range", func(c *Config) { c.SearchColumns = []int{0, 6} }},
		{"negative column", func(c *Config) { c.SearchColumns = []int{-1} }},
		{"no columns", func(c *Config) { c.SearchColumns = nil }},
		{"bad ttl", func(c *Config) { c.CacheTTL = "soon" }},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"omdb without key", func(c *Config) { c.MovieAPI = MovieAPIOMDb; c.APIKey = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}

func TestSearchColumnNames(t *testing.T) {
	c := Default()
	assert.Equal(t, []string{"Title", "Genre"}, c.SearchColumnNames())
}
