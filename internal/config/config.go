package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/adorostkar/gorate/internal/model"
)

//go:embed default.toml
var defaultTOML []byte

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// APIKeyEnv overrides api_key when set.
const APIKeyEnv = "OMDB_API_KEY"

const (
	MovieAPIOMDb = "omdb"
	MovieAPINone = "none"
)

type Config struct {
	NameParserExpressions  []string `toml:"name_parser_expressions"`
	TitleCleanupExpression string   `toml:"title_cleanup_expression"`
	ExtensionExpression    string   `toml:"extension_expression"`
	ExcludePatterns        []string `toml:"exclude_patterns"`
	MovieAPI               string   `toml:"movie_api"`
	APIKey                 string   `toml:"api_key"`
	APIBaseURL             string   `toml:"api_base_url"`
	RequestsPerSecond      float64  `toml:"requests_per_second"`
	Concurrency            int      `toml:"concurrency"`
	CacheTTL               string   `toml:"cache_ttl"`
	SearchColumns          []int    `toml:"search_columns"`
	Listen                 string   `toml:"listen"`

	// Set by Load when APIKeyEnv replaced api_key. Save writes fileAPIKey
	// back so the environment secret never lands on disk.
	envAPIKey  string
	fileAPIKey string
}

// Default returns the embedded default configuration.
func Default() Config {
	var c Config
	if err := toml.Unmarshal(defaultTOML, &c); err != nil {
		panic(fmt.Sprintf("embedded default config: %v", err))
	}
	return c
}

// DefaultPath is the user configuration file, $XDG_CONFIG_HOME/gorate/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "gorate", "config.toml"), nil
}

// Load reads path on top of the defaults. An empty path falls back to
// DefaultPath when that file exists, and to the defaults alone otherwise.
// A .env file in the working directory is loaded first so that
// OMDB_API_KEY can live there.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	c := Default()
	if path == "" {
		p, err := DefaultPath()
		if err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &c); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if key := os.Getenv(APIKeyEnv); key != "" {
		c.envAPIKey = key
		c.fileAPIKey = c.APIKey
		c.APIKey = key
	}
	return c, nil
}

// APIKeyFromEnv reports whether APIKey is the value of APIKeyEnv.
func (c Config) APIKeyFromEnv() bool {
	return c.envAPIKey != "" && c.APIKey == c.envAPIKey
}

// Save writes the configuration as TOML, creating parent directories.
// An API key that came from the environment is not written; the key read
// from the file, if any, is kept instead.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if c.APIKeyFromEnv() {
		c.APIKey = c.fileAPIKey
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	if len(c.NameParserExpressions) == 0 {
		return fmt.Errorf("%w: at least one name parser expression is required", ErrInvalid)
	}
	for _, expr := range c.NameParserExpressions {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("%w: name parser expression %q: %v", ErrInvalid, expr, err)
		}
		if re.SubexpIndex("title") < 0 {
			return fmt.Errorf("%w: name parser expression %q has no title group", ErrInvalid, expr)
		}
	}
	if _, err := regexp.Compile(c.TitleCleanupExpression); err != nil {
		return fmt.Errorf("%w: title cleanup expression: %v", ErrInvalid, err)
	}
	if c.ExtensionExpression == "" {
		return fmt.Errorf("%w: extension expression is required", ErrInvalid)
	}
	if _, err := regexp.Compile(c.ExtensionExpression); err != nil {
		return fmt.Errorf("%w: extension expression: %v", ErrInvalid, err)
	}
	if len(c.SearchColumns) == 0 {
		return fmt.Errorf("%w: at least one search column is required", ErrInvalid)
	}
	for _, col := range c.SearchColumns {
		if col < 0 || col >= len(model.Columns) {
			return fmt.Errorf("%w: search column %d out of range 0-%d", ErrInvalid, col, len(model.Columns)-1)
		}
	}
	if _, err := c.TTL(); err != nil {
		return err
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1", ErrInvalid)
	}
	if c.MovieAPI == MovieAPIOMDb {
		if c.APIKey == "" {
			return fmt.Errorf("%w: movie_api %q needs api_key or %s", ErrInvalid, c.MovieAPI, APIKeyEnv)
		}
		if c.RequestsPerSecond <= 0 {
			return fmt.Errorf("%w: requests_per_second must be positive", ErrInvalid)
		}
	}
	return nil
}

// TTL parses CacheTTL. Zero disables the lookup cache.
func (c Config) TTL() (time.Duration, error) {
	if c.CacheTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: cache_ttl %q", ErrInvalid, c.CacheTTL)
	}
	return d, nil
}

// SearchColumnNames returns the column titles searched by the filter.
func (c Config) SearchColumnNames() []string {
	names := make([]string, 0, len(c.SearchColumns))
	for _, col := range c.SearchColumns {
		if col >= 0 && col < len(model.Columns) {
			names = append(names, model.Columns[col])
		}
	}
	return names
}
