package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adorostkar/gorate/internal/config"
)

func TestExtractTitleAndYear(t *testing.T) {
	tests := []struct {
		input string
		title string
		year  int
	}{
		{"", "", 0},
		{"Joker (2019) [Bluray] [1080p] [YTS.LT]", "Joker", 2019},
		{"Joker.(2019).[Bluray].[1080p].[YTS.LT]", "Joker", 2019},
		{"Joker_(2019)_[Bluray]_[1080p]_[YTS.LT]", "Joker", 2019},
		{"Joker.2019.[Bluray].[1080p].[YTS.LT]", "Joker", 2019},
		{"Joker 2019 [Bluray].[1080p].[YTS.LT]", "Joker", 2019},
		{"Joker [ 2019 ] [Bluray].[1080p].[YTS.LT]", "Joker", 2019},
		{"Joker.[ 2019 ].[Bluray].[1080p].[YTS.LT]", "Joker", 2019},
		{"Joker [2019] [Bluray].[1080p].[YTS.LT]", "Joker", 2019},
		{"Joker.[2019].[Bluray].[1080p].[YTS.LT]", "Joker", 2019},
		{"Joker.[Bluray].[1080p].[YTS.LT]", "Joker", 0},
		{"2019.[Bluray].[1080p].[YTS.LT]", "2019", 0},
		{"The.Matrix.1999.1080p", "The Matrix", 1999},
		{"Amelie", "Amelie", 0},
	}
	cfg := config.Default()
	for _, tt := range tests {
		title, year, _ := ExtractTitleAndYear(tt.input, cfg)
		if title != tt.title || year != tt.year {
			t.Errorf("ExtractTitleAndYear(%q) = (%q, %d), want (%q, %d)", tt.input, title, year, tt.title, tt.year)
		}
	}
}

func TestExtractTitleAndYearNoMatch(t *testing.T) {
	_, _, err := ExtractTitleAndYear("", config.Default())
	assert.Error(t, err)
}

func TestNewParserRejectsBadExpression(t *testing.T) {
	cfg := config.Default()
	cfg.NameParserExpressions = []string{"(?P<title>"}
	_, err := NewParser(cfg)
	assert.Error(t, err)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "Joker (2019) [1080p].mkv"))
	touch(t, filepath.Join(root, "Amelie.avi"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "sub", "The.Matrix.1999.mp4"))
	touch(t, filepath.Join(root, "sub", "Sample", "clip.mkv"))
	touch(t, filepath.Join(root, "sub", "Heat-sample.mkv"))

	movies, err := Scan(context.Background(), root, config.Default())
	require.NoError(t, err)

	got := map[string]int{}
	for _, m := range movies {
		got[m.Title] = m.Year
		assert.True(t, filepath.IsAbs(m.Path), "path %q should be absolute", m.Path)
	}
	assert.Equal(t, map[string]int{
		"Joker":      2019,
		"Amelie":     0,
		"The Matrix": 1999,
	}, got)
}

func TestScanMissingRoot(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), config.Default())
	assert.Error(t, err)
}

func TestScanCancelled(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "Joker (2019).mkv"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Scan(ctx, root, config.Default())
	assert.ErrorIs(t, err, context.Canceled)
}
