// Package scanner finds movie files on disk and parses their names.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/adorostkar/gorate/internal/config"
	"github.com/adorostkar/gorate/internal/logger"
	"github.com/adorostkar/gorate/internal/model"
)

// Parser extracts titles and years from file names.
type Parser struct {
	expressions []*regexp.Regexp
	cleanup     *regexp.Regexp
}

func NewParser(cfg config.Config) (*Parser, error) {
	p := &Parser{}
	for _, expr := range cfg.NameParserExpressions {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile name parser %q: %w", expr, err)
		}
		p.expressions = append(p.expressions, re)
	}
	cleanup, err := regexp.Compile(cfg.TitleCleanupExpression)
	if err != nil {
		return nil, fmt.Errorf("compile title cleanup %q: %w", cfg.TitleCleanupExpression, err)
	}
	p.cleanup = cleanup
	return p, nil
}

// Parse returns the title and year of name. Expressions are tried in order;
// the first one that matches wins. A match without a year group yields
// year 0.
func (p *Parser) Parse(name string) (string, int, error) {
	for _, re := range p.expressions {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		title := ""
		if i := re.SubexpIndex("title"); i >= 0 {
			title = strings.TrimSpace(p.cleanup.ReplaceAllString(m[i], " "))
		}
		if title == "" {
			continue
		}
		year := 0
		if i := re.SubexpIndex("year"); i >= 0 && m[i] != "" {
			y, err := strconv.Atoi(m[i])
			if err != nil {
				return title, 0, fmt.Errorf("parse year %q of %q: %w", m[i], name, err)
			}
			year = y
		}
		return title, year, nil
	}
	return "", 0, fmt.Errorf("no name parser expression matches %q", name)
}

// ExtractTitleAndYear parses a single name with the configured expressions.
func ExtractTitleAndYear(name string, cfg config.Config) (string, int, error) {
	p, err := NewParser(cfg)
	if err != nil {
		return "", 0, err
	}
	return p.Parse(name)
}

// Scan walks root and returns a Movie for every file whose extension
// matches the configured expression and whose path is not excluded. Files
// whose names cannot be parsed are kept under their bare file name.
func Scan(ctx context.Context, root string, cfg config.Config) ([]model.Movie, error) {
	parser, err := NewParser(cfg)
	if err != nil {
		return nil, err
	}
	ext, err := regexp.Compile(cfg.ExtensionExpression)
	if err != nil {
		return nil, fmt.Errorf("compile extension expression: %w", err)
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}

	var movies []model.Movie
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			logger.Warn("cannot read %s: %v", path, walkErr)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if excluded(filepath.ToSlash(rel), cfg.ExcludePatterns) {
			logger.Debug("excluded %s", rel)
			return nil
		}
		base := filepath.Base(path)
		extension := filepath.Ext(base)
		if !ext.MatchString(extension) {
			return nil
		}

		name := strings.TrimSuffix(base, extension)
		title, year, err := parser.Parse(name)
		if err != nil {
			logger.Warn("%v", err)
			if title == "" {
				title = name
			}
		}
		logger.Debug("%s -> %q (%d)", base, title, year)
		movies = append(movies, model.Movie{Title: title, Path: path, Year: year})
		return nil
	})
	if err != nil {
		return movies, fmt.Errorf("scan %s: %w", root, err)
	}
	return movies, nil
}

func excluded(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}
