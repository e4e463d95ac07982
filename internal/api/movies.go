package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/adorostkar/gorate/internal/model"
)

type LookupFilter struct {
	Title string
	Year  int
	Plot  string // "short", "full"
}

func (f LookupFilter) Values() url.Values {
	v := url.Values{}
	v.Set("t", f.Title)
	if f.Year > 0 {
		v.Set("y", strconv.Itoa(f.Year))
	}
	if f.Plot != "" {
		v.Set("plot", f.Plot)
	}
	v.Set("type", "movie")
	return v
}

func (f LookupFilter) QueryString() string {
	return "?" + f.Values().Encode()
}

// Lookup fetches a movie by title and optional year.
func (c *Client) Lookup(ctx context.Context, filter LookupFilter) (*model.OMDbResponse, error) {
	var resp model.OMDbResponse
	if err := c.Get(ctx, filter.Values(), &resp); err != nil {
		return nil, fmt.Errorf("lookup %q (%d): %w", filter.Title, filter.Year, err)
	}
	if !resp.Found() {
		return nil, fmt.Errorf("lookup %q (%d): %w", filter.Title, filter.Year, ErrNotFound)
	}
	return &resp, nil
}

// Inform enriches a scanned movie with its OMDb entry.
func (c *Client) Inform(ctx context.Context, m model.Movie) (model.Movie, error) {
	resp, err := c.Lookup(ctx, LookupFilter{Title: m.Title, Year: m.Year, Plot: "short"})
	if err != nil {
		return m, err
	}
	return resp.ToMovie(m.Title, m.Path, m.Year), nil
}
