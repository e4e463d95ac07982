package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Columns are the table columns in display order. Search column indexes in
// the configuration refer to this slice.
var Columns = []string{"Title", "Genre", "Year", "Rating", "Votes", "Runtime"}

const (
	ColumnTitle = iota
	ColumnGenre
	ColumnYear
	ColumnRating
	ColumnVotes
	ColumnRuntime
)

// Movie is a movie file found on disk, optionally enriched with metadata.
type Movie struct {
	Title   string   `json:"title"`
	Path    string   `json:"path"`
	Genre   []string `json:"genre,omitempty"`
	ImdbID  string   `json:"imdb_id,omitempty"`
	Runtime string   `json:"runtime,omitempty"`
	Year    int      `json:"year,omitempty"`
	Vote    int      `json:"vote,omitempty"`
	Rate    float64  `json:"rate,omitempty"`
	Plot    string   `json:"plot,omitempty"`
}

func (m Movie) GenreText() string {
	return strings.Join(m.Genre, ", ")
}

// Cells renders the movie as a table row in Columns order.
func (m Movie) Cells() []string {
	year, rate, votes := "", "", ""
	if m.Year > 0 {
		year = strconv.Itoa(m.Year)
	}
	if m.Rate > 0 {
		rate = strconv.FormatFloat(m.Rate, 'f', 1, 64)
	}
	if m.Vote > 0 {
		votes = strconv.Itoa(m.Vote)
	}
	return []string{m.Title, m.GenreText(), year, rate, votes, m.Runtime}
}

// IMDbURL returns the movie's IMDb page, or "" if the ID is unknown.
func (m Movie) IMDbURL() string {
	if m.ImdbID == "" {
		return ""
	}
	return fmt.Sprintf("https://www.imdb.com/title/%s/", m.ImdbID)
}

// Enriched reports whether metadata was attached to the movie.
func (m Movie) Enriched() bool {
	return m.ImdbID != ""
}
