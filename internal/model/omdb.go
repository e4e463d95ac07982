package model

import (
	"strconv"
	"strings"
)

// OMDbResponse is the subset of the OMDb title lookup response we use.
// Every value is a string; missing values are "N/A".
type OMDbResponse struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Plot       string `json:"Plot"`
	ImdbRating string `json:"imdbRating"`
	ImdbVotes  string `json:"imdbVotes"`
	ImdbID     string `json:"imdbID"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

func (r OMDbResponse) Found() bool {
	return r.Response != "False"
}

// ToMovie converts the response for the file at path. The scanned title is
// kept as is. The scanned year is kept when known, otherwise OMDb's is used.
func (r OMDbResponse) ToMovie(title, path string, year int) Movie {
	m := Movie{Title: title, Path: path, Year: year}
	if m.Year == 0 {
		// "2019" or a series range like "2019–2021"
		if y, err := strconv.Atoi(strings.TrimSpace(firstN(value(r.Year), 4))); err == nil {
			m.Year = y
		}
	}
	m.Runtime = value(r.Runtime)
	m.Plot = value(r.Plot)
	m.ImdbID = value(r.ImdbID)
	if g := value(r.Genre); g != "" {
		for _, part := range strings.Split(g, ",") {
			if part = strings.TrimSpace(part); part != "" {
				m.Genre = append(m.Genre, part)
			}
		}
	}
	if rate, err := strconv.ParseFloat(value(r.ImdbRating), 64); err == nil {
		m.Rate = rate
	}
	if votes, err := strconv.Atoi(strings.ReplaceAll(value(r.ImdbVotes), ",", "")); err == nil {
		m.Vote = votes
	}
	return m
}

func value(s string) string {
	s = strings.TrimSpace(s)
	if s == "N/A" {
		return ""
	}
	return s
}

func firstN(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
