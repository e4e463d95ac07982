package ui

import (
	"github.com/adorostkar/gorate/internal/library"
	"github.com/adorostkar/gorate/internal/model"
)

// Library messages
type MoviesLoadedMsg struct {
	Movies []model.Movie
	Stats  library.Stats
	Err    error
}

type EnrichProgressMsg struct {
	Completed int
	Total     int
}

// FolderChangedMsg is sent when the watcher sees files come or go.
type FolderChangedMsg struct{}

// Action result messages
type ActionResultMsg struct {
	Action  string
	Success bool
	Err     error
}
