package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cli/go-gh/v2/pkg/browser"

	"github.com/adorostkar/gorate/internal/config"
	"github.com/adorostkar/gorate/internal/filter"
	"github.com/adorostkar/gorate/internal/library"
	"github.com/adorostkar/gorate/internal/logger"
	"github.com/adorostkar/gorate/internal/tui/movies"
	"github.com/adorostkar/gorate/internal/ui"
	"github.com/adorostkar/gorate/internal/watch"
)

// Browser opens URLs. *browser.Browser from go-gh satisfies it.
type Browser interface {
	Browse(url string) error
}

type App struct {
	cfg     config.Config
	lib     *library.Library
	watcher *watch.Watcher
	browser Browser

	// ctx bounds library reloads and is cancelled on quit.
	ctx    context.Context
	cancel context.CancelFunc

	moviesView movies.Model

	// Enrichment progress from the running reload.
	progress chan ui.EnrichProgressMsg

	width         int
	height        int
	status        string
	loading       bool
	reloadPending bool
	completed     int
	total         int
	stats         library.Stats
}

// NewApp builds the TUI over lib. watcher may be nil, in which case the
// library is only reloaded on request.
func NewApp(cfg config.Config, lib *library.Library, watcher *watch.Watcher) App {
	opts := filter.Options{SearchColumns: cfg.SearchColumns}
	ctx, cancel := context.WithCancel(context.Background())
	return App{
		ctx:        ctx,
		cancel:     cancel,
		cfg:        cfg,
		lib:        lib,
		watcher:    watcher,
		browser:    browser.New("", io.Discard, io.Discard),
		moviesView: movies.New(opts),
		progress:   make(chan ui.EnrichProgressMsg, 64),
		loading:    true,
		status:     "Scanning...",
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.loadLibrary(), a.waitProgress(), a.waitFolderChange())
}

// --- Commands ---

func (a App) loadLibrary() tea.Cmd {
	ctx, lib, progress := a.ctx, a.lib, a.progress
	return func() tea.Msg {
		stats, err := lib.Reload(ctx, func(completed, total int) {
			select {
			case progress <- ui.EnrichProgressMsg{Completed: completed, Total: total}:
			default:
			}
		})
		if err != nil {
			return ui.MoviesLoadedMsg{Err: err}
		}
		return ui.MoviesLoadedMsg{Movies: lib.Movies(), Stats: stats}
	}
}

func (a App) waitProgress() tea.Cmd {
	progress := a.progress
	return func() tea.Msg {
		return <-progress
	}
}

func (a App) waitFolderChange() tea.Cmd {
	if a.watcher == nil {
		return nil
	}
	changes := a.watcher.Changes()
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return ui.FolderChangedMsg{}
	}
}

func (a App) openIMDb(url string) tea.Cmd {
	b := a.browser
	return func() tea.Msg {
		if err := b.Browse(url); err != nil {
			return ui.ActionResultMsg{Action: "open " + url, Err: err}
		}
		return ui.ActionResultMsg{Action: "Opened " + url, Success: true}
	}
}

func (a *App) startReload() tea.Cmd {
	if a.loading {
		a.reloadPending = true
		return nil
	}
	a.loading = true
	a.completed, a.total = 0, 0
	a.status = "Scanning..."
	return a.loadLibrary()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.propagateSize()
		return &a, nil

	case ui.MoviesLoadedMsg:
		a.loading = false
		a.completed, a.total = 0, 0
		if msg.Err != nil {
			a.status = fmt.Sprintf("Error: %v", msg.Err)
			logger.Warn("load library: %v", msg.Err)
		} else {
			a.stats = msg.Stats
			a.status = ""
		}
		var cmd tea.Cmd
		a.moviesView, cmd = a.moviesView.Update(msg)
		cmds = append(cmds, cmd)
		if a.reloadPending {
			a.reloadPending = false
			cmds = append(cmds, a.startReload())
		}
		return &a, tea.Batch(cmds...)

	case ui.EnrichProgressMsg:
		if a.loading {
			a.completed, a.total = msg.Completed, msg.Total
		}
		return &a, a.waitProgress()

	case ui.FolderChangedMsg:
		logger.Info("movie folders changed, rescanning")
		cmds = append(cmds, a.startReload(), a.waitFolderChange())
		return &a, tea.Batch(cmds...)

	case ui.ActionResultMsg:
		if msg.Err != nil {
			a.status = fmt.Sprintf("Failed to %s: %v", msg.Action, msg.Err)
		} else {
			a.status = msg.Action
		}
		return &a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.cancel()
			return &a, tea.Quit
		}
		// The search box gets every key while it has focus.
		if a.moviesView.IsSearching() {
			break
		}
		switch {
		case key.Matches(msg, ui.Keys.Quit):
			a.cancel()
			return &a, tea.Quit
		case key.Matches(msg, ui.Keys.Refresh):
			return &a, a.startReload()
		case key.Matches(msg, ui.Keys.Open):
			mv := a.moviesView.SelectedMovie()
			if mv == nil {
				return &a, nil
			}
			url := mv.IMDbURL()
			if url == "" {
				a.status = fmt.Sprintf("No IMDb page for %s", mv.Title)
				return &a, nil
			}
			return &a, a.openIMDb(url)
		}
	}

	var cmd tea.Cmd
	a.moviesView, cmd = a.moviesView.Update(msg)
	return &a, cmd
}

func (a *App) propagateSize() {
	// header(1) + statusbar(1) + pane border(2)
	contentW := a.width - 2
	contentH := a.height - 4
	if contentW < 1 {
		contentW = 1
	}
	if contentH < 1 {
		contentH = 1
	}
	a.moviesView, _ = a.moviesView.Update(tea.WindowSizeMsg{Width: contentW, Height: contentH})
}

func (a App) View() string {
	header := RenderHeader(a.lib.Roots(), HeaderState{
		Loading:   a.loading,
		Completed: a.completed,
		Total:     a.total,
		Stats:     a.stats,
	}, a.width)

	content := a.moviesView.View()
	if a.width > 2 {
		content = ui.StylePane.Width(a.width - 2).Render(content)
	}

	statusBar := RenderStatusBar(a.moviesView.CountText(), a.status, a.contextHints(), a.width)

	// header(1) + statusbar(1) = 2 lines of chrome.
	maxContentLines := a.height - 2
	if maxContentLines > 0 {
		lines := strings.Split(content, "\n")
		if len(lines) > maxContentLines {
			lines = lines[:maxContentLines]
			content = strings.Join(lines, "\n")
		}
	}

	return header + "\n" + content + "\n" + statusBar
}

func (a App) contextHints() string {
	return ui.HelpText(a.moviesView.ShortHelp()...)
}
