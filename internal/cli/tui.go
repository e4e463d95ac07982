package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/adorostkar/gorate/internal/logger"
	"github.com/adorostkar/gorate/internal/tui"
	"github.com/adorostkar/gorate/internal/watch"
)

// watchDebounce is how long the folders must be quiet before a rescan.
const watchDebounce = 2 * time.Second

var tuiCmd = &cobra.Command{
	Use:   "tui [folders...]",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the terminal UI over the movie folders.

The list is searched as you type. Folders are watched and rescanned when
files come or go.

Controls:
  /        - Search
  Esc      - Leave the search box
  ↑/k, ↓/j - Navigate movies
  Enter    - Open the movie's IMDb page
  r        - Rescan
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, args []string) error {
	if logger.IsVerbose() {
		f, err := openLogFile()
		if err != nil {
			return err
		}
		defer f.Close()
		logger.SetOutput(f)
		defer logger.SetOutput(os.Stderr)
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	lib, closeFn, err := newLibrary(cfg, args)
	if err != nil {
		return err
	}
	defer closeFn()

	w, err := watch.New(lib.Roots(), watchDebounce)
	if err != nil {
		logger.Warn("folder watching disabled: %v", err)
	} else {
		defer w.Close()
	}

	app := tui.NewApp(cfg, lib, w)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// openLogFile opens $XDG_CACHE_HOME/gorate/gorate.log for appending.
func openLogFile() (*os.File, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("locate cache dir: %w", err)
	}
	dir = filepath.Join(dir, "gorate")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "gorate.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
