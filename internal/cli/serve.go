package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adorostkar/gorate/internal/library"
	"github.com/adorostkar/gorate/internal/logger"
	"github.com/adorostkar/gorate/internal/server"
	"github.com/adorostkar/gorate/internal/watch"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve [folders...]",
	Short: "Serve the movie list as a web page",
	Long: `Scan the folders and serve a searchable movie table, a JSON API at
/api/movies and a settings page. Folders are rescanned when files come
or go.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "address to listen on (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, savePath, err := loadConfig()
	if err != nil {
		return err
	}
	lib, closeFn, err := newLibrary(cfg, args)
	if err != nil {
		return err
	}
	// The server owns the informer from here on; settings may replace it.
	srv, err := server.New(lib, cfg, server.Options{
		ConfigPath:    savePath,
		NewInformer:   newInformer,
		CloseInformer: closeFn,
	})
	if err != nil {
		_ = closeFn()
		return err
	}
	defer srv.Close()

	stats, err := lib.Reload(ctx, nil)
	if err != nil {
		return err
	}
	cmd.Printf("%d movies, %d with metadata\n", stats.Scanned, stats.Enriched)

	if w, err := watch.New(lib.Roots(), watchDebounce); err != nil {
		logger.Warn("folder watching disabled: %v", err)
	} else {
		defer w.Close()
		go reloadOnChange(ctx, lib, w)
	}

	addr := serveListen
	if addr == "" {
		addr = cfg.Listen
	}
	cmd.Printf("Serving on %s\n", addr)
	return srv.ListenAndServe(ctx, addr)
}

func reloadOnChange(ctx context.Context, lib *library.Library, w *watch.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.Changes():
			logger.Info("movie folders changed, rescanning")
			if _, err := lib.Reload(ctx, nil); err != nil {
				logger.Warn("rescan: %v", err)
			}
		}
	}
}
