package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"github.com/warp/payments-engine/api"
	"github.com/warp/payments-engine/config"
)

type serveCmd struct {
	configPath  string
	port        int
	journalPath string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "runs the ledger HTTP API" }
func (*serveCmd) Usage() string {
	return `ledger serve [-config <file.yaml>] [-port <port>] [-journal <path>]

  Starts an HTTP server holding one in-memory ledger. State is lost on exit.
  Flags override the config file and LEDGER_* environment variables.

`
}

func (s *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.configPath, "config", "", "YAML config file")
	f.IntVar(&s.port, "port", 0, "HTTP server port (overrides config)")
	f.StringVar(&s.journalPath, "journal", "", "SQLite path for the audit journal (overrides config)")
}

func (s *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return subcommands.ExitFailure
	}
	if s.port != 0 {
		cfg.Server.Port = s.port
	}
	if s.journalPath != "" {
		cfg.Journal.Path = s.journalPath
	}

	if err := serve(ctx, cfg); err != nil {
		log.Printf("Server failed: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func serve(ctx context.Context, cfg *config.Config) error {
	journal, db, err := openJournal(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	if db != nil {
		defer db.Close()
	}

	handler := api.NewHandler(journal)
	handler.MaxImportBytes = cfg.Server.MaxImportBytes

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	var scheduler *api.SnapshotScheduler
	if db != nil {
		scheduler = api.NewSnapshotScheduler(db, handler)
		scheduler.Interval = cfg.Journal.SnapshotInterval
		scheduler.Start()
		defer scheduler.Stop()
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errc:
		return err
	case <-quit:
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Stop before the final save so no checkpoint can overwrite it.
	if scheduler != nil {
		scheduler.Stop()
	}
	if db != nil {
		if err := db.SaveSnapshot(shutdownCtx, handler.Snapshot(), time.Now()); err != nil {
			log.Printf("Warning: failed to save final snapshot: %v", err)
		}
	}

	log.Println("Server stopped")
	return nil
}
