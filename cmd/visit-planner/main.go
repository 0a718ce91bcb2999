package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YusovID/visit-planner/internal/auth"
	"github.com/YusovID/visit-planner/internal/config"
	"github.com/YusovID/visit-planner/internal/notifier"
	"github.com/YusovID/visit-planner/internal/repository/postgres"
	"github.com/YusovID/visit-planner/internal/service"
	myhttp "github.com/YusovID/visit-planner/internal/transport/http"
	"github.com/YusovID/visit-planner/pkg/logger/sl"
	"github.com/YusovID/visit-planner/pkg/logger/slogpretty"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.MustLoad()
	log := slogpretty.SetupLogger(cfg.Env)

	log.Info("starting visit-planner", slog.String("env", cfg.Env))

	db, err := postgres.NewDB(cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("failed to init db: %w", err)
	}
	defer func() {
		if err := db.DB().Close(); err != nil {
			log.Error("db close failed", sl.Err(err))
		}
	}()

	assignments := postgres.NewAssignmentRepository(db.DB(), log)
	meetings := postgres.NewMeetingRepository(db.DB(), log)
	catalog := postgres.NewCatalogRepository(db.DB(), log)

	srv := myhttp.NewServer(log, myhttp.Services{
		Assignments: service.NewAssignmentService(db.DB(), log, assignments, assignments, catalog),
		Meetings: service.NewMeetingService(
			db.DB(), log, assignments, meetings, meetings, catalog, notifier.New(cfg.Notifier, log),
		),
		Discussion: service.NewDiscussionService(db.DB(), log, meetings, meetings, catalog),
		Stats:      service.NewStatsService(assignments, meetings),
	}, auth.New(cfg.Auth.JWTSecret, cfg.Auth.Issuer), db.DB())

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	errChan := make(chan error, 1)

	go startServer(log, httpServer, errChan)

	select {
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("http server error: %w", err)
		}

		return nil
	case <-ctx.Done():
		log.Info("stopping server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down http server: %w", err)
	}

	return nil
}

func startServer(log *slog.Logger, httpServer *http.Server, errChan chan error) {
	defer close(errChan)

	log.Info("service started", slog.String("addr", httpServer.Addr))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errChan <- fmt.Errorf("error listening and serving: %w", err)
	}
}
