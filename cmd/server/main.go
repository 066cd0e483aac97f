package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"it-inventory/internal/audit"
	"it-inventory/internal/backup"
	"it-inventory/internal/config"
	"it-inventory/internal/database"
	"it-inventory/internal/files"
	"it-inventory/internal/observability"
	"it-inventory/internal/server"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBDriver, cfg.DBDSN, cfg.DBDebug)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := observability.RegisterGORMCallbacks(db, otel.GetTracerProvider()); err != nil {
		log.Fatalf("db: %v", err)
	}
	if cfg.AdminPassword != "" {
		if err := database.SeedAdmin(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatalf("db: %v", err)
		}
	} else {
		log.Println("ADMIN_PASSWORD is not set, skipping default admin")
	}

	explorer, err := files.New(cfg.FilesRoot)
	if err != nil {
		log.Fatalf("files: %v", err)
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("uploads: %v", err)
	}

	r := server.NewRouter(cfg, server.Deps{DB: db, Explorer: explorer, Audit: audit.NewWriter()})
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           observability.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backups := backup.NewScheduler(db, backup.Config{
		Interval:  cfg.BackupInterval,
		Retention: cfg.BackupRetention,
		Dir:       cfg.BackupDir,
	})
	backups.Start(ctx)
	defer backups.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Println("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("server error: %v", err)
	}
}
