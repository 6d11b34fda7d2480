package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fridgewatch/fridgewatch/backend/config"
	"github.com/fridgewatch/fridgewatch/backend/internal/database"
	"github.com/fridgewatch/fridgewatch/backend/internal/logger"
	"github.com/fridgewatch/fridgewatch/backend/internal/service"
)

func main() {
	// Parse command line flags
	retain := flag.Duration("prune-older-than", 0, "Delete refresh runs that started longer ago than this (0 keeps everything)")
	flag.Parse()

	if err := run(*retain); err != nil {
		slog.Error("migration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(retain time.Duration) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.SetupDefault(os.Stdout, cfg.LogLevel)

	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Info("schema is up to date")

	if retain <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-retain)
	n, err := service.NewRefreshLog(db).Prune(context.Background(), cutoff)
	if err != nil {
		return err
	}
	log.Info("pruned refresh runs", slog.Int64("deleted", n), slog.Time("cutoff", cutoff))
	return nil
}
