package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/service"
	"github.com/javanbakhti/smartBuild-sub000/internal/access/store/sqlite"
	"github.com/javanbakhti/smartBuild-sub000/internal/config"
	"github.com/javanbakhti/smartBuild-sub000/internal/db"
	"github.com/javanbakhti/smartBuild-sub000/internal/httpapi"
	"github.com/javanbakhti/smartBuild-sub000/internal/logging"
	"github.com/javanbakhti/smartBuild-sub000/internal/notify"
)

func main() {
	configPath := flag.String("config", "./config.yml", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "smartbuild-server")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database and the single-writer worker.
	database, err := db.Open(ctx, db.Config{Path: cfg.DB.Path, Env: cfg.DB.Env})
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer database.Close()

	if cfg.DB.Env == "dev" {
		if err := db.SeedDev(ctx, database, db.SeedDevOptions{BuildingID: cfg.Building.ID}); err != nil {
			logger.Fatal("seed dev data", zap.Error(err))
		}
	}

	writer := db.NewWorker(database)
	defer writer.Close()

	// Stores
	entryStore := sqlite.NewEntryStore(database, writer)
	eventStore := sqlite.NewAccessEventStore(database, writer)
	directoryStore := sqlite.NewDirectoryStore(database, writer)

	// Notification fan-out: email when contact details carry one, SMS
	// otherwise.  Without an API key the email notifier logs instead of
	// sending.
	notifier := notify.Multi{
		notify.NewEmailNotifier(logger, notify.EmailConfig{
			APIKey:    cfg.Notify.SendgridAPIKey,
			FromEmail: cfg.Notify.FromEmail,
			FromName:  cfg.Notify.FromName,
		}),
		notify.NewSMSNotifier(logger),
	}

	// Services
	entrySvc := service.NewEntryService(entryStore, eventStore, notifier,
		service.EntryServiceConfig{
			BuildingName: cfg.Building.Name,
			CodeLength:   cfg.Passcode.Length,
		},
		logger,
	)
	directorySvc := service.NewDirectoryService(directoryStore)

	sweeper := service.NewSweeper(entryStore, eventStore, service.SweeperConfig{
		Retention:      time.Duration(cfg.Sweep.RetentionDays) * 24 * time.Hour,
		AuditRetention: time.Duration(cfg.Sweep.AuditRetentionDays) * 24 * time.Hour,
		Interval:       cfg.Sweep.Interval,
	}, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:     logger,
		Addr:       cfg.Server.Addr,
		Entries:    entrySvc,
		Directory:  directorySvc,
		BuildingID: cfg.Building.ID,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.Start(); err != nil {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
