package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/javanbakhti/smartBuild-sub000/internal/config"
	"github.com/javanbakhti/smartBuild-sub000/internal/gateway"
	"github.com/javanbakhti/smartBuild-sub000/internal/kiosk"
	"github.com/javanbakhti/smartBuild-sub000/internal/logging"
)

func main() {
	configPath := flag.String("config", "./config.yml", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "smartbuild-kiosk")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw := gateway.New(gateway.Config{
		BrokerURL:         cfg.Broker.URL,
		ClientID:          cfg.Broker.ClientID,
		Username:          cfg.Broker.Username,
		Password:          cfg.Broker.Password,
		CallTopic:         cfg.Broker.CallTopic,
		RelayTopic:        cfg.Broker.RelayTopic,
		ReconnectInterval: cfg.Broker.Reconnect,
	}, logger)
	gw.Connect()
	defer gw.Close()

	directory := kiosk.NewDirectoryClient(cfg.Kiosk.ServerURL, cfg.Building.ID, 0)

	supervisor := kiosk.NewSupervisor(kiosk.Config{
		IdleTimeout:     cfg.Kiosk.IdleTimeout,
		ConfirmDuration: cfg.Kiosk.ConfirmDuration,
		CallTimeout:     cfg.Kiosk.CallTimeout,
	}, gw, directory.Fetch, logger)

	logger.Info("kiosk running",
		zap.String("server", cfg.Kiosk.ServerURL),
		zap.String("broker", cfg.Broker.URL))

	supervisor.Run(ctx)
}
