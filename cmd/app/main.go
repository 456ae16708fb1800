package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dispatch/cmd"
	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configs := getConfigs()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		ExporterURL: configs.OtelExporterURL,
		ServiceName: "dispatch",
		Environment: os.Getenv("APP_ENV"),
	})
	if err != nil {
		log.Fatalf("Error initializing tracing: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("Tracing shutdown failed", "error", err)
		}
	}()

	app, err := cmd.NewCompositionRoot(ctx, configs, logger)
	if err != nil {
		log.Fatalf("Error building application: %v", err)
	}
	defer app.Close()

	recovered, err := app.Coordinator().RecoverPending(ctx)
	if err != nil {
		log.Fatalf("Error recovering pending orders: %v", err)
	}
	logger.Info("Pending orders recovered", "count", recovered)

	jobManager, err := app.CreateJobManager()
	if err != nil {
		log.Fatalf("Error creating jobs: %v", err)
	}
	if err = jobManager.StartAll(); err != nil {
		log.Fatalf("Error starting jobs: %v", err)
	}
	defer jobManager.StopAll()

	consumer, err := app.CreateKafkaConsumer()
	if err != nil {
		log.Fatalf("Error creating kafka consumer: %v", err)
	}
	if consumer != nil {
		go consumer.Run(ctx)
	}

	if err = startWebServer(ctx, app, configs.HTTPPort); err != nil {
		logger.Error("HTTP server stopped", "error", err)
	}
}

func getConfigs() cmd.Config {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}
	config, err := cmd.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return config
}

func startWebServer(ctx context.Context, app *cmd.CompositionRoot, port string) error {
	server, err := app.CreateHTTPServer()
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	server.Register(e)

	return httpin.Start(ctx, e, fmt.Sprintf("0.0.0.0:%s", port))
}
