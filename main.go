package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"

	"catalog/internal/app"
	"catalog/internal/config"
	"catalog/pkg/logger"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	ln, err := net.Listen("tcp", cfg.AppPort)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.AppPort, err)
	}

	if err := serve(ctx, ln, application, log); err != nil {
		log.Errorf("Server stopped with error: %v", err)
		os.Exit(1)
	}
}

// serve runs the app on ln until ctx is cancelled, then shuts it down and
// closes its stores.
func serve(ctx context.Context, ln net.Listener, application *app.App, log *logrus.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", ln.Addr())
		serverErr <- application.Fiber.Listener(ln)
	}()

	var err error
	select {
	case err = <-serverErr:
	case <-ctx.Done():
		log.Info("Shutting down server...")
		if shutdownErr := application.Fiber.Shutdown(); shutdownErr != nil {
			log.Errorf("Error during Fiber shutdown: %v", shutdownErr)
		}
		err = <-serverErr
	}

	if closeErr := application.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	if err == nil {
		log.Info("Server gracefully stopped")
	}
	return err
}
