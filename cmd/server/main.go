// Command server runs the duel over plain websockets.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tetrisduel/internal/app"
	"tetrisduel/internal/config"
	"tetrisduel/internal/logging"
	"tetrisduel/internal/ports/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "data/game_config.json", "path to the game config file")
	flag.Parse()

	if err := config.LoadGameConfig(*configPath); err != nil {
		return err
	}
	cfg := config.GetGameConfig()
	envErr := cfg.ApplyEnv(config.EnvMap(os.Environ()))

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	if envErr != nil {
		logger.Warn("ignoring environment overrides: %v", envErr)
	}

	hub := ws.NewHub(logger)
	manager := app.NewManager(nil, hub, nil, cfg, logger)
	srv := ws.NewServer(hub, manager, logger)

	staticDir := cfg.StaticDir
	if fi, err := os.Stat(staticDir); err != nil || !fi.IsDir() {
		logger.Info("static dir %q not found, serving api only", staticDir)
		staticDir = ""
	}

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(staticDir),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", cfg.ListenAddr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	manager.Shutdown()
	hub.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
