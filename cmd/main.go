package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aloratech/coachcraft-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:    a.Cfg.ListenAddr,
		Handler: a.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("Listening", "addr", a.Cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-quit:
		a.Log.Info("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.Log.Error("Graceful shutdown failed", "error", err)
		}
	}
}
