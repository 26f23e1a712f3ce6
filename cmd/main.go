package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/yungbote/ideabank-backend/internal/app"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		a.Log.Error("background workers failed to start", "error", err)
		return
	}

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(":" + a.Cfg.Port) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case s := <-sig:
		a.Log.Info("shutting down", "signal", s.String())
	case err := <-errCh:
		if err != nil {
			a.Log.Error("Server failed", "error", err)
		}
	}
}
