// Package main provides the entry point for the voice bridge service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"

	"github.com/dwellio/voicebridge/internal/app"
	"github.com/dwellio/voicebridge/internal/bridge"
	"github.com/dwellio/voicebridge/internal/config"
	"github.com/dwellio/voicebridge/internal/dialer"
	"github.com/dwellio/voicebridge/internal/flow"
	"github.com/dwellio/voicebridge/internal/infrastructure"
	"github.com/dwellio/voicebridge/internal/scheduling"
	"github.com/dwellio/voicebridge/internal/speech"
	"github.com/dwellio/voicebridge/internal/store"
	"github.com/dwellio/voicebridge/internal/telephony"
	pkginfra "github.com/dwellio/voicebridge/pkg/infrastructure"
)

func main() {
	configPath := "config.yaml"
	if v := os.Getenv("VOICEBRIDGE_CONFIG"); v != "" {
		configPath = v
	}

	application := app.New(
		// Core modules
		config.Module,
		infrastructure.LoggerModule,

		// External service modules
		speech.Module,
		store.Module,
		dialer.Module,

		// Application modules
		scheduling.Module,
		flow.Module,
		bridge.Module,
		telephony.Module,

		// Supply the config path
		fx.Supply(configPath),

		// Configure Fx to use our Zap logger for its own internal logging
		fx.WithLogger(pkginfra.NewFxLoggerAdapter),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go application.Run()

	sig := <-sigCh
	fmt.Printf("Received signal: %s, initiating shutdown.\n", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	err := application.Stop(shutdownCtx)
	cancel()

	if err != nil {
		fmt.Printf("Error during shutdown: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Service has shut down gracefully.")
}
