package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bdobrica/Kaiwa/common/version"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/app"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/config"
	"github.com/bdobrica/Kaiwa/internal/kaiwa/observability"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-version" || os.Args[1] == "--version") {
		fmt.Println("kaiwa " + version.Info())
		return
	}

	// KAIWA_CONFIG is optional; every setting also has a KAIWA_* override.
	cfg, err := config.Load(os.Getenv(config.EnvPrefix + "CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	observability.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting kaiwa", "version", version.Version, "commit", version.GitCommit)

	kaiwa, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize Kaiwa: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := kaiwa.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error running Kaiwa: %v\n", err)
		os.Exit(1)
	}
}
