// Command notewise summarises notes and answers questions about them.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/notewise/internal/adapters/driven/ai"
	"github.com/custodia-labs/notewise/internal/adapters/driven/config/file"
	"github.com/custodia-labs/notewise/internal/adapters/driving/cli"
	"github.com/custodia-labs/notewise/internal/core/services"
	"github.com/custodia-labs/notewise/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := file.LoadDotEnv(); err != nil {
		logger.Warn("loading .env: %v", err)
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	cli.SetVersion(version)
	cli.SetSettingsService(settingsService)
	cli.SetBootstrap(newBootstrap(settingsService, paths{}))

	// cobra has already printed the error.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
	return nil
}
