package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ebi-biostudies/biostudies-index/internal/app"
	"github.com/ebi-biostudies/biostudies-index/internal/common"
	"github.com/ebi-biostudies/biostudies-index/internal/server"
)

// configPaths is a custom flag type that allows multiple -config flags.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles configPaths
	serverPort  = flag.Int("port", 0, "Server port (overrides config)")
	serverHost  = flag.String("host", "", "Server host (overrides config)")
	showVersion = flag.Bool("version", false, "Print version information")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("biostudies-index version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	// 5. Wire the application and start the HTTP server
	if len(configFiles) == 0 {
		if _, err := os.Stat("biostudies-index.toml"); err == nil {
			configFiles = append(configFiles, "biostudies-index.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := common.GetLogger()
		tempLogger.Fatal().Err(err).Strs("paths", configFiles).Msg("failed to load configuration files")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *serverPort, *serverHost)

	logger := common.SetupLogger(config)
	common.InitLogger(logger)
	common.InstallCrashHandler("./logs")

	common.PrintBanner(config, logger)

	application, err := app.New(config, logger, config.Collection.EFO.Location)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}

	srv := server.New(application)

	go func() {
		defer common.RecoverWithCrashFile()
		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	time.Sleep(100 * time.Millisecond)
	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)).
		Msg("server ready - press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("interrupt received, shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := application.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("application shutdown failed")
	}

	common.PrintShutdownBanner(logger)
	common.Stop()
}
