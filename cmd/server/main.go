package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/checkkeeper/internal/logger"
	"github.com/iudanet/checkkeeper/internal/server"
	"github.com/iudanet/checkkeeper/internal/server/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Parse flags
	showVersion := flag.Bool("version", false, "Show version information")
	configFile := flag.String("config", "", "Path to config file (overrides "+config.EnvConfigFile+")")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "checkkeeper: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	log := logger.Setup(cfg.Server.LogLevel, os.Stdout)
	log.Info("Server configuration loaded",
		"address", cfg.Server.Address,
		"storage_driver", cfg.Storage.Driver,
		"hash_algorithm", cfg.Auth.HashAlgorithm,
		"version", Version)

	// SIGINT/SIGTERM отменяют контекст и запускают graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, log)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}

func printVersion() {
	fmt.Printf("CheckKeeper Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
