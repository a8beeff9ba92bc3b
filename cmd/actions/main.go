// Package main is the entry point for the actions dispatcher.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/vyrodovalexey/avactions/internal/config"
	"github.com/vyrodovalexey/avactions/internal/observability"
	"github.com/vyrodovalexey/avactions/internal/server"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	uri         string
	method      string
	data        string
	showVersion bool
}

func main() {
	flags := parseFlags(flag.CommandLine, os.Args[1:])

	if flags.showVersion {
		printVersion(os.Stdout)
		return
	}

	logger := initLogger(flags)

	cfg, err := loadConfig(flags.configPath, logger)
	if err != nil {
		logger.Fatal("failed to load configuration", observability.Error(err))
	}

	if l, err := configuredLogger(flags, cfg.Spec.Logging); err == nil {
		_ = logger.Sync()
		logger = l
	} else {
		logger.Warn("invalid logging section, keeping flag settings", observability.Error(err))
	}

	app, err := newApplication(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize", observability.Error(err))
	}

	if flags.uri != "" {
		code := server.RunCLI(context.Background(), app.router, server.CLIRequest{
			Method: flags.method,
			URI:    flags.uri,
			Data:   flags.data,
		}, os.Stdout, os.Stderr)
		app.close(context.Background())
		_ = logger.Sync()
		os.Exit(code)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := app.run(ctx); err != nil {
		logger.Fatal("server failed", observability.Error(err))
	}
	_ = logger.Sync()
}

// parseFlags parses command line flags.
func parseFlags(fs *flag.FlagSet, args []string) cliFlags {
	var f cliFlags
	fs.StringVar(&f.configPath, "config", getEnvOrDefault("ACTIONS_CONFIG_PATH", "configs/actions.yaml"),
		"Path to configuration file")
	fs.StringVar(&f.logLevel, "log-level", getEnvOrDefault("ACTIONS_LOG_LEVEL", ""),
		"Log level (debug, info, warn, error); overrides the configuration")
	fs.StringVar(&f.logFormat, "log-format", getEnvOrDefault("ACTIONS_LOG_FORMAT", ""),
		"Log format (json, console); overrides the configuration")
	fs.StringVar(&f.uri, "uri", getEnvOrDefault("ACTIONS_URI", ""),
		"Dispatch this URI once, print the response and exit")
	fs.StringVar(&f.method, "method", getEnvOrDefault("ACTIONS_METHOD", "GET"),
		"Request method for -uri")
	fs.StringVar(&f.data, "data", getEnvOrDefault("ACTIONS_DATA", ""),
		"URL-encoded request body for -uri")
	fs.BoolVar(&f.showVersion, "version", false, "Show version information")
	_ = fs.Parse(args)
	return f
}

// printVersion prints version information.
func printVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, "avactions version %s\n", version)
	_, _ = fmt.Fprintf(w, "  Build time: %s\n", buildTime)
	_, _ = fmt.Fprintf(w, "  Git commit: %s\n", gitCommit)
}

// initLogger initializes a bootstrap logger from the flags. It is replaced
// once the configuration is read.
func initLogger(flags cliFlags) observability.Logger {
	cfg := observability.DefaultLogConfig()
	if flags.logLevel != "" {
		cfg.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Format = flags.logFormat
	}
	if flags.uri != "" {
		cfg.Output = "stderr"
	}

	logger, err := observability.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	return logger
}

// loadConfig loads and validates the configuration. Flags take precedence
// over the logging section.
func loadConfig(path string, logger observability.Logger) (*config.ActionsConfig, error) {
	logger.Info("starting avactions",
		observability.String("version", version),
		observability.String("config", path),
	)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	logger.Info("configuration loaded",
		observability.String("name", cfg.Metadata.Name),
		observability.Int("routes", len(cfg.Spec.Routes)),
		observability.Int("cache_providers", len(cfg.Spec.Cache.Providers)),
	)
	return cfg, nil
}
