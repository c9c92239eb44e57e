package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazyhaar/healthdash/pkg/api"
	"github.com/hazyhaar/healthdash/pkg/importer"
	"github.com/hazyhaar/healthdash/pkg/schema"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"
)

const version = "0.1.0"

type config struct {
	Addr             string        `yaml:"addr"`
	Validation       string        `yaml:"validation"`
	Charset          string        `yaml:"charset"`
	HistoryDB        string        `yaml:"history_db"`
	HistoryRetention time.Duration `yaml:"history_retention"`
	LogLevel         string        `yaml:"log_level"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "mcp":
		cmdMCP(os.Args[2:])
	case "import":
		cmdImport(os.Args[2:])
	case "history":
		cmdHistory(os.Args[2:])
	case "formats":
		cmdFormats()
	case "demo":
		cmdDemo(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: healthdash <command>

Commands:
  serve     Start the HTTP server
  mcp       Serve the MCP tools over stdio
  import    Import a wearable export file and print canonical records
  history   List recent import attempts
  formats   List supported input formats
  demo      Print a sample dataset of canonical records
`)
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	logger, level := newLogger()
	cfg := loadConfig(*cfgPath, logger)
	setLevel(level, cfg.LogLevel, logger)

	history := openHistory(cfg, logger)
	if history != nil {
		defer history.Close()
	}
	im := newImporter(cfg, logger, history)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(im, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if history != nil && cfg.HistoryRetention > 0 {
		go importer.NewPruner(history, logger, cfg.HistoryRetention, time.Hour).Start(ctx)
	}

	go func() {
		logger.Info("healthdash listening", "addr", cfg.Addr, "validation", im.Policy().String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	// stdout carries the protocol; logs go to stderr only.
	logger, level := newLogger()
	cfg := loadConfig(*cfgPath, logger)
	setLevel(level, cfg.LogLevel, logger)

	history := openHistory(cfg, logger)
	if history != nil {
		defer history.Close()
	}
	im := newImporter(cfg, logger, history)

	srv := server.NewMCPServer("healthdash", version, server.WithToolCapabilities(false))
	api.RegisterMCPTools(srv, im, logger)

	logger.Info("healthdash MCP server on stdio")
	if err := server.ServeStdio(srv); err != nil {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}

func newLogger() (*slog.Logger, *slog.LevelVar) {
	level := new(slog.LevelVar)
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), level
}

func setLevel(level *slog.LevelVar, name string, logger *slog.Logger) {
	if name == "" {
		return
	}
	if err := level.UnmarshalText([]byte(name)); err != nil {
		logger.Warn("invalid log_level, keeping info", "log_level", name)
	}
}

func loadConfig(path string, logger *slog.Logger) config {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("no config file, using defaults", "path", path)
			return cfg
		}
		logger.Error("read config", "error", err)
		os.Exit(1)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("parse config", "error", err)
		os.Exit(1)
	}
	return cfg
}

func defaultConfig() config {
	return config{
		Addr:             ":8421",
		Validation:       "first",
		HistoryDB:        "healthdash.db",
		HistoryRetention: 30 * 24 * time.Hour,
		LogLevel:         "info",
	}
}

// openHistory returns nil when history is disabled (empty history_db) or
// cannot be opened; imports work without it.
func openHistory(cfg config, logger *slog.Logger) *importer.History {
	if cfg.HistoryDB == "" {
		return nil
	}
	h, err := importer.OpenHistory(cfg.HistoryDB)
	if err != nil {
		logger.Warn("import history disabled", "path", cfg.HistoryDB, "error", err)
		return nil
	}
	return h
}

func newImporter(cfg config, logger *slog.Logger, history *importer.History) *importer.Importer {
	policy, err := schema.ParsePolicy(cfg.Validation)
	if err != nil {
		logger.Error("invalid validation policy", "error", err)
		os.Exit(1)
	}
	opts := []importer.Option{
		importer.WithPolicy(policy),
		importer.WithCharset(cfg.Charset),
		importer.WithLogger(logger),
	}
	if history != nil {
		opts = append(opts, importer.WithHistory(history))
	}
	return importer.New(opts...)
}
