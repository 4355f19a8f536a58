package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tedsta/CS421-reddit-twitter/pkg/config"
	"github.com/tedsta/CS421-reddit-twitter/pkg/crawler"
	"github.com/tedsta/CS421-reddit-twitter/pkg/db"
	"github.com/tedsta/CS421-reddit-twitter/pkg/index"
	"github.com/tedsta/CS421-reddit-twitter/pkg/ingest"
	"github.com/tedsta/CS421-reddit-twitter/pkg/repl"
)

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	// Keep stdout free for command output.
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func main() {
	configFlag := flag.String("config", "", "Path to YAML config file")
	dbFlag := flag.String("db", "", "Path to SQLite database (overrides config)")
	flag.Parse()

	// Optional .env for local development; ignore when absent.
	_ = godotenv.Load()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbFlag != "" {
		cfg.DBPath = *dbFlag
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	mode, err := ingest.ParseCountMode(cfg.CountMode)
	if err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer conn.Close()

	if err := db.InitDB(conn); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	logger.Info("database initialized", zap.String("path", cfg.DBPath))

	reddit := crawler.NewReddit(cfg.Crawl.UserAgent, cfg.Crawl.Timeout(), logger)
	if cfg.Crawl.RedditURL != "" {
		reddit.BaseURL = cfg.Crawl.RedditURL
	}
	sources := crawler.Registry{}
	sources.Add(reddit)

	aggregator := ingest.NewAggregator(mode, logger)
	aggregator.Workers = cfg.Crawl.Workers

	r := repl.New(sources, aggregator, index.New(conn, logger), os.Stdout, logger)
	if err := r.Run(ctx, os.Stdin); err != nil {
		logger.Fatal("repl failed", zap.Error(err))
	}
}
