package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"branchline/internal/config"
	"branchline/internal/engine"
	"branchline/internal/handler"
	"branchline/internal/hub"
	"branchline/internal/loader"
	"branchline/internal/localize"
	"branchline/internal/logging"
	"branchline/internal/metrics"
	"branchline/internal/repository/sqlite"
	"branchline/internal/service"
	"branchline/internal/watcher"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "branchline: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Command line flags override the config file
	configPath := flag.String("config", "", "Config file path (default: search standard locations)")
	addr := flag.String("addr", "", "HTTP listen address")
	dbPath := flag.String("db", "", "SQLite database path")
	graphsDir := flag.String("graphs", "", "Directory of graph files to load at startup")
	watch := flag.Bool("watch", false, "Re-import graph files when they change")
	flag.Parse()

	var (
		cfg    *config.Config
		source string
		err    error
	)
	if *configPath != "" {
		cfg, source, err = config.LoadFromPath(*configPath)
	} else {
		cfg, source, err = config.Load()
	}
	if err != nil {
		return err
	}

	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *graphsDir != "" {
		cfg.Graphs.Dir = *graphsDir
	}
	if *watch {
		cfg.Graphs.Watch = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if source == "" {
		source = "defaults"
	}
	logger.Info("starting branchline", zap.String("config", source), zap.String("summary", cfg.Summary()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize SQLite repository
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()
	logger.Info("database opened", zap.String("path", cfg.Database.Path))

	collector := metrics.NewCollector("branchline")
	eventBus := service.NewEventBus()

	// Connect event bus to SSE hub
	sseHub := hub.New(logger.Named("hub"))
	go sseHub.Run(ctx)

	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	defer eventBus.Unsubscribe(eventChan)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventChan:
				sseHub.Broadcast(event)
			}
		}
	}()

	resolver, err := catalogResolver(cfg.Graphs, logger)
	if err != nil {
		return err
	}

	graphSvc := service.NewGraphService(repo, eventBus, logger.Named("graphs"), collector)
	sessionSvc := service.NewSessionService(graphSvc, eventBus, logger.Named("sessions"), collector, service.SessionConfig{
		MaxActive:   cfg.Sessions.MaxActive,
		IdleTimeout: cfg.Sessions.IdleTimeout.Duration(),
		Resolver:    resolver,
	})
	go sessionSvc.Run(ctx)

	if cfg.Graphs.Dir != "" {
		if _, err := loader.LoadDir(ctx, cfg.Graphs.Dir, graphSvc, logger.Named("loader"), collector); err != nil {
			return err
		}

		if cfg.Graphs.Watch {
			w := watcher.New(cfg.Graphs.Dir, loader.IsGraphFile, func(path string) {
				if _, err := loader.LoadFile(ctx, graphSvc, path); err != nil {
					collector.GraphLoadFailed()
					logger.Warn("failed to reload graph file", zap.String("path", path), zap.Error(err))
				}
			}, logger.Named("watcher")).WithDebounce(cfg.Graphs.Debounce.Duration())

			go func() {
				if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("graph watcher stopped", zap.Error(err))
				}
			}()
		}
	}

	router := handler.NewRouter(handler.RouterConfig{
		Graphs:         graphSvc,
		Sessions:       sessionSvc,
		Hub:            sseHub,
		Metrics:        collector,
		Logger:         logger.Named("http"),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	// No write timeout: event streams and play sockets stay open
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// catalogResolver loads the configured localization catalog. Each graph
// looks up its text keys in the table named after the graph.
func catalogResolver(cfg config.GraphsConfig, logger *zap.Logger) (func(graph string) engine.TextResolver, error) {
	if cfg.Catalog == "" {
		return nil, nil
	}

	catalog := localize.NewCatalog()
	if err := catalog.LoadFile(cfg.Catalog); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	locales, entries := catalog.Size()
	logger.Info("catalog loaded",
		zap.String("path", cfg.Catalog),
		zap.String("locale", cfg.Locale),
		zap.Int("locales", locales),
		zap.Int("entries", entries))

	return func(graph string) engine.TextResolver {
		return catalog.Resolver(cfg.Locale, graph)
	}, nil
}
