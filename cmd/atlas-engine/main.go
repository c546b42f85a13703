package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miradorstack/cluster-atlas/internal/api"
	"github.com/miradorstack/cluster-atlas/internal/bootstrap"
	"github.com/miradorstack/cluster-atlas/internal/config"
	"github.com/miradorstack/cluster-atlas/internal/httpapi"
	"github.com/miradorstack/cluster-atlas/internal/metrics"
	"github.com/miradorstack/cluster-atlas/internal/repo"
	"github.com/miradorstack/cluster-atlas/internal/utils"
)

const watchDebounce = 500 * time.Millisecond

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", slog.Any("error", err))
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting cluster-atlas",
		slog.String("grpc_address", cfg.Server.Address),
		slog.String("http_address", cfg.Server.HTTPAddress))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to wire artifact loaders", slog.Any("error", err))
		os.Exit(1)
	}
	defer rt.Close()
	svc := rt.Service

	server, err := api.NewServer(cfg.Server, svc)
	if err != nil {
		logger.Error("failed to create gRPC server", slog.Any("error", err))
		os.Exit(1)
	}
	svc.OnReadyChange(server.SetReady)

	// A failed first load leaves the service up but unready; /v1/admin/reload or a file
	// change retries it.
	if info, err := svc.Reload(ctx); err != nil {
		logger.Error("initial dataset load failed", slog.String("reason", utils.UserMessage(err)), slog.Any("error", err))
	} else {
		logger.Info("dataset ready", slog.Int("cases", info.Cases), slog.Int("regions", info.Regions))
	}

	if cfg.Artifacts.Watch {
		watcher, err := repo.NewWatcher(rt.Loader.Refs(), watchDebounce, func(ctx context.Context, paths []string) {
			names := make([]string, 0, len(paths))
			for _, p := range paths {
				names = append(names, filepath.Base(p))
			}
			logger.Info("artifacts changed, reloading", slog.Any("files", names))
			if _, err := svc.Refresh(ctx); err != nil {
				logger.Error("reload after change failed", slog.Any("error", err))
			}
		}, logger)
		if err != nil {
			logger.Warn("artifact watcher unavailable", slog.Any("error", err))
		} else {
			go watcher.Run(ctx)
		}
	}

	var httpServer *http.Server
	if cfg.Server.HTTPAddress != "" {
		httpServer = &http.Server{
			Addr: cfg.Server.HTTPAddress,
			Handler: httpapi.NewRouter(httpapi.RouterConfig{
				Atlas:   svc,
				Logger:  logger,
				Metrics: promhttp.Handler(),
			}),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
		}
		go func() {
			logger.Info("http server listening", slog.String("address", cfg.Server.HTTPAddress))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("gRPC server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("http server shutdown", slog.Any("error", err))
		}
	}

	logger.Info("cluster-atlas stopped",
		slog.Duration("query_p95", svc.LatencyP95()))
}
