package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/pluginlinks/pkg/api"
	"github.com/platinummonkey/pluginlinks/pkg/app"
	"github.com/platinummonkey/pluginlinks/pkg/config"
	"github.com/platinummonkey/pluginlinks/pkg/observability"
	"github.com/platinummonkey/pluginlinks/pkg/watch"
)

// version is set at build time
var version = "dev"

// janitorSchedule purges expired transients from SQL and filesystem stores
const janitorSchedule = "@hourly"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pluginlinks: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	log := observability.NewLogrus(cfg.Observability.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []app.Option{app.WithRegistry(registry)}
	if providers != nil {
		otelMetrics, err := observability.NewOTelMetrics()
		if err != nil {
			return err
		}
		opts = append(opts, app.WithOTelMetrics(otelMetrics))
	}

	a, err := app.New(ctx, cfg, log, opts...)
	if err != nil {
		return err
	}
	log.Infof("Serving %s toolbar for plugins in %s", cfg.Variant.Slug, cfg.Plugins.Root)

	server, err := api.NewServer(a, logger)
	if err != nil {
		a.Close()
		return err
	}

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, a.HealthChecker(version))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, a.Registry)
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	janitor := cron.New()
	if _, err := janitor.AddFunc(janitorSchedule, func() {
		defer observability.RecoverPanic(log, "transient janitor")
		n, err := a.Purge(ctx)
		if err != nil {
			log.Warnf("Transient purge failed: %v", err)
			return
		}
		if n > 0 {
			log.Infof("Purged %d expired transients", n)
		}
	}); err != nil {
		a.Close()
		return fmt.Errorf("failed to schedule janitor: %w", err)
	}

	// Steps run newest first: servers stop before the store closes
	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)
	shutdown.Register("storage", func(context.Context) error { return a.Close() })
	shutdown.Register("opentelemetry", providers.Shutdown)
	shutdown.Register("janitor", func(ctx context.Context) error {
		select {
		case <-janitor.Stop().Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	shutdown.Register("health server", healthServer.Shutdown)
	shutdown.Register("http server", httpServer.Shutdown)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("Admin server listening on %s", httpServer.Addr)
		return listen(httpServer)
	})
	g.Go(func() error {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		return listen(healthServer)
	})

	if cfg.Plugins.Watch {
		watcher, err := watch.New(cfg.Plugins.Root, a.Cache, log)
		if err != nil {
			log.Warnf("Plugin watcher disabled: %v", err)
		} else {
			g.Go(func() error { return watcher.Run(gctx) })
		}
	}

	janitor.Start()

	g.Go(func() error {
		<-gctx.Done()
		return shutdown.Shutdown(context.Background())
	})

	return g.Wait()
}

func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", srv.Addr, err)
	}
	return nil
}
