package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leshy-dns/leshy/internal/api"
	"github.com/leshy-dns/leshy/internal/cache"
	"github.com/leshy-dns/leshy/internal/config"
	"github.com/leshy-dns/leshy/internal/device"
	"github.com/leshy-dns/leshy/internal/logging"
	"github.com/leshy-dns/leshy/internal/metrics"
	"github.com/leshy-dns/leshy/internal/pipeline"
	"github.com/leshy-dns/leshy/internal/route"
	"github.com/leshy-dns/leshy/internal/server"
	"github.com/leshy-dns/leshy/internal/upstream"
	"github.com/leshy-dns/leshy/internal/zonematch"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run() error {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <config-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println("leshy", version)
		return nil
	}

	configPath := config.ResolveConfigPath(flag.Arg(0))
	if configPath == "" {
		flag.Usage()
		return fmt.Errorf("config file path is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.Configure(logging.Config{
		Level:            resolveLogLevel(cfg.LogLevel),
		Structured:       os.Getenv("LESHY_LOG_FORMAT") == "json",
		StructuredFormat: "json",
	})

	logger.Info("leshy starting",
		"listen", cfg.Listen,
		"device_file", cfg.DeviceFile,
		"zones", len(cfg.Zones),
	)

	zones := zonematch.Compile(cfg.Zones, cfg.Default)
	responseCache := cache.New(cfg.Cache.Size, time.Duration(cfg.Cache.NegativeTTLSeconds)*time.Second)
	health := upstream.NewHealthTracker(upstream.DefaultColdWindow, upstream.DefaultColdThreshold)
	forwarder := upstream.NewForwarder(health, upstream.DefaultAttemptTimeout)
	routes := route.NewController(cfg.RouteAggregationPrefix, logger)
	stats := metrics.NewDNSStats()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	installStaticRoutes(ctx, cfg, routes, logger)

	handler := &pipeline.Handler{
		Logger:     logger,
		Zones:      zones,
		Cache:      responseCache,
		Forwarder:  forwarder,
		Routes:     routes,
		DeviceFile: cfg.DeviceFile,
		Stats:      stats,
	}

	udpSrv := &server.UDPServer{Logger: logger, Handler: handler}
	tcpSrv := &server.TCPServer{Logger: logger, Handler: handler}

	listenErrs := make(chan error, 2)
	go func() {
		if err := udpSrv.Run(ctx, cfg.Listen); err != nil {
			logger.Error("udp server exited", "error", err)
			if ctx.Err() == nil {
				listenErrs <- err
			}
			cancel()
		}
	}()
	go func() {
		if err := tcpSrv.Run(ctx, cfg.Listen); err != nil {
			logger.Error("tcp server exited", "error", err)
			if ctx.Err() == nil {
				listenErrs <- err
			}
			cancel()
		}
	}()

	var apiSrv *api.Server
	if cfg.API.Enabled {
		apiSrv = api.New(cfg, logger, stats, responseCache, routes)
		logger.Info("introspection api starting", "addr", apiSrv.Addr())
		go func() {
			serveErr := apiSrv.ListenAndServe()
			if serveErr == nil || serveErr == http.ErrServerClosed {
				return
			}
			logger.Error("introspection api error", "error", serveErr)
		}()
	}

	<-ctx.Done()
	logger.Info("leshy shutting down")

	if apiSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = apiSrv.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	routes.Shutdown(context.Background())

	select {
	case err := <-listenErrs:
		return fmt.Errorf("listener failed: %w", err)
	default:
		return nil
	}
}

// installStaticRoutes installs every configured static route before the
// listeners start accepting queries.
func installStaticRoutes(ctx context.Context, cfg *config.Config, routes *route.Controller, logger *slog.Logger) {
	for _, sr := range cfg.StaticRoutes {
		_, dest, err := net.ParseCIDR(sr.Destination)
		if err != nil {
			logger.Warn("static route: invalid destination", "destination", sr.Destination, "error", err)
			continue
		}

		var next route.NextHop
		if sr.Via != "" {
			gw := net.ParseIP(sr.Via)
			if gw == nil {
				logger.Warn("static route: invalid gateway", "via", sr.Via)
				continue
			}
			next = route.NextHop{Gateway: gw}
		} else {
			name, ok := device.Read(cfg.DeviceFile)
			if !ok {
				logger.Warn("static route: device file unavailable, skipping", "destination", sr.Destination)
				continue
			}
			next = route.NextHop{Device: name}
		}

		routes.AddStatic(ctx, dest, next)
	}
}

// resolveLogLevel picks the log level: a config-file log_level other than
// "info" wins, otherwise LESHY_LOG, otherwise the configured value or
// "info". A log_level of "info" cannot be told apart from the default, so
// LESHY_LOG overrides it.
func resolveLogLevel(configured string) string {
	if configured != "" && configured != "info" {
		return configured
	}
	if v := os.Getenv("LESHY_LOG"); v != "" {
		return v
	}
	if configured != "" {
		return configured
	}
	return "info"
}
