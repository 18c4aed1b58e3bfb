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

	"fan-feed-go/internal/api"
	"fan-feed-go/internal/auth"
	"fan-feed-go/internal/browser"
	"fan-feed-go/internal/cache"
	"fan-feed-go/internal/config"
	"fan-feed-go/internal/logger"
	"fan-feed-go/internal/mediaproxy"
	"fan-feed-go/internal/metrics"
	"fan-feed-go/internal/platform"
	_ "fan-feed-go/internal/platform/douyin"
	_ "fan-feed-go/internal/platform/weibo"
	_ "fan-feed-go/internal/platform/xhs"
	"fan-feed-go/internal/proxy"
	"fan-feed-go/internal/store"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configPath := flag.String("config", ".", "path to config file")
	addr := flag.String("addr", "", "api server address (overrides API_ADDR)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Failed to load .env: %v\n", err)
	}
	if err := config.LoadConfig(*configPath); err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.InitFromConfig()
	cfg := config.AppConfig
	if *addr != "" {
		cfg.APIAddr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(reg)

	c := cache.NewFromConfig(cfg)
	if c != nil {
		defer c.Close()
	}

	pool, err := proxy.PoolFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("proxy pool: %w", err)
	}
	renderer, err := browser.NewRendererFromConfig(cfg, pool)
	if err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	if renderer != nil {
		defer renderer.Close()
	}

	posts, err := store.NewFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("post store: %w", err)
	}
	defer posts.Close()

	services, err := platform.NewServices(platform.Deps{
		Config:   cfg,
		Proxy:    pool,
		Renderer: renderer,
		Recorder: recorder,
	}, c, time.Duration(cfg.ResolutionCacheTTLSec)*time.Second)
	if err != nil {
		return fmt.Errorf("platforms: %w", err)
	}

	srv := api.NewServer(api.Options{
		Config:   cfg,
		Store:    posts,
		Auth:     auth.NewFromConfig(cfg),
		Services: services,
		Media:    mediaproxy.NewFromConfig(cfg, c, recorder),
		Metrics:  metrics.Handler(reg),
	})
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting api server", "addr", cfg.APIAddr, "platforms", platform.Names(), "store", cfg.StoreBackend)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
