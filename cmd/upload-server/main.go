package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/simple-upload/pkg/simpleupload/api"
	"github.com/tendant/simple-upload/pkg/simpleupload/config"
	"github.com/tendant/simple-upload/pkg/simpleupload/presigned"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		os.Stdout.WriteString(config.Usage())
		return
	}

	// Load configuration
	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx := context.Background()
	svc, storage, signer, err := cfg.BuildService(ctx, logger)
	if err != nil {
		slog.Error("Failed to build upload service", "err", err)
		os.Exit(1)
	}

	var metrics *api.Metrics
	registry := prometheus.NewRegistry()
	if cfg.EnableMetrics {
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = api.NewMetrics(registry)
	}

	identity := api.IdentityConfig{
		SessionCookieName: cfg.SessionCookieName,
		MintSession:       cfg.PrefixStrategy == "session",
	}
	if cfg.JWTSecret != "" {
		identity.TokenAuth = jwtauth.New("HS256", []byte(cfg.JWTSecret), nil)
	}

	handler := api.NewHandler(svc,
		api.WithLogger(logger),
		api.WithMetrics(metrics),
		api.WithIframeCompat(cfg.IframeCompat),
	)

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	if cfg.EnableMetrics {
		server.R.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	server.R.Route("/upload", func(r chi.Router) {
		r.Use(api.Identity(identity))
		if cfg.PrefixCookie {
			r.Use(api.UploadPrefixCookie(svc, cfg.PrefixCookieName, logger))
		}
		r.Mount("/", handler.Routes())
	})

	// With the memory backend presigned PUTs are served by this process
	if storage.Memory != nil {
		slog.Warn("Using in-memory storage; uploads are accepted at the development endpoint", "endpoint", cfg.DevEndpoint)
		devHandlers := presigned.NewHandlers(signer, storage.Memory, logger)
		server.R.Mount("/dev", devHandlers.Routes())
	}

	slog.Info("Upload server configured",
		"upload_bucket", cfg.UploadBucket,
		"storage_bucket", cfg.StorageBucket,
		"backend", cfg.StorageBackend,
		"prefix_strategy", cfg.PrefixStrategy,
	)

	// Start server
	server.Run()
}
