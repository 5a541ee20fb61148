package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/baditaflorin/l"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"

	textnormalization "github.com/baditaflorin/go_text_normalization"
	"github.com/baditaflorin/go_text_normalization/internal/adapters/cache"
	"github.com/baditaflorin/go_text_normalization/internal/adapters/logger"
	"github.com/baditaflorin/go_text_normalization/internal/ports"
	"github.com/baditaflorin/go_text_normalization/internal/warmup"
)

func main() {
	configPath := flag.String("config", os.Getenv("TN_CONFIG_PATH"), "YAML config file (empty = environment only)")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	base, err := createLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer base.Close()
	log := logger.FromExisting(base)

	log.Info("Starting text normalization HTTP server",
		"addr", cfg.Server.Addr(),
		"languages", cfg.Normalizer.Languages,
		"read_timeout", cfg.Server.ReadTimeout,
		"write_timeout", cfg.Server.WriteTimeout,
		"max_request_size", cfg.Server.MaxRequestSize,
		"concurrency", cfg.Server.Concurrency,
	)

	normalizers, err := loadNormalizers(cfg.Normalizer, log)
	if err != nil {
		log.Error("Failed to load normalizers", "error", err.Error())
		os.Exit(1)
	}

	if cfg.Normalizer.WarmUp {
		wm := warmup.NewManager(log, warmup.DefaultWarmupConfig())
		for _, n := range normalizers {
			wm.RegisterNormalizer(n)
		}
		if err := wm.WarmUp(context.Background()); err != nil {
			log.Warn("Warm-up failed", "error", err.Error())
		}
	}

	resultCache, closeCache, err := createCache(cfg.Cache, log)
	if err != nil {
		log.Error("Failed to create cache", "error", err.Error())
		os.Exit(1)
	}
	defer closeCache()

	svc := NewService(normalizers, resultCache, cfg.CORS, log, cfg.Server.RequestTimeout, cfg.Server.MaxBatch)
	server := &fasthttp.Server{
		Handler:               svc.Handler(),
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		MaxRequestBodySize:    cfg.Server.MaxRequestSize,
		Concurrency:           cfg.Server.Concurrency,
		DisableKeepalive:      false,
		TCPKeepalive:          true,
		TCPKeepalivePeriod:    3 * time.Minute,
		MaxConnsPerIP:         0, // unlimited
		MaxRequestsPerConn:    0, // unlimited
		MaxIdleWorkerDuration: 10 * time.Second,
		Logger:                nil, // we'll handle logging ourselves
	}

	// Set up graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("Shutting down server...")
		if err := server.Shutdown(); err != nil {
			log.Error("Error during server shutdown", "error", err.Error())
		}
		close(idleConnsClosed)
	}()

	log.Info("Server listening", "address", cfg.Server.Addr())
	if err := server.ListenAndServe(cfg.Server.Addr()); err != nil {
		log.Error("Server error", "error", err.Error())
		return
	}

	<-idleConnsClosed
	log.Info("Server stopped")
}

// loadNormalizers builds a cased and a lower_cased normalizer for every
// configured language.
func loadNormalizers(cfg NormalizerConfig, log ports.Logger) (map[string]*textnormalization.Normalizer, error) {
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	opts := []textnormalization.Option{
		textnormalization.WithLogger(log),
		textnormalization.WithNFC(cfg.NFC),
		textnormalization.WithWorkers(workers),
		textnormalization.WithGapHandler(func(g *textnormalization.VerbalizationGap) {
			log.Debug("Verbalization gap", "class", g.Class, "text", g.Text)
		}),
	}
	if cfg.GrammarDir != "" {
		opts = append(opts, textnormalization.WithGrammarDir(cfg.GrammarDir))
	}

	out := make(map[string]*textnormalization.Normalizer)
	for _, lang := range cfg.LanguageList() {
		for _, casing := range []textnormalization.Casing{textnormalization.Cased, textnormalization.LowerCased} {
			n, err := textnormalization.New(lang, casing, opts...)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", lang, casing, err)
			}
			out[normalizerKey(lang, casing)] = n
		}
	}
	return out, nil
}

// createCache returns the in-process LRU, tiered over Redis when an address
// is configured.
func createCache(cfg CacheConfig, log ports.Logger) (ports.Cache, func(), error) {
	local, err := cache.NewLRU(cfg.Size)
	if err != nil {
		return nil, nil, err
	}
	if cfg.RedisAddr == "" {
		return local, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	shared := cache.NewRedis(client, cfg.TTL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shared.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
	}
	log.Info("Redis cache connected", "addr", cfg.RedisAddr, "ttl", cfg.TTL)
	return cache.NewTiered(local, shared), func() { _ = client.Close() }, nil
}

// createLogger creates and configures a logger
func createLogger(cfg LogConfig) (l.Logger, error) {
	factory := l.NewStandardFactory()

	var output io.Writer = os.Stdout
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
	}

	logger, err := factory.CreateLogger(l.Config{
		Output:      output,
		JsonFormat:  cfg.JSON,
		AsyncWrite:  true,
		BufferSize:  1024 * 1024,       // 1MB
		MaxFileSize: 100 * 1024 * 1024, // 100MB
		MaxBackups:  5,
		AddSource:   true,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return logger, nil
}
