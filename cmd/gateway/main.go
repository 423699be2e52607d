package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"dki-gateway/middleware/dki"
	"dki-gateway/middleware/dki/domain"
	"dki-gateway/middleware/dki/infra"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	loadEnvFiles()

	cfg, err := readConfig()
	if err != nil {
		// logger ainda não existe
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := newLogger(cfg.logLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger error: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		log.Fatal("invalid UPSTREAM_URL", zap.Error(err))
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("proxy error", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tables := &infra.TableHolder{}
	if cfg.tableFile != "" {
		src := infra.NewFileTableSource(cfg.tableFile, tables, log)
		if err := src.Load(); err != nil {
			// tabela ausente é um estado válido: cai no fallback
			log.Warn("locality table not loaded", zap.String("path", cfg.tableFile), zap.Error(err))
		}
		if err := src.Watch(ctx); err != nil {
			log.Warn("locality table watch disabled", zap.Error(err))
		}
	}
	if cfg.tableRedisAddr != "" {
		rdb := newRedis(cfg.tableRedisAddr, cfg.tableRedisPassword, cfg.tableRedisDB)
		defer func() { _ = rdb.Close() }()

		src := infra.NewRedisTableSource(rdb, tables,
			infra.WithTableKey(cfg.tableRedisKey),
			infra.WithTableRefresh(cfg.tableRefresh),
			infra.WithTableLogger(log),
		)
		if err := src.Load(ctx); err != nil {
			log.Warn("locality table not loaded from redis", zap.String("addr", cfg.tableRedisAddr), zap.Error(err))
		}
		src.StartRefresher(ctx)
	}

	stats := infra.MultiStatsStore{infra.NewPrometheusStatsStore(nil)}
	if cfg.statsEnabled {
		rdb := newRedis(cfg.statsRedisAddr, cfg.statsRedisPassword, cfg.statsRedisDB)
		defer func() { _ = rdb.Close() }()

		pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancelPing()
		if err != nil {
			log.Fatal("redis stats ping error", zap.Error(err))
		}

		stats = append(stats, infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
			infra.WithStatsBucket(cfg.statsBucket),
		))
	}

	sink := infra.NewLogSink(log)

	h := http.Handler(proxy)
	h = dki.Middleware(dki.Options{
		Placeholder:    cfg.placeholder,
		DefaultCity:    cfg.defaultCity,
		Param:          cfg.param,
		OnUnresolved:   cfg.onUnresolved,
		Tables:         tables,
		SocialProofVar: cfg.socialProofVar,
		Stats:          stats,
		Sink:           sink,
		Logger:         log,
		MaxBodyBytes:   cfg.maxBodyBytes,
		MaxConcurrent:  cfg.maxConcurrent,
		AcquireTimeout: cfg.acquireTimeout,
		AddDKIHeaders:  cfg.addHeaders,
	})(h)

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	var metricsSrv *http.Server
	if cfg.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
	}()

	log.Info("gateway listening",
		zap.String("addr", cfg.listenAddr),
		zap.String("upstream", target.String()),
		zap.String("metrics", cfg.metricsAddr),
	)
	log.Info("dki",
		zap.String("placeholder", cfg.placeholder),
		zap.String("defaultCity", cfg.defaultCity),
		zap.String("onUnresolved", string(cfg.onUnresolved)),
		zap.String("param", cfg.param),
		zap.String("tableFile", cfg.tableFile),
		zap.String("tableRedisAddr", cfg.tableRedisAddr),
		zap.Int("tableEntries", tables.Len()),
	)
	log.Info("dki limits",
		zap.Int64("maxBodyBytes", cfg.maxBodyBytes),
		zap.Int("maxConcurrent", cfg.maxConcurrent),
		zap.Duration("acquireTimeout", cfg.acquireTimeout),
		zap.Bool("statsRedis", cfg.statsEnabled),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", zap.Error(err))
	}
}

func newRedis(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// loadEnvFiles carrega ENV_FILE (se definido) ou .env. Arquivo ausente não é erro;
// variáveis já definidas no ambiente têm prioridade.
func loadEnvFiles() {
	if f := os.Getenv("ENV_FILE"); f != "" {
		_ = godotenv.Load(f)
		return
	}
	_ = godotenv.Load(".env")
}

type config struct {
	listenAddr  string
	upstreamURL string
	metricsAddr string
	logLevel    string

	placeholder    string
	defaultCity    string
	param          string
	onUnresolved   domain.UnresolvedPolicy
	socialProofVar string

	tableFile          string
	tableRedisAddr     string
	tableRedisPassword string
	tableRedisDB       int
	tableRedisKey      string
	tableRefresh       time.Duration

	maxBodyBytes   int64
	maxConcurrent  int
	acquireTimeout time.Duration
	addHeaders     bool

	statsEnabled       bool
	statsRedisAddr     string
	statsRedisPassword string
	statsRedisDB       int
	statsPrefix        string
	statsTTL           time.Duration
	statsBucket        string
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.upstreamURL = os.Getenv("UPSTREAM_URL")
	cfg.metricsAddr = getenvDefault("METRICS_ADDR", ":9090")
	cfg.logLevel = getenvDefault("LOG_LEVEL", "info")

	cfg.placeholder = strings.TrimSpace(getenvDefault("DKI_PLACEHOLDER", "Hornchurch"))
	// vazio => fallback mantém o próprio placeholder
	cfg.defaultCity = strings.TrimSpace(os.Getenv("DKI_DEFAULT_CITY"))
	cfg.param = getenvDefault("DKI_PARAM", "loc")
	cfg.onUnresolved = domain.ParsePolicy(getenvDefault("DKI_ON_UNRESOLVED", string(domain.FallbackToDefault)))
	cfg.socialProofVar = getenvDefault("DKI_SOCIALPROOF_VAR", infra.DefaultSocialProofVar)

	cfg.tableFile = os.Getenv("DKI_TABLE_FILE")
	cfg.tableRedisAddr = os.Getenv("DKI_TABLE_REDIS_ADDR")
	cfg.tableRedisPassword = os.Getenv("DKI_TABLE_REDIS_PASSWORD")
	cfg.tableRedisDB = getenvIntDefault("DKI_TABLE_REDIS_DB", 0)
	cfg.tableRedisKey = getenvDefault("DKI_TABLE_REDIS_KEY", "dki:locations")
	cfg.tableRefresh = getenvDurationDefault("DKI_TABLE_REFRESH", 5*time.Minute)

	cfg.maxBodyBytes = int64(getenvIntDefault("DKI_MAX_BODY_BYTES", dki.DefaultMaxBodyBytes))
	cfg.maxConcurrent = getenvIntDefault("DKI_MAX_CONCURRENT", 64)
	cfg.acquireTimeout = getenvDurationDefault("DKI_ACQUIRE_TIMEOUT", 200*time.Millisecond)
	cfg.addHeaders = getenvBoolDefault("DKI_ADD_HEADERS", false)

	cfg.statsEnabled = getenvBoolDefault("DKI_STATS_ENABLED", false)
	cfg.statsRedisAddr = os.Getenv("DKI_STATS_REDIS_ADDR")
	cfg.statsRedisPassword = os.Getenv("DKI_STATS_REDIS_PASSWORD")
	cfg.statsRedisDB = getenvIntDefault("DKI_STATS_REDIS_DB", 0)
	cfg.statsPrefix = getenvDefault("DKI_STATS_PREFIX", "dki:stats")
	cfg.statsTTL = getenvDurationDefault("DKI_STATS_TTL", 24*time.Hour)
	cfg.statsBucket = getenvDefault("DKI_STATS_BUCKET", "minute")

	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	if cfg.placeholder == "" {
		return config{}, errors.New("DKI_PLACEHOLDER must not be empty")
	}
	if cfg.statsEnabled && strings.TrimSpace(cfg.statsRedisAddr) == "" {
		return config{}, errors.New("DKI_STATS_REDIS_ADDR is required when DKI_STATS_ENABLED=true")
	}
	if cfg.maxBodyBytes < 0 {
		return config{}, errors.New("DKI_MAX_BODY_BYTES must be >= 0")
	}
	if cfg.maxConcurrent < 0 {
		return config{}, errors.New("DKI_MAX_CONCURRENT must be >= 0")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
