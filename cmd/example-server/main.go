package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dki-gateway/middleware/dki"
	"dki-gateway/middleware/dki/infra"

	"go.uber.org/zap"
)

func main() {
	// Exemplo: servindo um diretório estático com o middleware (sem proxy)
	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tables := infra.NewTableHolder(map[string]string{
		"RM1": "Romford",
		"IG1": "Ilford",
		"W1":  "Marylebone",
	})
	if path := os.Getenv("DKI_TABLE_FILE"); path != "" {
		src := infra.NewFileTableSource(path, tables, log)
		if err := src.Load(); err != nil {
			log.Warn("using built-in locality table", zap.Error(err))
		}
		_ = src.Watch(ctx)
	}

	sink := infra.NewLogSink(log)

	dir := "./public"
	if v := os.Getenv("STATIC_DIR"); v != "" {
		dir = v
	}

	h := http.Handler(http.FileServer(http.Dir(dir)))
	h = dki.Middleware(dki.Options{
		Placeholder:   "Hornchurch",
		DefaultCity:   "Marylebone",
		Tables:        tables,
		Stats:         infra.NewMemoryStatsStore(),
		Sink:          sink,
		Logger:        log,
		MaxConcurrent: 16,
		AddDKIHeaders: true,
	})(h)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("example server listening", zap.String("addr", addr), zap.String("dir", dir))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server error", zap.Error(err))
	}
}
