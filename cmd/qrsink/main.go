package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"qrscan/pkg/config"
	"qrscan/pkg/log"
	"qrscan/pkg/sink"
	"syscall"
	"time"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address.")
	path := flag.String("path", sink.DefaultPath, "Path accepting the form POST.")
	limit := flag.Int("limit", sink.DefaultLimit, "Number of submissions kept in memory.")
	failStatus := flag.Int("fail-status", 0, "Answer every POST with this status (0 accepts them).")
	logLevel := flag.String("log-level", "info", "Set log level (trace, debug, info, error).")
	flag.Parse()

	level, err := config.ParseLogLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.SetLevel(level)
	if *failStatus != 0 && http.StatusText(*failStatus) == "" {
		log.Fatalf("Invalid configuration: unknown status %d", *failStatus)
	}

	h := sink.NewHandler(sink.NewStore(*limit), *failStatus)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           sink.NewRouter(h, *path),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("qrsink listening on %s, form path %s", *addr, *path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed: %v", err)
	}
}
