// Command report-server serves stored runs and occupancy charts over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/occupancy.report/internal/api"
	"github.com/banshee-data/occupancy.report/internal/db"
	"github.com/banshee-data/occupancy.report/internal/report"
	"github.com/banshee-data/occupancy.report/internal/version"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	dbPath     = flag.String("db", "occupancy.db", "sqlite database written by det-eval and track-summary")
	origins    = flag.String("origins", "", "comma-separated CORS origins (default localhost on any port)")
	assetsHost = flag.String("assets", "", "echarts assets host (default CDN)")
	cacheMB    = flag.Int64("chart-cache-mb", 64, "rendered chart cache size in MiB")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	store, err := db.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	opts := api.Options{
		ChartCacheBytes: *cacheMB << 20,
		Chart:           report.ChartOptions{AssetsHost: *assetsHost},
	}
	if *origins != "" {
		opts.AllowedOrigins = strings.Split(*origins, ",")
	}
	srv, err := api.NewServer(store, opts)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              *listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("report-server %s listening on %s", version.String(), *listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			log.Printf("failed to start server: %v", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}
