//go:build !metrics_full
// +build !metrics_full

// Command metrics-server exposes a standalone Prometheus /metrics
// endpoint and a /healthz probe. It serves only the collectors
// registered in its own process (its request counter and startup
// timestamp); the router's usage counters live in the registry of
// whichever process runs the router and are not visible here.
package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rag_core_metrics_requests_total", Help: "Total /metrics and /healthz scrapes"},
		[]string{"endpoint"},
	)
	metricStartup = prometheus.NewGauge(prometheus.GaugeOpts{Name: "rag_core_metrics_startup_timestamp", Help: "Unix time when the metrics exporter started"})
)

func init() {
	prometheus.MustRegister(metricRequests, metricStartup)
	metricStartup.Set(float64(time.Now().Unix()))
}

func main() {
	addr := getenv("METRICS_ADDR", ":9109")
	mux := http.NewServeMux()
	metricsHandler := promhttp.Handler()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metricRequests.WithLabelValues("/metrics").Inc()
		metricsHandler.ServeHTTP(w, r)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		metricRequests.WithLabelValues("/healthz").Inc()
		w.Write([]byte("ok"))
	})
	log.Printf("metrics server listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil { log.Fatal(err) }
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" { return v }
	return d
}