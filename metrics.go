package main

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	quotesIssuedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotes_issued",
		Help: "The total number of quote tokens minted",
	})
	quotesRefreshedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quotes_refreshed",
		Help: "The total number of quote tokens re-minted after expiry",
	})
	paymentChecksCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_checks",
		Help: "Payment status scans by resulting status",
	}, []string{"status"})
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "http_response_duration_seconds",
		Help: "Latency of requests in second.",
	}, []string{"path"})
)

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := prometheus.NewTimer(httpDuration.WithLabelValues(r.URL.Path))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		timer.ObserveDuration()
	})
}
