// Package http exposes the inbound HTTP surface: the manual check trigger,
// playlist inspection endpoints, health probes and prometheus metrics.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"playlistwatch/internal/core"
)

const shutdownTimeout = 10 * time.Second

// PlaylistChecker runs one synchronous playlist check.
type PlaylistChecker interface {
	CheckPlaylist(ctx context.Context, playlistID string) core.CheckResult
}

// SnapshotLister is the read-only store surface the inspection endpoints
// need.
type SnapshotLister interface {
	ListByLastChecked(ctx context.Context, limit int) ([]*core.PlaylistSnapshot, error)
}

type Server struct {
	config   *core.ServerConfig
	env      string
	logger   *zap.Logger
	server   *http.Server
	metrics  *Metrics
	registry *prometheus.Registry

	checker  PlaylistChecker
	fetcher  core.PlaylistFetcher
	notifier core.Notifier
	store    SnapshotLister
}

type Metrics struct {
	ChecksTotal        *prometheus.CounterVec
	NewSongsTotal      prometheus.Counter
	NotificationsTotal *prometheus.CounterVec
	CheckDuration      *prometheus.HistogramVec
	MonitoredPlaylists prometheus.Gauge
}

func NewServer(
	config *core.ServerConfig,
	env string,
	checker PlaylistChecker,
	fetcher core.PlaylistFetcher,
	notifier core.Notifier,
	store SnapshotLister,
	logger *zap.Logger,
) *Server {
	registry := prometheus.NewRegistry()

	metrics := &Metrics{
		ChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playlistwatch_checks_total",
				Help: "Total number of playlist checks",
			},
			[]string{"trigger", "status"},
		),
		NewSongsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "playlistwatch_new_songs_total",
				Help: "Total number of newly detected songs",
			},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playlistwatch_notifications_total",
				Help: "Total number of notification attempts",
			},
			[]string{"status"},
		),
		CheckDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playlistwatch_check_duration_seconds",
				Help:    "Time spent checking a playlist",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"trigger"},
		),
		MonitoredPlaylists: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "playlistwatch_monitored_playlists",
				Help: "Number of playlists on the recurring schedule",
			},
		),
	}

	registry.MustRegister(
		metrics.ChecksTotal,
		metrics.NewSongsTotal,
		metrics.NotificationsTotal,
		metrics.CheckDuration,
		metrics.MonitoredPlaylists,
	)

	s := &Server{
		config:   config,
		env:      env,
		logger:   logger,
		metrics:  metrics,
		registry: registry,
		checker:  checker,
		fetcher:  fetcher,
		notifier: notifier,
		store:    store,
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.routes(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /playlist/{playlistId}/check", s.handleCheck)
	mux.HandleFunc("GET /playlist/{playlistId}/tracks", s.handleTracks)
	mux.HandleFunc("GET /playlist/{playlistId}", s.handlePlaylistInfo)
	mux.HandleFunc("GET /playlists", s.handleListSnapshots)
	mux.HandleFunc("POST /notify/test", s.handleTestNotification)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"playlistwatch"}`))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready","service":"playlistwatch"}`))
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return mux
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// RecordCheck implements core.CheckMetrics.
func (s *Server) RecordCheck(trigger, status string) {
	s.metrics.ChecksTotal.WithLabelValues(trigger, status).Inc()
}

// RecordNewSongs implements core.CheckMetrics.
func (s *Server) RecordNewSongs(count int) {
	s.metrics.NewSongsTotal.Add(float64(count))
}

// RecordNotification implements core.CheckMetrics.
func (s *Server) RecordNotification(status string) {
	s.metrics.NotificationsTotal.WithLabelValues(status).Inc()
}

// ObserveCheckDuration implements core.CheckMetrics.
func (s *Server) ObserveCheckDuration(trigger string, duration time.Duration) {
	s.metrics.CheckDuration.WithLabelValues(trigger).Observe(duration.Seconds())
}

// SetMonitoredPlaylists reports the size of the recurring schedule.
func (s *Server) SetMonitoredPlaylists(count int) {
	s.metrics.MonitoredPlaylists.Set(float64(count))
}
