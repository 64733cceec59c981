// Package service is the orchestration layer over the engines and the store:
// priming output stores, writing regions, training and applying models, and
// the per-variable post-processing transforms. Each entry point logs start
// and completion and records its duration.
package service

import (
	"log/slog"
	"time"

	"github.com/emileten/dodola/internal/observability"
)

// Service bundles the logger, metrics, and parallelism settings shared by
// all service calls.
type Service struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	workers int
	seed    int64
}

// New creates a Service. workers of 0 lets engines use GOMAXPROCS; seed
// feeds the wet-day jitter's random source.
func New(logger *slog.Logger, metrics *observability.Metrics, workers int, seed int64) *Service {
	return &Service{
		logger:  logger,
		metrics: metrics,
		workers: workers,
		seed:    seed,
	}
}

// logged wraps one service call with start/done logging, the running gauge,
// and the duration histogram.
func (s *Service) logged(name string, fn func() error) error {
	s.logger.Info("starting service", "service", name)
	s.metrics.ServiceRunning.Set(1)
	defer s.metrics.ServiceRunning.Set(0)

	start := time.Now()
	err := fn()
	s.metrics.ServiceDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		s.logger.Error("service failed", "service", name, "error", err)
		return err
	}
	s.logger.Info("service done", "service", name, "duration", time.Since(start))
	return nil
}
