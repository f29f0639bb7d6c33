package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"looker-content-cleanup/internal/domain/metrics"
	"looker-content-cleanup/internal/usecases/cleanup"
)

type Handlers struct {
	Health  *HealthHandler
	Version *VersionHandler
	Metrics *MetricsHandler
	Cleanup *CleanupHandler
	logger  *zap.Logger
}

func NewHandlers(logger *zap.Logger, version, buildTime string, cleanupUseCase cleanup.CleanupUseCase, gatherer prometheus.Gatherer, metricsCollector metrics.MetricsCollector) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(cleanupUseCase, logger),
		Version: NewVersionHandler(version, buildTime),
		Metrics: NewMetricsHandler(gatherer, metricsCollector, logger),
		Cleanup: NewCleanupHandler(cleanupUseCase, logger),
		logger:  logger,
	}
}
