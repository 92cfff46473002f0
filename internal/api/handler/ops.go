package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/flightdelay/flightdelay/internal/api/models"
	"github.com/flightdelay/flightdelay/internal/api/response"
	"github.com/flightdelay/flightdelay/internal/prediction"
	"github.com/flightdelay/flightdelay/internal/provider/resilience"
	"github.com/flightdelay/flightdelay/internal/weather"
)

// CacheStatter reports forecast cache statistics.
type CacheStatter interface {
	CacheStats() weather.CacheStats
}

// WarmupReporter reports warm-up job metrics.
type WarmupReporter interface {
	MetricsSnapshot() map[string]interface{}
}

// OpsConfig holds dependencies of the ops endpoints. Nil fields are skipped.
type OpsConfig struct {
	Version   string
	BuildTime string
	Models    prediction.ModelSource
	Providers *resilience.Registry
	Cache     CacheStatter
	Warmup    WarmupReporter
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - ready once a model is loaded.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if _, err := h.currentModel(); err != nil {
		health.Status = models.HealthStatusFail
		health.Details = map[string]interface{}{"model": err.Error()}
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{h.modelStatus()},
		Providers:  []models.ProviderStatus{},
	}

	if h.cfg.Cache != nil {
		stats := h.cfg.Cache.CacheStats()
		detail := fmt.Sprintf("%s entries, %s hits, %s misses",
			humanize.Comma(int64(stats.Entries)),
			humanize.Comma(int64(stats.Hits)),
			humanize.Comma(int64(stats.Misses)))
		status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
			Name:   "forecast-cache",
			Status: models.HealthStatusOK,
			Detail: &detail,
		})
	}

	if h.cfg.Providers != nil {
		for _, p := range h.cfg.Providers.GetAllHealth() {
			ps := models.ProviderStatus{
				Provider:     p.Name,
				Status:       models.HealthStatus(p.Status()),
				CircuitState: p.CircuitState.String(),
			}
			if p.LastSuccessAt != nil {
				ts := models.Timestamp(*p.LastSuccessAt)
				ps.LastSuccessAt = &ts
			}
			if p.LastFailureAt != nil {
				ts := models.Timestamp(*p.LastFailureAt)
				ps.LastFailureAt = &ts
			}
			if p.LastError != "" {
				msg := p.LastError
				ps.Message = &msg
			}
			// Weather failures fall back to neutral conditions.
			if ps.Status != models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	if h.cfg.Warmup != nil {
		status.Warmup = h.cfg.Warmup.MetricsSnapshot()
	}

	if status.Subsystems[0].Status == models.HealthStatusFail {
		status.Status = models.HealthStatusFail
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) currentModel() (string, error) {
	if h.cfg.Models == nil {
		return "", errors.New("no model source configured")
	}
	b, err := h.cfg.Models.Current()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("version %d loaded %s (%s)", b.Version, humanize.Time(b.LoadedAt), humanize.Bytes(uint64(b.Size))), nil
}

func (h *OpsHandler) modelStatus() models.SubsystemStatus {
	detail, err := h.currentModel()
	if err != nil {
		msg := err.Error()
		return models.SubsystemStatus{Name: "model", Status: models.HealthStatusFail, Detail: &msg}
	}
	return models.SubsystemStatus{Name: "model", Status: models.HealthStatusOK, Detail: &detail}
}
