package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports process and store health.
type HealthHandler struct {
	store   Pinger
	started time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store, started: time.Now()}
}

type healthResponse struct {
	Status         string  `json:"status"`
	Store          string  `json:"store"`
	UptimeSeconds  int64   `json:"uptimeSeconds"`
	MemUsedPercent float64 `json:"memUsedPercent"`
}

// Get handles GET /health. A store that cannot be pinged yields 503.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:        "ok",
		Store:         "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}
	status := http.StatusOK

	if err := h.store.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Health check: store unreachable")
		resp.Status = "degraded"
		resp.Store = "unreachable"
		status = http.StatusServiceUnavailable
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		resp.MemUsedPercent = vm.UsedPercent
	} else {
		log.Debug().Err(err).Msg("Health check: memory stats unavailable")
	}

	respondJSON(w, status, resp)
}
