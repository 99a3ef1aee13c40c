package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/agentfleet/control-plane/store"
	"github.com/agentfleet/control-plane/utils"
)

// HealthHandler exposes liveness and readiness probes
type HealthHandler struct {
	store  store.Store
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(st store.Store, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		store:  st,
		logger: logger,
	}
}

// HandleHealthz handles GET /healthz. Liveness only: the process is up
// and serving, regardless of store reachability.
func (h *HealthHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, r, map[string]string{"status": "ok"})
}

// HandleReadyz handles GET /readyz. Ready means the store answers a ping.
func (h *HealthHandler) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		_ = utils.WriteError(w, r, http.StatusServiceUnavailable, utils.CodeInternalError, "Store is unavailable", nil)
		return
	}
	_ = utils.WriteOK(w, r, map[string]string{"status": "ready"})
}
