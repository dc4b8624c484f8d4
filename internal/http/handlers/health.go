package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is anything readiness depends on (Postgres pool, Redis client).
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	deps     map[string]Pinger
	draining func() bool
}

// create a new instance of the health handler; nil deps are skipped.
// draining, when set, flips readiness off during graceful shutdown.
func NewHealthHandler(deps map[string]Pinger, draining func() bool) *HealthHandler {
	live := make(map[string]Pinger, len(deps))
	for name, p := range deps {
		if p != nil {
			live[name] = p
		}
	}

	if draining == nil {
		draining = func() bool { return false }
	}

	return &HealthHandler{deps: live, draining: draining}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.draining() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
		return
	}

	checks := make(map[string]string, len(h.deps))
	ready := true

	for name, dep := range h.deps {
		cctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
		err := dep.Ping(cctx)
		cancel()

		if err != nil {
			checks[name] = "down"
			ready = false
			continue
		}
		checks[name] = "up"
	}

	if !ready {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}
