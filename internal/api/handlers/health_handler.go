package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/autopo-py/restockd/internal/artifact"
)

// StatusReporter exposes the artifact store's per-capability status.
type StatusReporter interface {
	Status() []artifact.Status
}

type HealthHandler struct {
	store StatusReporter
}

func NewHealthHandler(store StatusReporter) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health reports "degraded" while any capability failed to load. The service
// keeps answering the endpoints that do not need it.
func (h *HealthHandler) Health(c *gin.Context) {
	statuses := h.store.Status()
	status := "ok"
	for _, s := range statuses {
		if !s.Available {
			status = "degraded"
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "artifacts": statuses})
}
