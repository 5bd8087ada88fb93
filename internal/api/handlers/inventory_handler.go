package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
)

type InventoryService interface {
	List(ctx context.Context) ([]domain.InventoryItem, error)
}

type InventoryHandler struct {
	service InventoryService
}

func NewInventoryHandler(service InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

func (h *InventoryHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load inventory")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to load inventory: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}
