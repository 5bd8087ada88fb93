package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
)

type DecisionService interface {
	Decide(ctx context.Context, sku, storeID string) (*domain.Decision, error)
}

type DecisionHandler struct {
	service DecisionService
}

func NewDecisionHandler(service DecisionService) *DecisionHandler {
	return &DecisionHandler{service: service}
}

// Predict handles GET /predict?sku=&store_id=.
func (h *DecisionHandler) Predict(c *gin.Context) {
	sku, hasSKU := c.GetQuery("sku")
	storeID, hasStore := c.GetQuery("store_id")

	var missing []gin.H
	if !hasSKU {
		missing = append(missing, missingQuery("sku"))
	}
	if !hasStore {
		missing = append(missing, missingQuery("store_id"))
	}
	if len(missing) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": missing})
		return
	}

	decision, err := h.service.Decide(c.Request.Context(), sku, storeID)
	if err != nil {
		log.Error().Err(err).Str("sku", sku).Str("store_id", storeID).Msg("Decision pipeline failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, decision)
}

func missingQuery(name string) gin.H {
	return gin.H{
		"loc":  []string{"query", name},
		"msg":  "field required",
		"type": "value_error.missing",
	}
}
