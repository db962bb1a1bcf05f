package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/netbill/backend/internal/domain/shared"
)

// OutboxHandler exposes operational visibility into event delivery
type OutboxHandler struct {
	BaseHandler
	outbox shared.OutboxRepository
}

// NewOutboxHandler creates a new outbox handler
func NewOutboxHandler(outbox shared.OutboxRepository) *OutboxHandler {
	return &OutboxHandler{outbox: outbox}
}

// RegisterRoutes registers outbox routes
func (h *OutboxHandler) RegisterRoutes(rg *gin.RouterGroup) {
	outbox := rg.Group("/outbox")
	outbox.GET("/stats", h.Stats)
}

// Stats returns entry counts per delivery status
func (h *OutboxHandler) Stats(c *gin.Context) {
	counts, err := h.outbox.CountByStatus(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, counts)
}
