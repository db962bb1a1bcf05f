package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/netbill/backend/internal/application/reconciliation"
	"github.com/netbill/backend/internal/interfaces/http/middleware"
)

// ReconciliationHandler exposes full-sync and live-session endpoints
type ReconciliationHandler struct {
	BaseHandler
	service *reconciliation.Service
	logger  *zap.Logger
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(service *reconciliation.Service, logger *zap.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers reconciliation routes
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	devices := rg.Group("/devices")
	devices.POST("/:id/sync", h.FullSync)
	devices.GET("/:id/sessions", h.ListSessions)
}

// sessionResponse is the wire representation of a live session
type sessionResponse struct {
	Username  string     `json:"username"`
	Address   string     `json:"address,omitempty"`
	TierName  string     `json:"tier_name,omitempty"`
	Comment   string     `json:"comment,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// FullSync triggers a reconciliation run for one device.
// The run executes synchronously on this request and always answers with a
// structured result, even on partial failure.
func (h *ReconciliationHandler) FullSync(c *gin.Context) {
	deviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid device ID")
		return
	}

	var req reconciliation.FullSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	req.DeviceID = deviceID

	result, err := h.service.FullSync(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListSessions returns the device's live sessions
func (h *ReconciliationHandler) ListSessions(c *gin.Context) {
	deviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid device ID")
		return
	}

	sessions, err := h.service.ListDeviceSessions(c.Request.Context(), deviceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		item := sessionResponse{
			Username: s.Username,
			Address:  s.Address,
			TierName: s.TierName,
			Comment:  s.Comment,
		}
		if !s.StartedAt.IsZero() {
			startedAt := s.StartedAt
			item.StartedAt = &startedAt
		}
		resp = append(resp, item)
	}

	h.Success(c, resp)
}
