package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/netbill/backend/internal/domain/network"
	"github.com/netbill/backend/internal/interfaces/http/middleware"
)

// DeviceHandler exposes device inventory endpoints
type DeviceHandler struct {
	BaseHandler
	devices network.DeviceRepository
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(devices network.DeviceRepository) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

// RegisterRoutes registers device routes
func (h *DeviceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	devices := rg.Group("/devices")
	devices.POST("", h.Create)
	devices.GET("", h.List)
	devices.GET("/:id", h.Get)
}

// createDeviceRequest is the payload for registering a device
type createDeviceRequest struct {
	Name           string `json:"name" binding:"required,max=200"`
	Host           string `json:"host" binding:"required,max=255"`
	Port           int    `json:"port" binding:"required,min=1,max=65535"`
	Username       string `json:"username" binding:"required,max=100"`
	Password       string `json:"password" binding:"required,max=200"`
	QuarantineTier string `json:"quarantine_tier" binding:"omitempty,max=200"`
}

// deviceResponse is the wire representation of a device
type deviceResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Host           string    `json:"host"`
	Port           int       `json:"port"`
	QuarantineTier string    `json:"quarantine_tier"`
	Enabled        bool      `json:"enabled"`
}

func toDeviceResponse(d *network.Device) deviceResponse {
	return deviceResponse{
		ID:             d.ID,
		Name:           d.Name,
		Host:           d.Host,
		Port:           d.Port,
		QuarantineTier: d.QuarantineTier,
		Enabled:        d.Enabled,
	}
}

// Create registers a new device
func (h *DeviceHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req createDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	device, err := network.NewDevice(tenantID, req.Name, req.Host, req.Port)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if err := device.SetCredentials(req.Username, req.Password); err != nil {
		h.HandleError(c, err)
		return
	}
	if req.QuarantineTier != "" {
		if err := device.SetQuarantineTier(req.QuarantineTier); err != nil {
			h.HandleError(c, err)
			return
		}
	}

	if err := h.devices.Save(c.Request.Context(), device); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toDeviceResponse(device))
}

// List returns all devices for the tenant
func (h *DeviceHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	devices, err := h.devices.FindAllForTenant(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := make([]deviceResponse, 0, len(devices))
	for i := range devices {
		resp = append(resp, toDeviceResponse(&devices[i]))
	}
	h.Success(c, resp)
}

// Get returns one device by ID
func (h *DeviceHandler) Get(c *gin.Context) {
	deviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid device ID")
		return
	}

	device, err := h.devices.FindByID(c.Request.Context(), deviceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toDeviceResponse(device))
}
