package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/castellan-home/castellan/pkg/api/types"
	"github.com/castellan-home/castellan/pkg/device"
)

// DevicesHandler handles device registry endpoints
type DevicesHandler struct {
	registry *device.Registry
}

// NewDevicesHandler creates a new devices handler
func NewDevicesHandler(registry *device.Registry) *DevicesHandler {
	return &DevicesHandler{registry: registry}
}

func deviceInfo(d *device.Device) types.DeviceInfo {
	caps := d.Capabilities()
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = string(c)
	}
	return types.DeviceInfo{
		Name:            d.Name(),
		Family:          string(d.Family()),
		ConnectionState: string(d.ConnectionState()),
		Capabilities:    names,
	}
}

// ListDevices handles GET /devices
// @Summary      List all devices
// @Description  Returns all registered devices in registration order
// @Tags         devices
// @Produce      json
// @Success      200  {object}  types.ListDevicesResponse
// @Router       /devices [get]
func (h *DevicesHandler) ListDevices(c *gin.Context) {
	devices := h.registry.List()

	result := make([]types.DeviceInfo, 0, len(devices))
	for _, d := range devices {
		result = append(result, deviceInfo(d))
	}

	c.JSON(http.StatusOK, types.ListDevicesResponse{
		Devices: result,
		Count:   len(result),
	})
}

// GetDevice handles GET /devices/:name
// @Summary      Get device details
// @Description  Returns details for a specific device by name
// @Tags         devices
// @Produce      json
// @Param        name  path      string  true  "Device name"
// @Success      200   {object}  types.DeviceResponse
// @Failure      404   {object}  types.ErrorResponse  "Device not found"
// @Router       /devices/{name} [get]
func (h *DevicesHandler) GetDevice(c *gin.Context) {
	name := c.Param("name")

	d, err := h.registry.Resolve(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Error:   "not_found",
			Message: "Device not found",
		})
		return
	}

	c.JSON(http.StatusOK, types.DeviceResponse{Device: deviceInfo(d)})
}

// RegisterDevice handles POST /devices
// @Summary      Register a device
// @Description  Registers a new device with the gateway; the device connects lazily on first action unless eager_connect is set
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        request  body      types.RegisterDeviceRequest  true  "Device to register"
// @Success      201      {object}  types.DeviceResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid configuration"
// @Failure      409      {object}  types.ErrorResponse  "Duplicate device name"
// @Router       /devices [post]
func (h *DevicesHandler) RegisterDevice(c *gin.Context) {
	var req types.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "name, family and host are required",
		})
		return
	}

	cfg := device.Config{
		Host:         req.Host,
		Port:         req.Port,
		Username:     req.Username,
		Password:     req.Password,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		RefreshToken: req.RefreshToken,
		TokenURL:     req.TokenURL,
		EagerConnect: req.EagerConnect,
	}

	d, err := h.registry.Register(c.Request.Context(), req.Name, device.Family(req.Family), cfg)
	if err != nil {
		if errors.Is(err, device.ErrDuplicateName) {
			c.JSON(http.StatusConflict, types.ErrorResponse{
				Error:   "duplicate_name",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_config",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, types.DeviceResponse{Device: deviceInfo(d)})
}

// ReconnectDevice handles POST /devices/:name/reconnect
// @Summary      Reconnect a device
// @Description  Forces a reconnect attempt for the named device
// @Tags         devices
// @Produce      json
// @Param        name  path      string  true  "Device name"
// @Success      200   {object}  types.DeviceResponse
// @Failure      404   {object}  types.ErrorResponse  "Device not found"
// @Router       /devices/{name}/reconnect [post]
func (h *DevicesHandler) ReconnectDevice(c *gin.Context) {
	name := c.Param("name")

	d, err := h.registry.Reconnect(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Error:   "not_found",
			Message: "Device not found",
		})
		return
	}

	c.JSON(http.StatusOK, types.DeviceResponse{Device: deviceInfo(d)})
}

// RemoveDevice handles DELETE /devices/:name
// @Summary      Remove a device
// @Description  Closes the device's adapter and removes it from the registry
// @Tags         devices
// @Produce      json
// @Param        name  path  string  true  "Device name"
// @Success      204   "Device removed successfully"
// @Failure      404   {object}  types.ErrorResponse  "Device not found"
// @Router       /devices/{name} [delete]
func (h *DevicesHandler) RemoveDevice(c *gin.Context) {
	name := c.Param("name")

	if err := h.registry.Remove(name); err != nil {
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Error:   "not_found",
			Message: "Device not found",
		})
		return
	}

	c.Status(http.StatusNoContent)
}
