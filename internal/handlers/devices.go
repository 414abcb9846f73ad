package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      List devices
// @Tags         devices
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "devices"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/devices [get]
// @Security     BearerAuth
func (h *Handler) listDevices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"devices": h.services.ListDevices()})
}

// @Summary      Toggle a device
// @Description  Waits for the backend and returns the state it settled on.
// @Tags         devices
// @Produce      json
// @Param        id   path      int  true  "Device id"
// @Success      200  {object}  models.Device
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/devices/{id}/toggle [post]
// @Security     BearerAuth
func (h *Handler) toggleDevice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	d, err := h.services.ToggleDevice(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "device_toggle_failed", err, "device", id)
		return
	}
	c.JSON(http.StatusOK, d)
}
