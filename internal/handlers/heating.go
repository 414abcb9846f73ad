package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HeatPipeRequest switches one heating rod phase.
type HeatPipeRequest struct {
	State *bool `json:"state" binding:"required" example:"true"`
}

// HeatingModeRequest selects the heating mode.
type HeatingModeRequest struct {
	Mode string `json:"mode" binding:"required" example:"Automatik" enums:"Automatik,Manuell,Schnell heizen,Urlaub"`
}

// @Summary      Read a heating rod phase
// @Tags         heating
// @Produce      json
// @Param        phase  path      int  true  "Phase 1..3"
// @Success      200    {object}  models.HeatPipe
// @Failure      400    {object}  map[string]string
// @Failure      502    {object}  map[string]string
// @Router       /api/v1/heat-pipes/{phase} [get]
// @Security     BearerAuth
func (h *Handler) getHeatPipe(c *gin.Context) {
	phase, ok := pathID(c, "phase")
	if !ok {
		return
	}
	p, err := h.services.HeatPipe(c.Request.Context(), phase)
	if err != nil {
		h.respondError(c, "heat_pipe_read_failed", err, "phase", phase)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Switch a heating rod phase
// @Tags         heating
// @Accept       json
// @Produce      json
// @Param        phase  path      int              true  "Phase 1..3"
// @Param        body   body      HeatPipeRequest  true  "Desired state"
// @Success      200    {object}  models.HeatPipe
// @Failure      400    {object}  map[string]string
// @Failure      502    {object}  map[string]string
// @Router       /api/v1/heat-pipes/{phase} [put]
// @Security     BearerAuth
func (h *Handler) setHeatPipe(c *gin.Context) {
	phase, ok := pathID(c, "phase")
	if !ok {
		return
	}
	var req HeatPipeRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	p, err := h.services.SetHeatPipe(c.Request.Context(), phase, *req.State)
	if err != nil {
		h.respondError(c, "heat_pipe_switch_failed", err, "phase", phase)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Set heating mode
// @Tags         heating
// @Accept       json
// @Produce      json
// @Param        body  body      HeatingModeRequest  true  "Mode"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/heating-mode [put]
// @Security     BearerAuth
func (h *Handler) setHeatingMode(c *gin.Context) {
	var req HeatingModeRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	if err := h.services.SetHeatingMode(c.Request.Context(), req.Mode); err != nil {
		h.respondError(c, "heating_mode_failed", err, "mode", req.Mode)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": req.Mode})
}
