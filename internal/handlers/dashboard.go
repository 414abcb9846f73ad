package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Health check
// @Description  Backend reachability, dashboard state, push clients and host load. 503 when degraded.
// @Tags         system
// @Produce      json
// @Success      200  {object}  service.HealthReport
// @Failure      503  {object}  service.HealthReport
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	r := h.services.Health(c.Request.Context())
	code := http.StatusOK
	if r.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, r)
}

// @Summary      Dashboard snapshot
// @Description  State, modules in display order, devices and rendered widgets.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  dashboard.Snapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/dashboard [get]
// @Security     BearerAuth
func (h *Handler) getDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Snapshot())
}

// @Summary      Render one widget
// @Tags         dashboard
// @Produce      json
// @Param        id   path      int  true  "Module id"
// @Success      200  {object}  dashboard.WidgetView
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/widgets/{id} [get]
// @Security     BearerAuth
func (h *Handler) getWidget(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.services.Widget(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "widget_render_failed", err, "module", id)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary      Energy chart
// @Description  Hourly grid from local midnight; price is null where no tariff applies.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, rows"
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/chart/energy [get]
// @Security     BearerAuth
func (h *Handler) getEnergyChart(c *gin.Context) {
	rows, err := h.services.Chart(c.Request.Context())
	if err != nil {
		h.respondError(c, "energy_chart_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(rows), "rows": rows})
}
