package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AddModuleRequest is the payload of POST /modules.
type AddModuleRequest struct {
	ModuleType string `json:"module_type" binding:"required" example:"energyChart"`
}

// ReorderRequest moves the module at Index one step up or down.
type ReorderRequest struct {
	Index     *int   `json:"index" binding:"required" example:"2"`
	Direction string `json:"direction" binding:"required" example:"up"`
}

// @Summary      List modules
// @Tags         modules
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "modules"
// @Router       /api/v1/modules [get]
// @Security     BearerAuth
func (h *Handler) listModules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"modules": h.services.ListModules()})
}

// @Summary      Add a module
// @Tags         modules
// @Accept       json
// @Produce      json
// @Param        body  body      AddModuleRequest  true  "Module type"
// @Success      201   {object}  models.DashboardModule
// @Failure      400   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/modules [post]
// @Security     BearerAuth
func (h *Handler) addModule(c *gin.Context) {
	var req AddModuleRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	m, err := h.services.AddModule(c.Request.Context(), req.ModuleType)
	if err != nil {
		h.respondError(c, "module_add_failed", err, "module_type", req.ModuleType)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// @Summary      Remove a module
// @Tags         modules
// @Param        id   path  int  true  "Module id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/modules/{id} [delete]
// @Security     BearerAuth
func (h *Handler) removeModule(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.services.RemoveModule(c.Request.Context(), id); err != nil {
		h.respondError(c, "module_remove_failed", err, "module", id)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Move a module
// @Description  Swaps with the neighbour and persists the order. On a backend failure the
// @Description  previous order is restored and returned with the error.
// @Tags         modules
// @Accept       json
// @Produce      json
// @Param        body  body      ReorderRequest  true  "Index and direction (up|down)"
// @Success      200   {object}  map[string]interface{}  "modules"
// @Failure      400   {object}  map[string]string
// @Failure      502   {object}  map[string]interface{}  "error, modules"
// @Router       /api/v1/modules/reorder [post]
// @Security     BearerAuth
func (h *Handler) reorderModules(c *gin.Context) {
	var req ReorderRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	mods, err := h.services.MoveModule(c.Request.Context(), *req.Index, req.Direction)
	if err != nil {
		code := statusFor(err)
		if mods == nil {
			h.respondError(c, "module_reorder_failed", err, "index", *req.Index)
			return
		}
		if h.log != nil {
			h.log.Errorw("module_reorder_reverted", "err", err, "index", *req.Index, "direction", req.Direction)
		}
		c.JSON(code, gin.H{"error": errUpstream, "modules": mods})
		return
	}
	c.JSON(http.StatusOK, gin.H{"modules": mods})
}
