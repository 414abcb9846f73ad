package handlers

import (
	"net/http"

	"home_energy_dashboard/internal/models"

	"github.com/gin-gonic/gin"
)

// @Summary      List settings records
// @Description  Reference fields get a "<field>_label" with the referenced description.
// @Tags         settings
// @Produce      json
// @Param        entity  path      string  true  "Entity"  Enums(category,manufacturer,location,tank,sensor,photovoltaic,energy,heating,weather)
// @Success      200     {object}  map[string]interface{}  "count, records"
// @Failure      400     {object}  map[string]string
// @Failure      502     {object}  map[string]string
// @Router       /api/v1/settings/{entity} [get]
// @Security     BearerAuth
func (h *Handler) listSettings(c *gin.Context) {
	entity := c.Param("entity")
	recs, err := h.services.ListSettings(c.Request.Context(), entity)
	if err != nil {
		h.respondError(c, "settings_list_failed", err, "entity", entity)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(recs), "records": recs})
}

// @Summary      Create a settings record
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        entity  path      string                  true  "Entity"
// @Param        body    body      map[string]interface{}  true  "Record fields"
// @Success      201     {object}  map[string]interface{}
// @Failure      400     {object}  map[string]string
// @Failure      422     {object}  map[string]string
// @Failure      502     {object}  map[string]string
// @Router       /api/v1/settings/{entity} [post]
// @Security     BearerAuth
func (h *Handler) createSettings(c *gin.Context) {
	entity := c.Param("entity")
	var rec models.SettingsRecord
	if ok := h.bindJSONOrBadRequest(c, &rec); !ok {
		return
	}
	out, err := h.services.CreateSettings(c.Request.Context(), entity, rec)
	if err != nil {
		h.respondError(c, "settings_create_failed", err, "entity", entity)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// @Summary      Replace a settings record
// @Description  Every editable field is sent; fields missing from the body are cleared.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        entity  path      string                  true  "Entity"
// @Param        id      path      int                     true  "Record id"
// @Param        body    body      map[string]interface{}  true  "Record fields"
// @Success      200     {object}  map[string]interface{}
// @Failure      400     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Failure      422     {object}  map[string]string
// @Router       /api/v1/settings/{entity}/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateSettings(c *gin.Context) {
	entity := c.Param("entity")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var rec models.SettingsRecord
	if ok := h.bindJSONOrBadRequest(c, &rec); !ok {
		return
	}
	out, err := h.services.UpdateSettings(c.Request.Context(), entity, id, rec)
	if err != nil {
		h.respondError(c, "settings_update_failed", err, "entity", entity, "id", id)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Delete a settings record
// @Tags         settings
// @Param        entity  path  string  true  "Entity"
// @Param        id      path  int     true  "Record id"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/settings/{entity}/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteSettings(c *gin.Context) {
	entity := c.Param("entity")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.services.DeleteSettings(c.Request.Context(), entity, id); err != nil {
		h.respondError(c, "settings_delete_failed", err, "entity", entity, "id", id)
		return
	}
	c.Status(http.StatusNoContent)
}
