package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"home_energy_dashboard/internal/dashboard"
	"home_energy_dashboard/internal/service"
	"home_energy_dashboard/internal/upstream"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidBodyPref = "invalid body: "
	errInvalidID       = "invalid id"
	errUpstream        = "energy backend request failed"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondError maps domain and backend errors to a status. Client errors carry
// the error text; backend and internal failures are logged and answered generically.
func (h *Handler) respondError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	code := statusFor(err)
	switch {
	case code == http.StatusBadGateway:
		h.logAndJSONError(c, code, errUpstream, logKey, err, kv...)
	case code >= http.StatusInternalServerError:
		h.logAndJSONError(c, code, err.Error(), logKey, err, kv...)
	default:
		if h.log != nil {
			h.log.Infow(logKey, append([]interface{}{"err", err}, kv...)...)
		}
		c.JSON(code, gin.H{"error": err.Error()})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		upstream.IsStatus(err, http.StatusUnprocessableEntity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUnknownEntity),
		errors.Is(err, service.ErrInvalidID),
		errors.Is(err, service.ErrInvalidPhase),
		errors.Is(err, service.ErrInvalidHeatingMode),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrInvalidEventType),
		errors.Is(err, service.ErrInvalidLimit),
		errors.Is(err, dashboard.ErrUnknownModuleType),
		errors.Is(err, dashboard.ErrInvalidDirection):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrDeviceNotFound),
		errors.Is(err, dashboard.ErrModuleNotFound),
		errors.Is(err, dashboard.ErrNoWidget),
		upstream.IsStatus(err, http.StatusNotFound):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrNotReady):
		return http.StatusServiceUnavailable
	case upstream.IsFetchFailed(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// pathID parses a positive integer path parameter and answers 400 otherwise.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidID})
		return 0, false
	}
	return id, true
}
