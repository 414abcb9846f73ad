package handlers

import (
	"home_energy_dashboard/internal/logger"
	"home_energy_dashboard/internal/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// browsers cannot set headers on the upgrade request, so /ws also accepts ?access_token=
	router.GET("/ws", h.userIdMiddleware, h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerDashboardRoutes(api)
		h.registerDeviceRoutes(api)
		h.registerModuleRoutes(api)
		h.registerHeatingRoutes(api)
		h.registerSettingsRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerDashboardRoutes(api *gin.RouterGroup) {
	api.GET("/dashboard", h.getDashboard)
	api.GET("/widgets/:id", h.getWidget)
	api.GET("/chart/energy", h.getEnergyChart)
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	devices := api.Group("/devices")
	{
		devices.GET("", h.listDevices)
		devices.POST("/:id/toggle", h.toggleDevice)
	}
}

func (h *Handler) registerModuleRoutes(api *gin.RouterGroup) {
	modules := api.Group("/modules")
	{
		modules.GET("", h.listModules)
		modules.POST("", h.addModule)
		// Body example: {"index":2,"direction":"up"}
		modules.POST("/reorder", h.reorderModules)
		modules.DELETE("/:id", h.removeModule)
	}
}

func (h *Handler) registerHeatingRoutes(api *gin.RouterGroup) {
	api.GET("/heat-pipes/:phase", h.getHeatPipe)
	api.PUT("/heat-pipes/:phase", h.setHeatPipe)
	api.PUT("/heating-mode", h.setHeatingMode)
}

func (h *Handler) registerSettingsRoutes(api *gin.RouterGroup) {
	settings := api.Group("/settings/:entity")
	{
		settings.GET("", h.listSettings)
		settings.POST("", h.createSettings)
		settings.PUT("/:id", h.updateSettings)
		settings.DELETE("/:id", h.deleteSettings)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	api.GET("/logs", h.getLogs)
}
