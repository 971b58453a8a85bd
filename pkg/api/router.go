package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/castellan-home/castellan/pkg/api/handlers"
	"github.com/castellan-home/castellan/pkg/device"
	"github.com/castellan-home/castellan/pkg/gateway"
)

// Router holds the Gin engine and dependencies
type Router struct {
	engine     *gin.Engine
	registry   *device.Registry
	dispatcher *gateway.Dispatcher
}

// NewRouter creates a new API router
func NewRouter(registry *device.Registry, dispatcher *gateway.Dispatcher) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	SetupMiddleware(engine)

	router := &Router{
		engine:     engine,
		registry:   registry,
		dispatcher: dispatcher,
	}

	router.setupRoutes()

	return router
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	// Swagger UI
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(301, "/swagger/index.html")
	})

	// Health check at root
	healthHandler := handlers.NewHealthHandler(r.registry)
	r.engine.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.engine.Group("/api/v1")
	{
		// Health
		v1.GET("/health", healthHandler.Health)

		// Action dispatch
		dispatchHandler := handlers.NewDispatchHandler(r.dispatcher)
		v1.POST("/dispatch", dispatchHandler.Dispatch)

		// Devices
		devicesHandler := handlers.NewDevicesHandler(r.registry)
		devices := v1.Group("/devices")
		{
			devices.GET("", devicesHandler.ListDevices)
			devices.POST("", devicesHandler.RegisterDevice)
			devices.GET("/:name", devicesHandler.GetDevice)
			devices.POST("/:name/reconnect", devicesHandler.ReconnectDevice)
			devices.DELETE("/:name", devicesHandler.RemoveDevice)
		}
	}
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
