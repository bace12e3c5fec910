package server

import (
	"kgqa/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", routes.HealthHandler)

	apiRoutes := e.Group("/api")

	// Graph routes
	apiRoutes.POST("/graphs", routes.IngestHandler)
	apiRoutes.GET("/graphs", routes.ListGraphsHandler)
	apiRoutes.GET("/graphs/:id/summary", routes.GetGraphSummaryHandler)
	apiRoutes.POST("/graphs/:id/query", routes.QueryGraphHandler)
	apiRoutes.DELETE("/graphs/:id", routes.DeleteGraphHandler)
}
