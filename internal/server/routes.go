package server

import (
	"github.com/vantagecomms/vantage/backend/internal/server/middleware"
	"github.com/vantagecomms/vantage/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Node routes
	apiRoutes.GET("/nodes", routes.ListNodesHandler)
	apiRoutes.POST("/nodes", routes.CreateNodeHandler, middleware.RequirePermission("graph.node.create"))
	apiRoutes.GET("/nodes/:id", routes.GetNodeHandler)
	apiRoutes.GET("/nodes/:id/connections", routes.GetNodeConnectionsHandler)
	apiRoutes.PATCH("/nodes/:id", routes.UpdateNodeHandler, middleware.RequirePermission("graph.node.update"))
	apiRoutes.DELETE("/nodes/:id", routes.DeleteNodeHandler, middleware.RequirePermission("graph.node.delete"))

	// Edge routes
	apiRoutes.GET("/edges", routes.ListEdgesHandler)
	apiRoutes.POST("/edges", routes.CreateEdgeHandler, middleware.RequirePermission("graph.edge.create"))
	apiRoutes.GET("/edges/:id", routes.GetEdgeHandler)
	apiRoutes.PATCH("/edges/:id", routes.UpdateEdgeHandler, middleware.RequirePermission("graph.edge.update"))
	apiRoutes.DELETE("/edges/:id", routes.DeleteEdgeHandler, middleware.RequirePermission("graph.edge.delete"))

	// Merge
	apiRoutes.POST("/merge", routes.MergeNodesHandler, middleware.RequirePermission("graph.merge"))

	// Graph queries
	apiRoutes.POST("/traverse", routes.TraverseHandler)
	apiRoutes.POST("/shortest-path", routes.ShortestPathHandler)
	apiRoutes.POST("/explain-path", routes.ExplainPathHandler)
	apiRoutes.POST("/query", routes.QueryHandler)

	// Metrics
	apiRoutes.POST("/metrics/compute", routes.ComputeMetricsHandler, middleware.RequirePermission("graph.metrics.compute"))
	apiRoutes.GET("/metrics", routes.GetMetricsHandler)

	// Snapshots
	apiRoutes.GET("/snapshots", routes.ListSnapshotsHandler)
	apiRoutes.POST("/snapshots", routes.CreateSnapshotHandler, middleware.RequirePermission("graph.snapshot.create"))
	apiRoutes.GET("/snapshots/:id", routes.GetSnapshotHandler)
	apiRoutes.POST("/snapshots/:id/regenerate", routes.RegenerateSnapshotHandler, middleware.RequirePermission("graph.snapshot.create"))

	// Audit log
	apiRoutes.GET("/audit", routes.ListAuditHandler, middleware.RequirePermission("graph.audit.view"))
}
