package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vantagecomms/vantage/backend/pkg/ai"
	"github.com/vantagecomms/vantage/backend/pkg/common"
	"github.com/vantagecomms/vantage/backend/pkg/graph"
	"github.com/vantagecomms/vantage/backend/pkg/logger"
)

const defaultPathDepth = 6

type pathBody struct {
	StartNodeID string `json:"start_node_id" validate:"required"`
	EndNodeID   string `json:"end_node_id" validate:"required"`
	MaxDepth    int    `json:"max_depth"`
}

// ShortestPathHandler finds the minimal-hop path between two nodes, using
// cumulative edge weight to break ties among equal-hop candidates. No path
// within the depth bound is not an error; the response says so explicitly.
func ShortestPathHandler(c echo.Context) error {
	data := new(pathBody)
	if err := c.Bind(data); err != nil {
		return validationJSON(c, "invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return validationJSON(c, "start_node_id and end_node_id are required")
	}
	if data.MaxDepth <= 0 {
		data.MaxDepth = defaultPathDepth
	}

	ctx := c.Request().Context()
	user := appCtx(c).User
	started := time.Now()

	view, err := graphStore(c).LoadView(ctx, user.OrgID)
	if err != nil {
		logger.Error("[API] Failed to load graph view", "err", err)
		return errorJSON(c, err)
	}

	result, err := view.ShortestPath(data.StartNodeID, data.EndNodeID, data.MaxDepth)
	if err != nil {
		return errorJSON(c, err)
	}

	found := 0
	if result != nil {
		found = 1
	}
	auditQuery(ctx, c, "shortest_path", map[string]any{
		"start_node_id": data.StartNodeID,
		"end_node_id":   data.EndNodeID,
		"max_depth":     data.MaxDepth,
	}, found, started)

	if result == nil {
		return c.JSON(http.StatusOK, map[string]any{
			"found": false,
			"path":  nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"found": true,
		"path":  result,
	})
}

type explainPathResponse struct {
	Path        *graph.PathResult   `json:"path"`
	Explanation *ai.PathExplanation `json:"explanation"`
}

// ExplainPathHandler finds the shortest path between two nodes and asks the
// language model for a structured explanation of each hop. A missing path
// is a 404: there is nothing to explain.
func ExplainPathHandler(c echo.Context) error {
	data := new(pathBody)
	if err := c.Bind(data); err != nil {
		return validationJSON(c, "invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return validationJSON(c, "start_node_id and end_node_id are required")
	}
	if data.MaxDepth <= 0 {
		data.MaxDepth = defaultPathDepth
	}

	ctx := c.Request().Context()
	user := appCtx(c).User
	started := time.Now()

	view, err := graphStore(c).LoadView(ctx, user.OrgID)
	if err != nil {
		logger.Error("[API] Failed to load graph view", "err", err)
		return errorJSON(c, err)
	}

	result, err := view.ShortestPath(data.StartNodeID, data.EndNodeID, data.MaxDepth)
	if err != nil {
		return errorJSON(c, err)
	}
	if result == nil {
		return errorJSON(c, common.NewReferenceError(
			"no path between %s and %s within %d hops", data.StartNodeID, data.EndNodeID, data.MaxDepth))
	}

	explanation, err := ai.ExplainPath(ctx, appCtx(c).App.AiClient, result.Nodes, result.Edges)
	if err != nil {
		logger.Error("[API] Failed to explain path", "err", err)
		return errorJSON(c, common.NewStorageError("explain path", err))
	}

	auditQuery(ctx, c, "explain_path", map[string]any{
		"start_node_id": data.StartNodeID,
		"end_node_id":   data.EndNodeID,
		"path_length":   result.PathLength,
	}, len(result.Nodes), started)

	return c.JSON(http.StatusOK, explainPathResponse{
		Path:        result,
		Explanation: explanation,
	})
}
