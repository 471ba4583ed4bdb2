package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vantagecomms/vantage/backend/internal/queue"
	"github.com/vantagecomms/vantage/backend/internal/util"
	"github.com/vantagecomms/vantage/backend/pkg/common"
	"github.com/vantagecomms/vantage/backend/pkg/graph"
	"github.com/vantagecomms/vantage/backend/pkg/logger"
)

type computeMetricsBody struct {
	ComputeCentrality bool `json:"compute_centrality"`
	ComputeClusters   bool `json:"compute_clusters"`
	// Force skips the synchronous attempt and goes straight to the worker.
	Force bool `json:"force_async"`
}

// ComputeMetricsHandler runs a metrics pass synchronously when the graph is
// under the node ceiling, writing scores back and returning the result.
// Larger graphs are handed to the background worker and the caller gets a
// 202 with the queue it landed on.
func ComputeMetricsHandler(c echo.Context) error {
	data := new(computeMetricsBody)
	if err := c.Bind(data); err != nil {
		return validationJSON(c, "invalid request body")
	}

	ctx := c.Request().Context()
	ac := appCtx(c)
	user := ac.User
	st := graphStore(c)

	maxSync := int(util.GetEnvNumeric("GRAPH_SYNC_NODE_LIMIT", 2000))

	if !data.Force {
		view, err := st.LoadView(ctx, user.OrgID)
		if err != nil {
			logger.Error("[API] Failed to load graph view", "err", err)
			return errorJSON(c, err)
		}

		result, err := view.ComputeMetrics(graph.MetricsOptions{
			ComputeCentrality: data.ComputeCentrality,
			ComputeClusters:   data.ComputeClusters,
			MaxNodes:          maxSync,
		})
		switch {
		case err == nil:
			if len(result.Scores) > 0 {
				if _, err := st.UpdateNodeScores(ctx, user.OrgID, result.Scores); err != nil {
					logger.Error("[API] Failed to write node scores", "err", err)
					return errorJSON(c, err)
				}
			}
			if err := st.SaveGraphMetrics(ctx, user.OrgID, result.Metrics); err != nil {
				logger.Error("[API] Failed to save graph metrics", "err", err)
				return errorJSON(c, err)
			}

			appendAudit(ctx, c, &common.AuditLogEntry{
				EventType: common.AuditMetricsComputed,
				QueryParams: map[string]any{
					"compute_centrality": data.ComputeCentrality,
					"compute_clusters":   data.ComputeClusters,
					"mode":               "sync",
				},
				ResultCount:     &result.NodesUpdated,
				ExecutionTimeMs: &result.ExecutionTimeMs,
			})

			return c.JSON(http.StatusOK, result)
		case common.ErrorCode(err) != common.CodeComputationLimit:
			return errorJSON(c, err)
		}
		// Over the ceiling: fall through to the async path.
	}

	err := queue.PublishMetricsJob(ac.App.Queue, queue.MetricsJobMsg{
		OrgID:             user.OrgID,
		RequestedBy:       user.UserID,
		ComputeCentrality: data.ComputeCentrality,
		ComputeClusters:   data.ComputeClusters,
	})
	if err != nil {
		logger.Error("[API] Failed to enqueue metrics job", "err", err)
		return errorJSON(c, common.NewStorageError("enqueue metrics job", err))
	}

	return c.JSON(http.StatusAccepted, map[string]any{
		"status": "queued",
		"queue":  queue.MetricsQueue,
	})
}

// GetMetricsHandler returns the last computed graph-level metrics summary.
func GetMetricsHandler(c echo.Context) error {
	user := appCtx(c).User
	metrics, err := graphStore(c).GetGraphMetrics(c.Request().Context(), user.OrgID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, metrics)
}
