package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vantagecomms/vantage/backend/pkg/common"
	"github.com/vantagecomms/vantage/backend/pkg/graph"
	"github.com/vantagecomms/vantage/backend/pkg/logger"
)

type mergeBody struct {
	SourceIDs []string `json:"source_ids" validate:"required,min=2"`
	Strategy  string   `json:"strategy" validate:"required"`
	TargetID  string   `json:"target_id"`
	NewLabel  string   `json:"new_label"`
}

type mergeResponse struct {
	Survivor     *common.Node `json:"survivor"`
	MergedIDs    []string     `json:"merged_ids"`
	EdgesRewired int          `json:"edges_rewired"`
}

// MergeNodesHandler consolidates two or more nodes into one. The plan is
// computed in memory from the resolved sources, then applied in a single
// transaction: survivor write, edge rewiring, source removal.
func MergeNodesHandler(c echo.Context) error {
	data := new(mergeBody)
	if err := c.Bind(data); err != nil {
		return validationJSON(c, "invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return validationJSON(c, "source_ids (at least two) and strategy are required")
	}

	ctx := c.Request().Context()
	user := appCtx(c).User
	st := graphStore(c)

	// Resolve every source up front so a missing id fails before anything
	// is written.
	nodes := make([]common.Node, 0, len(data.SourceIDs))
	for _, id := range data.SourceIDs {
		node, err := st.GetNode(ctx, user.OrgID, id)
		if err != nil {
			return errorJSON(c, err)
		}
		nodes = append(nodes, *node)
	}

	plan, err := graph.PlanMerge(nodes, graph.MergeInput{
		SourceIDs: data.SourceIDs,
		Strategy:  common.MergeStrategy(data.Strategy),
		TargetID:  data.TargetID,
		NewLabel:  data.NewLabel,
	})
	if err != nil {
		return errorJSON(c, err)
	}

	if plan.CreateNew {
		id, err := common.NewNodeID()
		if err != nil {
			return errorJSON(c, common.NewStorageError("generate node id", err))
		}
		plan.Survivor.ID = id
	}

	survivor, rewired, err := st.ExecuteMerge(ctx, user.OrgID, plan, user.UserID)
	if err != nil {
		logger.Error("[API] Failed to merge nodes", "err", err)
		return errorJSON(c, err)
	}

	embedNode(c, survivor)

	appendAudit(ctx, c, &common.AuditLogEntry{
		EventType: common.AuditNodesMerged,
		NodeID:    survivor.ID,
		QueryParams: map[string]any{
			"source_ids":    data.SourceIDs,
			"strategy":      data.Strategy,
			"removed_ids":   plan.RemovedIDs,
			"edges_rewired": rewired,
		},
	})

	return c.JSON(http.StatusOK, mergeResponse{
		Survivor:     survivor,
		MergedIDs:    plan.RemovedIDs,
		EdgesRewired: rewired,
	})
}
