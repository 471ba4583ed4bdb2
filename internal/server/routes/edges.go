package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vantagecomms/vantage/backend/pkg/common"
	"github.com/vantagecomms/vantage/backend/pkg/logger"
)

type edgeBody struct {
	Type         string `json:"type" validate:"required"`
	SourceNodeID string `json:"source_node_id" validate:"required"`
	TargetNodeID string `json:"target_node_id" validate:"required"`

	Label       string         `json:"label"`
	Description string         `json:"description"`
	Properties  map[string]any `json:"properties"`

	Weight        float64 `json:"weight"`
	Bidirectional bool    `json:"bidirectional"`

	ValidFrom *time.Time `json:"valid_from"`
	ValidTo   *time.Time `json:"valid_to"`

	SourceSystem    string   `json:"source_system"`
	InferenceMethod string   `json:"inference_method"`
	Confidence      *float64 `json:"confidence"`
}

// CreateEdgeHandler creates a directed edge. Both endpoints must exist in
// the caller's organization; the store validates that atomically with the
// insert.
func CreateEdgeHandler(c echo.Context) error {
	data := new(edgeBody)
	if err := c.Bind(data); err != nil {
		return validationJSON(c, "invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return validationJSON(c, "invalid request body")
	}

	edgeType := common.EdgeType(data.Type)
	if !edgeType.Valid() {
		return validationJSON(c, "unknown edge type: "+data.Type)
	}
	if data.Weight < 0 {
		return validationJSON(c, "weight must not be negative")
	}

	inference := data.InferenceMethod
	if inference == "" {
		inference = common.InferenceExplicit
	}
	if inference != common.InferenceExplicit && inference != common.InferenceInferred {
		return validationJSON(c, "unknown inference method: "+inference)
	}

	user := appCtx(c).User
	id, err := common.NewEdgeID()
	if err != nil {
		return errorJSON(c, common.NewStorageError("generate edge id", err))
	}

	edge := &common.Edge{
		ID:              id,
		OrgID:           user.OrgID,
		Type:            edgeType,
		SourceNodeID:    data.SourceNodeID,
		TargetNodeID:    data.TargetNodeID,
		Label:           data.Label,
		Description:     data.Description,
		Properties:      data.Properties,
		Weight:          data.Weight,
		Bidirectional:   data.Bidirectional,
		ValidFrom:       data.ValidFrom,
		ValidTo:         data.ValidTo,
		SourceSystem:    data.SourceSystem,
		InferenceMethod: inference,
		Confidence:      data.Confidence,
		IsActive:        true,
		CreatedBy:       user.UserID,
		UpdatedBy:       user.UserID,
	}
	edge.Normalize()

	ctx := c.Request().Context()
	if err := graphStore(c).CreateEdge(ctx, edge); err != nil {
		logger.Error("[API] Failed to create edge", "err", err)
		return errorJSON(c, err)
	}

	appendAudit(ctx, c, &common.AuditLogEntry{
		EventType: common.AuditEdgeCreated,
		EdgeID:    edge.ID,
	})

	return c.JSON(http.StatusCreated, edge)
}

// GetEdgeHandler returns an edge joined to its two endpoint nodes.
func GetEdgeHandler(c echo.Context) error {
	user := appCtx(c).User
	edge, err := graphStore(c).GetEdge(c.Request().Context(), user.OrgID, c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, edge)
}

// ListEdgesHandler returns a filtered page of edges.
func ListEdgesHandler(c echo.Context) error {
	filter := common.EdgeFilter{
		SourceOrTargetID: c.QueryParam("node"),
		ActiveOnly:       c.QueryParam("active") != "false",
		Limit:            queryInt(c, "limit", 50),
		Offset:           queryInt(c, "offset", 0),
	}
	for _, t := range c.QueryParams()["type"] {
		et := common.EdgeType(t)
		if !et.Valid() {
			return validationJSON(c, "unknown edge type: "+t)
		}
		filter.Types = append(filter.Types, et)
	}
	if w, ok := queryFloat(c, "min_weight"); ok {
		filter.MinWeight = &w
	}
	if w, ok := queryFloat(c, "max_weight"); ok {
		filter.MaxWeight = &w
	}

	user := appCtx(c).User
	edges, total, err := graphStore(c).ListEdges(c.Request().Context(), user.OrgID, filter)
	if err != nil {
		logger.Error("[API] Failed to list edges", "err", err)
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"edges": edges,
		"meta":  listMeta{Total: total, Limit: filter.Limit, Offset: filter.Offset},
	})
}

type updateEdgeBody struct {
	Label         *string        `json:"label"`
	Description   *string        `json:"description"`
	Properties    map[string]any `json:"properties"`
	Weight        *float64       `json:"weight"`
	Bidirectional *bool          `json:"bidirectional"`
	ValidFrom     *time.Time     `json:"valid_from"`
	ValidTo       *time.Time     `json:"valid_to"`
	Confidence    *float64       `json:"confidence"`
	IsActive      *bool          `json:"is_active"`
}

// applyEdgeUpdate copies the present fields of a partial update onto the
// edge and returns the audit change set, old and new value per field that
// actually changed.
func applyEdgeUpdate(edge *common.Edge, data *updateEdgeBody) map[string]common.FieldChange {
	changes := map[string]common.FieldChange{}
	if data.Label != nil && *data.Label != edge.Label {
		changes["label"] = common.FieldChange{Old: edge.Label, New: *data.Label}
		edge.Label = *data.Label
	}
	if data.Description != nil && *data.Description != edge.Description {
		changes["description"] = common.FieldChange{Old: edge.Description, New: *data.Description}
		edge.Description = *data.Description
	}
	if data.Properties != nil {
		changes["properties"] = common.FieldChange{Old: edge.Properties, New: data.Properties}
		edge.Properties = data.Properties
	}
	if data.Weight != nil && *data.Weight != edge.Weight {
		changes["weight"] = common.FieldChange{Old: edge.Weight, New: *data.Weight}
		edge.Weight = *data.Weight
	}
	if data.Bidirectional != nil && *data.Bidirectional != edge.Bidirectional {
		changes["bidirectional"] = common.FieldChange{Old: edge.Bidirectional, New: *data.Bidirectional}
		edge.Bidirectional = *data.Bidirectional
	}
	if data.ValidFrom != nil {
		changes["valid_from"] = common.FieldChange{Old: edge.ValidFrom, New: data.ValidFrom}
		edge.ValidFrom = data.ValidFrom
	}
	if data.ValidTo != nil {
		changes["valid_to"] = common.FieldChange{Old: edge.ValidTo, New: data.ValidTo}
		edge.ValidTo = data.ValidTo
	}
	if data.Confidence != nil {
		changes["confidence"] = common.FieldChange{Old: edge.Confidence, New: data.Confidence}
		edge.Confidence = data.Confidence
	}
	if data.IsActive != nil && *data.IsActive != edge.IsActive {
		changes["is_active"] = common.FieldChange{Old: edge.IsActive, New: *data.IsActive}
		edge.IsActive = *data.IsActive
	}
	return changes
}

// UpdateEdgeHandler applies a partial update. Endpoints, type, and
// organization are immutable.
func UpdateEdgeHandler(c echo.Context) error {
	data := new(updateEdgeBody)
	if err := c.Bind(data); err != nil {
		return validationJSON(c, "invalid request body")
	}
	if data.Weight != nil && *data.Weight < 0 {
		return validationJSON(c, "weight must not be negative")
	}

	ctx := c.Request().Context()
	user := appCtx(c).User
	st := graphStore(c)

	existing, err := st.GetEdge(ctx, user.OrgID, c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	edge := existing.Edge
	changes := applyEdgeUpdate(&edge, data)
	edge.UpdatedBy = user.UserID
	edge.Normalize()

	updated, err := st.UpdateEdge(ctx, &edge)
	if err != nil {
		logger.Error("[API] Failed to update edge", "edge_id", edge.ID, "err", err)
		return errorJSON(c, err)
	}

	appendAudit(ctx, c, &common.AuditLogEntry{
		EventType: common.AuditEdgeUpdated,
		EdgeID:    updated.ID,
		Changes:   changes,
	})

	return c.JSON(http.StatusOK, updated)
}

// DeleteEdgeHandler removes one edge.
func DeleteEdgeHandler(c echo.Context) error {
	ctx := c.Request().Context()
	user := appCtx(c).User

	if err := graphStore(c).DeleteEdge(ctx, user.OrgID, c.Param("id")); err != nil {
		return errorJSON(c, err)
	}

	appendAudit(ctx, c, &common.AuditLogEntry{
		EventType: common.AuditEdgeDeleted,
		EdgeID:    c.Param("id"),
	})

	return c.JSON(http.StatusOK, map[string]any{"deleted": true})
}
