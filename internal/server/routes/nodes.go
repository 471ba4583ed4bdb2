package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vantagecomms/vantage/backend/pkg/common"
	"github.com/vantagecomms/vantage/backend/pkg/logger"
	"github.com/vantagecomms/vantage/backend/pkg/store"
)

type nodeBody struct {
	Type        string         `json:"type" validate:"required"`
	Label       string         `json:"label" validate:"required"`
	Description string         `json:"description"`
	Properties  map[string]any `json:"properties"`
	Tags        []string       `json:"tags"`
	Categories  []string       `json:"categories"`

	SourceSystem string `json:"source_system"`
	SourceTable  string `json:"source_table"`
	ExternalID   string `json:"external_id"`

	ValidFrom  *time.Time `json:"valid_from"`
	ValidTo    *time.Time `json:"valid_to"`
	Confidence *float64   `json:"confidence"`
}

// CreateNodeHandler creates a node in the caller's organization and embeds
// its label and description for semantic search.
func CreateNodeHandler(c echo.Context) error {
	data := new(nodeBody)
	if err := c.Bind(data); err != nil {
		return validationJSON(c, "invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return validationJSON(c, "invalid request body")
	}

	nodeType := common.NodeType(data.Type)
	if !nodeType.Valid() {
		return validationJSON(c, "unknown node type: "+data.Type)
	}

	user := appCtx(c).User
	id, err := common.NewNodeID()
	if err != nil {
		return errorJSON(c, common.NewStorageError("generate node id", err))
	}

	node := &common.Node{
		ID:           id,
		OrgID:        user.OrgID,
		Type:         nodeType,
		Label:        data.Label,
		Description:  data.Description,
		SourceSystem: data.SourceSystem,
		SourceTable:  data.SourceTable,
		ExternalID:   data.ExternalID,
		Properties:   data.Properties,
		Tags:         store.DedupeStrings(data.Tags),
		Categories:   store.DedupeStrings(data.Categories),
		ValidFrom:    data.ValidFrom,
		ValidTo:      data.ValidTo,
		Confidence:   data.Confidence,
		IsActive:     true,
		CreatedBy:    user.UserID,
		UpdatedBy:    user.UserID,
	}
	node.Normalize()

	ctx := c.Request().Context()
	st := graphStore(c)
	if err := st.CreateNode(ctx, node); err != nil {
		logger.Error("[API] Failed to create node", "err", err)
		return errorJSON(c, err)
	}

	embedNode(c, node)

	appendAudit(ctx, c, &common.AuditLogEntry{
		EventType: common.AuditNodeCreated,
		NodeID:    node.ID,
	})

	return c.JSON(http.StatusCreated, node)
}

// GetNodeHandler returns one node by id.
func GetNodeHandler(c echo.Context) error {
	user := appCtx(c).User
	node, err := graphStore(c).GetNode(c.Request().Context(), user.OrgID, c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, node)
}

// GetNodeConnectionsHandler returns a node joined to its incident edges and
// neighbor nodes in one call.
func GetNodeConnectionsHandler(c echo.Context) error {
	user := appCtx(c).User
	conns, err := graphStore(c).GetNodeConnections(c.Request().Context(), user.OrgID, c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, conns)
}

// ListNodesHandler returns a filtered page of nodes.
func ListNodesHandler(c echo.Context) error {
	filter := common.NodeFilter{
		Search:     c.QueryParam("search"),
		ActiveOnly: c.QueryParam("active") != "false",
		Limit:      queryInt(c, "limit", 50),
		Offset:     queryInt(c, "offset", 0),
	}
	for _, t := range c.QueryParams()["type"] {
		nt := common.NodeType(t)
		if !nt.Valid() {
			return validationJSON(c, "unknown node type: "+t)
		}
		filter.Types = append(filter.Types, nt)
	}
	filter.Tags = c.QueryParams()["tag"]
	filter.Categories = c.QueryParams()["category"]

	user := appCtx(c).User
	nodes, total, err := graphStore(c).ListNodes(c.Request().Context(), user.OrgID, filter)
	if err != nil {
		logger.Error("[API] Failed to list nodes", "err", err)
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"nodes": nodes,
		"meta":  listMeta{Total: total, Limit: filter.Limit, Offset: filter.Offset},
	})
}

type updateNodeBody struct {
	Label       *string        `json:"label"`
	Description *string        `json:"description"`
	Properties  map[string]any `json:"properties"`
	Tags        []string       `json:"tags"`
	Categories  []string       `json:"categories"`
	ValidFrom   *time.Time     `json:"valid_from"`
	ValidTo     *time.Time     `json:"valid_to"`
	Confidence  *float64       `json:"confidence"`
	IsActive    *bool          `json:"is_active"`
}

// UpdateNodeHandler applies a partial update. Type and organization are
// immutable; absent fields keep their stored values.
func UpdateNodeHandler(c echo.Context) error {
	data := new(updateNodeBody)
	if err := c.Bind(data); err != nil {
		return validationJSON(c, "invalid request body")
	}

	ctx := c.Request().Context()
	user := appCtx(c).User
	st := graphStore(c)

	node, err := st.GetNode(ctx, user.OrgID, c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}

	changes := map[string]common.FieldChange{}
	reembed := false

	if data.Label != nil && *data.Label != node.Label {
		changes["label"] = common.FieldChange{Old: node.Label, New: *data.Label}
		node.Label = *data.Label
		reembed = true
	}
	if data.Description != nil && *data.Description != node.Description {
		changes["description"] = common.FieldChange{Old: node.Description, New: *data.Description}
		node.Description = *data.Description
		reembed = true
	}
	if data.Properties != nil {
		changes["properties"] = common.FieldChange{Old: node.Properties, New: data.Properties}
		node.Properties = data.Properties
	}
	if data.Tags != nil {
		tags := store.DedupeStrings(data.Tags)
		changes["tags"] = common.FieldChange{Old: node.Tags, New: tags}
		node.Tags = tags
	}
	if data.Categories != nil {
		categories := store.DedupeStrings(data.Categories)
		changes["categories"] = common.FieldChange{Old: node.Categories, New: categories}
		node.Categories = categories
	}
	if data.ValidFrom != nil {
		changes["valid_from"] = common.FieldChange{Old: node.ValidFrom, New: data.ValidFrom}
		node.ValidFrom = data.ValidFrom
	}
	if data.ValidTo != nil {
		changes["valid_to"] = common.FieldChange{Old: node.ValidTo, New: data.ValidTo}
		node.ValidTo = data.ValidTo
	}
	if data.Confidence != nil {
		changes["confidence"] = common.FieldChange{Old: node.Confidence, New: data.Confidence}
		node.Confidence = data.Confidence
	}
	if data.IsActive != nil && *data.IsActive != node.IsActive {
		changes["is_active"] = common.FieldChange{Old: node.IsActive, New: *data.IsActive}
		node.IsActive = *data.IsActive
	}

	node.UpdatedBy = user.UserID
	node.Normalize()

	updated, err := st.UpdateNode(ctx, node)
	if err != nil {
		logger.Error("[API] Failed to update node", "node_id", node.ID, "err", err)
		return errorJSON(c, err)
	}

	if reembed {
		embedNode(c, updated)
	}

	appendAudit(ctx, c, &common.AuditLogEntry{
		EventType: common.AuditNodeUpdated,
		NodeID:    updated.ID,
		Changes:   changes,
	})

	return c.JSON(http.StatusOK, updated)
}

// DeleteNodeHandler removes a node and all of its incident edges.
func DeleteNodeHandler(c echo.Context) error {
	ctx := c.Request().Context()
	user := appCtx(c).User

	edgesRemoved, err := graphStore(c).DeleteNode(ctx, user.OrgID, c.Param("id"), user.UserID)
	if err != nil {
		return errorJSON(c, err)
	}

	appendAudit(ctx, c, &common.AuditLogEntry{
		EventType: common.AuditNodeDeleted,
		NodeID:    c.Param("id"),
		QueryParams: map[string]any{
			"edges_removed": edgesRemoved,
		},
	})

	return c.JSON(http.StatusOK, map[string]any{
		"deleted":       true,
		"edges_removed": edgesRemoved,
	})
}

// embedNode computes and stores the node's embedding from its label and
// description. Embedding is best-effort: failure logs a warning and never
// fails the mutation.
func embedNode(c echo.Context, node *common.Node) {
	ctx := c.Request().Context()
	ac := appCtx(c)

	text := node.Label
	if node.Description != "" {
		text += "\n" + node.Description
	}
	embedding, err := ac.App.AiClient.GenerateEmbedding(ctx, []byte(text))
	if err != nil {
		logger.Warn("[API] Failed to embed node", "node_id", node.ID, "err", err)
		return
	}
	if err := graphStore(c).UpsertNodeEmbedding(ctx, node.OrgID, node.ID, embedding); err != nil {
		logger.Warn("[API] Failed to store node embedding", "node_id", node.ID, "err", err)
	}
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryFloat(c echo.Context, name string) (float64, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
