package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vantagecomms/vantage/backend/pkg/common"
	"github.com/vantagecomms/vantage/backend/pkg/logger"
	"github.com/vantagecomms/vantage/backend/pkg/store"
)

type queryBody struct {
	Mode string `json:"mode" validate:"required"`

	// Filter mode.
	Types      []string `json:"types"`
	Tags       []string `json:"tags"`
	Categories []string `json:"categories"`
	Search     string   `json:"search"`
	GroupBy    string   `json:"group_by"`

	// Semantic mode.
	Text          string   `json:"text"`
	MinSimilarity *float64 `json:"min_similarity"`

	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type scoredNode struct {
	Node       common.Node `json:"node"`
	Similarity float64     `json:"similarity"`
}

// QueryHandler answers node lookups in two modes: "filter" matches on
// structured attributes, "semantic" embeds free text and ranks nodes by
// cosine similarity against their stored embeddings.
func QueryHandler(c echo.Context) error {
	data := new(queryBody)
	if err := c.Bind(data); err != nil {
		return validationJSON(c, "invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return validationJSON(c, "mode is required")
	}

	switch data.Mode {
	case "filter":
		return queryFilter(c, data)
	case "semantic":
		return querySemantic(c, data)
	default:
		return validationJSON(c, "unknown query mode: "+data.Mode)
	}
}

func queryFilter(c echo.Context, data *queryBody) error {
	filter := common.NodeFilter{
		Tags:       data.Tags,
		Categories: data.Categories,
		Search:     data.Search,
		ActiveOnly: true,
		Limit:      data.Limit,
		Offset:     data.Offset,
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	for _, t := range data.Types {
		nt := common.NodeType(t)
		if !nt.Valid() {
			return validationJSON(c, "unknown node type: "+t)
		}
		filter.Types = append(filter.Types, nt)
	}

	if data.GroupBy != "" {
		if _, ok := store.NodeGroupColumn(data.GroupBy); !ok {
			return validationJSON(c, "unknown group-by field: "+data.GroupBy)
		}
	}

	ctx := c.Request().Context()
	user := appCtx(c).User
	st := graphStore(c)
	started := time.Now()

	nodes, total, err := st.ListNodes(ctx, user.OrgID, filter)
	if err != nil {
		logger.Error("[API] Filter query failed", "err", err)
		return errorJSON(c, err)
	}

	response := map[string]any{
		"nodes": nodes,
		"meta":  listMeta{Total: total, Limit: filter.Limit, Offset: filter.Offset},
	}
	if data.GroupBy != "" {
		groups, err := st.CountNodesBy(ctx, user.OrgID, filter, data.GroupBy)
		if err != nil {
			logger.Error("[API] Filter query aggregation failed", "group_by", data.GroupBy, "err", err)
			return errorJSON(c, err)
		}
		response["groups"] = groups
	}

	auditQuery(ctx, c, "filter", map[string]any{
		"types":    data.Types,
		"search":   data.Search,
		"group_by": data.GroupBy,
	}, len(nodes), started)

	return c.JSON(http.StatusOK, response)
}

func querySemantic(c echo.Context, data *queryBody) error {
	if data.Text == "" {
		return validationJSON(c, "text is required for semantic queries")
	}

	ctx := c.Request().Context()
	user := appCtx(c).User
	started := time.Now()

	embedding, err := appCtx(c).App.AiClient.GenerateEmbedding(ctx, []byte(data.Text))
	if err != nil {
		logger.Error("[API] Failed to embed semantic query", "err", err)
		return errorJSON(c, common.NewStorageError("embed query", err))
	}

	nodes, scores, err := graphStore(c).SearchNodesByEmbedding(ctx, user.OrgID, embedding, data.Limit)
	if err != nil {
		logger.Error("[API] Semantic query failed", "err", err)
		return errorJSON(c, err)
	}

	results := []scoredNode{}
	for i, node := range nodes {
		if data.MinSimilarity != nil && scores[i] < *data.MinSimilarity {
			continue
		}
		results = append(results, scoredNode{Node: node, Similarity: scores[i]})
	}

	auditQuery(ctx, c, "semantic", map[string]any{
		"text": data.Text,
	}, len(results), started)

	return c.JSON(http.StatusOK, map[string]any{
		"results": results,
	})
}
