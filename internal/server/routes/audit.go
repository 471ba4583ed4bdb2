package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vantagecomms/vantage/backend/pkg/common"
	"github.com/vantagecomms/vantage/backend/pkg/logger"
)

// ListAuditHandler returns a filtered page of audit entries, newest first.
// The log is append-only; there is no mutation surface.
func ListAuditHandler(c echo.Context) error {
	filter := common.AuditFilter{
		EventType: c.QueryParam("event_type"),
		NodeID:    c.QueryParam("node_id"),
		EdgeID:    c.QueryParam("edge_id"),
		Limit:     queryInt(c, "limit", 50),
		Offset:    queryInt(c, "offset", 0),
	}

	user := appCtx(c).User
	entries, total, err := graphStore(c).ListAudit(c.Request().Context(), user.OrgID, filter)
	if err != nil {
		logger.Error("[API] Failed to list audit entries", "err", err)
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"entries": entries,
		"meta":    listMeta{Total: total, Limit: filter.Limit, Offset: filter.Offset},
	})
}
