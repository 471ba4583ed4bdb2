package routes

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/vantagecomms/vantage/backend/internal/server/middleware"
	"github.com/vantagecomms/vantage/backend/pkg/common"
	"github.com/vantagecomms/vantage/backend/pkg/logger"
	storepgx "github.com/vantagecomms/vantage/backend/pkg/store/pgx"
)

// errorResponse is the uniform error envelope: {code, message}.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorJSON(c echo.Context, err error) error {
	return c.JSON(common.HTTPStatus(err), errorResponse{
		Code:    common.ErrorCode(err),
		Message: err.Error(),
	})
}

func validationJSON(c echo.Context, message string) error {
	return errorJSON(c, common.NewValidationError("%s", message))
}

func appCtx(c echo.Context) *middleware.AppContext {
	return c.(*middleware.AppContext)
}

func graphStore(c echo.Context) *storepgx.GraphDBStore {
	return storepgx.NewGraphDBStore(appCtx(c).App.DBConn)
}

// appendAudit records an audit entry for a request. Audit is best-effort: a
// failure logs a warning and never fails the mutation it describes.
func appendAudit(ctx context.Context, c echo.Context, entry *common.AuditLogEntry) {
	ac := appCtx(c)
	user := ac.User

	id, err := common.NewAuditID()
	if err != nil {
		logger.Warn("[API] Failed to generate audit id", "err", err)
		return
	}
	entry.ID = id
	entry.OrgID = user.OrgID
	if entry.ActorID == "" {
		entry.ActorID = user.UserID
	}
	if entry.ActorType == "" {
		entry.ActorType = common.ActorTypeUser
	}
	entry.IPAddress = c.RealIP()
	entry.UserAgent = c.Request().UserAgent()

	if err := graphStore(c).AppendAudit(ctx, entry); err != nil {
		logger.Warn("[API] Failed to append audit entry", "event", entry.EventType, "err", err)
	}
}

// listMeta is the pagination envelope for list responses.
type listMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
