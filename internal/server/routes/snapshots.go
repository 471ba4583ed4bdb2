package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vantagecomms/vantage/backend/internal/queue"
	"github.com/vantagecomms/vantage/backend/pkg/common"
	"github.com/vantagecomms/vantage/backend/pkg/logger"
	"github.com/vantagecomms/vantage/backend/pkg/snapshot"
)

type createSnapshotBody struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// CreateSnapshotHandler records a pending snapshot and hands generation to
// the background worker. The previous complete snapshot, if any, becomes
// the diff baseline.
func CreateSnapshotHandler(c echo.Context) error {
	data := new(createSnapshotBody)
	if err := c.Bind(data); err != nil {
		return validationJSON(c, "invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return validationJSON(c, "name is required")
	}

	snapType := common.SnapshotTypeFull
	if data.Type != "" {
		snapType = common.SnapshotType(data.Type)
		if snapType != common.SnapshotTypeFull && snapType != common.SnapshotTypePartial {
			return validationJSON(c, "unknown snapshot type: "+data.Type)
		}
	}

	ctx := c.Request().Context()
	ac := appCtx(c)
	user := ac.User
	st := graphStore(c)

	previous, err := st.LatestCompleteSnapshot(ctx, user.OrgID)
	if err != nil {
		logger.Error("[API] Failed to look up previous snapshot", "err", err)
		return errorJSON(c, err)
	}

	id, err := common.NewSnapshotID()
	if err != nil {
		return errorJSON(c, common.NewStorageError("generate snapshot id", err))
	}

	snap := &common.Snapshot{
		ID:          id,
		OrgID:       user.OrgID,
		Name:        data.Name,
		Description: data.Description,
		Type:        snapType,
		Status:      common.SnapshotStatusPending,
		CreatedBy:   user.UserID,
	}
	if previous != nil {
		snap.PreviousSnapshotID = previous.ID
	}

	if err := st.CreateSnapshot(ctx, snap); err != nil {
		logger.Error("[API] Failed to create snapshot", "err", err)
		return errorJSON(c, err)
	}

	err = queue.PublishSnapshotJob(ac.App.Queue, queue.SnapshotJobMsg{
		OrgID:       user.OrgID,
		SnapshotID:  snap.ID,
		RequestedBy: user.UserID,
	})
	if err != nil {
		logger.Error("[API] Failed to enqueue snapshot job", "snapshot_id", snap.ID, "err", err)
		if failErr := st.FailSnapshot(ctx, user.OrgID, snap.ID, "failed to enqueue generation"); failErr != nil {
			logger.Warn("[API] Failed to mark snapshot failed", "snapshot_id", snap.ID, "err", failErr)
		}
		return errorJSON(c, common.NewStorageError("enqueue snapshot job", err))
	}

	appendAudit(ctx, c, &common.AuditLogEntry{
		EventType:  common.AuditSnapshotCreated,
		SnapshotID: snap.ID,
	})

	return c.JSON(http.StatusAccepted, snap)
}

// GetSnapshotHandler returns one snapshot. With ?include_payload=true the
// serialized graph state is loaded too, from inline bytes or object
// storage.
func GetSnapshotHandler(c echo.Context) error {
	ctx := c.Request().Context()
	ac := appCtx(c)
	user := ac.User
	st := graphStore(c)

	snap, err := st.GetSnapshot(ctx, user.OrgID, c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}

	if c.QueryParam("include_payload") != "true" {
		return c.JSON(http.StatusOK, snap)
	}

	var payloads snapshot.PayloadStore
	if ac.App.Snapshots != nil {
		payloads = ac.App.Snapshots
	}
	eng := snapshot.NewEngine(st, payloads)
	payload, err := eng.LoadPayload(ctx, snap)
	if err != nil {
		logger.Error("[API] Failed to load snapshot payload", "snapshot_id", snap.ID, "err", err)
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"snapshot": snap,
		"payload":  payload,
	})
}

// ListSnapshotsHandler returns a filtered page of snapshots, newest first.
func ListSnapshotsHandler(c echo.Context) error {
	filter := common.SnapshotFilter{
		Status: common.SnapshotStatus(c.QueryParam("status")),
		Type:   common.SnapshotType(c.QueryParam("type")),
		Limit:  queryInt(c, "limit", 20),
		Offset: queryInt(c, "offset", 0),
	}

	user := appCtx(c).User
	snaps, total, err := graphStore(c).ListSnapshots(c.Request().Context(), user.OrgID, filter)
	if err != nil {
		logger.Error("[API] Failed to list snapshots", "err", err)
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"snapshots": snaps,
		"meta":      listMeta{Total: total, Limit: filter.Limit, Offset: filter.Offset},
	})
}

// RegenerateSnapshotHandler creates a fresh snapshot from an existing one's
// name and type. Complete snapshots are immutable, so regeneration is
// always a new record diffed against the one it supersedes.
func RegenerateSnapshotHandler(c echo.Context) error {
	ctx := c.Request().Context()
	ac := appCtx(c)
	user := ac.User
	st := graphStore(c)

	existing, err := st.GetSnapshot(ctx, user.OrgID, c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}

	id, err := common.NewSnapshotID()
	if err != nil {
		return errorJSON(c, common.NewStorageError("generate snapshot id", err))
	}

	snap := &common.Snapshot{
		ID:          id,
		OrgID:       user.OrgID,
		Name:        existing.Name,
		Description: existing.Description,
		Type:        existing.Type,
		Status:      common.SnapshotStatusPending,
		CreatedBy:   user.UserID,
	}
	if existing.Status == common.SnapshotStatusComplete {
		snap.PreviousSnapshotID = existing.ID
	} else if previous, err := st.LatestCompleteSnapshot(ctx, user.OrgID); err == nil && previous != nil {
		snap.PreviousSnapshotID = previous.ID
	}

	if err := st.CreateSnapshot(ctx, snap); err != nil {
		logger.Error("[API] Failed to create snapshot", "err", err)
		return errorJSON(c, err)
	}

	err = queue.PublishSnapshotJob(ac.App.Queue, queue.SnapshotJobMsg{
		OrgID:       user.OrgID,
		SnapshotID:  snap.ID,
		RequestedBy: user.UserID,
	})
	if err != nil {
		logger.Error("[API] Failed to enqueue snapshot job", "snapshot_id", snap.ID, "err", err)
		if failErr := st.FailSnapshot(ctx, user.OrgID, snap.ID, "failed to enqueue generation"); failErr != nil {
			logger.Warn("[API] Failed to mark snapshot failed", "snapshot_id", snap.ID, "err", failErr)
		}
		return errorJSON(c, common.NewStorageError("enqueue snapshot job", err))
	}

	appendAudit(ctx, c, &common.AuditLogEntry{
		EventType:  common.AuditSnapshotCreated,
		SnapshotID: snap.ID,
		QueryParams: map[string]any{
			"regenerated_from": existing.ID,
		},
	})

	return c.JSON(http.StatusAccepted, snap)
}
