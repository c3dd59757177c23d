package notification

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/prms/prms-api/internal/domain/auditlog"
	"github.com/prms/prms-api/internal/platform/auth"
)

const defaultLimit = 20

// Handler serves the notification endpoints. Logical failures are reported
// as {success:false} with HTTP 200; the deployed frontend keys off the
// success flag, not the status code.
type Handler struct {
	repo   Repository
	audit  auditlog.Sink
	logger zerolog.Logger
}

func NewHandler(repo Repository, audit auditlog.Sink, logger zerolog.Logger) *Handler {
	return &Handler{repo: repo, audit: audit, logger: logger}
}

func (h *Handler) RegisterRoutes(staff *echo.Group) {
	staff.GET("/get_notifications", h.List)
	staff.POST("/mark_notification_read", h.MarkRead)
}

func (h *Handler) List(c echo.Context) error {
	user := auth.IdentityFrom(c)

	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	unreadOnly, _ := strconv.ParseBool(c.QueryParam("unread_only"))

	q := ListQuery{UserID: user.ID, Limit: limit, Offset: offset, UnreadOnly: unreadOnly}

	items, err := h.repo.List(c.Request().Context(), q)
	if err != nil {
		return h.fail(c, "list notifications", err)
	}
	if items == nil {
		items = []*Notification{}
	}

	unread, err := h.repo.UnreadCount(c.Request().Context(), user.ID)
	if err != nil {
		return h.fail(c, "count unread notifications", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":       true,
		"notifications": items,
		"unread_count":  unread,
		"total":         len(items),
	})
}

type markReadRequest struct {
	NotificationID int  `json:"notification_id"`
	MarkAll        bool `json:"mark_all"`
}

func (h *Handler) MarkRead(c echo.Context) error {
	user := auth.IdentityFrom(c)

	var req markReadRequest
	if err := c.Bind(&req); err != nil {
		return h.logicalFailure(c, "Invalid request body")
	}

	switch {
	case req.MarkAll:
		n, err := h.repo.MarkAllRead(c.Request().Context(), user.ID)
		if err != nil {
			return h.fail(c, "mark all notifications read", err)
		}
		h.audit.Record(c, user, "mark_all_notifications_read", "notification", 0, nil)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": true,
			"message": fmt.Sprintf("Marked %d notifications as read", n),
		})

	case req.NotificationID > 0:
		changed, err := h.repo.MarkRead(c.Request().Context(), req.NotificationID, user.ID)
		if err != nil {
			return h.fail(c, "mark notification read", err)
		}
		if !changed {
			return h.logicalFailure(c, "Notification not found or already read")
		}
		h.audit.Record(c, user, "mark_notification_read", "notification", req.NotificationID, nil)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Notification marked as read",
		})

	default:
		return h.logicalFailure(c, "Notification ID or mark_all parameter required")
	}
}

func (h *Handler) fail(c echo.Context, what string, err error) error {
	h.logger.Error().Err(err).Msg(what + " failed")
	return h.logicalFailure(c, "Server error")
}

func (h *Handler) logicalFailure(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}
