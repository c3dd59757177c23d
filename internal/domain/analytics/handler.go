package analytics

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/prms/prms-api/internal/platform/auth"
	"github.com/prms/prms-api/internal/platform/respond"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(staff *echo.Group) {
	staff.GET("/dashboard", h.Dashboard)
	staff.GET("/disease-analytics", h.DiseaseAnalytics)
	staff.GET("/heatmap", h.Heatmap)
	staff.GET("/reports", h.Reports)
	staff.GET("/tracker", h.Tracker)
}

func (h *Handler) Dashboard(c echo.Context) error {
	user := auth.IdentityFrom(c)

	d, err := h.svc.Dashboard(c.Request().Context(), user.ID)
	if err != nil {
		h.logger.Error().Err(err).Int("staff_id", user.ID).Msg("dashboard query failed")
		return respond.Error(c, http.StatusInternalServerError, "Database error")
	}
	return respond.Data(c, d)
}

func (h *Handler) DiseaseAnalytics(c echo.Context) error {
	user := auth.IdentityFrom(c)

	diseases, err := h.svc.DiseaseAnalytics(c.Request().Context(), user.ID)
	if err != nil {
		h.logger.Error().Err(err).Int("staff_id", user.ID).Msg("disease analytics query failed")
		return respond.Error(c, http.StatusInternalServerError, "Database error")
	}
	return respond.OK(c, map[string]interface{}{
		"diseases":       diseases,
		"total_diseases": len(diseases),
	})
}

func (h *Handler) Heatmap(c echo.Context) error {
	user := auth.IdentityFrom(c)

	rows, summary, err := h.svc.Heatmap(c.Request().Context(), user.ID)
	if err != nil {
		h.logger.Error().Err(err).Int("staff_id", user.ID).Msg("heatmap query failed")
		return respond.Error(c, http.StatusInternalServerError, "Database error")
	}
	return respond.OK(c, map[string]interface{}{
		"data":    rows,
		"summary": summary,
	})
}

func (h *Handler) Reports(c echo.Context) error {
	user := auth.IdentityFrom(c)

	q := ReportQuery{
		From:    c.QueryParam("from"),
		To:      c.QueryParam("to"),
		Disease: c.QueryParam("disease"),
		Status:  c.QueryParam("status"),
	}

	report, err := h.svc.Report(c.Request().Context(), user.ID, q)
	if err != nil {
		if errors.Is(err, ErrBadDateFilter) {
			return respond.Error(c, http.StatusBadRequest, ErrBadDateFilter.Error())
		}
		h.logger.Error().Err(err).Int("staff_id", user.ID).Msg("report query failed")
		return respond.Error(c, http.StatusInternalServerError, "Database error")
	}
	return respond.Data(c, report)
}

func (h *Handler) Tracker(c echo.Context) error {
	user := auth.IdentityFrom(c)

	t, err := h.svc.Tracker(c.Request().Context(), user.ID)
	if err != nil {
		h.logger.Error().Err(err).Int("staff_id", user.ID).Msg("tracker query failed")
		return respond.Error(c, http.StatusInternalServerError, "Database error")
	}
	return respond.Data(c, t)
}
