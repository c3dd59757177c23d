// Package disease serves the reference list of tracked diseases.
package disease

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/prms/prms-api/internal/platform/respond"
)

type Disease struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	Description      *string   `json:"description"`
	Symptoms         *string   `json:"symptoms"`
	IncubationPeriod *string   `json:"incubation_period"`
	ContagiousPeriod *string   `json:"contagious_period"`
	Color            *string   `json:"color"`
	Icon             *string   `json:"icon"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

type Repository interface {
	ListActive(ctx context.Context) ([]*Disease, error)
}

type DiseaseRepoPG struct {
	pool *pgxpool.Pool
}

func NewDiseaseRepoPG(pool *pgxpool.Pool) *DiseaseRepoPG {
	return &DiseaseRepoPG{pool: pool}
}

func (r *DiseaseRepoPG) ListActive(ctx context.Context) ([]*Disease, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, symptoms, incubation_period,
			contagious_period, color, icon, is_active, created_at
		FROM diseases WHERE is_active ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Disease
	for rows.Next() {
		var d Disease
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.Symptoms, &d.IncubationPeriod,
			&d.ContagiousPeriod, &d.Color, &d.Icon, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(staff *echo.Group) {
	staff.GET("/diseases", h.List)
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.repo.ListActive(c.Request().Context())
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, "Database error")
	}
	if items == nil {
		items = []*Disease{}
	}
	return respond.Data(c, items)
}
