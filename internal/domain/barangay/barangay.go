// Package barangay serves the reference geography used by the heatmap.
package barangay

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/prms/prms-api/internal/platform/respond"
)

type Barangay struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type Repository interface {
	List(ctx context.Context) ([]*Barangay, error)
}

type BarangayRepoPG struct {
	pool *pgxpool.Pool
}

func NewBarangayRepoPG(pool *pgxpool.Pool) *BarangayRepoPG {
	return &BarangayRepoPG{pool: pool}
}

func (r *BarangayRepoPG) List(ctx context.Context) ([]*Barangay, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, latitude, longitude FROM barangays ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Barangay
	for rows.Next() {
		var b Barangay
		if err := rows.Scan(&b.ID, &b.Name, &b.Latitude, &b.Longitude); err != nil {
			return nil, err
		}
		items = append(items, &b)
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
	staff.GET("/barangays", h.List)
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.repo.List(c.Request().Context())
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, "Database error")
	}
	if items == nil {
		items = []*Barangay{}
	}
	return respond.Data(c, items)
}
