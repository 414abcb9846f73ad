package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"home_energy_dashboard/internal/models"
)

type LayoutSQLite struct {
	db *sql.DB
}

func NewLayoutSQLite(db *sql.DB) *LayoutSQLite {
	return &LayoutSQLite{db: db}
}

var _ LayoutRepo = (*LayoutSQLite)(nil)

const (
	upsertLayoutSQL = `
		INSERT INTO module_layouts (dashboard_id, modules, confirmed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(dashboard_id) DO UPDATE SET
			modules=excluded.modules,
			confirmed_at=excluded.confirmed_at
	`

	selectLayoutSQL = `
		SELECT dashboard_id, modules, confirmed_at
		FROM module_layouts WHERE dashboard_id=?
	`
)

// Save upserts the confirmed layout of one dashboard.
func (r *LayoutSQLite) Save(ctx context.Context, l models.ModuleLayout) error {
	modules := l.Modules
	if modules == nil {
		modules = []models.DashboardModule{}
	}
	b, err := json.Marshal(modules)
	if err != nil {
		return fmt.Errorf("marshal layout %q: %w", l.DashboardID, err)
	}

	ts := l.ConfirmedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	if _, err := r.db.ExecContext(ctx, upsertLayoutSQL, l.DashboardID, string(b), ts.UTC()); err != nil {
		return fmt.Errorf("upsert layout %q: %w", l.DashboardID, err)
	}
	return nil
}

// Load returns the zero layout (nil Modules) if none was saved yet.
func (r *LayoutSQLite) Load(ctx context.Context, dashboardID string) (models.ModuleLayout, error) {
	var (
		l       models.ModuleLayout
		modules string
	)
	err := r.db.QueryRowContext(ctx, selectLayoutSQL, dashboardID).Scan(&l.DashboardID, &modules, &l.ConfirmedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ModuleLayout{DashboardID: dashboardID}, nil
		}
		return models.ModuleLayout{}, fmt.Errorf("select layout %q: %w", dashboardID, err)
	}
	if err := json.Unmarshal([]byte(modules), &l.Modules); err != nil {
		return models.ModuleLayout{}, fmt.Errorf("decode layout %q: %w", dashboardID, err)
	}
	l.ConfirmedAt = l.ConfirmedAt.UTC()
	return l, nil
}
