package repository

import (
	"context"
	"database/sql"
	"time"

	"home_energy_dashboard/internal/models"
)

// Authorization stores dashboard user accounts.
type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// LayoutRepo keeps the last module order the backend confirmed, per dashboard.
type LayoutRepo interface {
	Save(ctx context.Context, l models.ModuleLayout) error
	Load(ctx context.Context, dashboardID string) (models.ModuleLayout, error)
}

// EventRepo is the append-only device activity journal.
type EventRepo interface {
	Append(ctx context.Context, e models.DeviceEvent) error
	List(ctx context.Context, f EventQuery) ([]models.DeviceEvent, error)
}

// EventQuery filters the journal. Zero values mean "no bound".
type EventQuery struct {
	From     time.Time
	To       time.Time
	Type     string
	DeviceID int
	Limit    int
}

type Repository struct {
	LayoutRepo LayoutRepo
	EventRepo  EventRepo
	Auth       Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		LayoutRepo: NewLayoutSQLite(db),
		EventRepo:  NewEventSQLite(db),
		Auth:       NewUserRepository(db),
	}
}
