package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"home_energy_dashboard/internal/models"
	"home_energy_dashboard/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

type sqlmockArgumentFunc func(v driver.Value) bool

func (f sqlmockArgumentFunc) Match(v driver.Value) bool {
	return f(v)
}

func newLayoutRepo(t *testing.T) (*repository.LayoutSQLite, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewLayoutSQLite(db), mock
}

func TestLayoutSQLite_Save_MarshalsModulesAndDefaultsTime(t *testing.T) {
	repo, mock := newLayoutRepo(t)

	isRecentUTC := sqlmockArgumentFunc(func(v driver.Value) bool {
		tm, ok := v.(time.Time)
		if !ok || tm.Location() != time.UTC {
			return false
		}
		now := time.Now().UTC()
		return !tm.Before(now.Add(-5*time.Second)) && !tm.After(now.Add(5*time.Second))
	})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO module_layouts")).
		WithArgs("home", `[{"id":7,"module_type":"energyChart","position":0},{"id":5,"module_type":"bufferTank","position":1}]`, isRecentUTC).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Save(context.Background(), models.ModuleLayout{
		DashboardID: "home",
		Modules: []models.DashboardModule{
			{ID: 7, ModuleType: models.ModuleEnergyChart, Position: 0},
			{ID: 5, ModuleType: models.ModuleBufferTank, Position: 1},
		},
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLayoutSQLite_Save_EmptyLayoutStoredAsEmptyArray(t *testing.T) {
	repo, mock := newLayoutRepo(t)

	locBerlin := time.FixedZone("CET", 3600)
	confirmed := time.Date(2025, 5, 1, 12, 0, 0, 0, locBerlin)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO module_layouts")).
		WithArgs("home", "[]", confirmed.UTC()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Save(context.Background(), models.ModuleLayout{DashboardID: "home", ConfirmedAt: confirmed}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLayoutSQLite_Save_ExecErrorIsPropagated(t *testing.T) {
	repo, mock := newLayoutRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO module_layouts")).
		WillReturnError(errors.New("db down"))

	if err := repo.Save(context.Background(), models.ModuleLayout{DashboardID: "home"}); err == nil {
		t.Fatalf("Save() expected error, got nil")
	}
}

func TestLayoutSQLite_Load(t *testing.T) {
	confirmed := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expect    func(m sqlmock.Sqlmock)
		wantErr   bool
		wantLen   int
		wantFirst int
	}{
		{
			name: "no rows returns empty layout",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta("SELECT dashboard_id, modules, confirmed_at")).
					WithArgs("home").
					WillReturnError(sql.ErrNoRows)
			},
		},
		{
			name: "decodes modules",
			expect: func(m sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"dashboard_id", "modules", "confirmed_at"}).
					AddRow("home", `[{"id":9,"module_type":"phaseSwitch","position":0},{"id":4,"module_type":"heatingTank","position":1}]`, confirmed)
				m.ExpectQuery(regexp.QuoteMeta("SELECT dashboard_id, modules, confirmed_at")).
					WithArgs("home").
					WillReturnRows(rows)
			},
			wantLen:   2,
			wantFirst: 9,
		},
		{
			name: "corrupt json",
			expect: func(m sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"dashboard_id", "modules", "confirmed_at"}).
					AddRow("home", `{not json`, confirmed)
				m.ExpectQuery(regexp.QuoteMeta("SELECT dashboard_id, modules, confirmed_at")).
					WithArgs("home").
					WillReturnRows(rows)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newLayoutRepo(t)
			tt.expect(mock)

			l, err := repo.Load(context.Background(), "home")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if l.DashboardID != "home" || len(l.Modules) != tt.wantLen {
				t.Fatalf("unexpected layout: %+v", l)
			}
			if tt.wantLen > 0 && l.Modules[0].ID != tt.wantFirst {
				t.Fatalf("unexpected first module: %+v", l.Modules[0])
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}
