package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"home_energy_dashboard/internal/models"

	"github.com/google/uuid"
)

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

var _ EventRepo = (*EventSQLite)(nil)

const (
	insertDeviceEventSQL = `
		INSERT INTO device_events (id, occurred_at, type, device_id, state, source, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	selectDeviceEventsSQL = `SELECT id, occurred_at, type, device_id, state, source, message FROM device_events`

	sqliteTimestampLayout = "2006-01-02 15:04:05"
)

// Append journals one event. Missing EventID / OccurredAt are filled in.
func (r *EventSQLite) Append(ctx context.Context, e models.DeviceEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	var deviceID sql.NullInt64
	if e.DeviceID != 0 {
		deviceID = sql.NullInt64{Int64: int64(e.DeviceID), Valid: true}
	}
	var state sql.NullBool
	if e.State != nil {
		state = sql.NullBool{Bool: *e.State, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, insertDeviceEventSQL,
		e.EventID,
		e.OccurredAt.UTC().Format(sqliteTimestampLayout),
		strings.ToUpper(strings.TrimSpace(e.Type)),
		deviceID,
		state,
		e.Source,
		e.Description,
	)
	if err != nil {
		return fmt.Errorf("insert device event %s: %w", e.EventID, err)
	}
	return nil
}

// List returns journal entries matching q, oldest first.
func (r *EventSQLite) List(ctx context.Context, q EventQuery) ([]models.DeviceEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !q.From.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, q.From.UTC())
	}
	if !q.To.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, q.To.UTC())
	}
	if typ := strings.ToUpper(strings.TrimSpace(q.Type)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}
	if q.DeviceID != 0 {
		conds = append(conds, "device_id = ?")
		args = append(args, q.DeviceID)
	}

	stmt := selectDeviceEventsSQL
	if len(conds) > 0 {
		stmt += " WHERE " + strings.Join(conds, " AND ")
	}
	stmt += " ORDER BY occurred_at ASC"
	if q.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query device events: %w", err)
	}
	defer rows.Close()

	out := make([]models.DeviceEvent, 0, 64)
	for rows.Next() {
		var (
			ev       models.DeviceEvent
			deviceID sql.NullInt64
			state    sql.NullBool
			source   sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.Type, &deviceID, &state, &source, &ev.Description); err != nil {
			return nil, fmt.Errorf("scan device event: %w", err)
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		if deviceID.Valid {
			ev.DeviceID = int(deviceID.Int64)
		}
		if state.Valid {
			s := state.Bool
			ev.State = &s
		}
		ev.Source = source.String
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate device events: %w", err)
	}
	return out, nil
}
