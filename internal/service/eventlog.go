package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"home_energy_dashboard/internal/models"
	"home_energy_dashboard/internal/repository"
)

const maxLogLimit = 1000

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	ErrInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	ErrInvalidEventType = errors.New("unknown event type")
	ErrInvalidLimit     = errors.New("limit must be >= 0")
)

var knownEventTypes = map[string]bool{
	models.EventStateChanged: true,
	models.EventToggle:       true,
	models.EventPollFailed:   true,
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter turns a LogFilter into a repository query.
func normalizeAndValidateFilter(f LogFilter) (repository.EventQuery, error) {
	q := repository.EventQuery{
		From:     normalizeToUTC(f.From),
		To:       normalizeToUTC(f.To),
		Type:     normalizeEventType(f.Type),
		DeviceID: f.DeviceID,
		Limit:    f.Limit,
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return repository.EventQuery{}, ErrInvalidTimeRange
	}
	if q.Type != "" && !knownEventTypes[q.Type] {
		return repository.EventQuery{}, ErrInvalidEventType
	}
	if q.Limit < 0 {
		return repository.EventQuery{}, ErrInvalidLimit
	}
	if q.Limit > maxLogLimit {
		q.Limit = maxLogLimit
	}
	return q, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error) {
	q, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, q)
}
