package service

import (
	"context"
	"errors"
	"fmt"

	"home_energy_dashboard/internal/dashboard"
	"home_energy_dashboard/internal/models"
)

// TelemetryBackend is the heating rod part of the energy backend API.
type TelemetryBackend interface {
	HeatPipe(ctx context.Context, phase int) (models.HeatPipe, error)
	SetHeatPipe(ctx context.Context, phase int, state bool) (models.HeatPipe, error)
	SetHeatingMode(ctx context.Context, mode string) error
}

var (
	ErrInvalidPhase       = fmt.Errorf("phase must be between 1 and %d", dashboard.PhaseCount)
	ErrInvalidHeatingMode = errors.New("unknown heating mode")
)

// TelemetryService drives the heating rod phases and heating mode.
type TelemetryService struct {
	backend TelemetryBackend
}

func NewTelemetryService(backend TelemetryBackend) *TelemetryService {
	return &TelemetryService{backend: backend}
}

func (s *TelemetryService) HeatPipe(ctx context.Context, phase int) (models.HeatPipe, error) {
	if err := validatePhase(phase); err != nil {
		return models.HeatPipe{}, err
	}
	p, err := s.backend.HeatPipe(ctx, phase)
	if err != nil {
		return models.HeatPipe{}, fmt.Errorf("read phase %d: %w", phase, err)
	}
	return p, nil
}

func (s *TelemetryService) SetHeatPipe(ctx context.Context, phase int, state bool) (models.HeatPipe, error) {
	if err := validatePhase(phase); err != nil {
		return models.HeatPipe{}, err
	}
	p, err := s.backend.SetHeatPipe(ctx, phase, state)
	if err != nil {
		return models.HeatPipe{}, fmt.Errorf("switch phase %d: %w", phase, err)
	}
	return p, nil
}

func (s *TelemetryService) SetHeatingMode(ctx context.Context, mode string) error {
	known := false
	for _, m := range models.HeatingModes {
		if m == mode {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: %q", ErrInvalidHeatingMode, mode)
	}
	if err := s.backend.SetHeatingMode(ctx, mode); err != nil {
		return fmt.Errorf("set heating mode: %w", err)
	}
	return nil
}

func validatePhase(phase int) error {
	if phase < 1 || phase > dashboard.PhaseCount {
		return ErrInvalidPhase
	}
	return nil
}
