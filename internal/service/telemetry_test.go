package service

import (
	"context"
	"errors"
	"testing"

	"home_energy_dashboard/internal/models"
)

type fakeTelemetryBackend struct {
	pipes map[int]bool
	mode  string
	err   error
	calls int
}

func (f *fakeTelemetryBackend) HeatPipe(ctx context.Context, phase int) (models.HeatPipe, error) {
	f.calls++
	return models.HeatPipe{PipeID: phase, State: f.pipes[phase]}, f.err
}

func (f *fakeTelemetryBackend) SetHeatPipe(ctx context.Context, phase int, state bool) (models.HeatPipe, error) {
	f.calls++
	if f.err != nil {
		return models.HeatPipe{}, f.err
	}
	f.pipes[phase] = state
	return models.HeatPipe{PipeID: phase, State: state}, nil
}

func (f *fakeTelemetryBackend) SetHeatingMode(ctx context.Context, mode string) error {
	f.calls++
	f.mode = mode
	return f.err
}

func TestTelemetryService_HeatPipes(t *testing.T) {
	tests := []struct {
		name    string
		phase   int
		wantErr error
	}{
		{"first phase", 1, nil},
		{"last phase", 3, nil},
		{"zero", 0, ErrInvalidPhase},
		{"beyond", 4, ErrInvalidPhase},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeTelemetryBackend{pipes: map[int]bool{}}
			svc := NewTelemetryService(backend)

			p, err := svc.SetHeatPipe(context.Background(), tt.phase, true)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetHeatPipe err=%v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if backend.calls != 0 {
					t.Fatalf("invalid phase reached the backend")
				}
				return
			}
			if !p.State || p.PipeID != tt.phase {
				t.Fatalf("pipe=%+v", p)
			}
			got, err := svc.HeatPipe(context.Background(), tt.phase)
			if err != nil || !got.State {
				t.Fatalf("HeatPipe=%+v err=%v", got, err)
			}
		})
	}
}

func TestTelemetryService_SetHeatingMode(t *testing.T) {
	backend := &fakeTelemetryBackend{pipes: map[int]bool{}}
	svc := NewTelemetryService(backend)
	ctx := context.Background()

	if err := svc.SetHeatingMode(ctx, models.HeatingModeBoost); err != nil {
		t.Fatalf("SetHeatingMode: %v", err)
	}
	if backend.mode != "Schnell heizen" {
		t.Fatalf("mode=%q", backend.mode)
	}
	if err := svc.SetHeatingMode(ctx, "turbo"); !errors.Is(err, ErrInvalidHeatingMode) {
		t.Fatalf("err=%v", err)
	}

	backend.err = errors.New("relay offline")
	if err := svc.SetHeatingMode(ctx, models.HeatingModeAuto); !errors.Is(err, backend.err) {
		t.Fatalf("err=%v", err)
	}
}
