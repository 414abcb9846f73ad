package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"home_energy_dashboard/internal/models"
)

type scriptedFetcher struct {
	mu    sync.Mutex
	calls int
	fail  map[int]bool
}

func (f *scriptedFetcher) Devices(ctx context.Context) ([]models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail[f.calls] {
		return nil, errBackendDown
	}
	return []models.Device{{ID: f.calls, Name: "d"}}, nil
}

func TestPoller_RetriesOnNextTickAfterFailure(t *testing.T) {
	f := &scriptedFetcher{fail: map[int]bool{1: true}}
	p := NewPoller(5*time.Millisecond, f)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		devs []models.Device
		err  error
	}
	results := make(chan result, 16)
	done := make(chan struct{})
	go func() {
		p.Run(ctx, func(devs []models.Device, err error) {
			select {
			case results <- result{devs, err}:
			default:
			}
		})
		close(done)
	}()

	first := <-results
	if first.err == nil {
		t.Fatalf("expected first tick to fail")
	}
	second := <-results
	if second.err != nil || len(second.devs) != 1 {
		t.Fatalf("expected recovery on next tick, got %+v", second)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop on cancel")
	}
}

func TestPoller_NoTickBeforeInterval(t *testing.T) {
	f := &scriptedFetcher{}
	p := NewPoller(time.Hour, f)
	if p.Interval() != time.Hour {
		t.Fatalf("interval=%v", p.Interval())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	p.Run(ctx, func([]models.Device, error) { t.Errorf("unexpected tick") })

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls != 0 {
		t.Fatalf("calls=%d", f.calls)
	}
}
