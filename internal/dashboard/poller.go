package dashboard

import (
	"context"
	"time"

	"home_energy_dashboard/internal/models"
)

// DeviceFetcher reads the current device list from the backend.
type DeviceFetcher interface {
	Devices(ctx context.Context) ([]models.Device, error)
}

// Poller reads the device list on a fixed interval. A failed tick is reported
// and the next tick simply tries again.
type Poller struct {
	interval time.Duration
	fetch    DeviceFetcher
}

func NewPoller(interval time.Duration, fetch DeviceFetcher) *Poller {
	return &Poller{interval: interval, fetch: fetch}
}

func (p *Poller) Interval() time.Duration { return p.interval }

// Run ticks until ctx is cancelled, handing every result to onResult.
func (p *Poller) Run(ctx context.Context, onResult func(devs []models.Device, err error)) {
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			devs, err := p.fetch.Devices(ctx)
			if ctx.Err() != nil {
				return
			}
			onResult(devs, err)
		}
	}
}
