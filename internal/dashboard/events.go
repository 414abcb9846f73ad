package dashboard

import (
	"context"
	"errors"
	"sync"

	"home_energy_dashboard/internal/models"
)

// EventSource delivers sparse device state changes. The channel closes when
// ctx is cancelled.
type EventSource interface {
	Events(ctx context.Context) (<-chan models.SwitchEvent, error)
}

// MergeSources subscribes to every source and fans their events into one channel
// in receipt order. Sources that fail to open are skipped and their errors joined;
// the merged channel closes once every opened source has closed.
func MergeSources(ctx context.Context, sources ...EventSource) (<-chan models.SwitchEvent, error) {
	out := make(chan models.SwitchEvent)

	var (
		wg   sync.WaitGroup
		errs []error
	)
	for _, src := range sources {
		if src == nil {
			continue
		}
		ch, err := src.Events(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		wg.Add(1)
		go func(ch <-chan models.SwitchEvent) {
			defer wg.Done()
			for ev := range ch {
				select {
				case out <- ev:
				case <-ctx.Done():
					// drain so the source can close
					for range ch {
					}
					return
				}
			}
		}(ch)
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out, errors.Join(errs...)
}
