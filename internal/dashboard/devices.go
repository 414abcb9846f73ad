package dashboard

import (
	"context"
	"sync"
	"time"

	"home_energy_dashboard/internal/models"
)

// ActionKind selects how an Action is applied to the device store.
type ActionKind int

const (
	// ActionReplaceAll swaps in a complete device list (poll result).
	ActionReplaceAll ActionKind = iota
	// ActionSetState replaces the state of a single device (push event, toggle).
	ActionSetState
)

// Action is one reducer input. Both kinds are idempotent replace-by-id writes.
type Action struct {
	Kind    ActionKind
	Devices []models.Device
	ID      int
	State   bool
	Source  string
}

func ReplaceAll(devs []models.Device, source string) Action {
	return Action{Kind: ActionReplaceAll, Devices: devs, Source: source}
}

func SetState(id int, state bool, source string) Action {
	return Action{Kind: ActionSetState, ID: id, State: state, Source: source}
}

// StateCache persists last known device states across restarts.
type StateCache interface {
	Save(ctx context.Context, d models.Device) error
	Load(ctx context.Context) ([]models.Device, error)
}

// DeviceStore is the single device state container fed by the poller and the
// event sources. Writes are serialized; last write wins.
type DeviceStore struct {
	mu        sync.RWMutex
	order     []int
	byID      map[int]models.Device
	updatedAt time.Time
}

func NewDeviceStore() *DeviceStore {
	return &DeviceStore{byID: make(map[int]models.Device)}
}

// Apply runs one action and returns the devices whose state changed.
// SetState for an unknown id is ignored.
func (s *DeviceStore) Apply(a Action) []models.Device {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []models.Device
	switch a.Kind {
	case ActionReplaceAll:
		next := make(map[int]models.Device, len(a.Devices))
		order := make([]int, 0, len(a.Devices))
		for _, d := range a.Devices {
			if _, dup := next[d.ID]; !dup {
				order = append(order, d.ID)
			}
			next[d.ID] = d
		}
		for _, id := range order {
			d := next[id]
			if prev, ok := s.byID[id]; !ok || prev != d {
				changed = append(changed, d)
			}
		}
		s.order = order
		s.byID = next
	case ActionSetState:
		d, ok := s.byID[a.ID]
		if !ok {
			return nil
		}
		if d.State != a.State {
			d.State = a.State
			s.byID[a.ID] = d
			changed = append(changed, d)
		}
	}
	s.updatedAt = time.Now().UTC()
	return changed
}

// List returns devices in the order the last full list delivered them.
func (s *DeviceStore) List() []models.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Device, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

func (s *DeviceStore) Get(id int) (models.Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byID[id]
	return d, ok
}

func (s *DeviceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *DeviceStore) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
