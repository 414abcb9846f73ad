package dashboard

import (
	"context"
	"errors"
	"sync"

	"home_energy_dashboard/internal/models"
)

var errBackendDown = errors.New("backend down")

// fakeBackend is an in-memory energy backend.
type fakeBackend struct {
	mu sync.Mutex

	devices    []models.Device
	devicesErr error
	modules    []models.DashboardModule
	modulesErr error
	nextID     int

	createErr error
	deleteErr error
	orderErr  error
	saved     [][]models.ModulePosition
	deleted   []int

	toggleErr error

	energy      map[string]models.EnergyDataPoint
	energyErr   error
	prices      []models.EnergyPrice
	pricesErr   error
	inverter    models.InverterSummary
	inverterErr error
	// inverterGate, when set, holds Inverter until closed; entry is signalled on inverterEntered.
	inverterGate    chan struct{}
	inverterEntered chan struct{}
	tanks           map[string]models.TankTemperatures
	tankErr         error
	pipes           map[int]bool
	pipeErr         error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextID: 100,
		energy: map[string]models.EnergyDataPoint{},
		tanks:  map[string]models.TankTemperatures{},
		pipes:  map[int]bool{},
	}
}

func (f *fakeBackend) Devices(ctx context.Context) ([]models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.devicesErr != nil {
		return nil, f.devicesErr
	}
	return append([]models.Device(nil), f.devices...), nil
}

func (f *fakeBackend) setDevices(devs []models.Device, err error) {
	f.mu.Lock()
	f.devices = devs
	f.devicesErr = err
	f.mu.Unlock()
}

func (f *fakeBackend) Toggle(ctx context.Context, id int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toggleErr != nil {
		return false, f.toggleErr
	}
	for i := range f.devices {
		if f.devices[i].ID == id {
			f.devices[i].State = !f.devices[i].State
			return f.devices[i].State, nil
		}
	}
	return false, errors.New("no such device")
}

func (f *fakeBackend) Modules(ctx context.Context) ([]models.DashboardModule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.modulesErr != nil {
		return nil, f.modulesErr
	}
	return append([]models.DashboardModule(nil), f.modules...), nil
}

func (f *fakeBackend) CreateModule(ctx context.Context, t models.ModuleType) (models.DashboardModule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return models.DashboardModule{}, f.createErr
	}
	f.nextID++
	m := models.DashboardModule{ID: f.nextID, ModuleType: t, Position: len(f.modules)}
	f.modules = append(f.modules, m)
	return m, nil
}

func (f *fakeBackend) DeleteModule(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	kept := f.modules[:0]
	for _, m := range f.modules {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	f.modules = kept
	return nil
}

func (f *fakeBackend) SaveModuleOrder(ctx context.Context, order []models.ModulePosition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, append([]models.ModulePosition(nil), order...))
	if f.orderErr != nil {
		return f.orderErr
	}
	pos := map[int]int{}
	for _, o := range order {
		pos[o.ID] = o.Position
	}
	for i := range f.modules {
		if p, ok := pos[f.modules[i].ID]; ok {
			f.modules[i].Position = p
		}
	}
	return nil
}

func (f *fakeBackend) savedOrders() [][]models.ModulePosition {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]models.ModulePosition(nil), f.saved...)
}

func (f *fakeBackend) EnergyData(ctx context.Context) (map[string]models.EnergyDataPoint, error) {
	if f.energyErr != nil {
		return nil, f.energyErr
	}
	return f.energy, nil
}

func (f *fakeBackend) EnergyPrices(ctx context.Context) ([]models.EnergyPrice, error) {
	if f.pricesErr != nil {
		return nil, f.pricesErr
	}
	return f.prices, nil
}

func (f *fakeBackend) Inverter(ctx context.Context) (models.InverterSummary, error) {
	if f.inverterGate != nil {
		select {
		case f.inverterEntered <- struct{}{}:
		default:
		}
		<-f.inverterGate
	}
	return f.inverter, f.inverterErr
}

func (f *fakeBackend) TankTemperatures(ctx context.Context, kind string) (models.TankTemperatures, error) {
	if f.tankErr != nil {
		return models.TankTemperatures{}, f.tankErr
	}
	return f.tanks[kind], nil
}

func (f *fakeBackend) HeatPipe(ctx context.Context, phase int) (models.HeatPipe, error) {
	if f.pipeErr != nil {
		return models.HeatPipe{}, f.pipeErr
	}
	return models.HeatPipe{PipeID: phase, State: f.pipes[phase]}, nil
}

// fakeLayoutRepo keeps layouts in memory.
type fakeLayoutRepo struct {
	mu      sync.Mutex
	layouts map[string]models.ModuleLayout
	saves   int
}

func newFakeLayoutRepo() *fakeLayoutRepo {
	return &fakeLayoutRepo{layouts: map[string]models.ModuleLayout{}}
}

func (r *fakeLayoutRepo) Save(ctx context.Context, l models.ModuleLayout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layouts[l.DashboardID] = l
	r.saves++
	return nil
}

func (r *fakeLayoutRepo) Load(ctx context.Context, id string) (models.ModuleLayout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.layouts[id]
	if !ok {
		return models.ModuleLayout{DashboardID: id}, nil
	}
	return l, nil
}

// fakeRecorder collects journaled events. Events of holdType are held until
// their ctx ends, with entry signalled on held.
type fakeRecorder struct {
	mu     sync.Mutex
	events []models.DeviceEvent

	holdType string
	held     chan struct{}
}

func (r *fakeRecorder) Append(ctx context.Context, e models.DeviceEvent) error {
	if r.holdType != "" && e.Type == r.holdType {
		select {
		case r.held <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *fakeRecorder) byType(typ string) []models.DeviceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DeviceEvent
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// fakeCache is an in-memory StateCache.
type fakeCache struct {
	mu   sync.Mutex
	devs map[int]models.Device
}

func newFakeCache(devs ...models.Device) *fakeCache {
	c := &fakeCache{devs: map[int]models.Device{}}
	for _, d := range devs {
		c.devs[d.ID] = d
	}
	return c
}

func (c *fakeCache) Save(ctx context.Context, d models.Device) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.devs[d.ID] = d
	return nil
}

func (c *fakeCache) Load(ctx context.Context) ([]models.Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Device, 0, len(c.devs))
	for _, d := range c.devs {
		out = append(out, d)
	}
	return out, nil
}

func (c *fakeCache) get(id int) (models.Device, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.devs[id]
	return d, ok
}

// chanSource is an EventSource backed by a test-owned channel.
type chanSource struct {
	ch  chan models.SwitchEvent
	err error
}

func newChanSource() *chanSource {
	return &chanSource{ch: make(chan models.SwitchEvent, 8)}
}

func (s *chanSource) Events(ctx context.Context) (<-chan models.SwitchEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(chan models.SwitchEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-s.ch:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
