package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"home_energy_dashboard/internal/logger"
	"home_energy_dashboard/internal/models"

	"github.com/google/uuid"
)

// State is the controller lifecycle.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Snapshot section names used in SectionErrors.
const (
	SectionDevices = "devices"
	SectionEvents  = "events"
)

var (
	ErrAlreadyMounted = errors.New("dashboard already mounted")
	ErrNotReady       = errors.New("dashboard is not ready")
	ErrDeviceNotFound = errors.New("device not found")
	ErrModuleNotFound = errors.New("module not found")
	ErrNoWidget       = errors.New("module type has no widget")
)

// Backend is everything the controller needs from the energy backend.
type Backend interface {
	DeviceFetcher
	ModuleBackend
	TelemetrySource
	Toggle(ctx context.Context, id int) (bool, error)
}

// EventRecorder journals device activity.
type EventRecorder interface {
	Append(ctx context.Context, e models.DeviceEvent) error
}

// Snapshot is the complete drawable state of a dashboard.
type Snapshot struct {
	DashboardID   string                   `json:"dashboard_id"`
	State         State                    `json:"state"`
	Error         string                   `json:"error,omitempty"`
	Modules       []models.DashboardModule `json:"modules"`
	Devices       []models.Device          `json:"devices"`
	Widgets       []WidgetView             `json:"widgets"`
	SectionErrors map[string]string        `json:"section_errors,omitempty"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// Options tune a Controller.
type Options struct {
	DashboardID       string
	PollInterval      time.Duration
	TelemetryInterval time.Duration
	ChartSlots        int
	Location          *time.Location
}

// Controller drives one mounted dashboard: it loads modules and devices, feeds
// poll results and push events through the device store, keeps widgets fresh and
// publishes every change to the hub.
type Controller struct {
	opts     Options
	backend  Backend
	registry *Registry
	store    *DeviceStore
	renderer *Renderer
	poller   *Poller
	sources  []EventSource
	cache    StateCache
	recorder EventRecorder
	hub      *Hub
	log      *logger.Logger

	mu          sync.RWMutex
	state       State
	errMsg      string
	sectionErrs map[string]string
	widgets     map[int]WidgetView
	mounted     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// Deps are the collaborators of a Controller. Cache, Recorder and Sources are optional.
type Deps struct {
	Backend  Backend
	Registry *Registry
	Sources  []EventSource
	Cache    StateCache
	Recorder EventRecorder
	Hub      *Hub
	Log      *logger.Logger
}

func NewController(d Deps, opts Options) *Controller {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Hub == nil {
		d.Hub = NewHub()
	}
	if opts.TelemetryInterval <= 0 {
		opts.TelemetryInterval = opts.PollInterval
	}
	c := &Controller{
		opts:        opts,
		backend:     d.Backend,
		registry:    d.Registry,
		store:       NewDeviceStore(),
		renderer:    NewRenderer(d.Backend, opts.ChartSlots, opts.Location),
		poller:      NewPoller(opts.PollInterval, d.Backend),
		sources:     d.Sources,
		cache:       d.Cache,
		recorder:    d.Recorder,
		hub:         d.Hub,
		log:         d.Log.Named("controller"),
		state:       StateLoading,
		sectionErrs: map[string]string{},
		widgets:     map[int]WidgetView{},
	}
	c.registry.OnChange(func([]models.DashboardModule) { c.publish() })
	return c
}

func (c *Controller) Hub() *Hub { return c.hub }

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Mount performs the initial load and starts the background loops, which run
// until ctx is cancelled or Unmount is called. A failed initial load leaves the
// controller in StateError.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return ErrAlreadyMounted
	}
	c.mounted = true
	c.state = StateLoading
	c.errMsg = ""
	c.sectionErrs = map[string]string{}
	c.mu.Unlock()
	c.publish()

	c.seedFromCache(ctx)

	if err := c.initialLoad(ctx); err != nil {
		c.mu.Lock()
		c.state = StateError
		c.errMsg = err.Error()
		c.mounted = false
		c.mu.Unlock()
		c.log.Errorw("dashboard_load_failed", "dashboard", c.opts.DashboardID, "err", err)
		c.publish()
		return err
	}

	c.mu.Lock()
	c.state = StateReady
	c.mu.Unlock()
	c.RefreshWidgets(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.poller.Run(runCtx, func(devs []models.Device, err error) {
			c.onPoll(runCtx, devs, err)
		})
	}()
	go func() {
		defer c.wg.Done()
		c.runTelemetry(runCtx)
	}()
	c.startEvents(runCtx)

	c.log.Infow("dashboard_mounted", "dashboard", c.opts.DashboardID,
		"modules", len(c.registry.Modules()), "devices", c.store.Len())
	return nil
}

// Unmount stops the loops and closes every event subscription.
func (c *Controller) Unmount() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mounted = false
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

func (c *Controller) seedFromCache(ctx context.Context) {
	if c.cache == nil {
		return
	}
	devs, err := c.cache.Load(ctx)
	if err != nil {
		c.log.Warnw("state_cache_load_failed", "err", err)
		return
	}
	if len(devs) > 0 {
		c.store.Apply(ReplaceAll(devs, models.SourceCache))
		c.publish()
	}
}

func (c *Controller) initialLoad(ctx context.Context) error {
	if _, err := c.registry.List(ctx); err != nil {
		if mods, jerr := c.registry.Journaled(ctx); jerr == nil && len(mods) > 0 {
			c.registry.setLocal(mods)
		}
		return err
	}
	devs, err := c.backend.Devices(ctx)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}
	for _, d := range c.store.Apply(ReplaceAll(devs, models.SourcePoll)) {
		c.cacheDevice(ctx, d)
	}
	return nil
}

func (c *Controller) startEvents(ctx context.Context) {
	if len(c.sources) == 0 {
		return
	}
	events, err := MergeSources(ctx, c.sources...)
	if err != nil {
		c.log.Warnw("event_source_failed", "err", err)
		c.setSectionError(SectionEvents, err)
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for ev := range events {
			c.ApplyEvent(ctx, ev)
		}
	}()
}

func (c *Controller) runTelemetry(ctx context.Context) {
	t := time.NewTicker(c.opts.TelemetryInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.RefreshWidgets(ctx)
		}
	}
}

// onPoll runs under the mount context so cache and journal writes stop with Unmount.
func (c *Controller) onPoll(ctx context.Context, devs []models.Device, err error) {
	if err != nil {
		first := c.setSectionError(SectionDevices, err)
		c.log.Warnw("device_poll_failed", "err", err)
		if first {
			c.record(ctx, models.DeviceEvent{
				Type:        models.EventPollFailed,
				Source:      models.SourcePoll,
				Description: err.Error(),
			})
		}
		c.publish()
		return
	}

	cleared := c.clearSectionError(SectionDevices)
	changed := c.store.Apply(ReplaceAll(devs, models.SourcePoll))
	for _, d := range changed {
		c.deviceChanged(ctx, d, models.SourcePoll)
	}
	if cleared || len(changed) > 0 {
		c.publish()
	}
}

// ApplyEvent replaces the state of the matching device. Unknown ids are ignored.
func (c *Controller) ApplyEvent(ctx context.Context, ev models.SwitchEvent) {
	src := ev.Source
	if src == "" {
		src = models.SourcePush
	}
	changed := c.store.Apply(SetState(ev.ID, ev.NewState, src))
	if len(changed) == 0 {
		return
	}
	for _, d := range changed {
		c.deviceChanged(ctx, d, src)
	}
	c.publish()
}

// Toggle asks the backend to flip a device and applies the state it answers with.
func (c *Controller) Toggle(ctx context.Context, id int) (models.Device, error) {
	if err := c.requireReady(); err != nil {
		return models.Device{}, err
	}
	if _, ok := c.store.Get(id); !ok {
		return models.Device{}, fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
	}
	state, err := c.backend.Toggle(ctx, id)
	if err != nil {
		return models.Device{}, fmt.Errorf("toggle device %d: %w", id, err)
	}
	c.store.Apply(SetState(id, state, models.SourceToggle))
	d, _ := c.store.Get(id)
	c.cacheDevice(ctx, d)
	c.record(ctx, models.DeviceEvent{
		Type:        models.EventToggle,
		DeviceID:    id,
		State:       &state,
		Source:      models.SourceToggle,
		Description: fmt.Sprintf("%s switched %s", d.Name, onOff(state)),
	})
	c.publish()
	return d, nil
}

func (c *Controller) AddModule(ctx context.Context, t models.ModuleType) (models.DashboardModule, error) {
	if err := c.requireReady(); err != nil {
		return models.DashboardModule{}, err
	}
	m, err := c.registry.Add(ctx, t)
	if err != nil {
		return models.DashboardModule{}, err
	}
	if view, ok := c.renderer.Render(ctx, m); ok {
		c.setWidget(view)
	}
	c.publish()
	return m, nil
}

func (c *Controller) RemoveModule(ctx context.Context, id int) error {
	if err := c.requireReady(); err != nil {
		return err
	}
	if _, ok := c.registry.Find(id); !ok {
		return fmt.Errorf("%w: %d", ErrModuleNotFound, id)
	}
	if err := c.registry.Remove(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.widgets, id)
	c.mu.Unlock()
	c.publish()
	return nil
}

// MoveModule swaps a module with its neighbour. On a failed persist the
// returned list is the restored confirmed order.
func (c *Controller) MoveModule(ctx context.Context, index int, direction string) ([]models.DashboardModule, error) {
	if err := c.requireReady(); err != nil {
		return nil, err
	}
	return c.registry.Reorder(ctx, index, direction)
}

// RefreshWidgets re-renders every module. Failures stay on their own widget.
// Views are merged by module id, so widgets added or removed while rendering
// keep the outcome of that command.
func (c *Controller) RefreshWidgets(ctx context.Context) {
	mods := c.registry.Modules()
	views := make([]WidgetView, 0, len(mods))
	for _, m := range mods {
		if ctx.Err() != nil {
			return
		}
		view, ok := c.renderer.Render(ctx, m)
		if !ok {
			continue
		}
		if view.Error != "" {
			c.log.Debugw("widget_refresh_failed", "module", m.ID, "type", m.ModuleType, "err", view.Error)
		}
		views = append(views, view)
	}

	current := make(map[int]bool, len(mods))
	for _, m := range c.registry.Modules() {
		current[m.ID] = true
	}
	c.mu.Lock()
	for _, v := range views {
		if current[v.ModuleID] {
			c.widgets[v.ModuleID] = v
		}
	}
	c.mu.Unlock()
	c.publish()
}

// Widget renders a single module on demand.
func (c *Controller) Widget(ctx context.Context, id int) (WidgetView, error) {
	m, ok := c.registry.Find(id)
	if !ok {
		return WidgetView{}, fmt.Errorf("%w: %d", ErrModuleNotFound, id)
	}
	view, ok := c.renderer.Render(ctx, m)
	if !ok {
		return WidgetView{}, fmt.Errorf("%w: %q", ErrNoWidget, m.ModuleType)
	}
	c.setWidget(view)
	return view, nil
}

// Chart returns the merged energy chart grid for today.
func (c *Controller) Chart(ctx context.Context) ([]models.ChartRow, error) {
	return c.renderer.Chart(ctx)
}

func (c *Controller) Devices() []models.Device {
	return c.store.List()
}

func (c *Controller) Modules() []models.DashboardModule {
	return c.registry.Modules()
}

// Snapshot assembles the current view; widgets follow module order.
func (c *Controller) Snapshot() *Snapshot {
	mods := c.registry.Modules()

	c.mu.RLock()
	defer c.mu.RUnlock()

	s := &Snapshot{
		DashboardID: c.opts.DashboardID,
		State:       c.state,
		Error:       c.errMsg,
		Modules:     mods,
		Devices:     c.store.List(),
		Widgets:     make([]WidgetView, 0, len(mods)),
		UpdatedAt:   time.Now().UTC(),
	}
	for _, m := range mods {
		if v, ok := c.widgets[m.ID]; ok {
			s.Widgets = append(s.Widgets, v)
		}
	}
	if len(c.sectionErrs) > 0 {
		s.SectionErrors = make(map[string]string, len(c.sectionErrs))
		for k, v := range c.sectionErrs {
			s.SectionErrors[k] = v
		}
	}
	return s
}

func (c *Controller) publish() {
	c.hub.Publish(c.Snapshot())
}

func (c *Controller) requireReady() error {
	if st := c.State(); st != StateReady {
		return fmt.Errorf("%w (state %s)", ErrNotReady, st)
	}
	return nil
}

func (c *Controller) setWidget(v WidgetView) {
	c.mu.Lock()
	c.widgets[v.ModuleID] = v
	c.mu.Unlock()
}

// setSectionError reports whether the section was healthy before.
func (c *Controller) setSectionError(section string, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, had := c.sectionErrs[section]
	c.sectionErrs[section] = err.Error()
	return !had
}

func (c *Controller) clearSectionError(section string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, had := c.sectionErrs[section]
	delete(c.sectionErrs, section)
	return had
}

func (c *Controller) deviceChanged(ctx context.Context, d models.Device, source string) {
	c.cacheDevice(ctx, d)
	state := d.State
	c.record(ctx, models.DeviceEvent{
		Type:        models.EventStateChanged,
		DeviceID:    d.ID,
		State:       &state,
		Source:      source,
		Description: fmt.Sprintf("%s is %s", d.Name, onOff(d.State)),
	})
}

func (c *Controller) cacheDevice(ctx context.Context, d models.Device) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Save(ctx, d); err != nil {
		c.log.Warnw("state_cache_save_failed", "device", d.ID, "err", err)
	}
}

func (c *Controller) record(ctx context.Context, e models.DeviceEvent) {
	if c.recorder == nil {
		return
	}
	e.EventID = uuid.NewString()
	e.OccurredAt = time.Now().UTC()
	if err := c.recorder.Append(ctx, e); err != nil {
		c.log.Warnw("device_event_append_failed", "type", e.Type, "err", err)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
