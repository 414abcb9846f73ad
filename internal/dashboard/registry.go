package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"home_energy_dashboard/internal/logger"
	"home_energy_dashboard/internal/models"
	"home_energy_dashboard/internal/repository"
)

// Move directions for Reorder.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

var (
	ErrInvalidDirection  = errors.New("direction must be up or down")
	ErrUnknownModuleType = errors.New("unknown module type")
)

// ModuleBackend is the upstream side of the module registry.
type ModuleBackend interface {
	Modules(ctx context.Context) ([]models.DashboardModule, error)
	CreateModule(ctx context.Context, t models.ModuleType) (models.DashboardModule, error)
	DeleteModule(ctx context.Context, id int) error
	SaveModuleOrder(ctx context.Context, order []models.ModulePosition) error
}

// Registry owns the ordered module list of one dashboard.
//
// Reorder updates the local list before the backend confirms it and falls back to
// the last confirmed order when persisting fails. Every confirmed order is journaled
// so it survives restarts.
type Registry struct {
	backend     ModuleBackend
	journal     repository.LayoutRepo
	dashboardID string
	log         *logger.Logger

	opMu      sync.Mutex // serializes mutations
	mu        sync.RWMutex
	modules   []models.DashboardModule
	confirmed []models.DashboardModule
	onChange  func([]models.DashboardModule)
}

// NewRegistry builds a registry. journal may be nil.
func NewRegistry(backend ModuleBackend, journal repository.LayoutRepo, dashboardID string, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNop()
	}
	return &Registry{
		backend:     backend,
		journal:     journal,
		dashboardID: dashboardID,
		log:         log.Named("registry"),
	}
}

// OnChange registers a hook called with the new list after every local change,
// including optimistic ones and reverts.
func (r *Registry) OnChange(fn func([]models.DashboardModule)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// SortModules orders by position ascending; equal positions keep their input order.
func SortModules(in []models.DashboardModule) []models.DashboardModule {
	out := cloneModules(in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// List fetches the modules from the backend and makes them the confirmed order.
func (r *Registry) List(ctx context.Context) ([]models.DashboardModule, error) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	fetched, err := r.backend.Modules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	sorted := SortModules(fetched)
	r.confirm(ctx, sorted)
	return cloneModules(sorted), nil
}

// Modules returns the current local list, which may hold an unconfirmed reorder.
func (r *Registry) Modules() []models.DashboardModule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneModules(r.modules)
}

// Find returns the local module with the given id.
func (r *Registry) Find(id int) (models.DashboardModule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.modules {
		if m.ID == id {
			return m, true
		}
	}
	return models.DashboardModule{}, false
}

// Journaled returns the last confirmed layout saved locally, or nil.
func (r *Registry) Journaled(ctx context.Context) ([]models.DashboardModule, error) {
	if r.journal == nil {
		return nil, nil
	}
	l, err := r.journal.Load(ctx, r.dashboardID)
	if err != nil {
		return nil, err
	}
	return l.Modules, nil
}

// Add creates a module upstream and appends the server's answer.
func (r *Registry) Add(ctx context.Context, t models.ModuleType) (models.DashboardModule, error) {
	if !t.Known() {
		return models.DashboardModule{}, fmt.Errorf("%w: %q", ErrUnknownModuleType, t)
	}
	r.opMu.Lock()
	defer r.opMu.Unlock()

	m, err := r.backend.CreateModule(ctx, t)
	if err != nil {
		return models.DashboardModule{}, fmt.Errorf("add module: %w", err)
	}
	next := append(r.Modules(), m)
	r.confirm(ctx, next)
	return m, nil
}

// Remove deletes upstream and then drops the module locally.
func (r *Registry) Remove(ctx context.Context, id int) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	if err := r.backend.DeleteModule(ctx, id); err != nil {
		return fmt.Errorf("remove module %d: %w", id, err)
	}
	cur := r.Modules()
	next := cur[:0]
	for _, m := range cur {
		if m.ID != id {
			next = append(next, m)
		}
	}
	r.confirm(ctx, next)
	return nil
}

// Reorder swaps the module at index with its neighbour and persists the whole order.
// A target outside the list is a no-op without a request. On failure the last
// confirmed order is restored and the error returned.
func (r *Registry) Reorder(ctx context.Context, index int, direction string) ([]models.DashboardModule, error) {
	var target int
	switch direction {
	case DirectionUp:
		target = index - 1
	case DirectionDown:
		target = index + 1
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	r.opMu.Lock()
	defer r.opMu.Unlock()

	cur := r.Modules()
	if index < 0 || index >= len(cur) || target < 0 || target >= len(cur) {
		return cur, nil
	}

	draft := cloneModules(cur)
	draft[index], draft[target] = draft[target], draft[index]
	order := make([]models.ModulePosition, len(draft))
	for i := range draft {
		draft[i].Position = i
		order[i] = models.ModulePosition{ID: draft[i].ID, Position: i}
	}
	r.setLocal(draft)

	if err := r.backend.SaveModuleOrder(ctx, order); err != nil {
		r.mu.RLock()
		back := cloneModules(r.confirmed)
		r.mu.RUnlock()
		r.setLocal(back)
		r.log.Warnw("reorder_reverted", "index", index, "direction", direction, "err", err)
		return back, fmt.Errorf("persist module order: %w", err)
	}
	r.confirm(ctx, draft)
	return cloneModules(draft), nil
}

func (r *Registry) setLocal(mods []models.DashboardModule) {
	r.mu.Lock()
	r.modules = cloneModules(mods)
	fn := r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn(cloneModules(mods))
	}
}

// confirm makes mods both the local and the confirmed list and journals it.
func (r *Registry) confirm(ctx context.Context, mods []models.DashboardModule) {
	r.mu.Lock()
	r.confirmed = cloneModules(mods)
	r.mu.Unlock()
	r.setLocal(mods)

	if r.journal == nil {
		return
	}
	err := r.journal.Save(ctx, models.ModuleLayout{
		DashboardID: r.dashboardID,
		Modules:     cloneModules(mods),
		ConfirmedAt: time.Now().UTC(),
	})
	if err != nil {
		r.log.Warnw("layout_journal_failed", "dashboard", r.dashboardID, "err", err)
	}
}

func cloneModules(in []models.DashboardModule) []models.DashboardModule {
	if in == nil {
		return []models.DashboardModule{}
	}
	out := make([]models.DashboardModule, len(in))
	copy(out, in)
	return out
}
