package dashboard

import (
	"context"
	"errors"
	"testing"

	"home_energy_dashboard/internal/models"
)

func ids(mods []models.DashboardModule) []int {
	out := make([]int, len(mods))
	for i, m := range mods {
		out[i] = m.ID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func newTestRegistry(b *fakeBackend) (*Registry, *fakeLayoutRepo) {
	j := newFakeLayoutRepo()
	return NewRegistry(b, j, "home", nil), j
}

func TestRegistry_ListSortsStablyByPosition(t *testing.T) {
	b := newFakeBackend()
	b.modules = []models.DashboardModule{
		{ID: 1, ModuleType: models.ModuleEnergyChart, Position: 2},
		{ID: 2, ModuleType: models.ModuleHeatingTank},
		{ID: 3, ModuleType: models.ModuleBufferTank, Position: 1},
		{ID: 4, ModuleType: models.ModulePhaseSwitch},
	}
	r, j := newTestRegistry(b)

	got, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []int{2, 4, 3, 1}; !equalInts(ids(got), want) {
		t.Fatalf("order=%v want %v", ids(got), want)
	}
	if l, _ := j.Load(context.Background(), "home"); len(l.Modules) != 4 {
		t.Fatalf("confirmed layout not journaled: %+v", l)
	}
}

func TestRegistry_ListError(t *testing.T) {
	b := newFakeBackend()
	b.modulesErr = errBackendDown
	r, _ := newTestRegistry(b)
	if _, err := r.List(context.Background()); !errors.Is(err, errBackendDown) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestRegistry_AddToEmptyDispatchesEnergyChart(t *testing.T) {
	r, _ := newTestRegistry(newFakeBackend())
	ctx := context.Background()
	if _, err := r.List(ctx); err != nil {
		t.Fatalf("List: %v", err)
	}

	m, err := r.Add(ctx, models.ModuleEnergyChart)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	mods := r.Modules()
	if len(mods) != 1 || mods[0] != m {
		t.Fatalf("modules=%+v", mods)
	}
	if kind, ok := Dispatch(mods[0].ModuleType); !ok || kind != KindEnergyChart {
		t.Fatalf("dispatch=%v %v", kind, ok)
	}
}

func TestRegistry_AddRejectsUnknownType(t *testing.T) {
	r, _ := newTestRegistry(newFakeBackend())
	if _, err := r.Add(context.Background(), "solarClock"); !errors.Is(err, ErrUnknownModuleType) {
		t.Fatalf("expected ErrUnknownModuleType, got %v", err)
	}
}

func TestRegistry_RemoveThenListNeverIncludesID(t *testing.T) {
	b := newFakeBackend()
	b.modules = []models.DashboardModule{{ID: 5, Position: 0}, {ID: 7, Position: 1}}
	r, _ := newTestRegistry(b)
	ctx := context.Background()
	_, _ = r.List(ctx)

	if err := r.Remove(ctx, 5); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := r.Find(5); ok {
		t.Fatalf("local list still has 5")
	}
	got, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, m := range got {
		if m.ID == 5 {
			t.Fatalf("listed removed module: %+v", got)
		}
	}
}

func TestRegistry_RemoveFailureKeepsModule(t *testing.T) {
	b := newFakeBackend()
	b.modules = []models.DashboardModule{{ID: 5}}
	b.deleteErr = errBackendDown
	r, _ := newTestRegistry(b)
	ctx := context.Background()
	_, _ = r.List(ctx)

	if err := r.Remove(ctx, 5); err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := r.Find(5); !ok {
		t.Fatalf("module dropped despite failed delete")
	}
}

func TestRegistry_ReorderDownPersistsWholeList(t *testing.T) {
	b := newFakeBackend()
	b.modules = []models.DashboardModule{{ID: 5, Position: 0}, {ID: 7, Position: 1}}
	r, _ := newTestRegistry(b)
	ctx := context.Background()
	_, _ = r.List(ctx)

	got, err := r.Reorder(ctx, 0, DirectionDown)
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	want := []models.DashboardModule{{ID: 7, Position: 0}, {ID: 5, Position: 1}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %+v want %+v", got, want)
	}
	saved := b.savedOrders()
	if len(saved) != 1 {
		t.Fatalf("expected exactly one persist request, got %d", len(saved))
	}
	wantOrder := []models.ModulePosition{{ID: 7, Position: 0}, {ID: 5, Position: 1}}
	if saved[0][0] != wantOrder[0] || saved[0][1] != wantOrder[1] {
		t.Fatalf("persisted %+v want %+v", saved[0], wantOrder)
	}
}

func TestRegistry_ReorderIsAnInvolution(t *testing.T) {
	b := newFakeBackend()
	b.modules = []models.DashboardModule{{ID: 1}, {ID: 2, Position: 1}, {ID: 3, Position: 2}, {ID: 4, Position: 3}}
	r, _ := newTestRegistry(b)
	ctx := context.Background()
	orig, _ := r.List(ctx)

	for i := 1; i < len(orig); i++ {
		if _, err := r.Reorder(ctx, i, DirectionUp); err != nil {
			t.Fatalf("up: %v", err)
		}
		back, err := r.Reorder(ctx, i-1, DirectionDown)
		if err != nil {
			t.Fatalf("down: %v", err)
		}
		if !equalInts(ids(back), ids(orig)) {
			t.Fatalf("i=%d: got %v want %v", i, ids(back), ids(orig))
		}
	}
}

func TestRegistry_ReorderOutOfBoundsIsNoop(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		direction string
	}{
		{"first up", 0, DirectionUp},
		{"last down", 2, DirectionDown},
		{"negative index", -1, DirectionDown},
		{"index past end", 7, DirectionUp},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend()
			b.modules = []models.DashboardModule{{ID: 1}, {ID: 2, Position: 1}, {ID: 3, Position: 2}}
			r, _ := newTestRegistry(b)
			ctx := context.Background()
			_, _ = r.List(ctx)

			got, err := r.Reorder(ctx, tt.index, tt.direction)
			if err != nil {
				t.Fatalf("Reorder: %v", err)
			}
			if !equalInts(ids(got), []int{1, 2, 3}) {
				t.Fatalf("order changed: %v", ids(got))
			}
			if n := len(b.savedOrders()); n != 0 {
				t.Fatalf("expected no request, got %d", n)
			}
		})
	}
}

func TestRegistry_ReorderInvalidDirection(t *testing.T) {
	r, _ := newTestRegistry(newFakeBackend())
	if _, err := r.Reorder(context.Background(), 0, "left"); !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("expected ErrInvalidDirection, got %v", err)
	}
}

func TestRegistry_ReorderFailureRevertsToConfirmed(t *testing.T) {
	b := newFakeBackend()
	b.modules = []models.DashboardModule{{ID: 5, Position: 0}, {ID: 7, Position: 1}}
	r, j := newTestRegistry(b)
	ctx := context.Background()
	_, _ = r.List(ctx)
	savesBefore := j.saves

	var seen [][]int
	r.OnChange(func(m []models.DashboardModule) { seen = append(seen, ids(m)) })

	b.orderErr = errBackendDown
	got, err := r.Reorder(ctx, 0, DirectionDown)
	if !errors.Is(err, errBackendDown) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if !equalInts(ids(got), []int{5, 7}) || !equalInts(ids(r.Modules()), []int{5, 7}) {
		t.Fatalf("not reverted: returned %v local %v", ids(got), ids(r.Modules()))
	}
	// optimistic draft first, then the revert
	if len(seen) != 2 || !equalInts(seen[0], []int{7, 5}) || !equalInts(seen[1], []int{5, 7}) {
		t.Fatalf("change notifications=%v", seen)
	}
	if j.saves != savesBefore {
		t.Fatalf("failed order must not be journaled")
	}
}

func TestRegistry_JournaledLayout(t *testing.T) {
	b := newFakeBackend()
	b.modules = []models.DashboardModule{{ID: 1, ModuleType: models.ModuleBufferTank}}
	r, _ := newTestRegistry(b)
	ctx := context.Background()

	if mods, err := r.Journaled(ctx); err != nil || len(mods) != 0 {
		t.Fatalf("expected empty journal, got %v %v", mods, err)
	}
	_, _ = r.List(ctx)
	mods, err := r.Journaled(ctx)
	if err != nil || len(mods) != 1 || mods[0].ModuleType != models.ModuleBufferTank {
		t.Fatalf("journal=%+v err=%v", mods, err)
	}

	noJournal := NewRegistry(b, nil, "home", nil)
	if mods, err := noJournal.Journaled(ctx); mods != nil || err != nil {
		t.Fatalf("nil journal must yield nothing")
	}
}
