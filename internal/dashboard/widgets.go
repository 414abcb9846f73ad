package dashboard

import (
	"context"
	"fmt"
	"math"
	"time"

	"home_energy_dashboard/internal/models"
)

// WidgetKind names the renderer selected for a module type.
type WidgetKind string

const (
	KindPhaseSwitchPanel WidgetKind = "phase_switch_panel"
	KindEnergyChart      WidgetKind = "energy_chart"
	KindInverterGauge    WidgetKind = "inverter_gauge"
	KindTankRing         WidgetKind = "tank_ring"
)

var dispatchTable = map[models.ModuleType]WidgetKind{
	models.ModulePhaseSwitch:         KindPhaseSwitchPanel,
	models.ModuleEnergyChart:         KindEnergyChart,
	models.ModuleInverterProduction:  KindInverterGauge,
	models.ModuleInverterConsumption: KindInverterGauge,
	models.ModuleInverterCoverage:    KindInverterGauge,
	models.ModuleInverterCapacity:    KindInverterGauge,
	models.ModuleHeatingTank:         KindTankRing,
	models.ModuleBufferTank:          KindTankRing,
}

// Dispatch maps a module type to its widget. Unknown types report false and render nothing.
func Dispatch(t models.ModuleType) (WidgetKind, bool) {
	k, ok := dispatchTable[t]
	return k, ok
}

// Widget is the closed set of drawable cards.
type Widget interface {
	Kind() WidgetKind
	isWidget()
}

// PhaseSwitchPanel is the three phase heating rod panel.
type PhaseSwitchPanel struct {
	Title  string            `json:"title"`
	Phases []models.HeatPipe `json:"phases"`
	Modes  []string          `json:"modes"`
}

type EnergyChart struct {
	Rows []models.ChartRow `json:"rows"`
}

// InverterGauge is a donut showing Value out of Max.
type InverterGauge struct {
	Variant models.ModuleType `json:"variant"`
	Title   string            `json:"title"`
	Value   float64           `json:"value"`
	Max     float64           `json:"max"`
	Unit    string            `json:"unit"`
	Ratio   float64           `json:"ratio"`
}

// SensorMarker places one tank layer sensor on the ring.
type SensorMarker struct {
	Layer int     `json:"layer"`
	Temp  float64 `json:"temp"`
	Ratio float64 `json:"ratio"`
	Angle float64 `json:"angle"` // radians, pi (min) .. 2pi (max)
}

type TankRing struct {
	Tank     string         `json:"tank"`
	Title    string         `json:"title"`
	DestTemp float64        `json:"dest_temp"`
	Min      float64        `json:"min"`
	Max      float64        `json:"max"`
	Sensors  []SensorMarker `json:"sensors"`
}

func (PhaseSwitchPanel) Kind() WidgetKind { return KindPhaseSwitchPanel }
func (EnergyChart) Kind() WidgetKind      { return KindEnergyChart }
func (InverterGauge) Kind() WidgetKind    { return KindInverterGauge }
func (TankRing) Kind() WidgetKind         { return KindTankRing }

func (PhaseSwitchPanel) isWidget() {}
func (EnergyChart) isWidget()      {}
func (InverterGauge) isWidget()    {}
func (TankRing) isWidget()         {}

// Gauge and ring limits.
const (
	ProductionMaxW  = 10000.0
	ConsumptionMaxW = 20000.0
	CoverageMaxW    = 20000.0
	CapacityMaxPct  = 100.0

	TankMinC = 5.0
	TankMaxC = 80.0

	PhaseCount = 3
)

type gaugeSpec struct {
	title string
	max   float64
	unit  string
	value func(models.InverterSummary) float64
}

var gaugeSpecs = map[models.ModuleType]gaugeSpec{
	models.ModuleInverterProduction: {"Produktion", ProductionMaxW, "W",
		func(s models.InverterSummary) float64 { return s.Production }},
	models.ModuleInverterConsumption: {"Verbrauch", ConsumptionMaxW, "W",
		func(s models.InverterSummary) float64 { return s.Consume }},
	models.ModuleInverterCoverage: {"Deckung", CoverageMaxW, "W",
		func(s models.InverterSummary) float64 { return s.Cover }},
	models.ModuleInverterCapacity: {"Akkukapazität", CapacityMaxPct, "%",
		func(s models.InverterSummary) float64 { return s.AccuCapacity }},
}

type tankSpec struct {
	kind  string
	title string
}

var tankSpecs = map[models.ModuleType]tankSpec{
	models.ModuleHeatingTank: {"heating", "Heizungsspeicher"},
	models.ModuleBufferTank:  {"buffer", "Pufferspeicher"},
}

// NewInverterGauge builds the gauge for one inverter variant.
func NewInverterGauge(t models.ModuleType, s models.InverterSummary) (InverterGauge, error) {
	spec, ok := gaugeSpecs[t]
	if !ok {
		return InverterGauge{}, fmt.Errorf("%w: %q is not an inverter gauge", ErrUnknownModuleType, t)
	}
	v := spec.value(s)
	return InverterGauge{
		Variant: t,
		Title:   spec.title,
		Value:   v,
		Max:     spec.max,
		Unit:    spec.unit,
		Ratio:   clamp01(v / spec.max),
	}, nil
}

// NewTankRing places the non-nil sensors on the 5..80 °C ring.
func NewTankRing(tank, title string, t models.TankTemperatures) TankRing {
	ring := TankRing{
		Tank:     tank,
		Title:    title,
		DestTemp: math.Round(t.DestTemp),
		Min:      TankMinC,
		Max:      TankMaxC,
		Sensors:  make([]SensorMarker, 0, 3),
	}
	for i, s := range t.Sensors() {
		if s == nil {
			continue
		}
		ratio := clamp01((*s - TankMinC) / (TankMaxC - TankMinC))
		ring.Sensors = append(ring.Sensors, SensorMarker{
			Layer: i + 1,
			Temp:  *s,
			Ratio: ratio,
			Angle: math.Pi * (1 + ratio),
		})
	}
	return ring
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// TelemetrySource is the backend data the widgets draw.
type TelemetrySource interface {
	EnergyData(ctx context.Context) (map[string]models.EnergyDataPoint, error)
	EnergyPrices(ctx context.Context) ([]models.EnergyPrice, error)
	Inverter(ctx context.Context) (models.InverterSummary, error)
	TankTemperatures(ctx context.Context, kind string) (models.TankTemperatures, error)
	HeatPipe(ctx context.Context, phase int) (models.HeatPipe, error)
}

// WidgetView is one rendered card. A failed fetch fills Error and leaves Widget nil;
// other cards are unaffected.
type WidgetView struct {
	ModuleID   int               `json:"module_id"`
	ModuleType models.ModuleType `json:"module_type"`
	Kind       WidgetKind        `json:"kind"`
	Widget     Widget            `json:"widget,omitempty"`
	Error      string            `json:"error,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Renderer fetches the data behind a module and builds its widget.
type Renderer struct {
	src   TelemetrySource
	slots int
	loc   *time.Location
	now   func() time.Time
}

func NewRenderer(src TelemetrySource, slots int, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	if slots <= 0 {
		slots = DefaultChartSlots
	}
	return &Renderer{src: src, slots: slots, loc: loc, now: time.Now}
}

// Render returns false for module types without a widget.
func (r *Renderer) Render(ctx context.Context, m models.DashboardModule) (WidgetView, bool) {
	kind, ok := Dispatch(m.ModuleType)
	if !ok {
		return WidgetView{}, false
	}
	view := WidgetView{ModuleID: m.ID, ModuleType: m.ModuleType, Kind: kind, UpdatedAt: r.now().UTC()}

	w, err := r.build(ctx, kind, m.ModuleType)
	if err != nil {
		view.Error = err.Error()
		return view, true
	}
	view.Widget = w
	return view, true
}

func (r *Renderer) build(ctx context.Context, kind WidgetKind, t models.ModuleType) (Widget, error) {
	switch kind {
	case KindPhaseSwitchPanel:
		return r.phasePanel(ctx)
	case KindEnergyChart:
		rows, err := r.Chart(ctx)
		if err != nil {
			return nil, err
		}
		return EnergyChart{Rows: rows}, nil
	case KindInverterGauge:
		s, err := r.src.Inverter(ctx)
		if err != nil {
			return nil, fmt.Errorf("inverter data: %w", err)
		}
		return NewInverterGauge(t, s)
	case KindTankRing:
		spec := tankSpecs[t]
		temps, err := r.src.TankTemperatures(ctx, spec.kind)
		if err != nil {
			return nil, fmt.Errorf("%s tank: %w", spec.kind, err)
		}
		return NewTankRing(spec.kind, spec.title, temps), nil
	}
	return nil, fmt.Errorf("no widget for %q", t)
}

func (r *Renderer) phasePanel(ctx context.Context) (PhaseSwitchPanel, error) {
	p := PhaseSwitchPanel{
		Title:  "Heizstab",
		Phases: make([]models.HeatPipe, 0, PhaseCount),
		Modes:  append([]string(nil), models.HeatingModes...),
	}
	for phase := 1; phase <= PhaseCount; phase++ {
		hp, err := r.src.HeatPipe(ctx, phase)
		if err != nil {
			return PhaseSwitchPanel{}, fmt.Errorf("heat pipe %d: %w", phase, err)
		}
		p.Phases = append(p.Phases, hp)
	}
	return p, nil
}

// Chart fetches energy data and prices and merges them onto today's grid.
// A missing price series leaves every price nil rather than failing the chart.
func (r *Renderer) Chart(ctx context.Context) ([]models.ChartRow, error) {
	data, err := r.src.EnergyData(ctx)
	if err != nil {
		return nil, fmt.Errorf("energy data: %w", err)
	}
	prices, err := r.src.EnergyPrices(ctx)
	if err != nil {
		prices = nil
	}
	return MergeEnergyChart(MidnightOf(r.now(), r.loc), r.slots, data, prices), nil
}
