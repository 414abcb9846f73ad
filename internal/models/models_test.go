package models

import (
	"encoding/json"
	"testing"
)

func TestModuleType_Known(t *testing.T) {
	for _, mt := range ModuleTypes {
		if !mt.Known() {
			t.Fatalf("%q should be known", mt)
		}
	}
	if ModuleType("weatherRadar").Known() {
		t.Fatalf("unexpected known type")
	}
}

func TestDashboardModule_MissingPositionDecodesAsZero(t *testing.T) {
	var m DashboardModule
	if err := json.Unmarshal([]byte(`{"id":3,"module_type":"energyChart"}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Position != 0 || m.ID != 3 || m.ModuleType != ModuleEnergyChart {
		t.Fatalf("unexpected module: %+v", m)
	}
}

func TestChartRow_NilPriceEncodesAsNull(t *testing.T) {
	b, err := json.Marshal(ChartRow{Time: "00"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"time":"00","heating":0,"consumer":0,"regular":0,"production":0,"price":null}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
}

func TestSettingsRecord_ID(t *testing.T) {
	cases := []struct {
		rec  SettingsRecord
		want int
	}{
		{SettingsRecord{"id": float64(7)}, 7},
		{SettingsRecord{"id": 4}, 4},
		{SettingsRecord{"id": "x"}, 0},
		{SettingsRecord{}, 0},
	}
	for _, tc := range cases {
		if got := tc.rec.ID(); got != tc.want {
			t.Fatalf("ID(%v)=%d, want %d", tc.rec, got, tc.want)
		}
	}
}

func TestEntitySpec_Editable(t *testing.T) {
	spec := SettingsEntities[EntityEnergy]
	got := spec.Editable()
	want := []string{"description", "manufacturer", "ip", "api_key", "price"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
