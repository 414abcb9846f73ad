package models

import "time"

// ModuleType tags a dashboard card. The set is closed; see Known.
type ModuleType string

const (
	ModulePhaseSwitch         ModuleType = "phaseSwitch"
	ModuleEnergyChart         ModuleType = "energyChart"
	ModuleInverterProduction  ModuleType = "inverterProduction"
	ModuleInverterConsumption ModuleType = "inverterConsumption"
	ModuleInverterCoverage    ModuleType = "inverterCoverage"
	ModuleInverterCapacity    ModuleType = "inverterCapacity"
	ModuleHeatingTank         ModuleType = "heatingTank"
	ModuleBufferTank          ModuleType = "bufferTank"
)

// ModuleTypes lists every known module type in catalogue order.
var ModuleTypes = []ModuleType{
	ModulePhaseSwitch,
	ModuleEnergyChart,
	ModuleInverterProduction,
	ModuleInverterConsumption,
	ModuleInverterCoverage,
	ModuleInverterCapacity,
	ModuleHeatingTank,
	ModuleBufferTank,
}

// Known reports whether t is one of ModuleTypes.
func (t ModuleType) Known() bool {
	for _, k := range ModuleTypes {
		if k == t {
			return true
		}
	}
	return false
}

// DashboardModule is a positioned widget descriptor. A missing position decodes as 0.
type DashboardModule struct {
	ID         int        `json:"id"`
	ModuleType ModuleType `json:"module_type"`
	Position   int        `json:"position"`
}

// ModulePosition is one entry of a persisted module order.
type ModulePosition struct {
	ID       int `json:"id"`
	Position int `json:"position"`
}

// ModuleLayout is the last order confirmed by the backend for one dashboard.
type ModuleLayout struct {
	DashboardID string            `json:"dashboard_id"`
	Modules     []DashboardModule `json:"modules"`
	ConfirmedAt time.Time         `json:"confirmed_at"`
}
