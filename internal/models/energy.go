package models

import "time"

// EnergyDataPoint is one hourly bucket of power flows.
type EnergyDataPoint struct {
	Heating    float64 `json:"heating"`
	Consumer   float64 `json:"consumer"`
	Regular    float64 `json:"regular"`
	Production float64 `json:"production"`
}

// EnergyPrice is one entry of the hourly tariff series.
type EnergyPrice struct {
	StartsAt time.Time `json:"startsAt"`
	Total    float64   `json:"total"`
}

// ChartRow is one slot of the energy chart grid.
// Power fields default to 0; Price stays nil when no tariff covers the slot.
type ChartRow struct {
	Time       string   `json:"time"`
	Heating    float64  `json:"heating"`
	Consumer   float64  `json:"consumer"`
	Regular    float64  `json:"regular"`
	Production float64  `json:"production"`
	Price      *float64 `json:"price"`
}

// InverterSummary is the live inverter reading in watts (capacity in percent).
type InverterSummary struct {
	Consume      float64 `json:"consume"`
	Production   float64 `json:"production"`
	Cover        float64 `json:"cover"`
	AccuCapacity float64 `json:"accu_capacity"`
}

// TankTemperatures holds the target and up to three layer sensors of a tank.
type TankTemperatures struct {
	DestTemp float64  `json:"dest_temp"`
	Sensor1  *float64 `json:"sensor_1"`
	Sensor2  *float64 `json:"sensor_2"`
	Sensor3  *float64 `json:"sensor_3"`
}

// Sensors returns the three sensor readings in layer order.
func (t TankTemperatures) Sensors() []*float64 {
	return []*float64{t.Sensor1, t.Sensor2, t.Sensor3}
}

// HeatPipe is the relay state of one heating rod phase.
type HeatPipe struct {
	PipeID int  `json:"pipe_id"`
	State  bool `json:"state"`
}

// Heating modes accepted by the backend.
const (
	HeatingModeAuto    = "Automatik"
	HeatingModeManual  = "Manuell"
	HeatingModeBoost   = "Schnell heizen"
	HeatingModeHoliday = "Urlaub"
)

// HeatingModes lists the accepted heating modes.
var HeatingModes = []string{HeatingModeAuto, HeatingModeManual, HeatingModeBoost, HeatingModeHoliday}
