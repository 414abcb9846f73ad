package dashboard

import (
	"strconv"
	"time"

	"home_energy_dashboard/internal/models"
)

// ChartTimeLayout labels every chart row.
const ChartTimeLayout = "2006-01-02 15:04"

// DefaultChartSlots is two days of hourly rows.
const DefaultChartSlots = 48

// MidnightOf returns local midnight of t's day in loc.
func MidnightOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// MergeEnergyChart lays power buckets and prices onto a fixed hourly grid of
// slots rows beginning at start.
//
// Power keys are either "HH" (an hour of start's day) or RFC3339 timestamps.
// Prices land on the slot containing StartsAt. Slots without power data get
// zeros; slots without a price keep a nil Price.
func MergeEnergyChart(start time.Time, slots int, data map[string]models.EnergyDataPoint, prices []models.EnergyPrice) []models.ChartRow {
	if slots <= 0 {
		slots = DefaultChartSlots
	}
	loc := start.Location()

	rows := make([]models.ChartRow, slots)
	for i := range rows {
		rows[i].Time = start.Add(time.Duration(i) * time.Hour).Format(ChartTimeLayout)
	}

	for key, p := range data {
		i, ok := slotOfKey(start, slots, loc, key)
		if !ok {
			continue
		}
		rows[i].Heating = p.Heating
		rows[i].Consumer = p.Consumer
		rows[i].Regular = p.Regular
		rows[i].Production = p.Production
	}

	for _, p := range prices {
		i, ok := slotOf(start, slots, p.StartsAt)
		if !ok {
			continue
		}
		v := p.Total
		rows[i].Price = &v
	}
	return rows
}

func slotOfKey(start time.Time, slots int, loc *time.Location, key string) (int, bool) {
	if len(key) == 2 {
		h, err := strconv.Atoi(key)
		if err != nil || h < 0 || h > 23 {
			return 0, false
		}
		at := time.Date(start.Year(), start.Month(), start.Day(), h, 0, 0, 0, loc)
		return slotOf(start, slots, at)
	}
	at, err := time.Parse(time.RFC3339, key)
	if err != nil {
		return 0, false
	}
	return slotOf(start, slots, at)
}

func slotOf(start time.Time, slots int, at time.Time) (int, bool) {
	d := at.Sub(start)
	if d < 0 {
		return 0, false
	}
	i := int(d / time.Hour)
	if i >= slots {
		return 0, false
	}
	return i, true
}
