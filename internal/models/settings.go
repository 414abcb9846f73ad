package models

// SettingsRecord is one settings row as exchanged with the backend.
// Field names follow the backend JSON; ids are server assigned.
type SettingsRecord map[string]any

// ID returns the numeric record id, or 0 when absent.
func (r SettingsRecord) ID() int {
	switch v := r["id"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// Settings entity names, as used in /api/settings/{entity}.
const (
	EntityCategory     = "category"
	EntityManufacturer = "manufacturer"
	EntityLocation     = "location"
	EntityTank         = "tank"
	EntitySensor       = "sensor"
	EntityPhotovoltaic = "photovoltaic"
	EntityEnergy       = "energy"
	EntityHeating      = "heating"
	EntityWeather      = "weather"
)

// Reference is a foreign-key style field resolved to a display label.
type Reference struct {
	Field      string // field holding the id, e.g. "manufacturer"
	Entity     string // referenced entity
	LabelField string // field of the referenced record used as label
}

// EntitySpec describes the editable shape of a settings entity.
type EntitySpec struct {
	Name       string
	Required   []string
	Optional   []string
	References []Reference
}

// Editable returns required and optional fields; PUT replaces all of them.
func (s EntitySpec) Editable() []string {
	out := make([]string, 0, len(s.Required)+len(s.Optional))
	out = append(out, s.Required...)
	return append(out, s.Optional...)
}

var manufacturerRef = Reference{Field: "manufacturer", Entity: EntityManufacturer, LabelField: "description"}
var locationRef = Reference{Field: "location", Entity: EntityLocation, LabelField: "description"}

// SettingsEntities is the catalogue of settings entities and their field sets.
var SettingsEntities = map[string]EntitySpec{
	EntityCategory: {
		Name:     EntityCategory,
		Required: []string{"description", "category"},
	},
	EntityManufacturer: {
		Name:       EntityManufacturer,
		Required:   []string{"description", "category", "manufacturer", "model_type", "notice"},
		Optional:   []string{"url", "api", "power_factor", "power_size"},
		References: []Reference{{Field: "category", Entity: EntityCategory, LabelField: "description"}},
	},
	EntityLocation: {
		Name:     EntityLocation,
		Required: []string{"description", "latitude", "longitude"},
		Optional: []string{"city_code", "city", "street", "street_number"},
	},
	EntityTank: {
		Name:     EntityTank,
		Required: []string{"description"},
		Optional: []string{"volume"},
	},
	EntitySensor: {
		Name:     EntitySensor,
		Required: []string{"description", "manufacturer", "ip"},
		Optional: []string{"api_key", "measuring_device", "measuring_position"},
		References: []Reference{
			manufacturerRef,
			{Field: "measuring_device", Entity: EntityTank, LabelField: "description"},
		},
	},
	EntityPhotovoltaic: {
		Name:       EntityPhotovoltaic,
		Required:   []string{"description", "manufacturer", "location"},
		Optional:   []string{"duration", "angle", "module_count"},
		References: []Reference{manufacturerRef, locationRef},
	},
	EntityEnergy: {
		Name:       EntityEnergy,
		Required:   []string{"description", "manufacturer", "ip"},
		Optional:   []string{"api_key", "price"},
		References: []Reference{manufacturerRef},
	},
	// heating systems carry a system id instead of a description
	EntityHeating: {
		Name:       EntityHeating,
		Required:   []string{"system_id", "manufacturer", "ip"},
		Optional:   []string{"url", "api", "price", "power_factor", "selected"},
		References: []Reference{manufacturerRef},
	},
	EntityWeather: {
		Name:       EntityWeather,
		Required:   []string{"description", "manufacturer", "location", "ip"},
		Optional:   []string{"api_key"},
		References: []Reference{manufacturerRef, locationRef},
	},
}
