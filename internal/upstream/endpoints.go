package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"home_energy_dashboard/internal/models"
)

const (
	devicesPath      = "/api/dashboard/"
	modulesPath      = "/api/dashboard/modules"
	moduleOrderPath  = "/api/dashboard/modules/order"
	energyDataPath   = "/api/modules/energy_data"
	energyPricePath  = "/api/modules/energy_price"
	inverterPath     = "/api/modules/inverter_data"
	heatingTankPath  = "/api/modules/heating_tank_temp"
	bufferTankPath   = "/api/modules/buffer_tank_temp"
	heatPipePath     = "/api/modules/heat_pipe/%d"
	heatingModePath  = "/api/modules/heating_mode"
	settingsPath     = "/api/settings/%s"
	settingsItemPath = "/api/settings/%s/%d"
)

// Devices returns the switch list in backend order.
func (c *Client) Devices(ctx context.Context) ([]models.Device, error) {
	var resp struct {
		Devices []models.Device `json:"devices"`
	}
	if err := c.getJSON(ctx, devicesPath, &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// Toggle flips a switch and returns the state the backend settled on.
func (c *Client) Toggle(ctx context.Context, id int) (bool, error) {
	var resp struct {
		NewState bool `json:"new_state"`
	}
	if err := c.send(ctx, http.MethodPost, fmt.Sprintf("/api/dashboard/%d/toggle", id), nil, &resp); err != nil {
		return false, err
	}
	return resp.NewState, nil
}

// Modules returns the configured dashboard modules, unsorted.
func (c *Client) Modules(ctx context.Context) ([]models.DashboardModule, error) {
	var out []models.DashboardModule
	if err := c.getJSON(ctx, modulesPath, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateModule asks the backend for a new module; id and position are server assigned.
func (c *Client) CreateModule(ctx context.Context, t models.ModuleType) (models.DashboardModule, error) {
	var out models.DashboardModule
	body := map[string]models.ModuleType{"module_type": t}
	if err := c.send(ctx, http.MethodPost, modulesPath, body, &out); err != nil {
		return models.DashboardModule{}, err
	}
	return out, nil
}

func (c *Client) DeleteModule(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", modulesPath, id), nil, nil)
}

// SaveModuleOrder persists the full order in one request.
func (c *Client) SaveModuleOrder(ctx context.Context, order []models.ModulePosition) error {
	return c.send(ctx, http.MethodPut, moduleOrderPath, order, nil)
}

// EnergyData returns hourly power buckets keyed by label ("HH" or an RFC3339 timestamp).
func (c *Client) EnergyData(ctx context.Context) (map[string]models.EnergyDataPoint, error) {
	out := map[string]models.EnergyDataPoint{}
	if err := c.getJSON(ctx, energyDataPath, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) EnergyPrices(ctx context.Context) ([]models.EnergyPrice, error) {
	var out []models.EnergyPrice
	if err := c.getJSON(ctx, energyPricePath, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Inverter(ctx context.Context) (models.InverterSummary, error) {
	var out models.InverterSummary
	err := c.getJSON(ctx, inverterPath, &out)
	return out, err
}

// Tank kinds served by the backend.
const (
	TankHeating = "heating"
	TankBuffer  = "buffer"
)

// TankTemperatures reads one tank; kind is TankHeating or TankBuffer.
func (c *Client) TankTemperatures(ctx context.Context, kind string) (models.TankTemperatures, error) {
	var path string
	switch kind {
	case TankHeating:
		path = heatingTankPath
	case TankBuffer:
		path = bufferTankPath
	default:
		return models.TankTemperatures{}, fmt.Errorf("unknown tank %q", kind)
	}
	var out models.TankTemperatures
	err := c.getJSON(ctx, path, &out)
	return out, err
}

func (c *Client) HeatPipe(ctx context.Context, phase int) (models.HeatPipe, error) {
	var out models.HeatPipe
	err := c.getJSON(ctx, fmt.Sprintf(heatPipePath, phase), &out)
	return out, err
}

// SetHeatPipe switches one phase and returns the state the backend reports back.
func (c *Client) SetHeatPipe(ctx context.Context, phase int, state bool) (models.HeatPipe, error) {
	var resp struct {
		PipeID   int  `json:"pipe_id"`
		NewState bool `json:"new_state"`
	}
	body := map[string]bool{"state": state}
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf(heatPipePath, phase), body, &resp); err != nil {
		return models.HeatPipe{}, err
	}
	return models.HeatPipe{PipeID: resp.PipeID, State: resp.NewState}, nil
}

func (c *Client) SetHeatingMode(ctx context.Context, mode string) error {
	return c.send(ctx, http.MethodPut, heatingModePath, map[string]string{"mode": mode}, nil)
}

// ListSettings returns every record of an entity. The backend wraps the list under an
// entity specific key ("modules", "manufacturers", "categories", "locations").
func (c *Client) ListSettings(ctx context.Context, entity string) ([]models.SettingsRecord, error) {
	var wrapper map[string]json.RawMessage
	if err := c.getJSON(ctx, fmt.Sprintf(settingsPath, entity), &wrapper); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(wrapper))
	for k := range wrapper {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var recs []models.SettingsRecord
		if err := json.Unmarshal(wrapper[k], &recs); err == nil {
			if recs == nil {
				recs = []models.SettingsRecord{}
			}
			return recs, nil
		}
	}
	return []models.SettingsRecord{}, nil
}

func (c *Client) CreateSettings(ctx context.Context, entity string, rec models.SettingsRecord) (models.SettingsRecord, error) {
	var out models.SettingsRecord
	if err := c.send(ctx, http.MethodPost, fmt.Sprintf(settingsPath, entity), rec, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateSettings(ctx context.Context, entity string, id int, rec models.SettingsRecord) (models.SettingsRecord, error) {
	var out models.SettingsRecord
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf(settingsItemPath, entity, id), rec, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteSettings(ctx context.Context, entity string, id int) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf(settingsItemPath, entity, id), nil, nil)
}
