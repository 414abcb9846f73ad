package service

import (
	"context"
	"time"

	"home_energy_dashboard/internal/dashboard"
	"home_energy_dashboard/internal/logger"
	"home_energy_dashboard/internal/models"
	"home_energy_dashboard/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Dashboard exposes the mounted dashboard: its snapshot, live updates and widgets.
// Run mounts the dashboard and keeps it mounted until ctx is cancelled.
type Dashboard interface {
	Snapshot() *dashboard.Snapshot
	Subscribe() *dashboard.Subscription
	Widget(ctx context.Context, moduleID int) (dashboard.WidgetView, error)
	Chart(ctx context.Context) ([]models.ChartRow, error)
	Run(ctx context.Context, retry time.Duration)
}

// Devices exposes the switch list and toggling.
type Devices interface {
	ListDevices() []models.Device
	ToggleDevice(ctx context.Context, id int) (models.Device, error)
}

// Modules exposes dashboard composition.
type Modules interface {
	ListModules() []models.DashboardModule
	AddModule(ctx context.Context, moduleType string) (models.DashboardModule, error)
	RemoveModule(ctx context.Context, id int) error
	MoveModule(ctx context.Context, index int, direction string) ([]models.DashboardModule, error)
}

// Settings proxies the backend settings entities.
type Settings interface {
	ListSettings(ctx context.Context, entity string) ([]models.SettingsRecord, error)
	CreateSettings(ctx context.Context, entity string, rec models.SettingsRecord) (models.SettingsRecord, error)
	UpdateSettings(ctx context.Context, entity string, id int, rec models.SettingsRecord) (models.SettingsRecord, error)
	DeleteSettings(ctx context.Context, entity string, id int) error
}

// EventLog exposes the device activity journal with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error)
}

// Monitoring reports service health.
type Monitoring interface {
	Health(ctx context.Context) HealthReport
}

// Telemetry exposes the heating rod panel operations.
type Telemetry interface {
	HeatPipe(ctx context.Context, phase int) (models.HeatPipe, error)
	SetHeatPipe(ctx context.Context, phase int, state bool) (models.HeatPipe, error)
	SetHeatingMode(ctx context.Context, mode string) error
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	Dashboard
	Devices
	Modules
	Settings
	EventLog
	Monitoring
	Telemetry
}

// Backend is the slice of the energy backend client the services use.
type Backend interface {
	SettingsBackend
	TelemetryBackend
	Pinger
}

// Deps are the collaborators NewService wires into the sub-services.
type Deps struct {
	Repos      *repository.Repository
	Backend    Backend
	Controller *dashboard.Controller
	Auth       AuthConfig
	Log        *logger.Logger
}

func NewService(d Deps) *Service {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	return &Service{
		Authorization: NewAuthService(d.Repos.Auth, d.Auth),
		Dashboard:     NewDashboardService(d.Controller, d.Log),
		Devices:       NewDeviceService(d.Controller),
		Modules:       NewModuleService(d.Controller),
		Settings:      NewSettingsService(d.Backend),
		EventLog:      NewEventLogService(d.Repos.EventRepo),
		Monitoring:    NewMonitoringService(d.Backend, d.Controller),
		Telemetry:     NewTelemetryService(d.Backend),
	}
}
