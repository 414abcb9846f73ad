package handlers

import (
	"context"
	"net/http"
	"time"

	"home_energy_dashboard/internal/dashboard"
	"home_energy_dashboard/internal/models"
	"home_energy_dashboard/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastGenUsername    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	return m.signUpID, m.signUpErr
}

func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	return m.genTokenToken, m.genTokenErr
}

func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockDashboard struct {
	hub       *dashboard.Hub
	snap      *dashboard.Snapshot
	widget    dashboard.WidgetView
	widgetErr error
	rows      []models.ChartRow
	chartErr  error
}

func newMockDashboard() *mockDashboard {
	return &mockDashboard{
		hub:  dashboard.NewHub(),
		snap: &dashboard.Snapshot{DashboardID: "home", State: dashboard.StateReady},
	}
}

func (m *mockDashboard) Snapshot() *dashboard.Snapshot                { return m.snap }
func (m *mockDashboard) Subscribe() *dashboard.Subscription           { return m.hub.Subscribe() }
func (m *mockDashboard) Run(ctx context.Context, retry time.Duration) {}

func (m *mockDashboard) Widget(ctx context.Context, id int) (dashboard.WidgetView, error) {
	return m.widget, m.widgetErr
}

func (m *mockDashboard) Chart(ctx context.Context) ([]models.ChartRow, error) {
	return m.rows, m.chartErr
}

type mockDevices struct {
	devices   []models.Device
	toggled   models.Device
	toggleErr error
	lastID    int
}

func (m *mockDevices) ListDevices() []models.Device { return m.devices }

func (m *mockDevices) ToggleDevice(ctx context.Context, id int) (models.Device, error) {
	m.lastID = id
	return m.toggled, m.toggleErr
}

type mockModules struct {
	modules   []models.DashboardModule
	added     models.DashboardModule
	addErr    error
	removeErr error
	moved     []models.DashboardModule
	moveErr   error

	lastType      string
	lastRemoved   int
	lastIndex     int
	lastDirection string
}

func (m *mockModules) ListModules() []models.DashboardModule { return m.modules }

func (m *mockModules) AddModule(ctx context.Context, t string) (models.DashboardModule, error) {
	m.lastType = t
	return m.added, m.addErr
}

func (m *mockModules) RemoveModule(ctx context.Context, id int) error {
	m.lastRemoved = id
	return m.removeErr
}

func (m *mockModules) MoveModule(ctx context.Context, index int, direction string) ([]models.DashboardModule, error) {
	m.lastIndex = index
	m.lastDirection = direction
	return m.moved, m.moveErr
}

type mockSettings struct {
	recs []models.SettingsRecord
	out  models.SettingsRecord
	err  error

	lastEntity string
	lastID     int
	lastRec    models.SettingsRecord
}

func (m *mockSettings) ListSettings(ctx context.Context, entity string) ([]models.SettingsRecord, error) {
	m.lastEntity = entity
	return m.recs, m.err
}

func (m *mockSettings) CreateSettings(ctx context.Context, entity string, rec models.SettingsRecord) (models.SettingsRecord, error) {
	m.lastEntity, m.lastRec = entity, rec
	return m.out, m.err
}

func (m *mockSettings) UpdateSettings(ctx context.Context, entity string, id int, rec models.SettingsRecord) (models.SettingsRecord, error) {
	m.lastEntity, m.lastID, m.lastRec = entity, id, rec
	return m.out, m.err
}

func (m *mockSettings) DeleteSettings(ctx context.Context, entity string, id int) error {
	m.lastEntity, m.lastID = entity, id
	return m.err
}

type mockEventLog struct {
	resp []models.DeviceEvent
	err  error
	last service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.DeviceEvent, error) {
	m.last = f
	return m.resp, m.err
}

type mockMonitoring struct {
	report service.HealthReport
}

func (m *mockMonitoring) Health(ctx context.Context) service.HealthReport { return m.report }

type mockTelemetry struct {
	pipe      models.HeatPipe
	err       error
	lastPhase int
	lastState bool
	lastMode  string
}

func (m *mockTelemetry) HeatPipe(ctx context.Context, phase int) (models.HeatPipe, error) {
	m.lastPhase = phase
	return m.pipe, m.err
}

func (m *mockTelemetry) SetHeatPipe(ctx context.Context, phase int, state bool) (models.HeatPipe, error) {
	m.lastPhase, m.lastState = phase, state
	return m.pipe, m.err
}

func (m *mockTelemetry) SetHeatingMode(ctx context.Context, mode string) error {
	m.lastMode = mode
	return m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
