package service

import (
	"context"
	"time"

	"home_energy_dashboard/internal/dashboard"
	"home_energy_dashboard/internal/logger"
	"home_energy_dashboard/internal/models"
)

const defaultMountRetry = 10 * time.Second

// DashboardService keeps one controller mounted and exposes its view.
type DashboardService struct {
	ctrl *dashboard.Controller
	log  *logger.Logger
}

func NewDashboardService(ctrl *dashboard.Controller, log *logger.Logger) *DashboardService {
	if log == nil {
		log = logger.NewNop()
	}
	return &DashboardService{ctrl: ctrl, log: log.Named("dashboard_service")}
}

func (s *DashboardService) Snapshot() *dashboard.Snapshot {
	return s.ctrl.Snapshot()
}

// Subscribe registers for snapshot pushes. Callers must Unsubscribe.
func (s *DashboardService) Subscribe() *dashboard.Subscription {
	return s.ctrl.Hub().Subscribe()
}

func (s *DashboardService) Widget(ctx context.Context, moduleID int) (dashboard.WidgetView, error) {
	return s.ctrl.Widget(ctx, moduleID)
}

func (s *DashboardService) Chart(ctx context.Context) ([]models.ChartRow, error) {
	return s.ctrl.Chart(ctx)
}

// Run mounts the dashboard, retrying at the given interval while the initial
// load fails, and unmounts it when ctx is cancelled.
func (s *DashboardService) Run(ctx context.Context, retry time.Duration) {
	if retry <= 0 {
		retry = defaultMountRetry
	}
	if !s.mountWithRetry(ctx, retry) {
		return
	}
	<-ctx.Done()
	s.ctrl.Unmount()
	s.log.Infow("dashboard_unmounted")
}

func (s *DashboardService) mountWithRetry(ctx context.Context, retry time.Duration) bool {
	if err := s.ctrl.Mount(ctx); err == nil {
		return true
	}
	t := time.NewTicker(retry)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
			err := s.ctrl.Mount(ctx)
			if err == nil {
				return true
			}
			s.log.Warnw("dashboard_mount_retry", "err", err, "retry_in", retry)
		}
	}
}

// DeviceService is the switch list of the mounted dashboard.
type DeviceService struct {
	ctrl *dashboard.Controller
}

func NewDeviceService(ctrl *dashboard.Controller) *DeviceService {
	return &DeviceService{ctrl: ctrl}
}

func (s *DeviceService) ListDevices() []models.Device {
	return s.ctrl.Devices()
}

func (s *DeviceService) ToggleDevice(ctx context.Context, id int) (models.Device, error) {
	return s.ctrl.Toggle(ctx, id)
}

// ModuleService edits the composition of the mounted dashboard.
type ModuleService struct {
	ctrl *dashboard.Controller
}

func NewModuleService(ctrl *dashboard.Controller) *ModuleService {
	return &ModuleService{ctrl: ctrl}
}

func (s *ModuleService) ListModules() []models.DashboardModule {
	return s.ctrl.Modules()
}

func (s *ModuleService) AddModule(ctx context.Context, moduleType string) (models.DashboardModule, error) {
	return s.ctrl.AddModule(ctx, models.ModuleType(moduleType))
}

func (s *ModuleService) RemoveModule(ctx context.Context, id int) error {
	return s.ctrl.RemoveModule(ctx, id)
}

func (s *ModuleService) MoveModule(ctx context.Context, index int, direction string) ([]models.DashboardModule, error) {
	return s.ctrl.MoveModule(ctx, index, direction)
}
