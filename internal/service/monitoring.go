package service

import (
	"context"
	"time"

	"home_energy_dashboard/internal/dashboard"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"

	upstreamReachable   = "reachable"
	upstreamUnreachable = "unreachable"
)

// Pinger checks that the energy backend answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DashboardStatus is the read side of a mounted controller.
type DashboardStatus interface {
	State() dashboard.State
	Hub() *dashboard.Hub
}

type MonitoringService struct {
	upstream  Pinger
	dashboard DashboardStatus

	memPercent func(ctx context.Context) (float64, error)
	cpuPercent func(ctx context.Context) (float64, error)
	now        func() time.Time
}

func NewMonitoringService(upstream Pinger, d DashboardStatus) *MonitoringService {
	return &MonitoringService{
		upstream:   upstream,
		dashboard:  d,
		memPercent: hostMemPercent,
		cpuPercent: hostCPUPercent,
		now:        time.Now,
	}
}

// Health reports backend reachability, dashboard state and host load.
// Host stats that cannot be read are reported as 0.
func (s *MonitoringService) Health(ctx context.Context) HealthReport {
	r := HealthReport{
		Status:         statusOK,
		Upstream:       upstreamReachable,
		DashboardState: string(s.dashboard.State()),
		Clients:        s.dashboard.Hub().Clients(),
		CheckedAt:      s.now().UTC(),
	}
	if err := s.upstream.Ping(ctx); err != nil {
		r.Status = statusDegraded
		r.Upstream = upstreamUnreachable
		r.UpstreamError = err.Error()
	}
	if s.dashboard.State() != dashboard.StateReady {
		r.Status = statusDegraded
	}
	if v, err := s.memPercent(ctx); err == nil {
		r.MemUsedPercent = v
	}
	if v, err := s.cpuPercent(ctx); err == nil {
		r.CPUPercent = v
	}
	return r
}

func hostMemPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// hostCPUPercent is the load since the previous call; the first call reports 0.
func hostCPUPercent(ctx context.Context) (float64, error) {
	p, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil || len(p) == 0 {
		return 0, err
	}
	return p[0], nil
}
