// Package observability reports the liveness of the service and its storage.
package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	storageUp      = "up"
	storageDown    = "down"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReport aggregates storage liveness and self process metrics.
type HealthReport struct {
	Status        string  `json:"status"`
	Storage       string  `json:"storage"`
	PID           int32   `json:"pid"`
	RSSBytes      uint64  `json:"rss_bytes"`
	CPUPercent    float64 `json:"cpu_percent"`
	AllocMemMb    uint64  `json:"alloc_mem_mb"`
	NumGC         uint32  `json:"num_gc"`
	Goroutines    int     `json:"goroutines"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (r HealthReport) Healthy() bool {
	return r.Status == StatusOK
}

type HealthReporter struct {
	log       *slog.Logger
	storage   Pinger
	process   *process.Process
	startedAt time.Time
}

func NewHealthReporter(log *slog.Logger, storage Pinger) *HealthReporter {
	h := &HealthReporter{log: log, storage: storage, startedAt: time.Now()}
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Process metrics unavailable", "error", err)
	} else {
		h.process = p
	}
	return h
}

// Report never fails: a storage error degrades the status and missing
// process metrics are left at zero.
func (h *HealthReporter) Report(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:        StatusOK,
		Storage:       storageUp,
		PID:           int32(os.Getpid()),
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
	}

	if err := h.storage.Ping(ctx); err != nil {
		h.log.Error("Storage ping failed", "error", err)
		report.Status = StatusDegraded
		report.Storage = storageDown
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	report.AllocMemMb = m.Alloc / 1024 / 1024
	report.NumGC = m.NumGC

	if h.process != nil {
		rss, cpu, err := selfStats(h.process)
		if err != nil {
			h.log.Debug("Failed to collect self stats", "error", err)
		} else {
			report.RSSBytes = rss
			report.CPUPercent = cpu
		}
	}
	return report
}

func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
