// Package telemetry collects host system information for inclusion in the
// outbound heartbeat payload. Collection is best-effort: any category that
// fails to read is omitted rather than aborting the whole snapshot.
package telemetry

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/ianremillard/wrangler/internal/agentlog"
	"github.com/ianremillard/wrangler/internal/proto"
)

var log = agentlog.For("telemetry")

const collectTimeout = 2 * time.Second

// Provider returns a fresh SystemInfo. The default implementation is
// gopsutilProvider; tests inject a fake to avoid depending on host state.
type Provider interface {
	Collect() proto.SystemInfo
}

// OSInfo is the "os" category of a SystemInfo snapshot.
type OSInfo struct {
	GOOS string `json:"goos"`
	Arch string `json:"arch"`
}

// CPUInfo is the "cpu" category.
type CPUInfo struct {
	Percent []float64 `json:"percent"`
	Cores   int       `json:"cores"`
}

// LoadInfo is the "load" category, Unix-only; nil on platforms gopsutil
// cannot read load averages from.
type LoadInfo struct {
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

// MemoryInfo is the "memory" category.
type MemoryInfo struct {
	TotalBytes  uint64  `json:"totalBytes"`
	UsedBytes   uint64  `json:"usedBytes"`
	UsedPercent float64 `json:"usedPercent"`
}

// DiskInfo is one entry in the "disks" category.
type DiskInfo struct {
	Path        string  `json:"path"`
	TotalBytes  uint64  `json:"totalBytes"`
	UsedBytes   uint64  `json:"usedBytes"`
	UsedPercent float64 `json:"usedPercent"`
}

// gopsutilProvider is the production Provider.
type gopsutilProvider struct {
	diskPath string
}

// New returns a Provider backed by gopsutil, reading disk usage at diskPath
// (typically "/" or the agent's working directory's volume).
func New(diskPath string) Provider {
	return &gopsutilProvider{diskPath: diskPath}
}

func (p *gopsutilProvider) Collect() proto.SystemInfo {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	info := proto.SystemInfo{
		OS: OSInfo{GOOS: runtime.GOOS, Arch: runtime.GOARCH},
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		log.Warn().Err(err).Msg("cpu percent unavailable")
	} else {
		info.CPU = CPUInfo{Percent: percents, Cores: runtime.NumCPU()}
	}

	if avg, err := load.AvgWithContext(ctx); err != nil {
		log.Debug().Err(err).Msg("load average unavailable")
	} else {
		info.Load = LoadInfo{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		log.Warn().Err(err).Msg("memory stats unavailable")
	} else {
		info.Memory = MemoryInfo{
			TotalBytes:  vm.Total,
			UsedBytes:   vm.Used,
			UsedPercent: vm.UsedPercent,
		}
	}

	if usage, err := disk.UsageWithContext(ctx, p.diskPath); err != nil {
		log.Warn().Err(err).Str("path", p.diskPath).Msg("disk usage unavailable")
	} else {
		info.Disks = []DiskInfo{{
			Path:        p.diskPath,
			TotalBytes:  usage.Total,
			UsedBytes:   usage.Used,
			UsedPercent: usage.UsedPercent,
		}}
	}

	return info
}
