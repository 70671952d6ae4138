package sysinfo

import (
	"context"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostInfo describes the machine a round trip ran on.
type HostInfo struct {
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	Platform     string `json:"platform,omitempty"`
	Hostname     string `json:"hostname,omitempty"`
	CPUModel     string `json:"cpu_model,omitempty"`
	CPUCores     int    `json:"cpu_cores"`
	TotalMemory  uint64 `json:"total_memory,omitempty"`
	GoVersion    string `json:"go_version"`
}

// Collect gathers host details. Probes that fail leave their fields empty.
func Collect(ctx context.Context) *HostInfo {
	info := &HostInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		CPUCores:     runtime.NumCPU(),
		GoVersion:    runtime.Version(),
	}

	if cpuInfo, err := cpu.InfoWithContext(ctx); err == nil && len(cpuInfo) > 0 {
		info.CPUModel = strings.TrimSpace(cpuInfo[0].ModelName)
	}

	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.TotalMemory = memInfo.Total
	}

	if hostInfo, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = hostInfo.Hostname
		info.Platform = hostInfo.Platform
	}

	return info
}

// MemoryGB returns TotalMemory in GiB.
func (h *HostInfo) MemoryGB() float64 {
	return float64(h.TotalMemory) / (1024 * 1024 * 1024)
}
