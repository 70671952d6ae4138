package sysinfo

import (
	"context"
	"runtime"
	"testing"
)

func TestCollect(t *testing.T) {
	info := Collect(context.Background())

	if info.OS != runtime.GOOS {
		t.Errorf("OS mismatch: expected %s, got %s", runtime.GOOS, info.OS)
	}

	if info.Architecture != runtime.GOARCH {
		t.Errorf("Architecture mismatch: expected %s, got %s", runtime.GOARCH, info.Architecture)
	}

	if info.GoVersion != runtime.Version() {
		t.Errorf("Go version mismatch: expected %s, got %s", runtime.Version(), info.GoVersion)
	}

	if info.CPUCores != runtime.NumCPU() {
		t.Errorf("CPU cores mismatch: expected %d, got %d", runtime.NumCPU(), info.CPUCores)
	}
}

func TestMemoryGB(t *testing.T) {
	info := &HostInfo{TotalMemory: 2 * 1024 * 1024 * 1024}
	if got := info.MemoryGB(); got != 2 {
		t.Errorf("Expected 2 GB, got %.2f", got)
	}
}
