package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"
)

// MemoryStats holds memory usage of the running parse
type MemoryStats struct {
	HeapAllocMB  float64 // currently allocated heap memory (MB)
	HeapSysMB    float64 // total heap memory from OS (MB)
	NumGoroutine int

	RSSMB float64 // resident set size, physical memory actually used (MB)
	VMSMB float64 // virtual memory size (MB)
}

// GetMemoryStats returns runtime and OS-level memory usage for this process.
// Works without CGO on all platforms gopsutil supports.
func GetMemoryStats() (*MemoryStats, error) {
	stats := &MemoryStats{}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats.HeapAllocMB = float64(m.Alloc) / 1024 / 1024
	stats.HeapSysMB = float64(m.Sys) / 1024 / 1024
	stats.NumGoroutine = runtime.NumGoroutine()

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return stats, err // runtime stats are still usable
	}

	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return stats, err
	}

	stats.RSSMB = float64(memInfo.RSS) / 1024 / 1024
	stats.VMSMB = float64(memInfo.VMS) / 1024 / 1024

	return stats, nil
}

// String returns a formatted one-line view of memory stats
func (m *MemoryStats) String() string {
	return fmt.Sprintf("RSS=%.1fMB VMS=%.1fMB HeapAlloc=%.1fMB HeapSys=%.1fMB Goroutines=%d",
		m.RSSMB, m.VMSMB, m.HeapAllocMB, m.HeapSysMB, m.NumGoroutine)
}

func GetMemoryStatsString() string {
	stats, err := GetMemoryStats()
	if err != nil {
		return fmt.Sprintf("Error getting memory stats: %v", err)
	}
	return stats.String()
}
