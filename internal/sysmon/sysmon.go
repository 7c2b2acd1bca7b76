// ABOUTME: Host and per-process resource sampling for admin stats queries
// ABOUTME: Thin wrapper over gopsutil memory, cpu and process probes

package sysmon

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Sampler answers the admin console's resource queries. Stateless; every call
// takes a fresh sample.
type Sampler struct{}

// New creates a Sampler.
func New() *Sampler {
	return &Sampler{}
}

// TotalMemKB returns the memory currently in use on the host, in KB.
func (s *Sampler) TotalMemKB() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("sampling virtual memory: %w", err)
	}
	return vm.Used / 1024, nil
}

// MemoryNumbers returns total, used and free host memory in KB.
func (s *Sampler) MemoryNumbers() (total, used, free uint64, err error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("sampling virtual memory: %w", err)
	}
	return vm.Total / 1024, vm.Used / 1024, vm.Free / 1024, nil
}

// CPUPercent returns overall CPU utilization since the previous sample.
func (s *Sampler) CPUPercent() (float64, error) {
	pcts, err := cpu.Percent(0, false)
	if err != nil {
		return 0, fmt.Errorf("sampling cpu: %w", err)
	}
	if len(pcts) == 0 {
		return 0, nil
	}
	return pcts[0], nil
}

// ProcessMemKB returns the resident memory of the given process in KB.
// Satisfies registry.MemSampler.
func (s *Sampler) ProcessMemKB(pid int) (int64, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return 0, fmt.Errorf("looking up pid %d: %w", pid, err)
	}
	mi, err := p.MemoryInfo()
	if err != nil {
		return 0, fmt.Errorf("sampling pid %d memory: %w", pid, err)
	}
	return int64(mi.RSS / 1024), nil
}
