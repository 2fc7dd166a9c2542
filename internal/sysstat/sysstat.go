// Package sysstat periodically samples host CPU/memory usage for the
// diagnostic stream, grounded on the teacher's pkg/system (same
// gopsutil calls, trimmed of the disk-usage field this compositor has
// no use for).
package sysstat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/rhaberkorn/osc-graphics/internal/log"
)

// Status is a single CPU/RAM sample.
type Status struct {
	CPUPercent int
	RAMPercent int
}

type (
	cpuFunc func(context.Context, time.Duration, bool) ([]float64, error)
	ramFunc func() (*mem.VirtualMemoryStat, error)
)

// DumpToggler is the narrow interface Monitor needs to decide whether
// to log each sample: the same SetDump/Dump surface the F9 key and
// /osc/dump path act on. Depending on this instead of internal/osc
// keeps sysstat free of an import of the osc package.
type DumpToggler interface {
	Dump() bool
}

// Monitor samples host resource usage on an interval and exposes the
// last sample. Used by the OSC dump diagnostic (SPEC_FULL.md §6's
// /osc/dump path) and written to the log at a low rate.
type Monitor struct {
	cpu cpuFunc
	ram ramFunc

	interval time.Duration
	log      *log.Logger
	dump     DumpToggler

	mu     sync.Mutex
	status Status
}

// New returns a Monitor sampling every interval.
func New(interval time.Duration, logger *log.Logger) *Monitor {
	return &Monitor{
		cpu:      cpu.PercentWithContext,
		ram:      mem.VirtualMemory,
		interval: interval,
		log:      logger,
	}
}

// SetDumpSource wires the dump flag that gates the per-sample log line;
// without one, sampling still updates Status() but never logs.
func (m *Monitor) SetDumpSource(d DumpToggler) {
	m.dump = d
}

func (m *Monitor) sample(ctx context.Context) error {
	cpuPct, err := m.cpu(ctx, m.interval, false)
	if err != nil {
		return fmt.Errorf("cpu usage: %w", err)
	}
	ramStat, err := m.ram()
	if err != nil {
		return fmt.Errorf("ram usage: %w", err)
	}

	cp := 0
	if len(cpuPct) > 0 {
		cp = int(cpuPct[0])
	}

	m.mu.Lock()
	m.status = Status{CPUPercent: cp, RAMPercent: int(ramStat.UsedPercent)}
	m.mu.Unlock()

	if m.dump != nil && m.dump.Dump() {
		st := m.Status()
		m.log.Info().Src("sysstat").Msgf("cpu=%d%% ram=%d%%", st.CPUPercent, st.RAMPercent)
	}
	return nil
}

// Run samples on m.interval until ctx is canceled. Intended to run in
// its own goroutine for the process lifetime.
func (m *Monitor) Run(ctx context.Context) {
	for {
		if err := m.sample(ctx); err != nil {
			m.log.Warn().Src("sysstat").Msgf("sample failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.interval):
		}
	}
}

// Status returns the last successful sample.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}
