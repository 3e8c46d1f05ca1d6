package host

import (
	"context"
	"sync"
	"time"

	"sysinfo-agent/internal/system"
)

type fakeProvider struct {
	mu      sync.Mutex
	cpu     []float64
	vm      system.Fields
	swap    system.Fields
	net     map[string]system.NetCounters
	disk    map[string]system.DiskCounters
	netErr  error
	cpuHits int
}

func newFakeProvider() *fakeProvider {
	vm := system.Fields{}
	for _, name := range system.VirtualMemoryFieldNames() {
		vm[name] = 1024
	}
	vm["percent"] = 42.5
	swap := system.Fields{}
	for _, name := range system.SwapFieldNames() {
		swap[name] = 0
	}
	return &fakeProvider{
		cpu:  []float64{10, 20},
		vm:   vm,
		swap: swap,
		net:  map[string]system.NetCounters{},
		disk: map[string]system.DiskCounters{},
	}
}

func (p *fakeProvider) setNet(net map[string]system.NetCounters) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.net = net
}

func (p *fakeProvider) setDisk(disk map[string]system.DiskCounters) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disk = disk
}

func (p *fakeProvider) CPUPercentPerCore(context.Context) ([]float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cpuHits++
	return append([]float64(nil), p.cpu...), nil
}

func (p *fakeProvider) VirtualMemory(context.Context) (system.Fields, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyFields(p.vm), nil
}

func (p *fakeProvider) Swap(context.Context) (system.Fields, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyFields(p.swap), nil
}

func (p *fakeProvider) NetCounters(context.Context) (map[string]system.NetCounters, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.netErr != nil {
		return nil, p.netErr
	}
	out := make(map[string]system.NetCounters, len(p.net))
	for k, v := range p.net {
		out[k] = v
	}
	return out, nil
}

func (p *fakeProvider) DiskCounters(context.Context) (map[string]system.DiskCounters, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]system.DiskCounters, len(p.disk))
	for k, v := range p.disk {
		out[k] = v
	}
	return out, nil
}

func copyFields(in system.Fields) system.Fields {
	out := make(system.Fields, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// fakeClock returns the configured instant until advanced.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
