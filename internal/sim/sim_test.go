package sim

import (
	"testing"

	"github.com/tinyrange/dramsim/internal/addrmap"
	"github.com/tinyrange/dramsim/internal/dram"
	"github.com/tinyrange/dramsim/internal/memsys"
	"github.com/tinyrange/dramsim/internal/topcache"
	"github.com/tinyrange/dramsim/internal/tracefile"
	"github.com/tinyrange/dramsim/internal/translate"
)

func testStack(t *testing.T, cacheSize int) (*translate.Engine, *memsys.System) {
	t.Helper()

	engine, err := translate.New(translate.Config{
		Seed:             123,
		MaxAddr:          4096 * translate.NumChannels * 64,
		PageSize:         4096,
		HotPageThreshold: 1000,
		WindowSize:       1 << 20,
		CooldownWindows:  2,
		BandwidthGBps:    153.0,
	})
	if err != nil {
		t.Fatalf("translate.New: %v", err)
	}

	org := dram.DefaultOrganization()
	mapper, err := addrmap.New("RoBaRaCoCh", org)
	if err != nil {
		t.Fatalf("addrmap.New: %v", err)
	}

	controllers := make([]memsys.Controller, org.LevelSize("channel"))
	for i := range controllers {
		controllers[i] = memsys.NewQueueController(i, 32, 1)
	}
	mem, err := memsys.New(mapper, topcache.New(cacheSize), controllers)
	if err != nil {
		t.Fatalf("memsys.New: %v", err)
	}
	return engine, mem
}

func TestRunsTraceToCompletion(t *testing.T) {
	trace := &tracefile.Trace{Records: []tracefile.Record{
		{Kind: dram.Read, Addr: 1 << 12, SourceID: 0},
		{Kind: dram.Write, Addr: 2 << 12, SourceID: 1},
		{Kind: dram.Read, Addr: 3 << 12, SourceID: 2},
	}}

	engine, mem := testStack(t, 4)
	f, err := New(trace, engine, mem)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 100 && !f.Finished(); i++ {
		f.Tick()
		mem.Tick()
	}
	if !f.Finished() {
		t.Fatal("trace did not finish within 100 ticks")
	}

	stats := mem.Stats()
	if stats.ReadRequests != 2 || stats.WriteRequests != 1 {
		t.Fatalf("read/write = %d/%d, want 2/1", stats.ReadRequests, stats.WriteRequests)
	}
}

func TestCachedRequestIsRetriedAtFrontend(t *testing.T) {
	// With a one-entry cache the second access to VPN 1 is absorbed;
	// the send is never accepted, so the producer keeps retrying it.
	trace := &tracefile.Trace{Records: []tracefile.Record{
		{Kind: dram.Read, Addr: 1 << 12, SourceID: 0},
		{Kind: dram.Read, Addr: 1 << 12, SourceID: 0},
	}}

	engine, mem := testStack(t, 1)
	f, err := New(trace, engine, mem)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 10 && !f.Finished(); i++ {
		f.Tick()
		mem.Tick()
	}
	if f.Finished() {
		t.Fatal("absorbed request advanced the cursor; it must retry forever at the frontend")
	}
	if got := f.Cursor(); got != 1 {
		t.Fatalf("cursor = %d, want 1", got)
	}
	if mem.Stats().CacheHits == 0 {
		t.Fatal("expected top-cache hits")
	}
}

func TestClockedTraceWaitsForItsCycle(t *testing.T) {
	trace := &tracefile.Trace{
		Clocked: true,
		Records: []tracefile.Record{
			{Clock: 0, Kind: dram.Read, Addr: 1 << 12, SourceID: 0},
			{Clock: 0, Kind: dram.Read, Addr: 2 << 12, SourceID: 0},
			{Clock: 3, Kind: dram.Write, Addr: 3 << 12, SourceID: 1},
		},
	}

	engine, mem := testStack(t, 4)
	f, err := New(trace, engine, mem)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Two same-clock records issue back to back without advancing the
	// frontend clock between them.
	f.Tick()
	if f.Cursor() != 1 {
		t.Fatalf("cursor = %d after first tick, want 1", f.Cursor())
	}
	f.Tick()
	if f.Cursor() != 2 {
		t.Fatalf("cursor = %d after second tick, want 2", f.Cursor())
	}

	for i := 0; i < 20 && !f.Finished(); i++ {
		f.Tick()
		mem.Tick()
	}
	if !f.Finished() {
		t.Fatal("clocked trace did not finish")
	}
}

func TestRejectsOutOfRangeSourceID(t *testing.T) {
	trace := &tracefile.Trace{Records: []tracefile.Record{
		{Kind: dram.Read, Addr: 1 << 12, SourceID: translate.NumCores},
	}}

	engine, mem := testStack(t, 4)
	if _, err := New(trace, engine, mem); err == nil {
		t.Fatal("expected error for out-of-range source id")
	}
}
