// Package translate maps virtual pages to physical pages under a
// partitioned free-page allocator and periodically migrates hot pages
// toward the channel closest to the core that uses them most.
package translate

import (
	"fmt"
	"slices"

	"github.com/tinyrange/dramsim/internal/bitutil"
	"github.com/tinyrange/dramsim/internal/debug"
	"github.com/tinyrange/dramsim/internal/dram"
	"github.com/tinyrange/dramsim/internal/pagepool"
)

// futureAccessFactor scales a page's window access count into the
// predicted accesses used by the migration benefit estimate.
const futureAccessFactor = 1

// Config carries the translation options. MaxAddr, HotPageThreshold
// and WindowSize have no usable defaults and must be set.
type Config struct {
	Seed             uint64
	MaxAddr          uint64
	PageSize         uint64
	HotPageThreshold uint64
	WindowSize       uint64
	CooldownWindows  int
	BandwidthGBps    float64
}

// Engine owns the page tables, the per-window access histogram and the
// migration policy. It is single-threaded by design: the simulation
// loop is the only caller.
type Engine struct {
	pool *pagepool.Pool
	lat  *latencyTable

	maxAddr    uint64
	pageSize   uint64
	offsetBits int

	hotThreshold uint64
	windowSize   uint64
	cooldown     int
	costMicros   float64

	pageTable     map[uint64]uint64
	reverse       map[uint64]uint64
	channelOf     map[uint64]int
	accessCounts  map[uint64]map[int]uint64
	lastMigration map[uint64]int
	reserved      map[uint64]struct{}

	windowCounter int
	translations  uint64
	migrations    uint64
}

// New builds a translation engine over MaxAddr/PageSize physical
// pages, split evenly across the NumChannels partitions.
func New(cfg Config) (*Engine, error) {
	if cfg.PageSize == 0 || cfg.PageSize&(cfg.PageSize-1) != 0 {
		return nil, fmt.Errorf("translate: page size %d is not a power of two", cfg.PageSize)
	}
	if cfg.MaxAddr == 0 {
		return nil, fmt.Errorf("translate: max physical address is required")
	}
	if cfg.WindowSize == 0 {
		return nil, fmt.Errorf("translate: window size is required")
	}
	if cfg.BandwidthGBps <= 0 {
		return nil, fmt.Errorf("translate: bandwidth must be positive, got %g", cfg.BandwidthGBps)
	}

	pool, err := pagepool.New(cfg.MaxAddr/cfg.PageSize, NumChannels, cfg.Seed)
	if err != nil {
		return nil, err
	}

	return &Engine{
		pool:          pool,
		lat:           newLatencyTable(),
		maxAddr:       cfg.MaxAddr,
		pageSize:      cfg.PageSize,
		offsetBits:    bitutil.Log2(cfg.PageSize),
		hotThreshold:  cfg.HotPageThreshold,
		windowSize:    cfg.WindowSize,
		cooldown:      cfg.CooldownWindows,
		costMicros:    migrationCostMicros(cfg.PageSize, cfg.BandwidthGBps),
		pageTable:     make(map[uint64]uint64),
		reverse:       make(map[uint64]uint64),
		channelOf:     make(map[uint64]int),
		accessCounts:  make(map[uint64]map[int]uint64),
		lastMigration: make(map[uint64]int),
		reserved:      make(map[uint64]struct{}),
	}, nil
}

// migrationCostMicros is the time to copy one page at the given
// bandwidth, in microseconds.
func migrationCostMicros(pageSize uint64, bandwidthGBps float64) float64 {
	return float64(pageSize) / (bandwidthGBps * float64(uint64(1)<<30)) * 1e6
}

// Translate rewrites req.Addr from virtual to physical, allocating a
// page on the requesting core's best channel on first touch. Every
// WindowSize calls the migration pass runs first, so the request that
// trips the window boundary observes any mappings it produced.
func (e *Engine) Translate(req *dram.Request) bool {
	req.VAddr = req.Addr
	vpn := req.VAddr >> e.offsetBits
	req.VPage = vpn

	counts := e.accessCounts[vpn]
	if counts == nil {
		counts = make(map[int]uint64)
		e.accessCounts[vpn] = counts
	}
	counts[req.SourceID]++

	e.translations++
	if e.translations == e.windowSize {
		e.migratePages()
		e.translations = 0
	}

	if ppn, ok := e.pageTable[vpn]; ok {
		req.Addr = e.physAddr(ppn, req.VAddr)
		debug.Writef("translate", "vaddr=%#x vpn=%d ppn=%d", req.VAddr, vpn, ppn)
		return true
	}

	ch := e.lat.bestChannel(req.SourceID)
	ppn := e.allocate(ch)
	e.pageTable[vpn] = ppn
	e.reverse[ppn] = vpn
	e.channelOf[vpn] = ch

	req.Addr = e.physAddr(ppn, req.VAddr)
	debug.Writef("translate", "vaddr=%#x vpn=%d ppn=%d channel=%d (new)", req.VAddr, vpn, ppn, ch)
	return true
}

// Reserve marks the page holding addr as reserved.
func (e *Engine) Reserve(kind string, addr uint64) bool {
	e.reserved[addr>>e.offsetBits] = struct{}{}
	return true
}

// MaxAddr returns the maximum physical byte address.
func (e *Engine) MaxAddr() uint64 { return e.maxAddr }

// OffsetBits returns the page-offset width in bits.
func (e *Engine) OffsetBits() int { return e.offsetBits }

// Migrations returns the number of pages migrated so far.
func (e *Engine) Migrations() uint64 { return e.migrations }

// Windows returns the number of completed migration windows.
func (e *Engine) Windows() int { return e.windowCounter }

func (e *Engine) physAddr(ppn, vaddr uint64) uint64 {
	return ppn<<e.offsetBits | vaddr&(uint64(1)<<e.offsetBits-1)
}

// allocate claims a page on ch and erases the page-table entries of
// any mapping the pool evicted to make room.
func (e *Engine) allocate(ch int) uint64 {
	alloc := e.pool.AllocateOn(ch)
	if alloc.Evicted {
		if vpn, ok := e.reverse[alloc.VictimPPN]; ok {
			debug.Writef("translate", "evicted vpn=%d ppn=%d from channel %d", vpn, alloc.VictimPPN, ch)
			delete(e.pageTable, vpn)
			delete(e.channelOf, vpn)
			delete(e.reverse, alloc.VictimPPN)
		}
	}
	return alloc.PPN
}

// migratePages moves hot pages toward the channel preferred by their
// dominant core when the predicted latency saving beats the copy cost.
// The pass walks pages in VPN order so runs are reproducible for a
// given seed and trace.
func (e *Engine) migratePages() {
	vpns := make([]uint64, 0, len(e.pageTable))
	for vpn := range e.pageTable {
		vpns = append(vpns, vpn)
	}
	slices.Sort(vpns)

	for _, vpn := range vpns {
		if _, ok := e.pageTable[vpn]; !ok {
			// Evicted by an earlier migration in this pass.
			continue
		}
		if vpn == 0 {
			continue
		}
		if e.totalAccesses(vpn) < e.hotThreshold {
			continue
		}

		core := e.hottestCore(vpn)
		best := e.lat.bestChannel(core)
		current := e.channelOf[vpn]
		if best == current {
			continue
		}

		if last, ok := e.lastMigration[vpn]; ok && e.windowCounter-last < e.cooldown {
			debug.Writef("migrate", "vpn=%d cooling down since window %d", vpn, last)
			continue
		}

		gain := e.latencyGain(vpn, core) / 1000
		if gain <= e.costMicros {
			debug.Writef("migrate", "vpn=%d not beneficial: gain=%g cost=%g", vpn, gain, e.costMicros)
			continue
		}

		oldPPN := e.pageTable[vpn]
		newPPN := e.allocate(best)
		e.pool.Free(oldPPN)
		delete(e.reverse, oldPPN)

		e.pageTable[vpn] = newPPN
		e.reverse[newPPN] = vpn
		e.channelOf[vpn] = best
		e.lastMigration[vpn] = e.windowCounter
		e.migrations++
		debug.Writef("migrate", "vpn=%d moved %d -> %d in window %d", vpn, current, best, e.windowCounter)
	}

	e.windowCounter++
	e.accessCounts = make(map[uint64]map[int]uint64)
}

// totalAccesses sums the current window's accesses to vpn across all
// cores.
func (e *Engine) totalAccesses(vpn uint64) uint64 {
	var total uint64
	for _, count := range e.accessCounts[vpn] {
		total += count
	}
	return total
}

// hottestCore returns the core with the most accesses to vpn this
// window, ties broken by lowest core id.
func (e *Engine) hottestCore(vpn uint64) int {
	counts := e.accessCounts[vpn]
	core := 0
	var max uint64
	for c := 0; c < NumCores; c++ {
		if counts[c] > max {
			max = counts[c]
			core = c
		}
	}
	return core
}

// latencyGain estimates the saving from moving vpn to core's best
// channel, doubled for the round trip and scaled by the predicted
// future accesses.
func (e *Engine) latencyGain(vpn uint64, core int) float64 {
	current := e.channelOf[vpn]
	best := e.lat.bestChannel(core)

	predicted := e.accessCounts[vpn][core] * futureAccessFactor
	return float64(e.lat.latency(core, current)-e.lat.latency(core, best)) * 2 * float64(predicted)
}
