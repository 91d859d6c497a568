// Package sim drives the simulation: each tick advances one request
// attempt through translate, top-cache check and dispatch, or stalls
// and retries the same record on the next tick.
package sim

import (
	"fmt"

	"github.com/tinyrange/dramsim/internal/dram"
	"github.com/tinyrange/dramsim/internal/memsys"
	"github.com/tinyrange/dramsim/internal/tracefile"
	"github.com/tinyrange/dramsim/internal/translate"
)

// Frontend replays a loaded trace against the translation engine and
// the memory system.
type Frontend struct {
	records []tracefile.Record
	clocked bool

	translator *translate.Engine
	mem        *memsys.System

	cursor int
	clk    uint64
	ticks  uint64
}

// New builds a frontend over the loaded trace. Source ids must fit the
// core count of the latency table.
func New(trace *tracefile.Trace, translator *translate.Engine, mem *memsys.System) (*Frontend, error) {
	for i, rec := range trace.Records {
		if rec.SourceID >= translate.NumCores {
			return nil, fmt.Errorf("sim: record %d has source id %d, want [0, %d)", i+1, rec.SourceID, translate.NumCores)
		}
	}
	return &Frontend{
		records:    trace.Records,
		clocked:    trace.Clocked,
		translator: translator,
		mem:        mem,
	}, nil
}

// Tick advances one request attempt. The cursor only moves when the
// memory system accepts the request; a refused send is retried on the
// next tick. A failed translation silently skips the record.
func (f *Frontend) Tick() {
	f.ticks++
	if f.Finished() {
		return
	}

	rec := f.records[f.cursor]
	if f.clocked && rec.Clock > f.clk {
		f.clk++
		return
	}

	req := dram.NewRequest(rec.Addr, rec.Kind, rec.SourceID)
	if !f.translator.Translate(req) {
		f.cursor++
		return
	}

	if !f.mem.Send(req) {
		return
	}
	f.cursor++

	if f.clocked {
		// Records sharing a clock all issue in the same cycle.
		if f.cursor < len(f.records) && f.records[f.cursor].Clock == f.clk {
			return
		}
		f.clk++
	}
}

// Finished reports whether the whole trace has been consumed.
func (f *Frontend) Finished() bool { return f.cursor >= len(f.records) }

// Cursor returns the index of the next record to issue.
func (f *Frontend) Cursor() int { return f.cursor }

// Ticks returns the number of Tick calls so far.
func (f *Frontend) Ticks() uint64 { return f.ticks }
