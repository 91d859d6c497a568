// Package memsys routes translated requests into the DRAM hierarchy:
// requests for top-cached pages are absorbed, everything else is
// decoded and dispatched to the owning channel's controller.
package memsys

import (
	"fmt"

	"github.com/tinyrange/dramsim/internal/addrmap"
	"github.com/tinyrange/dramsim/internal/debug"
	"github.com/tinyrange/dramsim/internal/dram"
	"github.com/tinyrange/dramsim/internal/topcache"
)

// Controller is the per-channel DRAM controller contract. The timing
// model behind it is out of scope here; Send reports whether the
// request was accepted this tick.
type Controller interface {
	ChannelID() int
	Send(req *dram.Request) bool
	Tick()
}

// Stats are the request counters reported at shutdown.
type Stats struct {
	ReadRequests  uint64
	WriteRequests uint64
	OtherRequests uint64
	CacheHits     uint64
	Cycles        uint64
}

// System is the memory-system front door.
type System struct {
	mapper      addrmap.Mapper
	cache       *topcache.Cache
	controllers []Controller

	clk   uint64
	stats Stats
}

// New wires a mapper, the top cache and one controller per channel.
// Controllers must be ordered by channel id.
func New(mapper addrmap.Mapper, cache *topcache.Cache, controllers []Controller) (*System, error) {
	if len(controllers) == 0 {
		return nil, fmt.Errorf("memsys: need at least one controller")
	}
	for i, c := range controllers {
		if c.ChannelID() != i {
			return nil, fmt.Errorf("memsys: controller at index %d reports channel %d", i, c.ChannelID())
		}
	}
	return &System{mapper: mapper, cache: cache, controllers: controllers}, nil
}

// Send accounts and routes one translated request. It returns false
// when the producer must retry next tick — either the channel
// controller refused the request, or the page is in the top cache and
// the request was absorbed.
func (s *System) Send(req *dram.Request) bool {
	vpn := req.VPage
	s.cache.Access(vpn)

	if s.cache.Contains(vpn) {
		debug.Writef("memsys", "vpn=%d served from top cache", vpn)
		s.stats.CacheHits++
		s.countRequest(req.Kind)
		return false
	}
	s.cache.Update(vpn)

	s.mapper.Apply(req)
	ch := req.AddrVec[0]
	if ch < 0 || ch >= len(s.controllers) {
		debug.Writef("memsys", "addr=%#x decoded to unknown channel %d", req.Addr, ch)
		return false
	}

	ok := s.controllers[ch].Send(req)
	if ok {
		s.countRequest(req.Kind)
	}
	return ok
}

// Tick advances the memory clock and all channel controllers.
func (s *System) Tick() {
	s.clk++
	for _, c := range s.controllers {
		c.Tick()
	}
}

// Stats returns a snapshot of the counters.
func (s *System) Stats() Stats {
	stats := s.stats
	stats.Cycles = s.clk
	return stats
}

func (s *System) countRequest(kind dram.RequestKind) {
	switch kind {
	case dram.Read:
		s.stats.ReadRequests++
	case dram.Write:
		s.stats.WriteRequests++
	default:
		s.stats.OtherRequests++
	}
}
