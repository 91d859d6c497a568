package memsys

import "github.com/tinyrange/dramsim/internal/dram"

// QueueController is a minimal channel controller: a bounded queue
// that drains a fixed number of requests per tick. It models
// backpressure, not DRAM timing.
type QueueController struct {
	id           int
	depth        int
	drainPerTick int

	pending int
	served  uint64
}

// NewQueueController builds a controller for channel id with the given
// queue depth and per-tick drain rate.
func NewQueueController(id, depth, drainPerTick int) *QueueController {
	if depth <= 0 {
		depth = 32
	}
	if drainPerTick <= 0 {
		drainPerTick = 1
	}
	return &QueueController{id: id, depth: depth, drainPerTick: drainPerTick}
}

func (c *QueueController) ChannelID() int { return c.id }

// Send enqueues the request, refusing when the queue is full.
func (c *QueueController) Send(req *dram.Request) bool {
	if c.pending >= c.depth {
		return false
	}
	c.pending++
	return true
}

// Served returns the number of requests drained so far.
func (c *QueueController) Served() uint64 { return c.served }

// Tick drains up to drainPerTick queued requests.
func (c *QueueController) Tick() {
	for i := 0; i < c.drainPerTick && c.pending > 0; i++ {
		c.pending--
		c.served++
	}
}
