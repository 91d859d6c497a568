// Package pagepool tracks free physical pages, partitioned per DRAM
// channel. Allocation draws uniformly random pages inside a partition;
// an exhausted partition evicts a random victim page.
package pagepool

import (
	"fmt"
	"math/rand/v2"
)

// maxRandomProbes bounds the random draw loop before falling back to a
// sequential scan.
const maxRandomProbes = 64

// Allocation is the result of AllocateOn. When the partition was full,
// Evicted is set and VictimPPN names the page that was reclaimed; the
// caller owns erasing the victim's page-table entries.
type Allocation struct {
	PPN       uint64
	Evicted   bool
	VictimPPN uint64
}

// Pool is the partitioned free-page allocator. Partition c owns the
// physical page numbers [c*PagesPerChannel, (c+1)*PagesPerChannel).
type Pool struct {
	rng        *rand.Rand
	perChannel uint64
	free       [][]bool
	freeCount  []uint64
}

// New builds a pool of totalPages pages split evenly across
// numChannels partitions. The RNG is seeded deterministically.
func New(totalPages uint64, numChannels int, seed uint64) (*Pool, error) {
	if numChannels <= 0 {
		return nil, fmt.Errorf("pagepool: need at least one channel, got %d", numChannels)
	}
	perChannel := totalPages / uint64(numChannels)
	if perChannel == 0 {
		return nil, fmt.Errorf("pagepool: %d pages cannot be split across %d channels", totalPages, numChannels)
	}

	p := &Pool{
		rng:        rand.New(rand.NewPCG(seed, seed)),
		perChannel: perChannel,
		free:       make([][]bool, numChannels),
		freeCount:  make([]uint64, numChannels),
	}
	for ch := range p.free {
		p.free[ch] = make([]bool, perChannel)
		for i := range p.free[ch] {
			p.free[ch][i] = true
		}
		p.freeCount[ch] = perChannel
	}
	return p, nil
}

// Channels returns the number of partitions.
func (p *Pool) Channels() int { return len(p.free) }

// PagesPerChannel returns the size of each partition.
func (p *Pool) PagesPerChannel() uint64 { return p.perChannel }

// FreeCount returns the number of free pages in channel ch.
func (p *Pool) FreeCount(ch int) uint64 { return p.freeCount[ch] }

// ChannelOf returns the partition owning ppn.
func (p *Pool) ChannelOf(ppn uint64) int { return int(ppn / p.perChannel) }

// AllocateOn returns a free page from channel ch, evicting a random
// victim page first when the partition is exhausted.
func (p *Pool) AllocateOn(ch int) Allocation {
	if p.freeCount[ch] == 0 {
		victim := p.rng.Uint64N(p.perChannel) + uint64(ch)*p.perChannel
		p.free[ch][victim%p.perChannel] = true
		p.freeCount[ch]++
		return Allocation{PPN: p.takeFree(ch), Evicted: true, VictimPPN: victim}
	}
	return Allocation{PPN: p.takeFree(ch)}
}

// Free returns ppn to its owning partition.
func (p *Pool) Free(ppn uint64) {
	ch := p.ChannelOf(ppn)
	off := ppn % p.perChannel
	if !p.free[ch][off] {
		p.free[ch][off] = true
		p.freeCount[ch]++
	}
}

// takeFree claims a random free page in channel ch. The caller must
// ensure freeCount[ch] > 0.
func (p *Pool) takeFree(ch int) uint64 {
	base := uint64(ch) * p.perChannel
	for range maxRandomProbes {
		off := p.rng.Uint64N(p.perChannel)
		if p.free[ch][off] {
			p.free[ch][off] = false
			p.freeCount[ch]--
			return base + off
		}
	}

	// Sequential fallback from a random start.
	start := p.rng.Uint64N(p.perChannel)
	for i := uint64(0); i < p.perChannel; i++ {
		off := (start + i) % p.perChannel
		if p.free[ch][off] {
			p.free[ch][off] = false
			p.freeCount[ch]--
			return base + off
		}
	}

	panic(fmt.Sprintf("pagepool: free count for channel %d out of sync with bitmap", ch))
}
