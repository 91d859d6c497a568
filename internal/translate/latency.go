package translate

// NumCores and NumChannels fix the size of the core-to-channel latency
// matrix. The page pool is partitioned into NumChannels partitions.
const (
	NumCores    = 8
	NumChannels = 8
)

// latencyPattern gives the access latency at each core/channel
// distance; distances of 5 and above mirror back down.
var latencyPattern = [5]int{20, 30, 60, 100, 130}

// latencyTable is the static core-to-channel latency matrix with the
// argmin channel precomputed per core.
type latencyTable struct {
	matrix [NumCores][NumChannels]int
	best   [NumCores]int
}

func newLatencyTable() *latencyTable {
	var t latencyTable
	for core := 0; core < NumCores; core++ {
		for ch := 0; ch < NumChannels; ch++ {
			offset := core - ch
			if offset < 0 {
				offset = -offset
			}
			if offset >= len(latencyPattern) {
				offset = NumChannels - offset
			}
			t.matrix[core][ch] = latencyPattern[offset]
		}

		best := 0
		for ch := 1; ch < NumChannels; ch++ {
			if t.matrix[core][ch] < t.matrix[core][best] {
				best = ch
			}
		}
		t.best[core] = best
	}
	return &t
}

// bestChannel returns the lowest-latency channel for core, ties broken
// by lowest channel id.
func (t *latencyTable) bestChannel(core int) int { return t.best[core] }

func (t *latencyTable) latency(core, ch int) int { return t.matrix[core][ch] }
