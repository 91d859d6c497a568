// Package addrmap decomposes physical byte addresses into DRAM
// hierarchy coordinates. Three bit-slicing schemes are supported:
// ChRaBaRoCo, RoBaRaCoCh and MOP4CLXOR.
package addrmap

import (
	"fmt"

	"github.com/tinyrange/dramsim/internal/bitutil"
	"github.com/tinyrange/dramsim/internal/dram"
)

// Mapper writes the hierarchy coordinate of a translated request into
// its AddrVec field.
type Mapper interface {
	Apply(req *dram.Request)

	// AddrBits returns the per-level bit widths used by the scheme.
	AddrBits() []int
	// TxOffset returns the number of address bits below the
	// transaction granularity; they are discarded before decoding.
	TxOffset() int
}

// New builds the named mapping scheme for the given organization.
func New(scheme string, org dram.Organization) (Mapper, error) {
	base, err := newMapperBase(org)
	if err != nil {
		return nil, err
	}
	switch scheme {
	case "ChRaBaRoCo":
		return &chRaBaRoCo{base}, nil
	case "RoBaRaCoCh":
		return &roBaRaCoCh{base}, nil
	case "MOP4CLXOR":
		return &mop4CLXOR{base}, nil
	default:
		return nil, fmt.Errorf("addrmap: unknown scheme %q", scheme)
	}
}

// mapperBase holds the per-level geometry shared by all schemes.
type mapperBase struct {
	numLevels int
	addrBits  []int
	txOffset  int
	rowIdx    int
	colIdx    int
}

func newMapperBase(org dram.Organization) (mapperBase, error) {
	if len(org.Levels) == 0 || len(org.Levels) != len(org.Counts) {
		return mapperBase{}, fmt.Errorf("addrmap: organization has %d levels but %d counts", len(org.Levels), len(org.Counts))
	}

	rowIdx, ok := org.LevelIndex("row")
	if !ok {
		return mapperBase{}, fmt.Errorf("addrmap: organization has no %q level, cannot use linear mapping", "row")
	}

	numLevels := len(org.Counts)
	addrBits := make([]int, numLevels)
	for i, count := range org.Counts {
		addrBits[i] = bitutil.Log2(uint64(count))
	}

	// The column is addressed at prefetch granularity.
	addrBits[numLevels-1] -= bitutil.Log2(uint64(org.InternalPrefetchSize))

	txBytes := org.InternalPrefetchSize * org.ChannelWidth / 8
	return mapperBase{
		numLevels: numLevels,
		addrBits:  addrBits,
		txOffset:  bitutil.Log2(uint64(txBytes)),
		rowIdx:    rowIdx,
		colIdx:    numLevels - 1,
	}, nil
}

func (m *mapperBase) AddrBits() []int {
	bits := make([]int, len(m.addrBits))
	copy(bits, m.addrBits)
	return bits
}

func (m *mapperBase) TxOffset() int { return m.txOffset }

func (m *mapperBase) newAddrVec() []int {
	vec := make([]int, m.numLevels)
	for i := range vec {
		vec[i] = -1
	}
	return vec
}

// chRaBaRoCo extracts the levels in order from the most significant
// bits down, so the column occupies the low bits and the channel the
// high bits.
type chRaBaRoCo struct{ mapperBase }

func (m *chRaBaRoCo) Apply(req *dram.Request) {
	req.AddrVec = m.newAddrVec()
	addr := req.Addr >> m.txOffset
	for i := m.numLevels - 1; i >= 0; i-- {
		req.AddrVec[i] = int(bitutil.SliceLowBits(&addr, m.addrBits[i]))
	}
}

// roBaRaCoCh strides consecutive transactions across channels first,
// then columns, and leaves the row in the high bits.
type roBaRaCoCh struct{ mapperBase }

func (m *roBaRaCoCh) Apply(req *dram.Request) {
	req.AddrVec = m.newAddrVec()
	addr := req.Addr >> m.txOffset

	req.AddrVec[0] = int(bitutil.SliceLowBits(&addr, m.addrBits[0]))
	req.AddrVec[m.colIdx] = int(bitutil.SliceLowBits(&addr, m.addrBits[m.colIdx]))
	for i := 1; i <= m.rowIdx; i++ {
		req.AddrVec[i] = int(bitutil.SliceLowBits(&addr, m.addrBits[i]))
	}
}

// mop4CLXOR interleaves at a 4-column granularity and XOR-hashes the
// lower levels with column bits to spread row-buffer conflicts.
type mop4CLXOR struct{ mapperBase }

func (m *mop4CLXOR) Apply(req *dram.Request) {
	req.AddrVec = m.newAddrVec()
	addr := req.Addr >> m.txOffset

	req.AddrVec[m.colIdx] = int(bitutil.SliceLowBits(&addr, 2))
	for lvl := 0; lvl < m.rowIdx; lvl++ {
		req.AddrVec[lvl] = int(bitutil.SliceLowBits(&addr, m.addrBits[lvl]))
	}
	req.AddrVec[m.colIdx] += int(bitutil.SliceLowBits(&addr, m.addrBits[m.colIdx]-2)) << 2
	req.AddrVec[m.rowIdx] = int(addr)

	rowXorIndex := 0
	for lvl := 0; lvl < m.colIdx; lvl++ {
		if m.addrBits[lvl] > 0 {
			mask := (req.AddrVec[m.colIdx] >> rowXorIndex) & (1<<m.addrBits[lvl] - 1)
			req.AddrVec[lvl] ^= mask
			rowXorIndex += m.addrBits[lvl]
		}
	}
}
