package probe

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// walkCycle follows links from start and returns the visited slots in order,
// stopping when it returns to start or after limit steps.
func walkCycle(slots []uint32, start uint32, limit int) []uint32 {
	seen := []uint32{start}
	for curr := slots[start]; curr != start && len(seen) <= limit; curr = slots[curr] {
		seen = append(seen, curr)
	}
	return seen
}

func newTestProber(seed int64, slots int) *Prober {
	return New(NewArena(slots), rand.New(rand.NewSource(seed)), &ChaseTimer{Steps: 1 << 10})
}

func TestStrideChainSingleCycle(t *testing.T) {
	p := newTestProber(1, 1<<20)
	defer p.Arena().Close()

	for _, stride := range []int{4, 64, 1024, 4096, 32768} {
		for spots := 1; spots <= 40; spots++ {
			n, err := p.StrideChain(spots, stride)
			require.NoError(t, err)
			require.Equal(t, spots, n)

			want := map[uint32]bool{}
			for i := 0; i < spots; i++ {
				want[uint32(i*stride/ElemSize)] = true
			}
			for start := range want {
				seen := walkCycle(p.Arena().Slots(), start, spots)
				require.Len(t, seen, spots, "stride %d spots %d start %d", stride, spots, start)
				got := map[uint32]bool{}
				for _, s := range seen {
					got[s] = true
				}
				assert.Equal(t, want, got)
			}
		}
	}
}

func TestStrideChainZeroSpots(t *testing.T) {
	p := newTestProber(2, 1<<10)
	defer p.Arena().Close()

	n, err := p.StrideChain(0, 64)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, uint32(0), p.Arena().Slots()[0])
}

func TestStrideChainErrors(t *testing.T) {
	p := newTestProber(3, 1<<10)
	defer p.Arena().Close()

	_, err := p.StrideChain(4, 2)
	assert.ErrorIs(t, err, ErrStride)

	_, err = p.StrideChain(32, 1<<12)
	assert.ErrorIs(t, err, ErrArenaTooSmall)
}

func TestLineChainLayout(t *testing.T) {
	p := newTestProber(4, 1<<22)
	defer p.Arena().Close()

	const (
		assoc    = 8
		capacity = 32768
		offset   = capacity / assoc
	)
	for line := 32; line <= offset; line *= 2 {
		n, err := p.LineChain(assoc, capacity, line)
		require.NoError(t, err)
		require.Equal(t, capacity/ElemSize, n, "line %d", line)

		seen := walkCycle(p.Arena().Slots(), 0, n)
		require.Len(t, seen, n, "line %d", line)

		distinct := map[uint32]bool{}
		for _, s := range seen {
			byteAddr := int(s) * ElemSize
			idx := (byteAddr % offset) / line
			tag := byteAddr/offset - idx*assoc
			assert.GreaterOrEqual(t, tag, 0)
			assert.Less(t, tag, assoc)
			distinct[s] = true
		}
		assert.Len(t, distinct, n)
	}
}

func TestLineChainErrors(t *testing.T) {
	p := newTestProber(5, 1<<12)
	defer p.Arena().Close()

	cases := []struct {
		name                  string
		assoc, capacity, line int
		want                  error
	}{
		{"zero assoc", 0, 32768, 64, ErrGeometry},
		{"uneven capacity", 3, 32768, 64, ErrGeometry},
		{"line wider than way", 8, 32768, 8192, ErrGeometry},
		{"line below slot", 8, 32768, 2, ErrGeometry},
		{"too big", 8, 32768, 32, ErrArenaTooSmall},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.LineChain(tc.assoc, tc.capacity, tc.line)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestChaseTimerMeasure(t *testing.T) {
	p := newTestProber(6, 1<<16)
	defer p.Arena().Close()

	n, err := p.StrideChain(16, 256)
	require.NoError(t, err)

	got := p.Measure(n)
	assert.False(t, math.IsNaN(got) || math.IsInf(got, 0))
	assert.GreaterOrEqual(t, got, 0.0)
}

func TestChaseTimerZeroSinkNeverZero(t *testing.T) {
	// A one-slot cycle always reads 0, so the sink stays zero.
	slots := []uint32{0}
	timer := &ChaseTimer{Steps: 1}
	got := timer.Measure(slots, 1)
	assert.Equal(t, uint32(0), timer.Sink())
	assert.Greater(t, got, 0.0)
}

func TestArenaClose(t *testing.T) {
	a := NewArena(1 << 12)
	assert.Equal(t, 1<<12, a.Len())
	require.NoError(t, a.Close())
	assert.Zero(t, a.Len())
	require.NoError(t, a.Close())
}
