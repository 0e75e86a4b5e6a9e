package main

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"l1probe/internal/cachesim"
	"l1probe/internal/detect"
	"l1probe/internal/probe"
)

func detectModel(t *testing.T, seed int64, rec *recorder) (detect.Geometry, error) {
	arena := probe.NewArena(probe.DefaultSlots)
	t.Cleanup(func() { arena.Close() })

	p := probe.New(arena, rand.New(rand.NewSource(seed)), cachesim.ConflictModel{Config: cachesim.DefaultL1D()})
	d := detect.New(p, detect.DefaultConfig())
	if rec != nil {
		d.Trace = rec.add
	}
	return d.Run()
}

func TestEndToEndOutput(t *testing.T) {
	g, err := detectModel(t, 1, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	printGeometry(&out, g)
	assert.Equal(t, " - Cache size: 32768\n - Associativity: 8\n - Line size: 64\n", out.String())
}

func TestPrintUnknownGeometry(t *testing.T) {
	var out bytes.Buffer
	printGeometry(&out, detect.Geometry{})
	assert.Equal(t, " - Cache size: 0\n - Associativity: 0\n - Line size: 0\n", out.String())
}

func TestRecorderVerbose(t *testing.T) {
	var out bytes.Buffer
	rec := &recorder{verbose: true, out: &out}
	rec.add(detect.Sample{Phase: probe.PhaseAssociativity, Stride: 4096, Spots: 8, Latency: 1})
	rec.add(detect.Sample{Phase: probe.PhaseLineSize, LineSize: 64, Spots: 8192, Latency: 4})

	assert.Contains(t, out.String(), "Stride: 4.0 KiB")
	assert.Contains(t, out.String(), "Line size: 64 B")
	assert.Empty(t, rec.samples)
}

func TestPlotSweeps(t *testing.T) {
	rec := &recorder{keep: true}
	_, err := detectModel(t, 2, rec)
	require.NoError(t, err)
	require.NotEmpty(t, rec.samples)

	prefix := filepath.Join(t.TempDir(), "sweep")
	require.NoError(t, plotSweeps(prefix, rec.samples))
	for _, name := range []string{prefix + "_assoc.png", prefix + "_line.png"} {
		info, err := os.Stat(name)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		64:      "64 B",
		1024:    "1.0 KiB",
		32768:   "32.0 KiB",
		1 << 23: "8.0 MiB",
		3 << 29: "1.5 GiB",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatBytes(in))
	}
}

func TestSizeTicks(t *testing.T) {
	ticks := SizeTicks{Sizes: []int{32, 64, 2048}}.Ticks(0, 0)
	require.Len(t, ticks, 3)
	assert.Equal(t, "2.0 KiB", ticks[2].Label)
	assert.Equal(t, 64.0, ticks[1].Value)
}
