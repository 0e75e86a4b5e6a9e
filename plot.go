package main

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"l1probe/internal/detect"
	"l1probe/internal/probe"
)

// plotSweeps renders the mean latency of every sweep point, one chart per
// detection phase. Helpful for seeing what the detectors are seeing.
func plotSweeps(prefix string, samples []detect.Sample) error {
	byStride := make(map[int]map[int][]float64)
	byLine := make(map[int][]float64)
	for _, s := range samples {
		switch s.Phase {
		case probe.PhaseAssociativity:
			if byStride[s.Stride] == nil {
				byStride[s.Stride] = make(map[int][]float64)
			}
			byStride[s.Stride][s.Spots] = append(byStride[s.Stride][s.Spots], s.Latency)
		case probe.PhaseLineSize:
			byLine[s.LineSize] = append(byLine[s.LineSize], s.Latency)
		}
	}

	if err := plotAssociativity(prefix+"_assoc.png", byStride); err != nil {
		return err
	}
	return plotLineSize(prefix+"_line.png", byLine)
}

func plotAssociativity(filename string, byStride map[int]map[int][]float64) error {
	p := newLatencyPlot("Average access time per chain length")
	p.X.Label.Text = "Ways (chain length)"

	for i, stride := range sortedKeys(byStride) {
		line := &plotter.Line{
			XYs:       meanXYs(byStride[stride]),
			LineStyle: plotter.DefaultLineStyle,
		}
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add("stride "+formatBytes(int64(stride)), line)
	}

	if err := p.Save(30*vg.Centimeter, 20*vg.Centimeter, filename); err != nil {
		return fmt.Errorf("save %s: %w", filename, err)
	}
	return nil
}

func plotLineSize(filename string, byLine map[int][]float64) error {
	p := newLatencyPlot("Average access time per candidate line size")
	p.X.Label.Text = "Line Size"

	sizes := sortedKeys(byLine)
	if len(sizes) > 0 {
		p.X.Tick.Marker = SizeTicks{Sizes: sizes}
		p.X.Scale = plot.LogScale{}
		p.Add(&plotter.Line{
			XYs:       meanXYs(byLine),
			LineStyle: plotter.DefaultLineStyle,
		})
	}

	if err := p.Save(30*vg.Centimeter, 20*vg.Centimeter, filename); err != nil {
		return fmt.Errorf("save %s: %w", filename, err)
	}
	return nil
}

func newLatencyPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Average Latency"
	p.Y.Tick.LineStyle = draw.LineStyle{}
	p.Y.Tick.Marker = LatencyTicks{}
	return p
}

func meanXYs(points map[int][]float64) plotter.XYs {
	keys := sortedKeys(points)
	xys := make(plotter.XYs, 0, len(keys))
	for _, k := range keys {
		xys = append(xys, plotter.XY{X: float64(k), Y: stat.Mean(points[k], nil)})
	}
	return xys
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Helper types for the plotting

type SizeTicks struct {
	Sizes []int
}

func (t SizeTicks) Ticks(min, max float64) []plot.Tick {
	ticks := make([]plot.Tick, 0, len(t.Sizes))
	for _, size := range t.Sizes {
		ticks = append(ticks, plot.Tick{Value: float64(size), Label: formatBytes(int64(size))})
	}

	return ticks
}

// LatencyTicks labels the default ticks in nanoseconds.
type LatencyTicks struct {
}

func (t LatencyTicks) Ticks(min, max float64) []plot.Tick {

	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		tick := &ticks[i]
		if tick.Label == "" {
			continue
		}
		tick.Label = fmt.Sprintf("%gns", tick.Value)
	}
	return ticks
}
