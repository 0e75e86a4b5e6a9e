package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/klauspost/cpuid/v2"

	"l1probe/internal/detect"
	"l1probe/internal/probe"
)

func main() {
	verbose := flag.Bool("v", false, "print every sample to stderr")
	plotPrefix := flag.String("plot", "", "write sweep charts to `prefix`_assoc.png and prefix_line.png")
	compare := flag.Bool("compare", false, "print the L1D geometry reported by CPUID to stderr")
	pin := flag.Bool("pin", true, "bind the measuring thread to a single CPU")
	flag.Parse()

	if *compare {
		reportCPU(os.Stderr)
	}
	if *pin {
		cpu, err := probe.PinThread()
		if *verbose {
			if err != nil {
				fmt.Fprintln(os.Stderr, "Running unpinned:", err)
			} else {
				fmt.Fprintln(os.Stderr, "Pinned to CPU", cpu)
			}
		}
	}

	// Keep the collector out of the timed loops.
	defer debug.SetGCPercent(debug.SetGCPercent(-1))

	arena := probe.NewArena(probe.DefaultSlots)
	defer arena.Close()

	d := detect.New(probe.New(arena, nil, nil), detect.DefaultConfig())
	rec := &recorder{verbose: *verbose, out: os.Stderr, keep: *plotPrefix != ""}
	if rec.verbose || rec.keep {
		d.Trace = rec.add
	}

	g, err := d.Run()
	printGeometry(os.Stdout, g)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Warning:", err, "(unknown values printed as 0)")
	}

	if rec.keep {
		if err := plotSweeps(*plotPrefix, rec.samples); err != nil {
			fmt.Fprintln(os.Stderr, "Could not write plots:", err)
		}
	}
}

func printGeometry(w io.Writer, g detect.Geometry) {
	fmt.Fprintln(w, " - Cache size:", g.Capacity)
	fmt.Fprintln(w, " - Associativity:", g.Associativity)
	fmt.Fprintln(w, " - Line size:", g.LineSize)
}

func reportCPU(w io.Writer) {
	var CPU = cpuid.CPU
	fmt.Fprintln(w, "CPU Information (similar to lscpu)")
	fmt.Fprintln(w, "Brand:", CPU.BrandName)
	if CPU.Cache.L1D > 0 {
		fmt.Fprintln(w, "L1 Data Cache:", formatBytes(int64(CPU.Cache.L1D)))
	} else {
		fmt.Fprintln(w, "L1 Data Cache: unknown")
	}
	fmt.Fprintln(w, "Cache Line Size:", CPU.CacheLine, "bytes")
}

// recorder prints and/or keeps the samples traced during detection.
type recorder struct {
	verbose bool
	keep    bool
	out     io.Writer
	samples []detect.Sample
}

func (r *recorder) add(s detect.Sample) {
	if r.verbose {
		switch s.Phase {
		case probe.PhaseAssociativity:
			fmt.Fprintf(r.out, "Trial %-3d Stride: %-10s Ways: %-4d Latency: %.3fns\n",
				s.Trial, formatBytes(int64(s.Stride)), s.Spots, s.Latency)
		case probe.PhaseLineSize:
			fmt.Fprintf(r.out, "Trial %-3d Line size: %-10s Slots: %-8d Latency: %.3fns\n",
				s.Trial, formatBytes(int64(s.LineSize)), s.Spots, s.Latency)
		}
	}
	if r.keep {
		r.samples = append(r.samples, s)
	}
}

// formats the bytes to IEC format
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB",
		float64(b)/float64(div), "KMGTPE"[exp])
}
