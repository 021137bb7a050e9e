package sampler

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/Dicklesworthstone/sarcompare/internal/model"
)

// FormatOptions controls the report layout.
type FormatOptions struct {
	// Comma writes decimal commas and a localized average label, the way
	// sar prints under a pt_BR locale.
	Comma bool
}

type column struct {
	name    string
	integer bool
	get     func(model.Sample) float64
}

type block struct {
	first string
	cols  []column
}

func kb(v uint64) float64 { return float64(v) }

var blocks = []block{
	{
		first: "all",
		cols: []column{
			{name: "%user", get: func(s model.Sample) float64 { return s.CPU.User }},
			{name: "%nice", get: func(s model.Sample) float64 { return s.CPU.Nice }},
			{name: "%system", get: func(s model.Sample) float64 { return s.CPU.System }},
			{name: "%iowait", get: func(s model.Sample) float64 { return s.CPU.IOWait }},
			{name: "%steal", get: func(s model.Sample) float64 { return s.CPU.Steal }},
			{name: "%idle", get: func(s model.Sample) float64 { return s.CPU.Idle }},
		},
	},
	{
		cols: []column{
			{name: "kbmemfree", integer: true, get: func(s model.Sample) float64 { return kb(s.Memory.FreeKB) }},
			{name: "kbavail", integer: true, get: func(s model.Sample) float64 { return kb(s.Memory.AvailKB) }},
			{name: "kbmemused", integer: true, get: func(s model.Sample) float64 { return kb(s.Memory.UsedKB) }},
			{name: "%memused", get: func(s model.Sample) float64 { return s.Memory.UsedPercent }},
			{name: "kbbuffers", integer: true, get: func(s model.Sample) float64 { return kb(s.Memory.BuffersKB) }},
			{name: "kbcached", integer: true, get: func(s model.Sample) float64 { return kb(s.Memory.CachedKB) }},
			{name: "kbcommit", integer: true, get: func(s model.Sample) float64 { return kb(s.Memory.CommitKB) }},
			{name: "%commit", get: func(s model.Sample) float64 { return s.Memory.CommitPct }},
			{name: "kbactive", integer: true, get: func(s model.Sample) float64 { return kb(s.Memory.ActiveKB) }},
			{name: "kbinact", integer: true, get: func(s model.Sample) float64 { return kb(s.Memory.InactiveKB) }},
			{name: "kbdirty", integer: true, get: func(s model.Sample) float64 { return kb(s.Memory.DirtyKB) }},
		},
	},
	{
		cols: []column{
			{name: "kbswpfree", integer: true, get: func(s model.Sample) float64 { return kb(s.Swap.FreeKB) }},
			{name: "kbswpused", integer: true, get: func(s model.Sample) float64 { return kb(s.Swap.UsedKB) }},
			{name: "%swpused", get: func(s model.Sample) float64 { return s.Swap.UsedPercent }},
			{name: "kbswpcad", integer: true, get: func(s model.Sample) float64 { return kb(s.Swap.CachedKB) }},
			{name: "%swpcad", get: func(s model.Sample) float64 { return s.Swap.CachedPercent }},
		},
	},
	{
		cols: []column{
			{name: "tps", get: func(s model.Sample) float64 { return s.IO.TPS }},
			{name: "rtps", get: func(s model.Sample) float64 { return s.IO.ReadTPS }},
			{name: "wtps", get: func(s model.Sample) float64 { return s.IO.WriteTPS }},
			{name: "bread/s", get: func(s model.Sample) float64 { return s.IO.BlocksRead }},
			{name: "bwrtn/s", get: func(s model.Sample) float64 { return s.IO.BlocksWrite }},
		},
	},
}

// WriteReport writes samples as `sar -u -r -S -b` text: the banner, one
// block per section and an average row closing each block.
func WriteReport(w io.Writer, h model.Host, samples []model.Sample, opts FormatOptions) error {
	bw := bufio.NewWriter(w)

	date := "01/01/1970"
	start := "00:00:00"
	if len(samples) > 0 {
		first := samples[0]
		date = first.Timestamp.Format("01/02/2006")
		start = first.Timestamp.Add(-first.Interval).Format("15:04:05")
	}
	kernel := h.Kernel
	if kernel == "" {
		kernel = "unknown"
	}
	fmt.Fprintf(bw, "Linux %s (%s) \t%s \t_%s_\t(%d CPU)\n", kernel, h.Hostname, date, h.Arch, h.CPUs)

	avg := "Average:"
	if opts.Comma {
		avg = "Média:"
	}

	for _, b := range blocks {
		bw.WriteString("\n")

		cells := make([]string, 0, len(b.cols)+1)
		if b.first != "" {
			cells = append(cells, "CPU")
		}
		for _, c := range b.cols {
			cells = append(cells, c.name)
		}
		writeRow(bw, start, cells)

		for _, s := range samples {
			writeRow(bw, s.Timestamp.Format("15:04:05"), b.values(s, opts))
		}

		if len(samples) > 0 {
			writeRow(bw, avg, b.averages(samples, opts))
		}
	}

	return bw.Flush()
}

func (b block) values(s model.Sample, opts FormatOptions) []string {
	cells := make([]string, 0, len(b.cols)+1)
	if b.first != "" {
		cells = append(cells, b.first)
	}
	for _, c := range b.cols {
		cells = append(cells, formatNumber(c.get(s), c.integer, opts))
	}
	return cells
}

func (b block) averages(samples []model.Sample, opts FormatOptions) []string {
	cells := make([]string, 0, len(b.cols)+1)
	if b.first != "" {
		cells = append(cells, b.first)
	}
	for _, c := range b.cols {
		data := make(stats.Float64Data, len(samples))
		for i, s := range samples {
			data[i] = c.get(s)
		}
		mean, err := stats.Mean(data)
		if err != nil {
			mean = 0
		}
		cells = append(cells, formatNumber(mean, c.integer, opts))
	}
	return cells
}

func writeRow(w *bufio.Writer, first string, cells []string) {
	fmt.Fprintf(w, "%-12s", first)
	for _, c := range cells {
		fmt.Fprintf(w, " %9s", c)
	}
	w.WriteString("\n")
}

func formatNumber(v float64, integer bool, opts FormatOptions) string {
	if integer {
		return strconv.FormatInt(int64(v+0.5), 10)
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if opts.Comma {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}
