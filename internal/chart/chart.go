package chart

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/Dicklesworthstone/sarcompare/internal/logger"
	"github.com/Dicklesworthstone/sarcompare/internal/metrics"
	"github.com/Dicklesworthstone/sarcompare/internal/model"
	"github.com/Dicklesworthstone/sarcompare/internal/stats"
)

const (
	TimeSeriesFile = "series_temporais_comparacao.png"

	// MinDistributionSamples is the smallest series that gets a box plot.
	MinDistributionSamples = 3
	histogramBins          = 20
	defaultDPI             = 100
)

// BoxPlotFile and HistogramFile name the distribution charts of a metric.
func BoxPlotFile(metric string) string   { return "dist_" + metric + "_boxplot.png" }
func HistogramFile(metric string) string { return "dist_" + metric + "_hist.png" }

type Options struct {
	Dir     string
	DPI     int
	Labels  []string
	Workers int
}

// Renderer writes the comparison charts of a parsed store as PNG files.
type Renderer struct {
	opts Options
	log  *logger.Logger
}

func New(opts Options, log *logger.Logger) *Renderer {
	if opts.DPI <= 0 {
		opts.DPI = defaultDPI
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Renderer{opts: opts, log: log}
}

// All renders the time series grid and every distribution chart. It
// returns the written paths.
func (r *Renderer) All(ctx context.Context, store *model.Store, catalog metrics.Catalog) ([]string, error) {
	if err := os.MkdirAll(r.opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("chart dir: %w", err)
	}

	path, err := r.TimeSeries(store, catalog)
	if err != nil {
		return nil, err
	}
	dist, err := r.Distributions(ctx, store, catalog)
	if err != nil {
		return nil, err
	}
	return append([]string{path}, dist...), nil
}

// TimeSeries draws every panel metric of catalog on a 4x2 grid, one line
// per label.
func (r *Renderer) TimeSeries(store *model.Store, catalog metrics.Catalog) (string, error) {
	const rows, cols = metrics.PanelCount / 2, 2

	plots := make([][]*plot.Plot, rows)
	for j := range plots {
		plots[j] = make([]*plot.Plot, cols)
		for i := range plots[j] {
			p := plot.New()
			p.X.Label.Text = "Samples"
			plots[j][i] = p
		}
	}

	for _, m := range catalog.Panels() {
		p := plots[(m.Panel-1)/cols][(m.Panel-1)%cols]
		if err := r.timeSeriesPanel(p, store, m); err != nil {
			return "", fmt.Errorf("panel %s: %w", m.Name, err)
		}
	}

	path := filepath.Join(r.opts.Dir, TimeSeriesFile)
	err := r.save(path, 20*vg.Inch, 16*vg.Inch, func(dc draw.Canvas) {
		tiles := draw.Tiles{
			Rows:      rows,
			Cols:      cols,
			PadX:      vg.Millimeter * 8,
			PadY:      vg.Millimeter * 8,
			PadTop:    vg.Millimeter * 4,
			PadBottom: vg.Millimeter * 4,
			PadLeft:   vg.Millimeter * 4,
			PadRight:  vg.Millimeter * 4,
		}
		canvases := plot.Align(plots, tiles, dc)
		for j := range plots {
			for i := range plots[j] {
				plots[j][i].Draw(canvases[j][i])
			}
		}
	})
	if err != nil {
		return "", err
	}
	r.log.Debugf("wrote %s", path)
	return path, nil
}

func (r *Renderer) timeSeriesPanel(p *plot.Plot, store *model.Store, m metrics.Metric) error {
	p.Y.Label.Text = m.Unit
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	var means []string
	for i, label := range r.opts.Labels {
		series, ok := metrics.Extract(store, label, m)
		if !ok || series.Len() == 0 {
			means = append(means, label+"=N/A")
			continue
		}
		line, err := plotter.NewLine(series)
		if err != nil {
			return err
		}
		line.Color = labelColor(i)
		line.Width = vg.Points(1.5)
		p.Add(line)

		mean := meanText(series.Y)
		p.Legend.Add(fmt.Sprintf("%s (mean=%s)", label, mean), line)
		means = append(means, label+"="+mean)
	}

	if m.Percent {
		p.Y.Min, p.Y.Max = 0, 100
	}

	title := fmt.Sprintf("%s (mean %s", m.Title, strings.Join(means, ", "))
	if b := m.Better.String(); b != "" {
		title += "; " + b
	}
	p.Title.Text = title + ")"
	return nil
}

// Distributions renders a box plot and a histogram per distribution
// metric, concurrently. Metrics with fewer than MinDistributionSamples
// samples for any label are skipped.
func (r *Renderer) Distributions(ctx context.Context, store *model.Store, catalog metrics.Catalog) ([]string, error) {
	dist := catalog.Distributions()
	written := make([][]string, len(dist))

	p := pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(r.opts.Workers)
	for i, m := range dist {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			paths, err := r.distribution(store, m)
			if err != nil {
				return fmt.Errorf("distribution %s: %w", m.Name, err)
			}
			written[i] = paths
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	var out []string
	for _, paths := range written {
		out = append(out, paths...)
	}
	return out, nil
}

func (r *Renderer) distribution(store *model.Store, m metrics.Metric) ([]string, error) {
	var all []metrics.Series
	for _, label := range r.opts.Labels {
		s, ok := metrics.Extract(store, label, m)
		if !ok || s.Len() < MinDistributionSamples {
			r.log.Debugf("skipping distribution of %s: not enough samples for %s", m.Name, label)
			return nil, nil
		}
		all = append(all, s)
	}
	if len(all) == 0 {
		return nil, nil
	}

	title := cases.Upper(language.Und).String(strings.ReplaceAll(m.Name, "_", " "))

	box, err := boxPlot(all, "Distribution - "+title)
	if err != nil {
		return nil, err
	}
	boxPath := filepath.Join(r.opts.Dir, BoxPlotFile(m.Name))
	if err := r.save(boxPath, 8*vg.Inch, 5*vg.Inch, box.Draw); err != nil {
		return nil, err
	}

	hist, err := histogram(all, "Histogram - "+title)
	if err != nil {
		return nil, err
	}
	histPath := filepath.Join(r.opts.Dir, HistogramFile(m.Name))
	if err := r.save(histPath, 8*vg.Inch, 5*vg.Inch, hist.Draw); err != nil {
		return nil, err
	}

	r.log.Debugf("wrote %s and %s", boxPath, histPath)
	return []string{boxPath, histPath}, nil
}

func boxPlot(all []metrics.Series, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Value"
	p.Add(plotter.NewGrid())

	names := make([]string, len(all))
	for i, s := range all {
		box, err := plotter.NewBoxPlot(vg.Points(40), float64(i), s)
		if err != nil {
			return nil, err
		}
		box.FillColor = fade(labelColor(i))
		p.Add(box)

		sum, _ := stats.Summarize(s.Y)
		mean, err := plotter.NewScatter(plotter.XYs{{X: float64(i), Y: sum.Mean}})
		if err != nil {
			return nil, err
		}
		mean.GlyphStyle.Shape = draw.TriangleGlyph{}
		mean.GlyphStyle.Color = labelColor(i)
		mean.GlyphStyle.Radius = vg.Points(4)
		p.Add(mean)

		names[i] = s.Label
	}
	p.NominalX(names...)
	return p, nil
}

func histogram(all []metrics.Series, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Value"
	p.Y.Label.Text = "Frequency"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	for i, s := range all {
		h, err := plotter.NewHist(s, histogramBins)
		if err != nil {
			return nil, err
		}
		h.FillColor = fade(labelColor(i))
		h.LineStyle.Color = labelColor(i)
		p.Add(h)
		p.Legend.Add(s.Label, h)
	}
	return p, nil
}

func (r *Renderer) save(path string, w, h vg.Length, fn func(draw.Canvas)) error {
	img := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(r.opts.DPI))
	fn(draw.New(img))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

var baseColors = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
}

func labelColor(i int) color.Color {
	if i < len(baseColors) {
		return baseColors[i]
	}
	return plotutil.Color(i)
}

func fade(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 128}
}

func meanText(values []float64) string {
	s, ok := stats.Summarize(values)
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", s.Mean)
}
