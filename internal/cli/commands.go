package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Dicklesworthstone/sarcompare/internal/chart"
	"github.com/Dicklesworthstone/sarcompare/internal/compare"
	"github.com/Dicklesworthstone/sarcompare/internal/model"
	"github.com/Dicklesworthstone/sarcompare/internal/sampler"
	"github.com/Dicklesworthstone/sarcompare/internal/sarparse"
	"github.com/Dicklesworthstone/sarcompare/internal/sysstat"
	"github.com/Dicklesworthstone/sarcompare/internal/ui"
)

type compareCmd struct {
	app      *app
	FromText bool `long:"from-text" description:"read the files as sar text reports instead of running sar"`
	JSON     bool `long:"json" description:"print the comparison as JSON"`
	TUI      bool `long:"tui" description:"browse the comparison interactively"`
	NoCharts bool `long:"no-charts" description:"do not write chart files"`
}

func (c *compareCmd) Execute(args []string) error {
	if len(args) != 2 {
		return usageError{"compare [OPTIONS] <vm1.sar> <vm2.sar>"}
	}
	if err := checkFiles(args); err != nil {
		return err
	}
	a := c.app
	if err := a.setup(); err != nil {
		return err
	}

	texts, err := c.load(args)
	if err != nil {
		return err
	}

	labels := a.cfg.LabelsFor(len(args))
	store := model.NewStore()
	p := sarparse.New(a.log)
	for i, text := range texts {
		st := p.ParseInto(store, sarparse.Decode(text), labels[i])
		a.log.Infof("%s: %d lines, %d datasets, %d empty sections, %d malformed rows",
			labels[i], st.Lines, st.Flushed, st.Empty, st.Malformed)
	}
	a.log.Infof("datasets loaded: %v", store.Keys())

	catalog, err := a.cfg.Catalog()
	if err != nil {
		return err
	}
	report := compare.Build(store, catalog, labels)

	if !c.NoCharts {
		r := chart.New(chart.Options{
			Dir:     a.cfg.OutDir,
			DPI:     a.cfg.DPI,
			Labels:  labels,
			Workers: a.cfg.Workers,
		}, a.log)
		paths, err := r.All(a.ctx, store, catalog)
		if err != nil {
			return fmt.Errorf("charts: %w", err)
		}
		for _, path := range paths {
			a.log.Infof("chart saved to %s", path)
		}
	}

	if c.JSON {
		return writeJSON(a.env.Stdout, report)
	}
	if c.TUI {
		return ui.RunTUI(report)
	}
	fmt.Fprintln(a.env.Stdout, ui.Render(report))
	return nil
}

func (c *compareCmd) load(files []string) ([][]byte, error) {
	if !c.FromText {
		c.app.log.Infof("running sar for %v", files)
		return sysstat.FetchReports(c.app.ctx, c.app.runner(), files)
	}
	out := make([][]byte, len(files))
	for i, f := range files {
		bs, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		out[i] = bs
	}
	return out, nil
}

type cvCmd struct {
	app     *app
	FromCSV bool `long:"from-csv" description:"read the files as sadf -d output instead of running sadf"`
	JSON    bool `long:"json" description:"print the reports as JSON"`
}

func (c *cvCmd) Execute(args []string) error {
	if len(args) != 2 {
		return usageError{"cv [OPTIONS] <vm1.sar> <vm2.sar>"}
	}
	if err := checkFiles(args); err != nil {
		return err
	}
	a := c.app
	if err := a.setup(); err != nil {
		return err
	}

	catalog, err := a.cfg.Catalog()
	if err != nil {
		return err
	}
	catalog = catalog.Summaries()
	sections := catalog.Sections()
	labels := a.cfg.LabelsFor(len(args))

	var exports [][][]byte
	if c.FromCSV {
		for _, f := range args {
			bs, err := os.ReadFile(f)
			if err != nil {
				return err
			}
			exports = append(exports, [][]byte{bs})
		}
	} else {
		exports, err = sysstat.FetchExports(a.ctx, a.runner(), args, sections)
		if err != nil {
			return err
		}
	}

	store := model.NewStore()
	for i, blocks := range exports {
		for j, bs := range blocks {
			sec := model.SectionUnknown
			if !c.FromCSV {
				sec = sections[j]
			}
			part, err := sarparse.ParseSadf(sarparse.Decode(bs), labels[i], sec)
			if errors.Is(err, sarparse.ErrNoHeader) && !c.FromCSV {
				a.log.Warningf("%s: no %s data", args[i], sec)
				continue
			}
			if err != nil {
				return fmt.Errorf("%s: %w", args[i], err)
			}
			store.Merge(part)
		}
	}
	a.log.Debugf("datasets loaded: %v", store.Keys())

	reports := compare.Variation(store, catalog, labels)
	if c.JSON {
		return writeJSON(a.env.Stdout, reports)
	}
	fmt.Fprintln(a.env.Stdout, ui.RenderVariation(reports))
	return nil
}

type parseCmd struct {
	app  *app
	CSV  bool `long:"csv" description:"the file is sadf -d output"`
	JSON bool `long:"json" description:"print the summary as JSON"`
}

func (c *parseCmd) Execute(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usageError{"parse [OPTIONS] <report.txt> [label]"}
	}
	if err := checkFiles(args[:1]); err != nil {
		return err
	}
	a := c.app
	if err := a.setup(); err != nil {
		return err
	}

	label := a.cfg.LabelsFor(1)[0]
	if len(args) == 2 {
		label = args[1]
	}

	bs, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	text := sarparse.Decode(bs)

	var store *model.Store
	if c.CSV {
		if store, err = sarparse.ParseSadf(text, label, model.SectionUnknown); err != nil {
			return err
		}
	} else {
		store = model.NewStore()
		st := sarparse.New(a.log).ParseInto(store, text, label)
		a.log.Infof("%d lines, %d datasets, %d malformed rows", st.Lines, st.Flushed, st.Malformed)
	}

	catalog, err := a.cfg.Catalog()
	if err != nil {
		return err
	}
	report := compare.Build(store, catalog, []string{label})

	if c.JSON {
		return writeJSON(a.env.Stdout, report)
	}
	fmt.Fprintln(a.env.Stdout, ui.RenderDatasets(store))
	fmt.Fprintln(a.env.Stdout, ui.Render(report))
	return nil
}

type captureCmd struct {
	app      *app
	Interval time.Duration `short:"i" long:"interval" description:"time between samples"`
	Count    int           `short:"n" long:"count" description:"number of samples"`
	Output   string        `short:"w" long:"output" description:"report file, standard output when unset"`
	Comma    bool          `long:"comma" description:"write decimal commas like a pt_BR locale"`
}

func (c *captureCmd) Execute(args []string) error {
	if len(args) != 0 {
		return usageError{"capture [OPTIONS]"}
	}
	a := c.app
	a.cfg.Interval = c.Interval
	a.cfg.Count = c.Count
	if err := a.setup(); err != nil {
		return err
	}

	s := a.env.Sampler
	if s == nil {
		s = sampler.New(a.cfg.Interval)
	}
	host, err := s.Host()
	if err != nil {
		a.log.Warningf("host info: %v", err)
	}

	a.log.Infof("capturing %d samples every %s", a.cfg.Count, a.cfg.Interval)
	samples, err := s.Collect(a.ctx, a.cfg.Count)
	if err != nil && len(samples) == 0 {
		return err
	}
	if err != nil {
		a.log.Warningf("capture stopped after %d samples: %v", len(samples), err)
	}

	w := a.env.Stdout
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := sampler.WriteReport(w, host, samples, sampler.FormatOptions{Comma: c.Comma}); err != nil {
		return err
	}
	if c.Output != "" {
		a.log.Infof("report saved to %s", c.Output)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
