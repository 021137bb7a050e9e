package metrics

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/sarcompare/internal/model"
)

// PanelCount is the number of tiles in the time series grid (4 rows x 2).
const PanelCount = 8

// Better is the direction in which a metric improves.
type Better string

const (
	BetterNone   Better = ""
	BetterHigher Better = "higher"
	BetterLower  Better = "lower"
)

func (b Better) String() string {
	switch b {
	case BetterHigher:
		return "higher is better"
	case BetterLower:
		return "lower is better"
	}
	return ""
}

// Metric is one logical measurement resolved against a section's columns.
type Metric struct {
	Name       string        `yaml:"name" json:"name"`
	Title      string        `yaml:"title" json:"title"`
	Section    model.Section `yaml:"section" json:"section"`
	Candidates []string      `yaml:"candidates" json:"candidates"`
	// Scale divides raw values, e.g. 1024 turns kB into MB. Zero means 1.
	Scale float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
	Unit  string  `yaml:"unit,omitempty" json:"unit,omitempty"`
	// Percent metrics render on a 0-100 axis.
	Percent bool   `yaml:"percent,omitempty" json:"percent,omitempty"`
	Better  Better `yaml:"better,omitempty" json:"better,omitempty"`
	// Panel is the 1-based tile of the time series grid, 0 for none.
	Panel        int  `yaml:"panel,omitempty" json:"panel,omitempty"`
	Distribution bool `yaml:"distribution,omitempty" json:"distribution,omitempty"`
	Summary      bool `yaml:"summary,omitempty" json:"summary,omitempty"`
}

// Apply scales a raw value into the metric unit.
func (m Metric) Apply(v float64) float64 {
	if m.Scale == 0 || m.Scale == 1 {
		return v
	}
	return v / m.Scale
}

// Catalog is an ordered list of metrics.
type Catalog []Metric

// Default is the built-in catalog.
func Default() Catalog {
	return Catalog{
		{
			Name: "cpu_user", Title: "CPU % user", Section: model.SectionCPU,
			Candidates: []string{"%user", "user"}, Unit: "%", Percent: true,
			Better: BetterHigher, Panel: 1, Distribution: true, Summary: true,
		},
		{
			Name: "cpu_system", Title: "CPU % system", Section: model.SectionCPU,
			Candidates: []string{"%system", "system"}, Unit: "%", Percent: true,
			Better: BetterLower, Panel: 2, Distribution: true, Summary: true,
		},
		{
			Name: "cpu_iowait", Title: "CPU % iowait", Section: model.SectionCPU,
			Candidates: []string{"%iowait", "iowait"}, Unit: "%", Percent: true,
			Better: BetterLower,
		},
		{
			Name: "cpu_idle", Title: "CPU % idle", Section: model.SectionCPU,
			Candidates: []string{"%idle", "idle"}, Unit: "%", Percent: true,
		},
		{
			Name: "mem_used", Title: "Memory % used", Section: model.SectionMemory,
			Candidates: []string{"%memused", "memused"}, Unit: "%", Percent: true,
			Better: BetterHigher, Panel: 3, Distribution: true, Summary: true,
		},
		{
			Name: "mem_active", Title: "Active memory (MB)", Section: model.SectionMemory,
			Candidates: []string{"kbactive", "active"}, Scale: 1024, Unit: "MB",
			Better: BetterHigher, Panel: 4,
		},
		{
			Name: "swap_used", Title: "Swap % used", Section: model.SectionSwap,
			Candidates: []string{"%swpused", "swpused"}, Unit: "%", Percent: true,
			Better: BetterLower, Panel: 5, Distribution: true, Summary: true,
		},
		{
			Name: "swap_used_mb", Title: "Swap used (MB)", Section: model.SectionSwap,
			Candidates: []string{"kbswpused", "swpused"}, Scale: 1024, Unit: "MB",
			Better: BetterLower, Panel: 6,
		},
		{
			Name: "io_tps", Title: "I/O transfers per second", Section: model.SectionIO,
			Candidates: []string{"tps"}, Unit: "tps",
			Better: BetterHigher, Panel: 7, Distribution: true, Summary: true,
		},
		{
			Name: "io_written", Title: "I/O blocks written per second", Section: model.SectionIO,
			Candidates: []string{"bwrtn", "wrtn", "wrtn/s"}, Unit: "blocks/s",
			Better: BetterHigher, Panel: 8,
		},
	}
}

// Load reads a catalog from a YAML file of the form
//
//	metrics:
//	  - name: cpu_user
//	    section: CPU
//	    candidates: ["%user", "user"]
func Load(path string) (Catalog, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("metric catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(bs []byte) (Catalog, error) {
	var doc struct {
		Metrics Catalog `yaml:"metrics"`
	}
	if err := yaml.Unmarshal(bs, &doc); err != nil {
		return nil, err
	}
	if err := doc.Metrics.Validate(); err != nil {
		return nil, err
	}
	return doc.Metrics, nil
}

// Validate checks names and panels are unique and every metric is usable.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return errors.New("no metrics defined")
	}
	names := make(map[string]bool)
	panels := make(map[int]string)

	for i, m := range c {
		switch {
		case m.Name == "":
			return fmt.Errorf("metric %d: name not set", i+1)
		case names[m.Name]:
			return fmt.Errorf("metric %s: duplicate name", m.Name)
		case m.Section == model.SectionUnknown:
			return fmt.Errorf("metric %s: section not set", m.Name)
		case len(m.Candidates) == 0:
			return fmt.Errorf("metric %s: no candidate columns", m.Name)
		case m.Scale < 0:
			return fmt.Errorf("metric %s: negative scale", m.Name)
		case m.Panel < 0 || m.Panel > PanelCount:
			return fmt.Errorf("metric %s: panel %d out of range 1-%d", m.Name, m.Panel, PanelCount)
		}
		switch m.Better {
		case BetterNone, BetterHigher, BetterLower:
		default:
			return fmt.Errorf("metric %s: unknown direction %q", m.Name, m.Better)
		}
		if m.Panel != 0 {
			if other, ok := panels[m.Panel]; ok {
				return fmt.Errorf("metric %s: panel %d already used by %s", m.Name, m.Panel, other)
			}
			panels[m.Panel] = m.Name
		}
		names[m.Name] = true
	}
	return nil
}

// Find returns the metric with the given name.
func (c Catalog) Find(name string) (Metric, bool) {
	for _, m := range c {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}

// Panels returns the metrics placed on the time series grid, by panel.
func (c Catalog) Panels() []Metric {
	var out []Metric
	for _, m := range c {
		if m.Panel > 0 {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Panel < out[j].Panel })
	return out
}

// Distributions returns the metrics that get box plots and histograms.
func (c Catalog) Distributions() []Metric {
	return c.filter(func(m Metric) bool { return m.Distribution })
}

// Summaries returns the metrics listed in the comparison summary.
func (c Catalog) Summaries() []Metric {
	return c.filter(func(m Metric) bool { return m.Summary })
}

// Sections returns the distinct sections used, in detection order.
func (c Catalog) Sections() []model.Section {
	used := make(map[model.Section]bool)
	for _, m := range c {
		used[m.Section] = true
	}
	var out []model.Section
	for _, s := range model.Sections() {
		if used[s] {
			out = append(out, s)
		}
	}
	return out
}

func (c Catalog) filter(keep func(Metric) bool) []Metric {
	var out []Metric
	for _, m := range c {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
