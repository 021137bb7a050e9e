package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Dicklesworthstone/sarcompare/internal/logger"
	"github.com/Dicklesworthstone/sarcompare/internal/metrics"
)

// Config carries runtime options for sarcompare.
type Config struct {
	SarPath     string
	SadfPath    string
	Timeout     time.Duration
	OutDir      string
	Labels      []string
	MetricsFile string
	LogLevel    string
	DPI         int
	Workers     int
	Interval    time.Duration
	Count       int
}

func Default() Config {
	return Config{
		SarPath:  "sar",
		SadfPath: "sadf",
		Timeout:  time.Minute,
		OutDir:   ".",
		Labels:   []string{"VM1", "VM2"},
		LogLevel: "info",
		DPI:      150,
		Workers:  4,
		Interval: time.Second,
		Count:    60,
	}
}

// FromEnv returns the defaults with environment overrides applied. A nil
// getenv reads the process environment.
func FromEnv(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()
	cfg.ApplyEnv(getenv)
	return cfg
}

// ApplyEnv overrides fields from SARCOMPARE_* variables. Unparseable values
// are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("SARCOMPARE_SAR"); v != "" {
		c.SarPath = v
	}
	if v := getenv("SARCOMPARE_SADF"); v != "" {
		c.SadfPath = v
	}
	if v := getenv("SARCOMPARE_TIMEOUT"); v != "" {
		if d, ok := parseDuration(v); ok {
			c.Timeout = d
		}
	}
	if v := getenv("SARCOMPARE_INTERVAL"); v != "" {
		if d, ok := parseDuration(v); ok {
			c.Interval = d
		}
	}
	if v := getenv("SARCOMPARE_OUT_DIR"); v != "" {
		c.OutDir = v
	}
	if v := getenv("SARCOMPARE_LABELS"); v != "" {
		c.Labels = SplitLabels(v)
	}
	if v := getenv("SARCOMPARE_METRICS"); v != "" {
		c.MetricsFile = v
	}
	if v := getenv("SARCOMPARE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("SARCOMPARE_DPI"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DPI = n
		}
	}
	if v := getenv("SARCOMPARE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(v string) (time.Duration, bool) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, true
	}
	if d, err := time.ParseDuration(v + "s"); err == nil {
		return d, true
	}
	return 0, false
}

// SplitLabels splits a comma separated label list, dropping empty items.
func SplitLabels(v string) []string {
	var out []string
	for _, l := range strings.Split(v, ",") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func (c Config) Validate() error {
	var errs []error
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.DPI <= 0 {
		errs = append(errs, fmt.Errorf("dpi must be positive, got %d", c.DPI))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval))
	}
	if c.Count <= 0 {
		errs = append(errs, fmt.Errorf("count must be positive, got %d", c.Count))
	}
	seen := make(map[string]bool)
	for _, l := range c.Labels {
		if seen[l] {
			errs = append(errs, fmt.Errorf("duplicate label %q", l))
		}
		seen[l] = true
	}
	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// Catalog loads the metric catalog file, or the built-in one when unset.
func (c Config) Catalog() (metrics.Catalog, error) {
	if c.MetricsFile == "" {
		return metrics.Default(), nil
	}
	return metrics.Load(c.MetricsFile)
}

// LabelsFor returns n distinct labels: the configured ones, then VM<i> for
// the rest, skipping generated names already in use.
func (c Config) LabelsFor(n int) []string {
	out := make([]string, 0, n)
	taken := make(map[string]bool)
	for _, l := range c.Labels {
		if len(out) == n {
			break
		}
		out = append(out, l)
		taken[l] = true
	}
	for k := len(out) + 1; len(out) < n; k++ {
		l := fmt.Sprintf("VM%d", k)
		if taken[l] {
			continue
		}
		out = append(out, l)
		taken[l] = true
	}
	return out
}
