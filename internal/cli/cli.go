package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/Dicklesworthstone/sarcompare/internal/config"
	"github.com/Dicklesworthstone/sarcompare/internal/logger"
	"github.com/Dicklesworthstone/sarcompare/internal/sampler"
	"github.com/Dicklesworthstone/sarcompare/internal/sysstat"
)

const name = "sarcompare"

// Option defines the global command line options. Unset options keep the
// value from the environment or the default.
type Option struct {
	LogLevel string        `long:"log-level" description:"log level: error, warning, info, debug"`
	Sar      string        `long:"sar" description:"sar executable"`
	Sadf     string        `long:"sadf" description:"sadf executable"`
	Timeout  time.Duration `long:"timeout" description:"timeout of each sysstat run"`
	OutDir   string        `short:"o" long:"out-dir" description:"directory the charts are written to"`
	Labels   string        `long:"labels" description:"comma separated labels of the reports, in argument order"`
	Metrics  string        `long:"metrics" description:"YAML metric catalog replacing the built-in one"`
	DPI      int           `long:"dpi" description:"chart resolution"`
	Workers  int           `long:"workers" description:"charts rendered in parallel"`
}

// Env is what a run reads from and writes to.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	// Runner replaces the sysstat executables when set.
	Runner sysstat.Runner
	// Sampler replaces the host sampler when set.
	Sampler *sampler.Sampler
}

type usageError struct {
	usage string
}

func (e usageError) Error() string {
	return fmt.Sprintf("usage: %s %s", name, e.usage)
}

type app struct {
	ctx context.Context
	env Env
	opt *Option
	cfg config.Config
	log *logger.Logger
}

// Run parses args, executes the selected command and returns the exit code.
func Run(ctx context.Context, args []string, env Env) int {
	if env.Stdout == nil {
		env.Stdout = os.Stdout
	}
	if env.Stderr == nil {
		env.Stderr = os.Stderr
	}
	if env.Getenv == nil {
		env.Getenv = os.Getenv
	}

	cfg := config.FromEnv(env.Getenv)

	a := &app{
		ctx: ctx,
		env: env,
		cfg: cfg,
		opt: &Option{
			LogLevel: cfg.LogLevel,
			Sar:      cfg.SarPath,
			Sadf:     cfg.SadfPath,
			Timeout:  cfg.Timeout,
			OutDir:   cfg.OutDir,
			Metrics:  cfg.MetricsFile,
			DPI:      cfg.DPI,
			Workers:  cfg.Workers,
		},
	}

	parser := flags.NewParser(a.opt, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = name
	a.addCommands(parser)

	_, err := parser.ParseArgs(args)
	if err == nil {
		return 0
	}

	var ue usageError
	var fe *flags.Error
	switch {
	case flags.WroteHelp(err):
		fmt.Fprintln(env.Stdout, err)
		return 0
	case errors.As(err, &ue):
		fmt.Fprintln(env.Stderr, ue.Error())
		return 1
	case errors.As(err, &fe):
		fmt.Fprintln(env.Stderr, fe.Message)
		parser.WriteHelp(env.Stderr)
		return 1
	default:
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return 1
	}
}

func (a *app) addCommands(p *flags.Parser) {
	commands := []struct {
		name, short, long string
		data              flags.Commander
	}{
		{
			"compare", "Compare two sar capture files",
			"Runs sar on both capture files, prints the comparison and writes the charts.",
			&compareCmd{app: a},
		},
		{
			"cv", "Coefficient of variation report",
			"Exports both capture files with sadf and tells, per metric, whether the mean or the median represents it.",
			&cvCmd{app: a},
		},
		{
			"parse", "Parse a sar text report",
			"Parses a report already produced by sar and lists the datasets found.",
			&parseCmd{app: a},
		},
		{
			"capture", "Sample this host and write a sar report",
			"Samples CPU, memory, swap and disk counters and writes them in sar report format.",
			&captureCmd{app: a, Interval: a.cfg.Interval, Count: a.cfg.Count},
		},
	}
	for _, c := range commands {
		if _, err := p.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			panic(err)
		}
	}
}

// setup merges the parsed global options into the config.
func (a *app) setup() error {
	a.cfg.LogLevel = a.opt.LogLevel
	a.cfg.SarPath = a.opt.Sar
	a.cfg.SadfPath = a.opt.Sadf
	a.cfg.Timeout = a.opt.Timeout
	a.cfg.OutDir = a.opt.OutDir
	a.cfg.MetricsFile = a.opt.Metrics
	a.cfg.DPI = a.opt.DPI
	a.cfg.Workers = a.opt.Workers
	if a.opt.Labels != "" {
		a.cfg.Labels = config.SplitLabels(a.opt.Labels)
	}

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	logger.Level.SetByName(a.cfg.LogLevel)
	a.log = logger.New().With("component", name)
	return nil
}

func (a *app) runner() sysstat.Runner {
	if a.env.Runner != nil {
		return a.env.Runner
	}
	return sysstat.New(a.cfg.SarPath, a.cfg.SadfPath, a.cfg.Timeout, a.log)
}

func checkFiles(files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("file not found: %s", f)
		}
	}
	return nil
}
