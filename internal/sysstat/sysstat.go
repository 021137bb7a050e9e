package sysstat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Dicklesworthstone/sarcompare/internal/logger"
	"github.com/Dicklesworthstone/sarcompare/internal/model"
)

const stderrLimit = 8 << 10 // 8 KiB

var ErrNotFound = errors.New("executable not found")

// Runner produces report text for a sar capture file.
type Runner interface {
	// Report returns `sar -u -r -S -b -f file` output.
	Report(ctx context.Context, file string) ([]byte, error)
	// Export returns `sadf -d file -- <flag>` output for one section.
	Export(ctx context.Context, file string, section model.Section) ([]byte, error)
}

// Exec runs the sysstat binaries as subprocesses.
type Exec struct {
	SarPath  string
	SadfPath string
	Timeout  time.Duration
	Logger   *logger.Logger
}

func New(sarPath, sadfPath string, timeout time.Duration, log *logger.Logger) *Exec {
	return &Exec{
		SarPath:  sarPath,
		SadfPath: sadfPath,
		Timeout:  timeout,
		Logger:   log,
	}
}

// SectionFlag is the sar activity flag that prints a section.
func SectionFlag(s model.Section) (string, bool) {
	switch s {
	case model.SectionCPU:
		return "-u", true
	case model.SectionMemory:
		return "-r", true
	case model.SectionSwap:
		return "-S", true
	case model.SectionIO:
		return "-b", true
	}
	return "", false
}

func (e *Exec) Report(ctx context.Context, file string) ([]byte, error) {
	return e.run(ctx, e.SarPath, "-u", "-r", "-S", "-b", "-f", file)
}

func (e *Exec) Export(ctx context.Context, file string, section model.Section) ([]byte, error) {
	flag, ok := SectionFlag(section)
	if !ok {
		return nil, fmt.Errorf("no sadf flag for section %s", section)
	}
	return e.run(ctx, e.SadfPath, "-d", file, "--", flag)
}

func (e *Exec) run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", bin, ErrNotFound)
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	// no shell, args passed separately
	cmd := exec.CommandContext(ctx, path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.Logger.Debugf("executing: %v", cmd)

	out, err := cmd.Output()
	if err != nil {
		s := stderr.String()
		if len(s) > stderrLimit {
			s = s[:stderrLimit] + "… (truncated)"
		}
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return out, fmt.Errorf("%v: %w (stderr: %s)", cmd, err, strings.TrimSpace(s))
	}
	return out, nil
}
