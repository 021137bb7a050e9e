package sysstat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/sarcompare/internal/model"
)

func writeExe(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755), "write %s", path)
}

func TestExec_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh scripts")
	}

	tmp := t.TempDir()

	echoArgs := filepath.Join(tmp, "echoargs.sh")
	writeExe(t, echoArgs, `#!/bin/sh
printf '%s|' "$@"
echo
`)

	longErr := filepath.Join(tmp, "longerr.sh")
	writeExe(t, longErr, `#!/bin/sh
printf '`+strings.Repeat("x", 9000)+`' 1>&2
exit 17
`)

	sleeper := filepath.Join(tmp, "sleep.sh")
	writeExe(t, sleeper, `#!/bin/sh
sleep 2
`)

	tests := map[string]struct {
		exec        *Exec
		call        func(e *Exec) ([]byte, error)
		wantOut     string
		wantErrIs   error
		errContains []string
	}{
		"sar report args": {
			exec: New(echoArgs, echoArgs, time.Second, nil),
			call: func(e *Exec) ([]byte, error) {
				return e.Report(context.Background(), "vm1.sar")
			},
			wantOut: "-u|-r|-S|-b|-f|vm1.sar|\n",
		},
		"sadf export args": {
			exec: New(echoArgs, echoArgs, time.Second, nil),
			call: func(e *Exec) ([]byte, error) {
				return e.Export(context.Background(), "vm1.sar", model.SectionSwap)
			},
			wantOut: "-d|vm1.sar|--|-S|\n",
		},
		"unknown section": {
			exec: New(echoArgs, echoArgs, time.Second, nil),
			call: func(e *Exec) ([]byte, error) {
				return e.Export(context.Background(), "vm1.sar", model.SectionUnknown)
			},
			errContains: []string{"no sadf flag"},
		},
		"nonzero exit with trimmed stderr": {
			exec: New(longErr, longErr, 5*time.Second, nil),
			call: func(e *Exec) ([]byte, error) {
				return e.Report(context.Background(), "vm1.sar")
			},
			errContains: []string{"stderr:", "truncated", "exit status 17"},
		},
		"timeout": {
			exec: New(sleeper, sleeper, 200*time.Millisecond, nil),
			call: func(e *Exec) ([]byte, error) {
				return e.Report(context.Background(), "vm1.sar")
			},
			wantErrIs: context.DeadlineExceeded,
		},
		"binary missing": {
			exec: New(filepath.Join(tmp, "missing", "sar"), "", time.Second, nil),
			call: func(e *Exec) ([]byte, error) {
				return e.Report(context.Background(), "vm1.sar")
			},
			wantErrIs: ErrNotFound,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			out, err := test.call(test.exec)

			if test.wantErrIs == nil && test.errContains == nil {
				require.NoError(t, err)
				assert.Equal(t, test.wantOut, string(out))
				return
			}
			require.Error(t, err)
			if test.wantErrIs != nil {
				assert.ErrorIs(t, err, test.wantErrIs)
			}
			for _, frag := range test.errContains {
				assert.Contains(t, err.Error(), frag)
			}
		})
	}
}

type mockRunner struct {
	reports map[string]string
	fail    string
}

func (m *mockRunner) Report(_ context.Context, file string) ([]byte, error) {
	if file == m.fail {
		return nil, errors.New("mock failure")
	}
	return []byte(m.reports[file]), nil
}

func (m *mockRunner) Export(_ context.Context, file string, s model.Section) ([]byte, error) {
	if file == m.fail {
		return nil, errors.New("mock failure")
	}
	return []byte(file + ":" + s.String()), nil
}

func TestFetchReports(t *testing.T) {
	r := &mockRunner{reports: map[string]string{"a.sar": "A", "b.sar": "B"}}

	out, err := FetchReports(context.Background(), r, []string{"a.sar", "b.sar"})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("A"), []byte("B")}, out)

	r.fail = "b.sar"
	_, err = FetchReports(context.Background(), r, []string{"a.sar", "b.sar"})
	assert.ErrorContains(t, err, "report for b.sar")
}

func TestFetchExports(t *testing.T) {
	r := &mockRunner{}
	sections := []model.Section{model.SectionCPU, model.SectionIO}

	out, err := FetchExports(context.Background(), r, []string{"a.sar", "b.sar"}, sections)
	require.NoError(t, err)
	assert.Equal(t, "a.sar:CPU", string(out[0][0]))
	assert.Equal(t, "b.sar:IO", string(out[1][1]))

	r.fail = "a.sar"
	_, err = FetchExports(context.Background(), r, []string{"a.sar", "b.sar"}, sections)
	assert.Error(t, err)
}

func TestSectionFlag(t *testing.T) {
	for s, want := range map[model.Section]string{
		model.SectionCPU:    "-u",
		model.SectionMemory: "-r",
		model.SectionSwap:   "-S",
		model.SectionIO:     "-b",
	} {
		got, ok := SectionFlag(s)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
}
