package sarparse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dicklesworthstone/sarcompare/internal/model"
)

func TestClassify(t *testing.T) {
	tests := map[string]struct {
		line        string
		open        bool
		wantKind    Kind
		wantSection model.Section
		wantHeader  []string
	}{
		"cpu header": {
			line:        "10:00:01        CPU     %user     %nice   %system   %iowait    %steal     %idle",
			wantKind:    StartSection,
			wantSection: model.SectionCPU,
			wantHeader:  []string{"timestamp", "CPU", "%user", "%nice", "%system", "%iowait", "%steal", "%idle"},
		},
		"cpu header 12h clock": {
			line:        "12:00:01 AM     CPU     %user     %system",
			wantKind:    StartSection,
			wantSection: model.SectionCPU,
			wantHeader:  []string{"timestamp", "CPU", "%user", "%system"},
		},
		"memory header": {
			line:        "10:00:01    kbmemfree   kbavail kbmemused  %memused kbbuffers",
			wantKind:    StartSection,
			wantSection: model.SectionMemory,
			wantHeader:  []string{"timestamp", "kbmemfree", "kbavail", "kbmemused", "%memused", "kbbuffers"},
		},
		"old memory header with swap columns is memory": {
			line:        "kbmemfree kbmemused  %memused kbbuffers  kbcached kbswpfree kbswpused  %swpused  kbswpcad",
			open:        true,
			wantKind:    StartSection,
			wantSection: model.SectionMemory,
			wantHeader:  []string{"timestamp", "kbmemfree", "kbmemused", "%memused", "kbbuffers", "kbcached", "kbswpfree", "kbswpused", "%swpused", "kbswpcad"},
		},
		"swap header": {
			line:        "10:00:01    kbswpfree kbswpused  %swpused  kbswpcad   %swpcad",
			wantKind:    StartSection,
			wantSection: model.SectionSwap,
			wantHeader:  []string{"timestamp", "kbswpfree", "kbswpused", "%swpused", "kbswpcad", "%swpcad"},
		},
		"io header": {
			line:        "10:00:01          tps      rtps      wtps   bread/s   bwrtn/s",
			wantKind:    StartSection,
			wantSection: model.SectionIO,
			wantHeader:  []string{"timestamp", "tps", "rtps", "wtps", "bread/s", "bwrtn/s"},
		},
		"header starting with time label": {
			line:        "time CPU %user %system",
			wantKind:    StartSection,
			wantSection: model.SectionCPU,
			wantHeader:  []string{"time", "CPU", "%user", "%system"},
		},
		"header inside open section starts a new one": {
			line:        "10:00:01          tps      rtps      wtps   bread/s   bwrtn/s",
			open:        true,
			wantKind:    StartSection,
			wantSection: model.SectionIO,
			wantHeader:  []string{"timestamp", "tps", "rtps", "wtps", "bread/s", "bwrtn/s"},
		},
		"tps alone is not a header": {
			line:     "tps rtps",
			open:     true,
			wantKind: Ignore,
		},
		"blank": {
			line:     "   ",
			open:     true,
			wantKind: NoiseBoundary,
		},
		"average": {
			line:     "Average:        all     11.17      0.00      2.60",
			open:     true,
			wantKind: NoiseBoundary,
		},
		"average in portuguese any case": {
			line:     "MÉDIA:          all     21,17",
			open:     true,
			wantKind: NoiseBoundary,
		},
		"banner": {
			line:     "Linux 5.15.0-91-generic (vm1) 	11/07/2025 	_x86_64_	(2 CPU)",
			wantKind: NoiseBoundary,
		},
		"banner with node": {
			line:     "linux-node-7 kernel 5.4",
			open:     true,
			wantKind: NoiseBoundary,
		},
		"restart marker": {
			line:     "12:30:01 AM       LINUX RESTART	(8 CPU)",
			open:     true,
			wantKind: NoiseBoundary,
		},
		"data line": {
			line:     "10:00:02        all     10.50      0.00",
			open:     true,
			wantKind: DataLine,
		},
		"data line single digit hour": {
			line:     "9:00:02 PM all 10.50",
			open:     true,
			wantKind: DataLine,
		},
		"fallback data line": {
			line:     "2025-11-07T10:00:02 all 10.50",
			open:     true,
			wantKind: FallbackDataLine,
		},
		"no digits in open section": {
			line:     "all cpu none",
			open:     true,
			wantKind: Ignore,
		},
		"data line with no open section": {
			line:     "10:00:02        all     10.50      0.00",
			wantKind: Ignore,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := Classify(test.line, test.open)

			assert.Equal(t, test.wantKind, c.Kind, c.Kind.String())
			assert.Equal(t, test.wantSection, c.Section)
			assert.Equal(t, test.wantHeader, c.Header)
		})
	}
}

func TestParseHeader(t *testing.T) {
	tests := map[string]struct {
		line string
		want []string
	}{
		"synthetic timestamp": {
			line: "%user %system",
			want: []string{"timestamp", "%user", "%system"},
		},
		"explicit timestamp": {
			line: "timestamp %user %nice %system %iowait %steal %idle",
			want: []string{"timestamp", "%user", "%nice", "%system", "%iowait", "%steal", "%idle"},
		},
		"time of day becomes timestamp": {
			line: "10:00:01 tps wtps",
			want: []string{"timestamp", "tps", "wtps"},
		},
		"leading number kept": {
			line: "0 tps wtps",
			want: []string{"0", "tps", "wtps"},
		},
		"empty": {
			line: "",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.want, parseHeader(test.line))
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"12:00:01 AM", "10,5", "0,00"}, tokenize("12:00:01 AM 10,5 0,00"))
	assert.Equal(t, []string{"12:00:01", "10,5"}, tokenize("  12:00:01\t10,5 "))
	assert.Equal(t, []string{"AM", "12:00:01"}, tokenize("AM 12:00:01"))
}
