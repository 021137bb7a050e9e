package sarparse

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/sarcompare/internal/model"
)

var (
	dataSarEN, _     = os.ReadFile("testdata/sar-en.txt")
	dataSarPTBR, _   = os.ReadFile("testdata/sar-ptbr.txt")
	dataSar12h, _    = os.ReadFile("testdata/sar-12h.txt")
	dataSarLatin1, _ = os.ReadFile("testdata/sar-latin1.txt")
	dataSadfCPU, _   = os.ReadFile("testdata/sadf-cpu.csv")
)

func Test_testDataIsValid(t *testing.T) {
	for name, data := range map[string][]byte{
		"dataSarEN":     dataSarEN,
		"dataSarPTBR":   dataSarPTBR,
		"dataSar12h":    dataSar12h,
		"dataSarLatin1": dataSarLatin1,
		"dataSadfCPU":   dataSadfCPU,
	} {
		require.NotNil(t, data, name)
	}
}

func column(t *testing.T, s *model.Store, key, col string) []float64 {
	t.Helper()
	ds, ok := s.Get(key)
	require.Truef(t, ok, "missing dataset %s", key)
	v, ok := ds.Column(col)
	require.Truef(t, ok, "missing column %s in %s", col, key)
	return v
}

func TestParse_Reports(t *testing.T) {
	tests := map[string]struct {
		input    []byte
		label    string
		wantKeys []string
		check    func(t *testing.T, s *model.Store)
	}{
		"english locale": {
			input:    dataSarEN,
			label:    "VM1",
			wantKeys: []string{"VM1_CPU", "VM1_IO", "VM1_MEMORY", "VM1_SWAP"},
			check: func(t *testing.T, s *model.Store) {
				assert.Equal(t, []float64{10.5, 12, 11}, column(t, s, "VM1_CPU", "%user"))
				assert.Equal(t, []float64{2.3, 3, 2.5}, column(t, s, "VM1_CPU", "%system"))
				assert.Equal(t, []float64{45, 45.1, 45.2}, column(t, s, "VM1_MEMORY", "%memused"))
				assert.Equal(t, []float64{0, 0, 0.05}, column(t, s, "VM1_SWAP", "%swpused"))
				assert.Equal(t, []float64{64, 72, 48}, column(t, s, "VM1_IO", "bwrtn/s"))

				ds, _ := s.Get("VM1_CPU")
				assert.Equal(t, []string{"10:00:02", "10:00:03", "10:00:04"}, ds.Timestamps())
				cpu := column(t, s, "VM1_CPU", "CPU")
				for _, v := range cpu {
					assert.True(t, model.IsMissing(v))
				}
			},
		},
		"portuguese locale with decimal commas": {
			input:    dataSarPTBR,
			label:    "VM2",
			wantKeys: []string{"VM2_CPU", "VM2_IO", "VM2_MEMORY", "VM2_SWAP"},
			check: func(t *testing.T, s *model.Store) {
				assert.Equal(t, []float64{20.5, 22, 21}, column(t, s, "VM2_CPU", "%user"))
				assert.Equal(t, []float64{60, 60.1}, column(t, s, "VM2_MEMORY", "%memused"))
				assert.Equal(t, []float64{1048576, 1049600}, column(t, s, "VM2_MEMORY", "kbactive"))
				assert.Equal(t, []float64{4.77, 4.82}, column(t, s, "VM2_SWAP", "%swpused"))
				assert.Equal(t, []float64{12, 14}, column(t, s, "VM2_IO", "tps"))
			},
		},
		"12 hour clock with restart keeps the last block": {
			input:    dataSar12h,
			label:    "VM1",
			wantKeys: []string{"VM1_CPU", "VM1_MEMORY"},
			check: func(t *testing.T, s *model.Store) {
				assert.Equal(t, []float64{3}, column(t, s, "VM1_CPU", "%user"))
				assert.Equal(t, []float64{53.48, 53.49}, column(t, s, "VM1_MEMORY", "%memused"))

				ds, _ := s.Get("VM1_MEMORY")
				assert.Equal(t, []string{"12:10:01 AM", "12:20:01 AM"}, ds.Timestamps())
			},
		},
		"latin-1 output": {
			input:    dataSarLatin1,
			label:    "VM2",
			wantKeys: []string{"VM2_CPU"},
			check: func(t *testing.T, s *model.Store) {
				assert.Equal(t, []float64{20.5}, column(t, s, "VM2_CPU", "%user"))
			},
		},
		"empty input": {
			input: []byte(""),
			label: "VM1",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			s := Parse(Decode(test.input), test.label)

			if test.wantKeys == nil {
				assert.Zero(t, s.Len())
			} else {
				assert.Equal(t, test.wantKeys, s.Keys())
			}
			if test.check != nil {
				test.check(t, s)
			}
		})
	}
}

func TestParser_ParseInto_TwoLabels(t *testing.T) {
	p := New(nil)
	store := model.NewStore()

	st1 := p.ParseInto(store, string(dataSarEN), "VM1")
	st2 := p.ParseInto(store, Decode(dataSarPTBR), "VM2")

	assert.Equal(t, 4, st1.Flushed)
	assert.Equal(t, 4, st2.Flushed)
	assert.Equal(t, 8, store.Len())

	col, ok := store.FindColumn("VM1_CPU", "%user", "user")
	assert.True(t, ok)
	assert.Equal(t, "%user", col)
}

func TestBuildDataset_Alignment(t *testing.T) {
	tests := map[string]struct {
		header string
		row    string
		want   map[string]float64
		text   map[string]string
	}{
		"decimal commas with meridiem": {
			header: "timestamp %user %nice %system %iowait %steal %idle",
			row:    "12:00:01 AM 10,5 0,00 2,3 0,1 0,0 87,1",
			want:   map[string]float64{"%user": 10.5, "%nice": 0, "%system": 2.3, "%iowait": 0.1, "%steal": 0, "%idle": 87.1},
			text:   map[string]string{"timestamp": "12:00:01 AM"},
		},
		"synthetic timestamp column": {
			header: "%user %system",
			row:    "12:00:02 5,0 1,0",
			want:   map[string]float64{"%user": 5, "%system": 1},
			text:   map[string]string{"timestamp": "12:00:02"},
		},
		"extra tokens are dropped": {
			header: "%user %system",
			row:    "12:00:02 5,0 1,0 7,7",
			want:   map[string]float64{"%user": 5, "%system": 1},
			text:   map[string]string{"timestamp": "12:00:02"},
		},
		"unparseable cell is missing": {
			header: "%user %system",
			row:    "12:00:02 n/a 1,0",
			want:   map[string]float64{"%system": 1},
			text:   map[string]string{"timestamp": "12:00:02"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			header := parseHeader(test.header)
			ds, malformed := buildDataset("VM1", model.SectionCPU, header, []string{test.row})
			require.NotNil(t, ds)
			assert.Zero(t, malformed)
			assert.Equal(t, 1, ds.Len())

			for _, col := range ds.NumericColumns() {
				v, _ := ds.Column(col)
				if want, ok := test.want[col]; ok {
					assert.InDelta(t, want, v[0], 1e-9, col)
				} else {
					assert.True(t, model.IsMissing(v[0]), col)
				}
			}
			for col, want := range test.text {
				v, ok := ds.Text(col)
				require.True(t, ok)
				assert.Equal(t, want, v[0])
			}
		})
	}
}

func TestBuildDataset_PositionalWhenLengthsMatch(t *testing.T) {
	for n := 2; n <= 10; n++ {
		header := []string{"timestamp"}
		tokens := []string{"10:00:00"}
		for i := 1; i < n; i++ {
			header = append(header, fmt.Sprintf("c%d", i))
			tokens = append(tokens, fmt.Sprintf("%d,%d", i, i))
		}

		ds, _ := buildDataset("VM1", model.SectionIO, header, []string{strings.Join(tokens, " ")})
		require.NotNil(t, ds)

		for i := 1; i < n; i++ {
			v, ok := ds.Column(header[i])
			require.True(t, ok)
			assert.InDelta(t, float64(i)+float64(i)/10, v[0], 1e-9)
		}
	}
}

func TestBuildDataset_ShortRowsAlignRight(t *testing.T) {
	header := []string{"timestamp", "a", "b", "c", "d", "e"}

	for k := 1; k <= 4; k++ {
		n := len(header) - k
		tokens := make([]string, n)
		for i := range tokens {
			tokens[i] = fmt.Sprintf("%d", i+1)
		}

		ds, _ := buildDataset("VM1", model.SectionIO, header, []string{strings.Join(tokens, " ")})
		require.NotNil(t, ds, "k=%d", k)

		for i, col := range header {
			if col == "timestamp" {
				ts, _ := ds.Text(col)
				assert.Equal(t, "", ts[0])
				continue
			}
			v, _ := ds.Column(col)
			if i < k {
				assert.True(t, model.IsMissing(v[0]), "k=%d col=%s", k, col)
			} else {
				assert.Equal(t, float64(i-k+1), v[0], "k=%d col=%s", k, col)
			}
		}
	}
}

func TestBuildDataset_Filtering(t *testing.T) {
	header := parseHeader("CPU %user %system")
	rows := []string{
		"10:00:02 all 1,0 2,0",
		"Average: all 1,0 2,0",
		"média: all 1,0 2,0",
		"10:00:03",
		"",
		"10:00:04 all 3,0 4,0",
	}

	ds, malformed := buildDataset("VM1", model.SectionCPU, header, rows)
	require.NotNil(t, ds)

	assert.Equal(t, 1, malformed)
	assert.Equal(t, 2, ds.Len())
	v, _ := ds.Column("%user")
	assert.Equal(t, []float64{1, 3}, v)

	ds, malformed = buildDataset("VM1", model.SectionCPU, header, []string{"10:00:03", "Average: 1 2"})
	assert.Nil(t, ds)
	assert.Equal(t, 1, malformed)
}

func TestBuildDataset_OnlyTimeColumnsAreText(t *testing.T) {
	header := parseHeader("interval hostname tps")
	require.Equal(t, []string{"timestamp", "interval", "hostname", "tps"}, header)

	ds, _ := buildDataset("VM1", model.SectionIO, header, []string{"10:00:02 600 7 5,0"})
	require.NotNil(t, ds)

	assert.Equal(t, []string{"10:00:02"}, ds.Timestamps())
	for col, want := range map[string]float64{"interval": 600, "hostname": 7, "tps": 5} {
		v, ok := ds.Column(col)
		require.True(t, ok, col)
		assert.Equal(t, []float64{want}, v, col)
	}
}

func TestParse_Boundaries(t *testing.T) {
	const cpuHeader = "10:00:01 CPU %user %nice %system %iowait %steal %idle"

	tests := map[string]struct {
		lines     []string
		wantKeys  []string
		wantUser  []float64
		wantStats func(t *testing.T, st Stats)
	}{
		"header without rows yields no dataset": {
			lines: []string{cpuHeader, "", "Average: all 1 0 0 0 0 99"},
			wantStats: func(t *testing.T, st Stats) {
				assert.Equal(t, 1, st.Empty)
				assert.Zero(t, st.Flushed)
			},
		},
		"final flush at end of input": {
			lines:    []string{cpuHeader, "10:00:02 all 1,5 0 0 0 0 98,5", "10:00:03 all 2,5 0 0 0 0 97,5"},
			wantKeys: []string{"VM1_CPU"},
			wantUser: []float64{1.5, 2.5},
			wantStats: func(t *testing.T, st Stats) {
				assert.Equal(t, 1, st.Flushed)
			},
		},
		"average rows never become data": {
			lines:    []string{cpuHeader, "10:00:02 all 1 0 0 0 0 99", "AVERAGE: all 50 0 0 0 0 50", "10:00:03 all 7 0 0 0 0 93"},
			wantKeys: []string{"VM1_CPU"},
			wantUser: []float64{1},
		},
		"repeated header replaces earlier block": {
			lines:    []string{cpuHeader, "10:00:02 all 1 0 0 0 0 99", cpuHeader, "10:00:03 all 2 0 0 0 0 98"},
			wantKeys: []string{"VM1_CPU"},
			wantUser: []float64{2},
			wantStats: func(t *testing.T, st Stats) {
				assert.Equal(t, 2, st.Flushed)
				assert.Equal(t, 2, st.Kinds[StartSection])
			},
		},
		"fallback rows are kept": {
			lines:    []string{cpuHeader, "2025-11-07T10:00:02 all 4,0 0 0 0 0 96,0"},
			wantKeys: []string{"VM1_CPU"},
			wantUser: []float64{4},
			wantStats: func(t *testing.T, st Stats) {
				assert.Equal(t, 1, st.Kinds[FallbackDataLine])
			},
		},
		"rows before any header are ignored": {
			lines: []string{"10:00:02 all 1 0 0 0 0 99", "some text"},
			wantStats: func(t *testing.T, st Stats) {
				assert.Equal(t, 2, st.Kinds[Ignore])
			},
		},
		"windows line endings": {
			lines:    []string{cpuHeader + "\r", "10:00:02 all 6 0 0 0 0 94\r"},
			wantKeys: []string{"VM1_CPU"},
			wantUser: []float64{6},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			store := model.NewStore()
			st := New(nil).ParseInto(store, strings.Join(test.lines, "\n"), "VM1")

			if test.wantKeys == nil {
				assert.Zero(t, store.Len())
			} else {
				assert.Equal(t, test.wantKeys, store.Keys())
			}
			if test.wantUser != nil {
				assert.Equal(t, test.wantUser, column(t, store, "VM1_CPU", "%user"))
			}
			if test.wantStats != nil {
				test.wantStats(t, st)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := map[string]struct {
		in     string
		want   float64
		wantOK bool
	}{
		"dot":     {in: "10.5", want: 10.5, wantOK: true},
		"comma":   {in: "10,5", want: 10.5, wantOK: true},
		"integer": {in: " 42 ", want: 42, wantOK: true},
		"empty":   {in: ""},
		"text":    {in: "all"},
		"dash":    {in: "-"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			v, ok := ParseNumber(test.in)
			assert.Equal(t, test.wantOK, ok)
			assert.Equal(t, test.want, v)
		})
	}
}

func TestDecode(t *testing.T) {
	assert.Equal(t, "Média", Decode([]byte("Média")))
	assert.Equal(t, "Média", Decode([]byte{'M', 0xe9, 'd', 'i', 'a'}))
}
