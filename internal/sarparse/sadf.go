package sarparse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Dicklesworthstone/sarcompare/internal/model"
)

var ErrNoHeader = errors.New("no header line")

// ParseSadf parses the semicolon separated output of `sadf -d`:
//
//	# hostname;interval;timestamp;CPU;%user;%nice;%system;%iowait;%steal;%idle
//	vm1;600;2025-11-07 10:10:01 UTC;-1;1,23;0,00;0,45;0,02;0,00;98,30
//
// Each "#" line opens a block. When section is SectionUnknown it is detected
// from the header the same way sar headers are.
func ParseSadf(text, label string, section model.Section) (*model.Store, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	store := model.NewStore()
	var (
		header []string
		sec    model.Section
		rows   [][]string
		seen   bool
	)

	flush := func() {
		if len(header) > 0 && len(rows) > 0 && sec != model.SectionUnknown {
			if ds := buildSadfDataset(label, sec, header, rows); ds != nil {
				store.Put(ds)
			}
		}
		header, rows = nil, nil
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sadf output: %w", err)
		}
		if len(rec) == 0 {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(rec[0]), "#") {
			flush()
			seen = true
			header = cleanSadfHeader(rec)
			sec = section
			if sec == model.SectionUnknown {
				sec = detectSection(strings.Join(header, " "))
			}
			continue
		}
		if header == nil {
			continue
		}
		rows = append(rows, rec)
	}
	flush()

	if !seen {
		return nil, ErrNoHeader
	}
	return store, nil
}

// isSadfText adds the host and interval fields sadf prefixes every record
// with to the time-of-day columns.
func isSadfText(col string) bool {
	switch strings.ToLower(strings.TrimSpace(col)) {
	case "hostname", "interval":
		return true
	}
	return model.IsTextColumn(col)
}

func cleanSadfHeader(rec []string) []string {
	cols := make([]string, len(rec))
	for i, c := range rec {
		cols[i] = strings.TrimSpace(strings.ReplaceAll(c, "#", ""))
	}
	return cols
}

func buildSadfDataset(label string, section model.Section, header []string, rows [][]string) *model.Dataset {
	ds := model.NewDatasetFunc(label, section, header, isSadfText)
	for _, rec := range rows {
		text := make(map[string]string)
		values := make(map[string]float64)
		for i, col := range header {
			tok, ok := cellAt(header, rec, i)
			if !ok {
				continue
			}
			if isSadfText(col) {
				text[col] = strings.TrimSpace(tok)
				continue
			}
			if v, ok := ParseNumber(tok); ok {
				values[col] = v
			}
		}
		ds.AppendRow(text, values)
	}
	if ds.Len() == 0 {
		return nil
	}
	return ds
}
