package sarparse

import (
	"strconv"
	"strings"

	"github.com/Dicklesworthstone/sarcompare/internal/logger"
	"github.com/Dicklesworthstone/sarcompare/internal/model"
)

// Parser turns sar text output into per-section datasets.
type Parser struct {
	Logger *logger.Logger
}

func New(log *logger.Logger) *Parser {
	return &Parser{Logger: log}
}

// Stats counts what one parse saw.
type Stats struct {
	Lines     int
	Kinds     map[Kind]int
	Flushed   int // datasets stored
	Empty     int // sections dropped without rows
	Malformed int // rows discarded
}

// Parse parses one report into a fresh store without logging.
func Parse(text, label string) *model.Store {
	store := model.NewStore()
	New(nil).ParseInto(store, text, label)
	return store
}

// Parse parses one report into a fresh store.
func (p *Parser) Parse(text, label string) *model.Store {
	store := model.NewStore()
	p.ParseInto(store, text, label)
	return store
}

// ParseInto parses one report and stores its sections in store under
// "{label}_{section}". Concurrent calls must not share a store unless the
// caller serializes them.
func (p *Parser) ParseInto(store *model.Store, text, label string) Stats {
	st := &state{
		label: label,
		store: store,
		log:   p.Logger.With("label", label),
		stats: Stats{Kinds: make(map[Kind]int)},
	}

	for _, line := range strings.Split(text, "\n") {
		st.step(line)
	}
	st.flush()

	p.Logger.Debugf("parsed %s: %d lines, %d datasets, %d empty sections, %d malformed rows",
		label, st.stats.Lines, st.stats.Flushed, st.stats.Empty, st.stats.Malformed)

	return st.stats
}

// state is the accumulator threaded through the lines of one parse.
type state struct {
	label   string
	section model.Section
	header  []string
	buffer  []string

	store *model.Store
	log   *logger.Logger
	stats Stats
}

func (st *state) open() bool { return st.section != model.SectionUnknown }

func (st *state) step(line string) {
	line = strings.TrimSpace(line)
	st.stats.Lines++

	c := Classify(line, st.open())
	st.stats.Kinds[c.Kind]++

	switch c.Kind {
	case StartSection:
		st.flush()
		st.section, st.header = c.Section, c.Header
	case NoiseBoundary:
		st.flush()
	case DataLine, FallbackDataLine:
		st.buffer = append(st.buffer, line)
	case Ignore:
	}
}

func (st *state) reset() {
	st.section = model.SectionUnknown
	st.header = nil
	st.buffer = nil
}

func (st *state) flush() {
	defer st.reset()

	if !st.open() || len(st.header) == 0 {
		return
	}
	if len(st.buffer) == 0 {
		st.stats.Empty++
		return
	}

	ds, malformed := buildDataset(st.label, st.section, st.header, st.buffer)
	st.stats.Malformed += malformed
	if ds == nil {
		st.stats.Empty++
		st.log.Debugf("section %s has no usable rows", st.section)
		return
	}

	if _, ok := st.store.Get(ds.Key()); ok {
		st.log.Debugf("section %s seen again, replacing earlier block", st.section)
	}
	st.store.Put(ds)
	st.stats.Flushed++
}

// buildDataset aligns the buffered rows against header and normalizes the
// numeric cells. It returns nil when no row survives.
func buildDataset(label string, section model.Section, header, rows []string) (*model.Dataset, int) {
	ds := model.NewDataset(label, section, header)
	var malformed int

	for _, ln := range rows {
		ln = strings.TrimSpace(ln)
		if ln == "" || isAverage(ln) || isBanner(ln) {
			continue
		}
		tokens := tokenize(ln)
		if len(tokens) < 2 {
			malformed++
			continue
		}

		text := make(map[string]string)
		values := make(map[string]float64)
		for i, col := range header {
			tok, ok := cellAt(header, tokens, i)
			if model.IsTextColumn(col) {
				if ok {
					text[col] = tok
				}
				continue
			}
			v := model.Missing()
			if ok {
				if f, ok := ParseNumber(tok); ok {
					v = f
				}
			}
			values[col] = v
		}
		ds.AppendRow(text, values)
	}

	if ds.Len() == 0 {
		return nil, malformed
	}
	return ds, malformed
}

// cellAt returns the token under header column i. Rows with at least as
// many tokens as columns map positionally; shorter rows are right-aligned
// so the leading columns go missing.
func cellAt(header, tokens []string, i int) (string, bool) {
	if len(tokens) >= len(header) {
		return tokens[i], true
	}
	j := i - (len(header) - len(tokens))
	if j < 0 {
		return "", false
	}
	return tokens[j], true
}

// ParseNumber reads a number written with either decimal separator.
func ParseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
