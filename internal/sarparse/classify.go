package sarparse

import (
	"regexp"
	"strings"

	"github.com/Dicklesworthstone/sarcompare/internal/model"
)

// Kind tells the parser what to do with a line.
type Kind int

const (
	Ignore Kind = iota
	StartSection
	NoiseBoundary
	DataLine
	FallbackDataLine
)

func (k Kind) String() string {
	switch k {
	case StartSection:
		return "start-section"
	case NoiseBoundary:
		return "noise-boundary"
	case DataLine:
		return "data"
	case FallbackDataLine:
		return "fallback-data"
	default:
		return "ignore"
	}
}

// Class is the result of classifying one line. Section and Header are set
// only for StartSection.
type Class struct {
	Kind    Kind
	Section model.Section
	Header  []string
}

var (
	timeRe     = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}`)
	timeOnlyRe = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}$`)
	digitRe    = regexp.MustCompile(`\d`)
	// Linux 6.1.0-18-amd64 (vm1) 	10/18/2026 	_x86_64_	(4 CPU)
	bannerRe = regexp.MustCompile(`(?i)^linux\s+\S+\s+\(`)
)

// Classify decides the role of line given whether a section is open.
// Header and noise rules run before the data rules.
func Classify(line string, open bool) Class {
	line = strings.TrimSpace(line)

	if sec := detectSection(line); sec != model.SectionUnknown {
		return Class{Kind: StartSection, Section: sec, Header: parseHeader(line)}
	}
	if isNoise(line) {
		return Class{Kind: NoiseBoundary}
	}
	if !open {
		return Class{Kind: Ignore}
	}
	if timeRe.MatchString(line) {
		return Class{Kind: DataLine}
	}
	if digitRe.MatchString(line) {
		return Class{Kind: FallbackDataLine}
	}
	return Class{Kind: Ignore}
}

// detectSection checks the header signatures in a fixed order; the keyword
// sets overlap (old sar -r headers carry swap columns too).
func detectSection(line string) model.Section {
	low := strings.ToLower(line)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(low, w) {
				return true
			}
		}
		return false
	}

	switch {
	case strings.Contains(line, "%user") && has("cpu"):
		return model.SectionCPU
	case has("%memused") && has("kbmemfree", "kbmemused"):
		return model.SectionMemory
	case has("kbswpfree", "kbswpused"):
		return model.SectionSwap
	case has("tps") && has("wtps", "bwrtn", "bread", "wrtn"):
		return model.SectionIO
	}
	return model.SectionUnknown
}

func isNoise(line string) bool {
	return line == "" || isAverage(line) || isBanner(line)
}

// isAverage matches the summary rows sar prints under each section, in
// English or Portuguese locales.
func isAverage(line string) bool {
	low := strings.ToLower(line)
	return strings.Contains(low, "average") || strings.Contains(low, "média")
}

func isBanner(line string) bool {
	if bannerRe.MatchString(line) {
		return true
	}
	low := strings.ToLower(line)
	if strings.Contains(low, "linux restart") {
		return true
	}
	return strings.Contains(low, "linux") && strings.Contains(low, "node")
}

// parseHeader splits a header line into column names. sar puts the time of
// the first sample where the timestamp column name would be; that cell
// becomes "timestamp". A header that starts with a plain column name gets a
// synthetic "timestamp" column in front, since data rows always lead with
// one.
func parseHeader(line string) []string {
	cols := tokenize(line)
	if len(cols) == 0 {
		return nil
	}
	first := cols[0]
	switch {
	case timeRe.MatchString(first):
		cols[0] = "timestamp"
	case startsWithDigit(first):
	case strings.EqualFold(first, "time"), strings.EqualFold(first, "timestamp"):
	default:
		cols = append([]string{"timestamp"}, cols...)
	}
	return cols
}

// tokenize splits on whitespace and folds an AM/PM marker into the leading
// time-of-day token, so 12-hour reports keep the same column count as
// 24-hour ones.
func tokenize(line string) []string {
	tokens := strings.Fields(line)
	if len(tokens) >= 2 && timeOnlyRe.MatchString(tokens[0]) && isMeridiem(tokens[1]) {
		merged := tokens[0] + " " + tokens[1]
		tokens = append([]string{merged}, tokens[2:]...)
	}
	return tokens
}

func isMeridiem(s string) bool {
	return strings.EqualFold(s, "AM") || strings.EqualFold(s, "PM")
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
