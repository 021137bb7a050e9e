package model

import (
	"fmt"
	"strings"
)

// Section is one of the report tables sar prints.
type Section int

const (
	SectionUnknown Section = iota
	SectionCPU
	SectionMemory
	SectionSwap
	SectionIO
)

var sectionNames = [...]string{
	SectionUnknown: "",
	SectionCPU:     "CPU",
	SectionMemory:  "MEMORY",
	SectionSwap:    "SWAP",
	SectionIO:      "IO",
}

// Sections lists the known sections in header detection order.
func Sections() []Section {
	return []Section{SectionCPU, SectionMemory, SectionSwap, SectionIO}
}

func (s Section) String() string {
	if s < 0 || int(s) >= len(sectionNames) {
		return fmt.Sprintf("Section(%d)", int(s))
	}
	return sectionNames[s]
}

// ParseSection maps a section name (any case) back to its Section.
func ParseSection(name string) (Section, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, s := range Sections() {
		if sectionNames[s] == name {
			return s, true
		}
	}
	return SectionUnknown, false
}

func (s Section) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Section) UnmarshalText(text []byte) error {
	v, ok := ParseSection(string(text))
	if !ok {
		return fmt.Errorf("unknown section %q", text)
	}
	*s = v
	return nil
}

// Key is the store key of a label's section, e.g. "VM1_CPU".
func Key(label string, s Section) string {
	return label + "_" + s.String()
}
