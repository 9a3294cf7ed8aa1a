package engine

import (
	"fmt"
	"sort"
)

// stats is the optional format/mnemonic frequency counter (spec.md 4.8).
type stats struct {
	byFormat   map[string]int
	byMnemonic map[string]int
	formatOf   map[string]string // mnemonic -> format, for grouped reporting
}

func newStats() *stats {
	return &stats{
		byFormat:   make(map[string]int),
		byMnemonic: make(map[string]int),
		formatOf:   make(map[string]string),
	}
}

func (s *stats) record(format, mnemonic string) {
	s.byFormat[format]++
	s.byMnemonic[mnemonic]++
	s.formatOf[mnemonic] = format
}

// render emits two sorted frequency tables, mnemonics grouped by format.
func (s *stats) render() []string {
	var out []string
	out = append(out, "* FORMAT FREQUENCY")
	formats := make([]string, 0, len(s.byFormat))
	for f := range s.byFormat {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	for _, f := range formats {
		out = append(out, fmt.Sprintf("*   %-8s %d", f, s.byFormat[f]))
	}

	out = append(out, "* MNEMONIC FREQUENCY (by format)")
	for _, f := range formats {
		var mnems []string
		for m, mf := range s.formatOf {
			if mf == f {
				mnems = append(mnems, m)
			}
		}
		sort.Strings(mnems)
		for _, m := range mnems {
			out = append(out, fmt.Sprintf("*   %-8s %-8s %d", f, m, s.byMnemonic[m]))
		}
	}
	return out
}
