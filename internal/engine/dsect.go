package engine

import "sort"

// dsectField is one inferred field within a DSECT: an offset from the
// dummy section's origin and the widest length ever observed through a
// reference to it (spec.md 4.3's length invariant).
type dsectField struct {
	Offset int
	Length int
}

// dsect is one dummy control section: an offset-keyed, growing set of
// inferred fields plus its optional descriptive comment (spec.md 4.3's
// Rn=>name and Rn=>name'desc' tag forms).
type dsect struct {
	Name   string
	Desc   string
	Fields map[int]*dsectField
}

// dsectRegistry is the DSECT registry (spec.md 4.3): every dummy section
// named by a USING tag, and the fields inferred against it as code and
// data decoding materialize base+displacement references into its
// territory.
type dsectRegistry struct {
	sections map[string]*dsect
}

func newDSECTRegistry() *dsectRegistry {
	return &dsectRegistry{sections: make(map[string]*dsect)}
}

// ensure returns the named DSECT, creating it on first use. desc is
// recorded only while the DSECT has no description yet — the first USING
// tag that supplies a non-empty one sets it, and later ones are ignored
// (spec.md 4.3).
func (d *dsectRegistry) ensure(name, desc string) *dsect {
	s, ok := d.sections[name]
	if !ok {
		s = &dsect{Name: name, Desc: desc, Fields: make(map[int]*dsectField)}
		d.sections[name] = s
		return s
	}
	if s.Desc == "" && desc != "" {
		s.Desc = desc
	}
	return s
}

// fieldLabel infers (or widens) a field at baseOffset+disp within the
// named DSECT and returns its symbolic label, name_hexoffset (spec.md
// 4.3's DSECT field naming).
func (d *dsectRegistry) fieldLabel(name string, baseOffset, disp, length int) string {
	s := d.ensure(name, "")
	total := baseOffset + disp
	f, ok := s.Fields[total]
	if !ok {
		s.Fields[total] = &dsectField{Offset: total, Length: maxInt(length, 1)}
	} else if length > f.Length {
		f.Length = length
	}
	return name + "_" + hexNoLeadingZeros(uint32(total))
}

// sortedFields returns a DSECT's fields ordered by ascending offset, for
// deterministic emission.
func (s *dsect) sortedFields() []*dsectField {
	out := make([]*dsectField, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// sortedNames returns every DSECT name in deterministic order, for
// finalization emission (spec.md 4.7).
func (d *dsectRegistry) sortedNames() []string {
	out := make([]string, 0, len(d.sections))
	for name := range d.sections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
