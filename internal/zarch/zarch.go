// Package zarch holds the static, load-once tables that describe the
// z/Architecture instruction set as this disassembler understands it:
// instruction formats (field layouts), instruction definitions (opcode to
// mnemonic/format/semantic), extended-mnemonic tables, EBCDIC
// classification and SVC descriptions. Nothing in this package depends on
// a disassembly session; internal/engine is the only consumer and owns all
// per-session state.
package zarch

import (
	"bufio"
	"embed"
	"fmt"
	"log"
	"strconv"
	"strings"
)

//go:embed formats.txt instructions.txt extended.txt
var embedded embed.FS

// SemFlag is the semantic flag carried by an instruction definition
// (spec.md 4.1).
type SemFlag string

const (
	SemNone        SemFlag = "."
	SemArith       SemFlag = "A"
	SemCompare     SemFlag = "C"
	SemTestMask    SemFlag = "M"
	SemBranch      SemFlag = "B"
	SemRelBranch   SemFlag = "R"
	SemCompareJump SemFlag = "CJ"
	SemJumpIndex   SemFlag = "JX"
	SemCondStore   SemFlag = "O"
	SemSelect      SemFlag = "S"
	SemRotate      SemFlag = "RO"
	SemRel16       SemFlag = "R4"
	SemRel32       SemFlag = "R8"
	SemSetsCC      SemFlag = "c"
)

// Field is one named, fixed-width slot in a format's parse template.
type Field struct {
	Name   string
	Nibble int // nibble offset within the 12-nibble probe window
	Width  int // width in nibbles
}

// Format is a parsed instruction-format template (spec.md 4.1).
type Format struct {
	Name      string
	NibbleLen int
	Fields    []Field
	Operands  []OperandSpec // the format's emit recipe
}

// fieldByName returns the field with the given name, or ok=false.
func (f *Format) fieldByName(name string) (Field, bool) {
	for _, fl := range f.Fields {
		if fl.Name == name {
			return fl, true
		}
	}
	return Field{}, false
}

// LengthHint is a pure function of an instruction's parsed fields,
// returning the number of bytes its memory operand implicitly covers, or
// -1 if the instruction defines no hint (spec.md 4.1's "default is empty
// string").
type LengthHint func(fields map[string]uint64) int

// Instruction is a parsed instruction definition (spec.md 4.1).
type Instruction struct {
	Mnemonic   string
	FormatName string
	Opcode     string // literal nibble string matched at the probe position
	Semantic   SemFlag
	Hint       LengthHint
	Desc       string
}

// Tables is the fully loaded, validated set of static tables. One instance
// is built at package init and shared read-only by every engine session
// (spec.md 5: "no process-wide state" refers to engine state, not these
// immutable tables).
type Tables struct {
	Formats      map[string]*Format
	byOpcode     map[string]*Instruction // key: format name + "|" + opcode
	Mnemonics    map[string]*Instruction
	ExtBranch    extTable
	ExtSelect    extTable
	ExtCondStore extTable
	ExtCompareJ  extTable
}

var T *Tables

func init() {
	t, err := load()
	if err != nil {
		// spec.md 7: TableError at startup is a programmer error; the
		// embedded tables are a build-time invariant, so a load failure
		// here can only mean the embedded text itself was edited
		// incorrectly.
		log.Fatalf("zarch: table load failed: %v", err)
	}
	T = t
}

func load() (*Tables, error) {
	formats, err := loadFormats()
	if err != nil {
		return nil, err
	}
	attachOperandRecipes(formats)

	byOpcode, mnemonics, err := loadInstructions(formats)
	if err != nil {
		return nil, err
	}

	ext, err := loadExtended()
	if err != nil {
		return nil, err
	}

	return &Tables{
		Formats:      formats,
		byOpcode:     byOpcode,
		Mnemonics:    mnemonics,
		ExtBranch:    ext["branch"],
		ExtSelect:    ext["select"],
		ExtCondStore: ext["cond"],
		ExtCompareJ:  ext["cj"],
	}, nil
}

func loadFormats() (map[string]*Format, error) {
	f, err := embedded.Open("formats.txt")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]*Format)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 3 {
			return nil, fmt.Errorf("DIS0002: malformed format line: %q", line)
		}
		name := parts[0]
		nibbleLen, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("DIS0002: format %s: bad nibble length: %v", name, err)
		}
		var fields []Field
		offset := 0
		sum := 0
		for _, spec := range parts[2:] {
			fv := strings.SplitN(spec, ":", 2)
			if len(fv) != 2 {
				return nil, fmt.Errorf("DIS0002: format %s: bad field spec: %q", name, spec)
			}
			width, err := strconv.Atoi(fv[1])
			if err != nil {
				return nil, fmt.Errorf("DIS0002: format %s: bad field width: %q", name, spec)
			}
			fields = append(fields, Field{Name: fv[0], Nibble: offset, Width: width})
			offset += width
			sum += width
		}
		if sum != nibbleLen {
			return nil, fmt.Errorf("DIS0002: format %s: field widths sum to %d, declared length is %d", name, sum, nibbleLen)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("DIS0002: duplicate format name %s", name)
		}
		out[name] = &Format{Name: name, NibbleLen: nibbleLen, Fields: fields}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func loadInstructions(formats map[string]*Format) (map[string]*Instruction, map[string]*Instruction, error) {
	f, err := embedded.Open("instructions.txt")
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	byOpcode := make(map[string]*Instruction)
	byMnemonic := make(map[string]*Instruction)

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return nil, nil, fmt.Errorf("DIS0005: malformed instruction line: %q", line)
		}
		mnemonic := fields[0]
		formatName := fields[1]
		opcode := strings.ToUpper(fields[2])
		semantic := SemFlag(fields[3])
		hintSpec := fields[4]

		if _, ok := formats[formatName]; !ok {
			return nil, nil, fmt.Errorf("DIS0005: instruction %s: unknown format %s", mnemonic, formatName)
		}

		idx := indexOfNthField(line, 5)
		desc := ""
		if idx >= 0 && idx < len(line) {
			desc = strings.TrimSpace(line[idx:])
		}

		hint, err := parseLengthHint(hintSpec)
		if err != nil {
			return nil, nil, fmt.Errorf("DIS0005: instruction %s: %v", mnemonic, err)
		}

		insn := &Instruction{
			Mnemonic:   mnemonic,
			FormatName: formatName,
			Opcode:     opcode,
			Semantic:   semantic,
			Hint:       hint,
			Desc:       desc,
		}

		key := formatName + "|" + opcode
		if _, dup := byOpcode[key]; dup {
			return nil, nil, fmt.Errorf("DIS0004: duplicate opcode %s in format %s", opcode, formatName)
		}
		if _, dup := byMnemonic[mnemonic]; dup {
			return nil, nil, fmt.Errorf("DIS0003: duplicate mnemonic %s", mnemonic)
		}
		byOpcode[key] = insn
		byMnemonic[mnemonic] = insn
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	return byOpcode, byMnemonic, nil
}

// indexOfNthField returns the byte offset in line just past the Nth
// whitespace-delimited field (1-based count of fields already consumed),
// i.e. the start of the remaining free-form text.
func indexOfNthField(line string, n int) int {
	count := 0
	inField := false
	for i, r := range line {
		isSpace := r == ' ' || r == '\t'
		if !isSpace && !inField {
			inField = true
			count++
		}
		if isSpace && inField {
			inField = false
			if count == n {
				return i + 1
			}
		}
	}
	return -1
}

func parseLengthHint(spec string) (LengthHint, error) {
	switch {
	case spec == "-":
		return func(map[string]uint64) int { return -1 }, nil
	case spec == "l(L)":
		return func(fields map[string]uint64) int { return int(fields["L"]) + 1 }, nil
	case strings.HasPrefix(spec, "hM(") && strings.HasSuffix(spec, ")"):
		n, err := strconv.Atoi(spec[3 : len(spec)-1])
		if err != nil {
			return nil, fmt.Errorf("bad hM() length hint %q: %v", spec, err)
		}
		return func(fields map[string]uint64) int {
			r1 := int(fields["R1"])
			r3 := int(fields["R3"])
			count := 1 + ((r3-r1)%16+16)%16
			return count * n
		}, nil
	default:
		n, err := strconv.Atoi(spec)
		if err != nil {
			return nil, fmt.Errorf("bad length hint %q: %v", spec, err)
		}
		return func(map[string]uint64) int { return n }, nil
	}
}

type extKey struct {
	class string
	mask  uint64
}

type extTable map[extKey]string

func loadExtended() (map[string]extTable, error) {
	f, err := embedded.Open("extended.txt")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := map[string]extTable{
		"branch": {},
		"select": {},
		"cond":   {},
		"cj":     {},
	}

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("DIS0005: malformed extended-mnemonic line: %q", line)
		}
		kind, class, maskStr, suffix := fields[0], fields[1], fields[2], fields[3]
		tbl, ok := out[kind]
		if !ok {
			return nil, fmt.Errorf("DIS0005: unknown extended-mnemonic kind %q", kind)
		}
		mask, err := strconv.ParseUint(maskStr, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("DIS0005: bad mask %q", maskStr)
		}
		tbl[extKey{class: class, mask: mask}] = suffix
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Lookup resolves an extended-mnemonic suffix for (class, mask), falling
// back to the generic "." class when no class-specific entry exists
// (spec.md 4.6 step 7 — extended-mnemonic resolution keyed by
// (instruction-kind, preceding-class, mask)).
func (t extTable) Lookup(class string, mask uint64) (string, bool) {
	if s, ok := t[extKey{class: class, mask: mask}]; ok {
		return s, true
	}
	if s, ok := t[extKey{class: ".", mask: mask}]; ok {
		return s, true
	}
	return "", false
}

// ProbeKind identifies which of the four nibble positions yielded a
// lookup hit (spec.md 4.1/4.6).
type ProbeKind int

const (
	ProbeAA ProbeKind = iota
	ProbeCCC
	ProbeDDDD
	ProbeBBBB
)

// Probe looks up the instruction for a 12-nibble (6-byte) hex window,
// trying aa, then ccc, then dddd (only when the first nibble is 'E' and
// the first byte is not "E5"), then bbbb — in that order, first hit wins
// (spec.md 4.6 step 2; the aa/ccc/dddd/bbbb order follows the more
// detailed operational description in 4.6 over the summary order in 4.1 —
// see DESIGN.md's Open Question resolution).
func (t *Tables) Probe(window string) (*Instruction, *Format, ProbeKind, bool) {
	if len(window) < 12 {
		window = window + strings.Repeat("0", 12-len(window))
	}

	if insn, ok := t.lookupByFormats(window[0:2], ProbeAA); ok {
		return insn, t.Formats[insn.FormatName], ProbeAA, true
	}
	ccc := window[0:2] + window[3:4]
	if insn, ok := t.lookupByFormats(ccc, ProbeCCC); ok {
		return insn, t.Formats[insn.FormatName], ProbeCCC, true
	}
	if window[0:1] == "E" && window[0:2] != "E5" {
		dddd := window[0:2] + window[10:12]
		if insn, ok := t.lookupByFormats(dddd, ProbeDDDD); ok {
			return insn, t.Formats[insn.FormatName], ProbeDDDD, true
		}
	}
	bbbb := window[0:4]
	if insn, ok := t.lookupByFormats(bbbb, ProbeBBBB); ok {
		return insn, t.Formats[insn.FormatName], ProbeBBBB, true
	}
	return nil, nil, 0, false
}

// lookupByFormats scans every format for a matching opcode and accepts a
// hit only when that format's opcode position (probeKindForFormat) is the
// probed one. Table size here is
// small (representative z/Architecture subset) so a linear scan over
// formats is cheap; the instruction lookup itself is a map hit.
func (t *Tables) lookupByFormats(key string, kind ProbeKind) (*Instruction, bool) {
	for name := range t.Formats {
		if insn, ok := t.byOpcode[name+"|"+strings.ToUpper(key)]; ok {
			if probeKindForFormat(t.Formats[name]) == kind {
				return insn, true
			}
		}
	}
	return nil, false
}

// probeKindForFormat derives which probe position a format's OPC field(s)
// occupy, from its field layout.
func probeKindForFormat(f *Format) ProbeKind {
	opc, _ := f.fieldByName("OPC")
	opc2, hasOpc2 := f.fieldByName("OPC2")
	op, hasOp := f.fieldByName("OP")
	switch {
	case opc.Width == 4 && opc.Nibble == 0:
		return ProbeBBBB
	case hasOpc2 && opc2.Nibble == 10:
		return ProbeDDDD
	case hasOp && op.Nibble == 3:
		return ProbeCCC
	default:
		return ProbeAA
	}
}

// ParseFields decodes window against f's parse template into a nibble
// value per named field (unsigned, left-padded zero high bits).
func (f *Format) ParseFields(window string) map[string]uint64 {
	if len(window) < 12 {
		window = window + strings.Repeat("0", 12-len(window))
	}
	out := make(map[string]uint64, len(f.Fields))
	for _, fl := range f.Fields {
		s := window[fl.Nibble : fl.Nibble+fl.Width]
		v, _ := strconv.ParseUint(s, 16, 64)
		out[fl.Name] = v
	}
	return out
}
