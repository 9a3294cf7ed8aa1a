package engine

import (
	"fmt"
	"strings"
)

// statement is one emitted line of output: either a directive (a bare
// assembler-style pseudo-op with no associated bytes, such as a DSECT
// header or a USING echo) or a decoded instruction/data statement tied to
// a location (spec.md 4.7).
type statement struct {
	Seq       int
	Label     string
	Op        string
	Operands  string
	Comment   string
	Loc       uint32
	Hex       string
	DeclLen   int // bytes implied by a DC statement's type/length, for width widening
	HasLoc    bool
	Directive bool
}

// statementBuffer accumulates statements in emission order and indexes the
// ones tied to a location, so finalization can patch a back-referenced
// location's label column after the fact (spec.md 4.7).
type statementBuffer struct {
	stmts      []*statement
	byLoc      map[uint32]*statement
	pendingDir map[uint32][]string
	dirSeen    map[uint32]map[string]bool
}

func newStatementBuffer() *statementBuffer {
	return &statementBuffer{
		byLoc:      make(map[uint32]*statement),
		pendingDir: make(map[uint32][]string),
		dirSeen:    make(map[uint32]map[string]bool),
	}
}

// attachDirective queues a directive line to flush just before the next
// statement emitted at loc. Attaching the identical directive text twice
// at the same location is a no-op (spec.md 4.7's directive-attachment
// idempotency invariant — e.g. repeating an identical USING tag must not
// duplicate its echoed line).
func (b *statementBuffer) attachDirective(loc uint32, text string) {
	seen := b.dirSeen[loc]
	if seen == nil {
		seen = make(map[string]bool)
		b.dirSeen[loc] = seen
	}
	if seen[text] {
		return
	}
	seen[text] = true
	b.pendingDir[loc] = append(b.pendingDir[loc], text)
}

// flushDirectives emits and clears any directives queued for loc, ahead of
// whatever is emitted there next.
func (b *statementBuffer) flushDirectives(loc uint32) {
	for _, text := range b.pendingDir[loc] {
		b.stmts = append(b.stmts, &statement{
			Seq:       len(b.stmts) + 1,
			Op:        text,
			Directive: true,
		})
	}
	delete(b.pendingDir, loc)
}

// emit appends a located statement, flushing any directives queued ahead
// of it first.
func (b *statementBuffer) emit(loc uint32, label, op, operands, comment, hex string) *statement {
	b.flushDirectives(loc)
	st := &statement{
		Seq:      len(b.stmts) + 1,
		Label:    label,
		Op:       op,
		Operands: operands,
		Comment:  comment,
		Loc:      loc,
		Hex:      hex,
		HasLoc:   true,
	}
	b.stmts = append(b.stmts, st)
	b.byLoc[loc] = st
	return st
}

// emitDirective appends a bare directive line not tied to any statement
// flush point (used by finalization for register equates, DSECT bodies,
// the undefined-labels and statistics reports, and END; section banners
// and comment blocks are queued at a location with attachDirective).
func (b *statementBuffer) emitDirective(text string) {
	b.stmts = append(b.stmts, &statement{Seq: len(b.stmts) + 1, Op: text, Directive: true})
}

// insertWideningBefore inserts a synthetic "DC 0XLn" statement immediately
// ahead of the located statement at loc, carrying that statement's former
// label (spec.md 4.7 width widening: "blank the label from the DC (label
// moves to the widening directive)").
func (b *statementBuffer) insertWideningBefore(loc uint32, usedLen int) {
	st, ok := b.byLoc[loc]
	if !ok {
		return
	}
	idx := -1
	for i, s := range b.stmts {
		if s == st {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	widen := &statement{Label: st.Label, Op: "DC", Operands: fmt.Sprintf("0XL%d", usedLen)}
	st.Label = ""
	b.stmts = append(b.stmts, nil)
	copy(b.stmts[idx+1:], b.stmts[idx:])
	b.stmts[idx] = widen
}

// patchLabel fills in the label column of the statement at loc, if one
// exists and doesn't already carry a label (finalization's back-reference
// patch, spec.md 4.2/4.7).
func (b *statementBuffer) patchLabel(loc uint32, label string) {
	if st, ok := b.byLoc[loc]; ok && st.Label == "" {
		st.Label = label
	}
}

// column widths for the fixed-width assembler-source layout (spec.md 6:
// "Label column width >= 8; op >= 5; operand block >= 22 characters").
const (
	labelColWidth   = 8
	opColWidth      = 5
	operandColWidth = 22
)

// render formats one statement as a single text line, label first if
// present, then op and operands, then a trailing comment, padded to the
// fixed column widths spec.md 6 specifies.
func (s *statement) render() string {
	if s.Directive {
		return s.Op
	}
	label := padTo(s.Label, labelColWidth)
	op := padTo(s.Op, opColWidth)
	line := label + op
	if s.Operands != "" || s.Comment != "" {
		line += padTo(s.Operands, operandColWidth)
	}
	line = strings.TrimRight(line, " ")
	if s.Comment != "" {
		line += "  " + s.Comment
	}
	return line
}

func padTo(s string, width int) string {
	if len(s) >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-len(s))
}

// lines renders every statement, inserting a blank line ahead of any
// statement whose label is auto-generated (spec.md 6: "Lines whose label
// starts with L ... are preceded by a blank line").
func (b *statementBuffer) lines() []string {
	out := make([]string, 0, len(b.stmts))
	for _, s := range b.stmts {
		if strings.HasPrefix(s.Label, "L") && s.Label != "" {
			out = append(out, "")
		}
		out = append(out, s.render())
	}
	return out
}

// hexNoLeadingZeros renders n as uppercase hex with no leading zeros (the
// form used throughout for locations and auto-generated names), "0" for
// zero.
func hexNoLeadingZeros(n uint32) string {
	return fmt.Sprintf("%X", n)
}
