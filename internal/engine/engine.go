// Package engine is the disassembly core: the annotation-driven scanner,
// the code and data decoders, the location/label/DSECT registries, and
// the statement assembler that turns an annotated hex stream into an
// emitted assembler-source listing (spec.md 2-4, 4.7).
package engine

import (
	"fmt"
	"io"
	"strings"
)

// Engine holds all per-session state for one disassembly run. Nothing
// here is process-wide; every field is owned by one Engine instance
// (spec.md 5, 9 — "no process-wide state").
type Engine struct {
	opts Options

	loc       uint32
	curMode   mode
	dataType  byte
	condClass string

	labels *labelRegistry
	dsects *dsectRegistry
	regs   *registerTable
	stmts  *statementBuffer
	stat   *stats

	todoCount int
	usedVec   bool
}

// New creates an Engine ready to run one disassembly session.
func New(opts Options) *Engine {
	e := &Engine{
		opts:      opts,
		loc:       opts.StartLocation,
		curMode:   modeCode,
		dataType:  dtAuto,
		condClass: ".",
		labels:    newLabelRegistry(),
		dsects:    newDSECTRegistry(),
		regs:      newRegisterTable(),
		stmts:     newStatementBuffer(),
		stat:      newStats(),
	}
	return e
}

// PreloadSymbols defines labels at known locations before decoding starts —
// the core's input channel for a symbol-table extractor (an external
// collaborator per spec.md 1) that has already resolved some names.
func (e *Engine) PreloadSymbols(pairs map[string]uint32) {
	for name, loc := range pairs {
		e.labels.defineLabel(name, loc)
	}
}

// Run decodes the full annotated input and writes the finalized listing to
// w (spec.md 2's driver: tokenize, dispatch hex slices between tags to the
// code or data decoder, process each following tag group, then finalize).
func (e *Engine) Run(input string, w io.Writer) error {
	e.emitProlog()

	for _, tok := range tokenize(input) {
		switch tok.kind {
		case tokHex:
			e.dispatchHex(tok.text)
		case tokAction:
			e.applyAction(tok.text)
		case tokTagGroup:
			for _, t := range parseTagGroup(tok.text) {
				e.applyTag(t)
			}
		}
	}

	e.finalize()

	for _, line := range e.stmts.lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) emitProlog() {
	name := e.opts.SectionName
	if name == "" {
		name = "@"
	}
	e.labels.defineLabel(name, e.loc)
	e.stmts.emit(e.loc, name, "START", "", "", "")
}

// dispatchHex converts one hex-run token to bytes and feeds it to the
// active decoder, handling the OddHex and InvalidHex error kinds in-band
// (spec.md 7) rather than aborting.
func (e *Engine) dispatchHex(text string) {
	if bad := firstNonHex(text); bad >= 0 {
		e.stmts.emit(e.loc, "", "*", "", diagInvalidHex(text), "")
		e.loc += uint32((len(text)+1)/2 + 1)
		return
	}
	if len(text)%2 != 0 {
		e.stmts.emit(e.loc, "", "*", "", diagOddHex(len(text)), "")
		e.loc += uint32((len(text)+1)/2 + 1)
		return
	}

	data := make([]byte, len(text)/2)
	for i := range data {
		b, err := parseHexByte(text[i*2 : i*2+2])
		if err != nil {
			data[i] = 0
		} else {
			data[i] = b
		}
	}

	if e.curMode == modeData {
		// decodeData's per-type decoders each loop internally until the
		// whole slice is consumed, so one call fully handles this hex run.
		e.decodeData(data)
		return
	}
	for len(data) > 0 {
		n := e.decodeCode(data)
		if n <= 0 {
			break
		}
		data = data[n:]
	}
}

func firstNonHex(s string) int {
	for i, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'A' && r <= 'F') || (r >= 'a' && r <= 'f')) {
			return i
		}
	}
	return -1
}

// applyAction handles one action character (spec.md 4.4).
func (e *Engine) applyAction(ch string) {
	suppress := false
	switch ch {
	case ",":
		e.curMode = modeCode
		e.dataType = dtAuto
	case ".":
		e.curMode = modeData
	case "/":
		e.curMode = modeData
		e.dataType = dtAuto
	case "|":
		suppress = true
	}
	if !suppress {
		e.defineAutoLabelHere()
	}
}

func (e *Engine) defineAutoLabelHere() {
	if _, ok := e.labels.locToName[e.loc]; ok {
		return
	}
	e.labels.defineLabel(autoLabel(e.loc), e.loc)
}

// applyTag applies one parsed tag at the current location (spec.md 4.4).
func (e *Engine) applyTag(t tag) {
	switch t.kind {
	case tagDataType:
		e.curMode = modeData
		if t.reset {
			e.dataType = dtAuto
		} else {
			e.dataType = t.letter
		}
	case tagSection:
		e.stmts.attachDirective(e.loc, renderSectionBanner(t.text))
	case tagComment:
		e.stmts.attachDirective(e.loc, renderCommentBlock(t.text))
	case tagOrg:
		e.loc = t.hex
		e.stmts.attachDirective(e.loc, fmt.Sprintf("ORG   @+X'%X'", t.hex))
	case tagUsing:
		e.applyUsing(t)
	case tagDrop:
		regNames := regNameList(t.regs)
		e.regs.drop(t.regs)
		e.stmts.attachDirective(e.loc, "DROP  "+regNames)
	case tagLabel:
		e.labels.defineLabel(t.name, e.loc)
	case tagLabelAt:
		e.labels.defineLabel(t.name, t.hex)
	}
}

func (e *Engine) applyUsing(t tag) {
	regNames := regNameList(t.regs)
	switch {
	case t.usingDsect:
		e.dsects.ensure(t.dsectName, t.dsectDesc)
		e.regs.bindDSECT(t.regs, t.dsectName)
		e.stmts.attachDirective(e.loc, fmt.Sprintf("USING %s,%s", t.dsectName, regNames))
	case t.usingStar:
		e.regs.bindCSECT(t.regs, e.loc)
		e.stmts.attachDirective(e.loc, "USING *,"+regNames)
	case t.usingHex:
		e.regs.bindCSECT(t.regs, t.usingHexV)
		label := e.labels.labelAt(t.usingHexV, e.loc)
		e.stmts.attachDirective(e.loc, fmt.Sprintf("USING %s,%s", label, regNames))
	default:
		if loc, ok := e.labels.locationOf(t.usingLabel); ok {
			e.regs.bindCSECT(t.regs, loc)
		}
		e.stmts.attachDirective(e.loc, fmt.Sprintf("USING %s,%s", t.usingLabel, regNames))
	}
}

func regNameList(regs []int) string {
	parts := make([]string, len(regs))
	for i, r := range regs {
		parts[i] = fmt.Sprintf("R%d", r)
	}
	return strings.Join(parts, ",")
}

// renderSectionBanner builds the 5-line boxed comment spec.md 4.4's `"text"`
// tag attaches: a top bar, a blank padding line, the text line, another
// blank padding line, and a bottom bar.
func renderSectionBanner(text string) string {
	bar := strings.Repeat("*", len(text)+4)
	pad := "*" + strings.Repeat(" ", len(text)+2) + "*"
	return fmt.Sprintf("%s\n%s\n* %s *\n%s\n%s", bar, pad, text, pad, bar)
}

func renderCommentBlock(text string) string {
	return fmt.Sprintf("*--- %s ---", text)
}

