package engine

import "fmt"

// finalize implements spec.md 4.7: directives still queued at the final
// location (such as a trailing DROP tag), trailing-position handling, back-
// reference label patching, width widening, register equates, DSECT
// bodies, the undefined-labels report, statistics (if enabled), and END.
func (e *Engine) finalize() {
	e.stmts.flushDirectives(e.loc)
	e.flushTrailingPosition()
	e.patchBackReferences()
	e.widenDataLengths()
	e.emitRegisterEquates()
	e.emitDSECTBodies()
	e.emitUndefinedLabels()
	if e.opts.Stats {
		for _, line := range e.stat.render() {
			e.stmts.emitDirective(line)
		}
	}
	e.stmts.emitDirective("END")
}

// flushTrailingPosition emits a terminal DS 0X if the final location
// carries a label (referenced there, or defined there such as by a trailing
// action character) but no statement of its own.
func (e *Engine) flushTrailingPosition() {
	if _, ok := e.labels.locToName[e.loc]; !ok {
		return
	}
	if _, ok := e.stmts.byLoc[e.loc]; ok {
		return
	}
	e.stmts.emit(e.loc, "", "DS", "0X", "", "")
}

// patchBackReferences walks the back-reference list and fills in the
// label column of each target's already-emitted statement.
func (e *Engine) patchBackReferences() {
	for _, loc := range e.labels.sortedBackRefs() {
		name, ok := e.labels.locToName[loc]
		if !ok {
			continue
		}
		e.stmts.patchLabel(loc, name)
	}
}

// widenDataLengths inserts a preceding DC 0XLk directive wherever a
// statement's recorded used-length exceeds its own declared length,
// moving the original label onto the widening directive (spec.md 4.7).
func (e *Engine) widenDataLengths() {
	for loc, used := range e.labels.usedLength {
		st, ok := e.stmts.byLoc[loc]
		if !ok || st.Directive || st.Op != "DC" {
			continue
		}
		if used <= st.DeclLen {
			continue
		}
		e.stmts.insertWideningBefore(loc, used)
	}
}

// emitRegisterEquates emits R0..R15 always, and V0..V31 if any vector
// instruction was decoded.
func (e *Engine) emitRegisterEquates() {
	for i := 0; i < 16; i++ {
		e.stmts.emitDirective(fmt.Sprintf("R%-7d EQU   %d", i, i))
	}
	if e.usedVec {
		for i := 0; i < 32; i++ {
			e.stmts.emitDirective(fmt.Sprintf("V%-7d EQU   %d", i, i))
		}
	}
}

// emitDSECTBodies emits each DSECT's header and field layout, in
// deterministic name order (spec.md 4.3).
func (e *Engine) emitDSECTBodies() {
	for _, name := range e.dsects.sortedNames() {
		d := e.dsects.sections[name]
		e.stmts.emitDirective(name + " DSECT")
		if d.Desc != "" {
			e.stmts.emitDirective("*         " + d.Desc)
		}
		pos := 0
		for _, f := range d.sortedFields() {
			if f.Offset > pos {
				e.stmts.emitDirective(fmt.Sprintf("          DS    XL%d", f.Offset-pos))
			} else if f.Offset < pos {
				e.stmts.emitDirective(fmt.Sprintf("%s_%s DS    0XL%d", name, hexNoLeadingZeros(uint32(f.Offset)), f.Length))
				continue
			}
			label := name + "_" + hexNoLeadingZeros(uint32(f.Offset))
			e.stmts.emitDirective(fmt.Sprintf("%s DS    XL%d", label, f.Length))
			pos = f.Offset + f.Length
		}
	}
}

// emitUndefinedLabels emits the undefined-labels report: every referenced
// but never explicitly defined label, with its location, used length, and
// the most recent referrer.
func (e *Engine) emitUndefinedLabels() {
	names := e.labels.undefinedNames()
	if len(names) == 0 {
		return
	}
	e.stmts.emitDirective("* UNDEFINED LABELS")
	for _, name := range names {
		loc := e.labels.nameToLoc[name]
		used := e.labels.usedLength[loc]
		fromLoc := uint32(0)
		for _, r := range e.labels.refs {
			if r.ToLoc == loc {
				fromLoc = r.FromLoc
			}
		}
		e.stmts.emitDirective(fmt.Sprintf("*   %-8s loc=%-6X len=%-3d referrer=%X", name, loc, used, fromLoc))
	}
}
