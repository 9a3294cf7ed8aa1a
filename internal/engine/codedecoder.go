package engine

import (
	"fmt"
	"strings"

	"github.com/PeterVels/da/internal/zarch"
)

// branchForm names the mnemonic pieces used to render an extended
// branch-family mnemonic (spec.md 4.6 step 7's B/R semantics): a prefix
// letter, whether the conditional suffix is inserted before a trailing
// register-form "R", and the literal text for the mask-zero NOP form.
type branchForm struct {
	Prefix         string
	RegisterSuffix bool
	NopText        string
}

var branchForms = map[string]branchForm{
	"BC":  {Prefix: "B", RegisterSuffix: false, NopText: "NOP"},
	"BCR": {Prefix: "B", RegisterSuffix: true, NopText: "NOPR"},
	"BRC": {Prefix: "J", RegisterSuffix: false, NopText: "NOP"},
}

func resolveBranchMnemonic(mnemonic, class string, mask uint64) string {
	form, ok := branchForms[mnemonic]
	if !ok {
		return mnemonic
	}
	suffix, found := zarch.T.ExtBranch.Lookup(class, mask)
	if !found {
		if form.RegisterSuffix {
			return form.Prefix + "R"
		}
		return form.Prefix
	}
	switch suffix {
	case "*":
		return form.NopText
	case "-":
		if form.RegisterSuffix {
			return form.Prefix + "R"
		}
		return form.Prefix
	default:
		if form.RegisterSuffix {
			return form.Prefix + suffix + "R"
		}
		return form.Prefix + suffix
	}
}

// decodeCode decodes one instruction (or, on a probe miss, one 2-byte
// TODO data constant) from the head of data, returning the number of
// bytes consumed (spec.md 4.6).
func (e *Engine) decodeCode(data []byte) int {
	window := toHex(data)
	if len(window) > 12 {
		window = window[:12]
	}
	insn, format, _, ok := zarch.T.Probe(window)
	if !ok {
		n := 2
		if len(data) < 2 {
			n = len(data)
		}
		v := uint64(0)
		for _, b := range data[:n] {
			v = v<<8 | uint64(b)
		}
		e.stmts.emit(e.loc, "", "DC", fmt.Sprintf("XL%d'%s'", n, toHex(data[:n])), todoMarker, "")
		e.todoCount++
		e.loc += uint32(n)
		return n
	}

	n := format.NibbleLen / 2
	if n > len(data) {
		n = len(data)
	}
	fields := format.ParseFields(window)
	instrLoc := e.loc

	mnemonic := insn.Mnemonic
	operands := e.renderOperands(insn, format, fields, instrLoc)
	comment := insn.Desc
	if format.Name == "I" {
		if d, ok := zarch.SVCDescription(fields["I1"]); ok {
			comment = d
		}
	}

	switch insn.Semantic {
	case zarch.SemBranch:
		mask := fields["R1"]
		if _, found := zarch.T.ExtBranch.Lookup(e.condClass, mask); found {
			mnemonic = resolveBranchMnemonic(mnemonic, e.condClass, mask)
		} else {
			operands = fmt.Sprintf("%d,%s", mask, operands)
		}
	case zarch.SemRelBranch:
		mask := fields["R1"]
		if _, found := zarch.T.ExtBranch.Lookup(e.condClass, mask); found {
			mnemonic = resolveBranchMnemonic(mnemonic, e.condClass, mask)
		} else {
			operands = fmt.Sprintf("%d,%s", mask, operands)
		}
	case zarch.SemSelect:
		mask := fields["R3"]
		if suffix, ok := zarch.T.ExtSelect.Lookup(e.condClass, mask); ok && suffix != "-" && suffix != "*" {
			mnemonic = mnemonic + suffix
		}
	case zarch.SemCondStore:
		mask := fields["R3"]
		if suffix, ok := zarch.T.ExtCondStore.Lookup(e.condClass, mask); ok {
			switch suffix {
			case "*":
				mnemonic = mnemonic + "NOP"
			case "-":
			default:
				mnemonic = mnemonic + suffix
			}
		}
	case zarch.SemCompareJump:
		mask := fields["MASK"]
		if suffix, ok := zarch.T.ExtCompareJ.Lookup(e.condClass, mask); ok {
			switch suffix {
			case "*":
				mnemonic = mnemonic + "NOP"
			case "-":
			default:
				mnemonic = mnemonic + suffix
			}
		}
	case zarch.SemRotate:
		if fields["I4"] >= 128 {
			mnemonic = mnemonic + "Z"
		}
	}

	e.stmts.emit(instrLoc, "", mnemonic, operands, comment, toHex(data[:n]))
	if e.opts.Stats {
		e.stat.record(format.Name, insn.Mnemonic)
	}
	if format.Name == "VRX" {
		e.usedVec = true
	}

	switch insn.Semantic {
	case zarch.SemArith:
		e.condClass = "A"
	case zarch.SemCompare:
		e.condClass = "C"
	case zarch.SemTestMask:
		e.condClass = "M"
	case zarch.SemSetsCC:
		e.condClass = "."
	}

	e.loc += uint32(n)
	return n
}

// renderOperands evaluates a format's default emit recipe, or — for the
// semantics with their own post-processing — builds the operand list
// directly from the raw parsed fields (spec.md 4.6 steps 6-7).
func (e *Engine) renderOperands(insn *zarch.Instruction, format *zarch.Format, fields map[string]uint64, instrLoc uint32) string {
	switch insn.Semantic {
	case zarch.SemBranch:
		// R1 (RX) / R1 (RR) here is the condition mask, discarded once the
		// mnemonic carries the condition (step 7).
		if format.Name == "RR" {
			return regOperand(fields["R2"])
		}
		hint := -1
		if insn.Hint != nil {
			hint = insn.Hint(fields)
		}
		return e.resolveDispIndexBase(fields["D2"], fields["X2"], fields["B2"], hint)
	case zarch.SemRelBranch:
		// R1 here is the condition mask, not a register; the mask operand
		// is discarded once the mnemonic carries the condition (step 7).
		return e.resolveRelative(fields, instrLoc, 16)
	case zarch.SemRel16:
		target := e.resolveRelative(fields, instrLoc, 16)
		return fmt.Sprintf("%s,%s", regOperand(fields["R1"]), target)
	case zarch.SemRel32:
		target := e.resolveRelative(fields, instrLoc, 32)
		return fmt.Sprintf("%s,%s", regOperand(fields["R1"]), target)
	case zarch.SemJumpIndex:
		target := e.resolveDispBase(fields["D2"], fields["B2"], insn.Hint(fields))
		return fmt.Sprintf("%s,%s,%s", regOperand(fields["R1"]), regOperand(fields["R3"]), target)
	case zarch.SemRotate:
		i4masked := fields["I4"] & 0x7F
		return fmt.Sprintf("%s,%s,X'%X',X'%X',X'%X'", regOperand(fields["R1"]), regOperand(fields["R2"]), fields["I3"], i4masked, fields["I5"])
	}

	var parts []string
	for _, op := range format.Operands {
		parts = append(parts, e.renderOperand(op, fields, insn))
	}
	return strings.Join(parts, ",")
}

func regOperand(n uint64) string { return fmt.Sprintf("R%d", n) }

// vecRegNumber combines a format's 4-bit nibble vector-register field with
// the high bit RXB carries for that operand's slot (1-4), yielding the full
// 5-bit (0-31) vector register index (spec.md 4.6 point 4: "RXB supplies
// the high bit of each of V1..V4"). RXB's bits run most-significant-first,
// one per slot: bit 0 (value 8) is V1's high bit, bit 3 (value 1) is V4's.
func vecRegNumber(v, rxb uint64, slot int) uint64 {
	if slot < 1 || slot > 4 {
		return v
	}
	bit := (rxb >> (4 - slot)) & 1
	return v | (bit << 4)
}

func (e *Engine) renderOperand(op zarch.OperandSpec, fields map[string]uint64, insn *zarch.Instruction) string {
	switch op.Kind {
	case zarch.KReg:
		return regOperand(fields[op.Field])
	case zarch.KVecReg:
		return fmt.Sprintf("V%d", vecRegNumber(fields[op.Field], fields["RXB"], op.Width))
	case zarch.KImmUnsigned:
		return renderUnsigned(fields[op.Field])
	case zarch.KImmSigned:
		return fmt.Sprintf("%d", signedField(fields[op.Field], op.Width*4))
	case zarch.KMask:
		return fmt.Sprintf("B'%04b'", fields[op.Field]&0xF)
	case zarch.KMaskOmitZero:
		if fields[op.Field] == 0 {
			return ""
		}
		return fmt.Sprintf("B'%04b'", fields[op.Field]&0xF)
	case zarch.KPopcount:
		return fmt.Sprintf("%d", popcount4(fields[op.Field]))
	case zarch.KDispBase:
		hint := -1
		if insn.Hint != nil {
			hint = insn.Hint(fields)
		}
		return e.resolveDispBase(fields[op.Field], fields[op.Field3], hint)
	case zarch.KDispIndexBase:
		hint := -1
		if insn.Hint != nil {
			hint = insn.Hint(fields)
		}
		return e.resolveDispIndexBase(fields[op.Field], fields[op.Field2], fields[op.Field3], hint)
	case zarch.KDispLenBase:
		hint := int(fields[op.Field2]) + 1
		return e.resolveDispLenBase(fields[op.Field], fields[op.Field2], fields[op.Field3], hint)
	case zarch.KDispVecBase:
		hint := -1
		if insn.Hint != nil {
			hint = insn.Hint(fields)
		}
		return e.resolveDispBase(fields[op.Field], fields[op.Field3], hint)
	}
	return ""
}

// renderUnsigned is u(x): small values decimal, printable EBCDIC bytes as
// C'c', byte 64 (EBCDIC blank) as a hard blank, otherwise hex.
func renderUnsigned(v uint64) string {
	if v == 0x40 {
		return "C' '"
	}
	if v <= 0xFF && zarch.IsPrintableEBCDIC(byte(v)) {
		return fmt.Sprintf("C'%c'", zarch.EBCDICToASCII(byte(v)))
	}
	if v < 256 {
		return fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("X'%X'", v)
}

func signedField(v uint64, bits int) int64 {
	if bits <= 0 || bits >= 64 {
		return int64(v)
	}
	signBit := uint64(1) << (bits - 1)
	if v&signBit != 0 {
		v -= uint64(1) << bits
	}
	return int64(v)
}

func popcount4(v uint64) int {
	n := 0
	for i := 0; i < 4; i++ {
		if v&(1<<i) != 0 {
			n++
		}
	}
	return n
}

// resolveDispBase is db/ldb(d,b). A DSECT-bound base resolves to its field
// label; a CSECT-bound base still materializes a reference at the target
// (so the target statement picks up a label in finalization, per the
// back-reference invariant) but the operand text itself stays the literal
// disp(,base) form — spec.md 8 scenario 3 shows "B 16(,R12)" rather than a
// substituted label even though R12 is USING-bound.
func (e *Engine) resolveDispBase(disp, base uint64, hintLen int) string {
	b := e.regs.at(int(base))
	switch b.kind {
	case bindCSECT:
		target := b.csectBase + uint32(disp)
		e.labels.materializeRef(e.loc, target, maxHint(hintLen))
		return fmt.Sprintf("%d(,R%d)", disp, base)
	case bindDSECT:
		return e.dsects.fieldLabel(b.dsectName, b.dsectBase, int(disp), maxHint(hintLen))
	default:
		return fmt.Sprintf("%d(,R%d)", disp, base)
	}
}

// resolveDispIndexBase is dxb/ldxb(d,x,b). Index 0 is omitted.
func (e *Engine) resolveDispIndexBase(disp, index, base uint64, hintLen int) string {
	b := e.regs.at(int(base))
	switch b.kind {
	case bindCSECT:
		target := b.csectBase + uint32(disp)
		e.labels.materializeRef(e.loc, target, maxHint(hintLen))
		if index == 0 {
			return fmt.Sprintf("%d(,R%d)", disp, base)
		}
		return fmt.Sprintf("%d(R%d,R%d)", disp, index, base)
	case bindDSECT:
		label := e.dsects.fieldLabel(b.dsectName, b.dsectBase, int(disp), maxHint(hintLen))
		if index == 0 {
			return label
		}
		return fmt.Sprintf("%s(R%d)", label, index)
	default:
		if index == 0 {
			return fmt.Sprintf("%d(,R%d)", disp, base)
		}
		return fmt.Sprintf("%d(R%d,R%d)", disp, index, base)
	}
}

// resolveDispLenBase is dlb(d,l,b): SS-format operands carrying an
// explicit length.
func (e *Engine) resolveDispLenBase(disp, length, base uint64, hintLen int) string {
	b := e.regs.at(int(base))
	switch b.kind {
	case bindCSECT:
		target := b.csectBase + uint32(disp)
		e.labels.materializeRef(e.loc, target, maxHint(hintLen))
		return fmt.Sprintf("%d(%d,R%d)", disp, length+1, base)
	case bindDSECT:
		label := e.dsects.fieldLabel(b.dsectName, b.dsectBase, int(disp), maxHint(hintLen))
		return fmt.Sprintf("%s(%d)", label, length+1)
	default:
		return fmt.Sprintf("%d(%d,R%d)", disp, length+1, base)
	}
}

func maxHint(h int) int {
	if h < 0 {
		return 1
	}
	return h
}

// resolveRelative resolves a relative-branch target: offset = 2 *
// signed(I2), target = instrLoc + offset, floored at zero.
func (e *Engine) resolveRelative(fields map[string]uint64, instrLoc uint32, bits int) string {
	raw := fields["I2"]
	offset := 2 * signedField(raw, bits)
	target := int64(instrLoc) + offset
	if target < 0 {
		target = 0
	}
	return e.labels.materializeRef(instrLoc, uint32(target), 0)
}
