package zarch

import "testing"

func TestTablesLoaded(t *testing.T) {
	if T == nil {
		t.Fatal("package-level Tables not initialized")
	}
	if len(T.Formats) == 0 {
		t.Fatal("no formats loaded")
	}
	if len(T.Mnemonics) == 0 {
		t.Fatal("no instructions loaded")
	}
}

func TestProbeAA(t *testing.T) {
	insn, f, kind, ok := T.Probe("18CF00000000")
	if !ok {
		t.Fatal("expected a match for LR (18CF)")
	}
	if insn.Mnemonic != "LR" {
		t.Errorf("mnemonic = %s, want LR", insn.Mnemonic)
	}
	if f.Name != "RR" {
		t.Errorf("format = %s, want RR", f.Name)
	}
	if kind != ProbeAA {
		t.Errorf("probe kind = %v, want ProbeAA", kind)
	}
}

func TestProbeCCC(t *testing.T) {
	// BRC: opcode A7, mask nibble, ext nibble 4 -> ccc key "A74"
	insn, _, kind, ok := T.Probe("A7F400100000")
	_ = insn
	if !ok {
		t.Fatal("expected a ccc match for BRC")
	}
	if kind != ProbeCCC {
		t.Errorf("probe kind = %v, want ProbeCCC", kind)
	}
}

func TestProbeDDDD(t *testing.T) {
	// LOC: EB .. .. .. .. F2 -> dddd key "EBF2"
	insn, _, kind, ok := T.Probe("EB10D01000F2")
	if !ok {
		t.Fatal("expected a dddd match for LOC")
	}
	if insn.Mnemonic != "LOC" {
		t.Errorf("mnemonic = %s, want LOC", insn.Mnemonic)
	}
	if kind != ProbeDDDD {
		t.Errorf("probe kind = %v, want ProbeDDDD", kind)
	}
}

func TestProbeBBBB(t *testing.T) {
	insn, _, kind, ok := T.Probe("B9F00012")
	if !ok {
		t.Fatal("expected a bbbb match for SELR")
	}
	if insn.Mnemonic != "SELR" {
		t.Errorf("mnemonic = %s, want SELR", insn.Mnemonic)
	}
	if kind != ProbeBBBB {
		t.Errorf("probe kind = %v, want ProbeBBBB", kind)
	}
}

func TestE5NotEligibleForDDDD(t *testing.T) {
	// First byte E5 must never probe via dddd, per the documented quirk.
	_, _, kind, ok := T.Probe("E5000000FFFF")
	if ok && kind == ProbeDDDD {
		t.Fatal("E5-prefixed window must not match via the dddd probe")
	}
}

func TestParseFields(t *testing.T) {
	f := T.Formats["RX"]
	fields := f.ParseFields("5810D010")
	if fields["R1"] != 1 {
		t.Errorf("R1 = %d, want 1", fields["R1"])
	}
	if fields["B2"] != 0xD {
		t.Errorf("B2 = %x, want D", fields["B2"])
	}
	if fields["D2"] != 0x010 {
		t.Errorf("D2 = %x, want 010", fields["D2"])
	}
}

func TestSVCDescription(t *testing.T) {
	if d, ok := SVCDescription(19); !ok || d == "" {
		t.Fatal("expected a description for SVC 19 (OPEN)")
	}
	if _, ok := SVCDescription(250); ok {
		t.Fatal("did not expect a description for an unassigned SVC number")
	}
}

func TestEBCDICClassification(t *testing.T) {
	if !IsPrintableEBCDIC(0xC1) || EBCDICToASCII(0xC1) != 'A' {
		t.Fatal("0xC1 should classify as printable 'A'")
	}
	if IsPrintableEBCDIC(0x00) {
		t.Fatal("0x00 should not classify as printable")
	}
}

func TestExtendedBranchTable(t *testing.T) {
	if s, ok := T.ExtBranch.Lookup("C", 8); !ok || s != "H" {
		t.Errorf("branch[C,8] = %q,%v want H,true", s, ok)
	}
	if s, ok := T.ExtBranch.Lookup(".", 15); !ok || s != "-" {
		t.Errorf("branch[.,15] = %q,%v want -,true", s, ok)
	}
	if s, ok := T.ExtBranch.Lookup(".", 0); !ok || s != "*" {
		t.Errorf("branch[.,0] = %q,%v want *,true", s, ok)
	}
}
