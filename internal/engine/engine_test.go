package engine

import (
	"strings"
	"testing"
)

func run(t *testing.T, input string, opts Options) string {
	t.Helper()
	e := New(opts)
	var sb strings.Builder
	if err := e.Run(input, &sb); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return sb.String()
}

func TestSimpleRegisterLoad(t *testing.T) {
	out := run(t, "18CF", Options{})
	if !strings.Contains(out, "LR") || !strings.Contains(out, "R12,R15") {
		t.Fatalf("expected LR R12,R15 in output, got:\n%s", out)
	}
	if !strings.Contains(out, "Load (32)") {
		t.Fatalf("expected trailing description comment, got:\n%s", out)
	}
}

func TestTwoHalfwordsFriendlyForm(t *testing.T) {
	out := run(t, "(H)00220023", Options{})
	if !strings.Contains(out, "H'34'") || !strings.Contains(out, "H'35'") {
		t.Fatalf("expected two H' constants, got:\n%s", out)
	}
}

func TestUsingCSECTAndBranch(t *testing.T) {
	out := run(t, "(R12)18CF47F0C010", Options{})
	if !strings.Contains(out, "USING *,R12") {
		t.Fatalf("expected USING *,R12 directive, got:\n%s", out)
	}
	if !strings.Contains(out, "LR") {
		t.Fatalf("expected LR instruction, got:\n%s", out)
	}
	if !strings.Contains(out, "B ") && !strings.Contains(out, "B\t") {
		t.Fatalf("expected unconditional B, got:\n%s", out)
	}
	if !strings.Contains(out, "16(,R12)") {
		t.Fatalf("expected literal branch target operand 16(,R12), got:\n%s", out)
	}
}

func TestDSECTInference(t *testing.T) {
	out := run(t, "(R13=>WA)5810D010(R13=)", Options{})
	if !strings.Contains(out, "USING WA,R13") {
		t.Fatalf("expected USING WA,R13, got:\n%s", out)
	}
	if !strings.Contains(out, "WA_10") {
		t.Fatalf("expected WA_10 field reference, got:\n%s", out)
	}
	if !strings.Contains(out, "WA DSECT") {
		t.Fatalf("expected WA DSECT body, got:\n%s", out)
	}
	if !strings.Contains(out, "DROP") {
		t.Fatalf("expected DROP directive, got:\n%s", out)
	}
}

func TestPackedDecimal(t *testing.T) {
	out := run(t, "(P)19365C", Options{})
	if !strings.Contains(out, "PL3'19365'") {
		t.Fatalf("expected PL3'19365', got:\n%s", out)
	}
}

func TestAutoDetectMixedTextBinary(t *testing.T) {
	out := run(t, ".C1C2C300000001", Options{})
	if !strings.Contains(out, "C'ABC'") {
		t.Fatalf("expected C'ABC' text run, got:\n%s", out)
	}
	if !strings.Contains(out, "F'1'") {
		t.Fatalf("expected F'1' fullword, got:\n%s", out)
	}
}

func TestEmptyInputProducesPrologAndEnd(t *testing.T) {
	out := run(t, "", Options{})
	if !strings.Contains(out, "START") {
		t.Fatalf("expected START banner, got:\n%s", out)
	}
	if !strings.Contains(out, "END") {
		t.Fatalf("expected END, got:\n%s", out)
	}
}

func TestSectionNameLabelsLocationZero(t *testing.T) {
	out := run(t, "", Options{SectionName: "MYMOD"})
	if !strings.Contains(out, "MYMOD") {
		t.Fatalf("expected section name MYMOD at location 0, got:\n%s", out)
	}
}

func TestIdempotentUsingDirective(t *testing.T) {
	e := New(Options{})
	e.applyTag(tag{kind: tagUsing, regs: []int{12}, usingStar: true})
	e.applyTag(tag{kind: tagUsing, regs: []int{12}, usingStar: true})
	if n := len(e.stmts.pendingDir[e.loc]); n != 1 {
		t.Fatalf("expected exactly one pending USING directive, got %d", n)
	}
}

func TestPipeActionSuppressesAutoLabel(t *testing.T) {
	e := New(Options{})
	e.applyAction("|")
	if _, ok := e.labels.locToName[e.loc]; ok {
		t.Fatal("| action must not create an auto-label at the current location")
	}
}

func TestLengthMonotonicity(t *testing.T) {
	r := newLabelRegistry()
	r.materializeRef(0, 100, 2)
	r.materializeRef(50, 100, 4)
	if r.usedLength[100] != 4 {
		t.Fatalf("usedLength = %d, want 4 (monotonic max)", r.usedLength[100])
	}
}
