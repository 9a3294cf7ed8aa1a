package zarch

// OperandKind tags an OperandSpec with which rendering helper
// internal/engine's code decoder applies to it (spec.md 4.6 step 6's
// r/v/u/s2.../x/m/om/ml/db/dxb/dlb/dvb family). The helpers that need
// live base-register state (db, dxb, dlb, dvb and their label-resolving
// forms) are implemented in internal/engine, which owns that state; the
// ones that are pure functions of a parsed field (u, s2..s8, m, om, ml,
// r, v) are also implemented there for symmetry, but OperandKind is what
// tells the engine which to call — this is the "closure table keyed by
// format name" the design notes call for, expressed as data instead of
// code so the table stays inspectable and testable on its own.
type OperandKind int

const (
	KReg           OperandKind = iota // r(x)  -> Rn
	KVecReg                           // v(x)  -> Vn (RXB's bit for this operand's slot supplies the high bit)
	KImmUnsigned                      // u(x)
	KImmSigned                        // s2/s3/s4/s5/s8(x), per Width
	KMask                             // m(x)  -> B'bbbb'
	KMaskOmitZero                     // om(x) -> m(x), omitted when zero
	KPopcount                         // ml(x) -> popcount of a 4-bit mask
	KDispBase                         // db/ldb(d,b)
	KDispIndexBase                    // dxb/ldxb(d,x,b)
	KDispLenBase                      // dlb(d,l,b)
	KDispVecBase                      // dvb(d,v,b)
)

// OperandSpec names the fields an operand is built from and how.
type OperandSpec struct {
	Kind   OperandKind
	Field  string // primary field (register/imm/mask/displacement)
	Field2 string // secondary field (index/length/vector)
	Field3 string // tertiary field (base register)
	Width  int    // KImmSigned: nibble width (2,3,4,5,8). KVecReg: this operand's V1-V4 slot (1-4), used to pick its RXB high bit.
}

// attachOperandRecipes assigns each format's default emit recipe — the
// operand list a "." /"A"/"C"/"M"/"c" semantic instruction renders
// unmodified. The CJ, O and S semantics also render this list and only
// change the mnemonic; B, R, JX, RO, R4 and R8 (spec.md 4.6 step 7) build
// their operands from the raw parsed fields instead of this list; see
// internal/engine/codedecoder.go.
func attachOperandRecipes(formats map[string]*Format) {
	set := func(name string, ops ...OperandSpec) {
		if f, ok := formats[name]; ok {
			f.Operands = ops
		}
	}

	set("RR",
		OperandSpec{Kind: KReg, Field: "R1"},
		OperandSpec{Kind: KReg, Field: "R2"},
	)
	set("RRE",
		OperandSpec{Kind: KReg, Field: "R1"},
		OperandSpec{Kind: KReg, Field: "R2"},
	)
	set("RRF",
		OperandSpec{Kind: KReg, Field: "R1"},
		OperandSpec{Kind: KReg, Field: "R2"},
	)
	set("RX",
		OperandSpec{Kind: KReg, Field: "R1"},
		OperandSpec{Kind: KDispIndexBase, Field: "D2", Field2: "X2", Field3: "B2"},
	)
	set("RS",
		OperandSpec{Kind: KReg, Field: "R1"},
		OperandSpec{Kind: KReg, Field: "R3"},
		OperandSpec{Kind: KDispBase, Field: "D2", Field3: "B2"},
	)
	set("RSY",
		OperandSpec{Kind: KReg, Field: "R1"},
		OperandSpec{Kind: KDispBase, Field: "DL2", Field3: "B2"},
	)
	set("SI",
		OperandSpec{Kind: KDispBase, Field: "D1", Field3: "B1"},
		OperandSpec{Kind: KMask, Field: "I2"},
	)
	set("SS1",
		OperandSpec{Kind: KDispLenBase, Field: "D1", Field2: "L", Field3: "B1"},
		OperandSpec{Kind: KDispBase, Field: "D2", Field3: "B2"},
	)
	set("SS2",
		OperandSpec{Kind: KDispLenBase, Field: "D1", Field2: "L1", Field3: "B1"},
		OperandSpec{Kind: KDispLenBase, Field: "D2", Field2: "L2", Field3: "B2"},
	)
	set("RI",
		OperandSpec{Kind: KReg, Field: "R1"},
		OperandSpec{Kind: KImmSigned, Field: "I2", Width: 4},
	)
	set("RIL",
		OperandSpec{Kind: KReg, Field: "R1"},
		OperandSpec{Kind: KImmSigned, Field: "I2", Width: 8},
	)
	set("RIE",
		OperandSpec{Kind: KReg, Field: "R1"},
		OperandSpec{Kind: KReg, Field: "R3"},
		OperandSpec{Kind: KImmSigned, Field: "RI4", Width: 4},
	)
	set("RIEROT",
		OperandSpec{Kind: KReg, Field: "R1"},
		OperandSpec{Kind: KReg, Field: "R2"},
	)
	set("VRX",
		OperandSpec{Kind: KVecReg, Field: "V1", Width: 1},
		OperandSpec{Kind: KDispIndexBase, Field: "D2", Field2: "X2", Field3: "B2"},
	)
	set("I",
		OperandSpec{Kind: KImmUnsigned, Field: "I1"},
	)
}
