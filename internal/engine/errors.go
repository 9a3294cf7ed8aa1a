package engine

import "fmt"

// Diagnostic codes emitted in-band as comment text (spec.md 7). The engine
// never aborts on these; each is recorded as a statement comment and
// decoding continues past the offending bytes.
const (
	codeUnparseableData = "DIS0001"
	codeInvalidHex       = "DIS0006"
	codeOddHex           = "DIS0007"
)

func diagOddHex(n int) string {
	return fmt.Sprintf("%s odd-length hex run (%d nibbles), bytes ignored", codeOddHex, n)
}

func diagInvalidHex(bad string) string {
	return fmt.Sprintf("%s non-hex character in hex run: %q", codeInvalidHex, bad)
}

func diagUnparseableData(reason string) string {
	return fmt.Sprintf("%s could not partition data slice: %s", codeUnparseableData, reason)
}

const todoMarker = "<-- TODO (not code)"
