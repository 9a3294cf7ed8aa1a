package zarch

// ebcdicToASCII maps the printable subset of EBCDIC (IBM code page 037-ish)
// to its ASCII rendering. Bytes absent from this map are non-printable for
// the purposes of the data decoder's auto-detect and the u() emit helper
// (spec.md 4.5, 4.6 step 6 "u(x)").
var ebcdicToASCII = buildEBCDICTable()

func buildEBCDICTable() map[byte]byte {
	t := make(map[byte]byte, 96)
	t[0x40] = ' '
	// Uppercase letters, three EBCDIC bands of 9/9/8.
	upper := "ABCDEFGHI"
	for i, c := range upper {
		t[0xC1+byte(i)] = byte(c)
	}
	upper2 := "JKLMNOPQR"
	for i, c := range upper2 {
		t[0xD1+byte(i)] = byte(c)
	}
	upper3 := "STUVWXYZ"
	for i, c := range upper3 {
		t[0xE2+byte(i)] = byte(c)
	}
	lower := "abcdefghi"
	for i, c := range lower {
		t[0x81+byte(i)] = byte(c)
	}
	lower2 := "jklmnopqr"
	for i, c := range lower2 {
		t[0x91+byte(i)] = byte(c)
	}
	lower3 := "stuvwxyz"
	for i, c := range lower3 {
		t[0xA2+byte(i)] = byte(c)
	}
	for i := 0; i < 10; i++ {
		t[0xF0+byte(i)] = byte('0' + i)
	}
	punct := map[byte]byte{
		0x4B: '.', 0x4C: '<', 0x4D: '(', 0x4E: '+', 0x4F: '|',
		0x50: '&', 0x5A: '!', 0x5B: '$', 0x5C: '*', 0x5D: ')',
		0x5E: ';', 0x60: '-', 0x61: '/', 0x6B: ',', 0x6C: '%',
		0x6D: '_', 0x6E: '>', 0x6F: '?', 0x7A: ':', 0x7B: '#',
		0x7C: '@', 0x7D: '\'', 0x7E: '=', 0x7F: '"',
	}
	for k, v := range punct {
		t[k] = v
	}
	return t
}

// IsPrintableEBCDIC reports whether b is in the classified printable set.
func IsPrintableEBCDIC(b byte) bool {
	_, ok := ebcdicToASCII[b]
	return ok
}

// EBCDICToASCII renders a printable EBCDIC byte as its ASCII character.
// Callers must check IsPrintableEBCDIC first.
func EBCDICToASCII(b byte) byte {
	return ebcdicToASCII[b]
}
