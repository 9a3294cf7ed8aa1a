package zarch

// svcDescriptions maps a supervisor-call number (the I1 field of an SVC
// instruction) to the short description emitted as its trailing comment
// (spec.md 4.6 step 7: "For SVC: if I1 has a description, use it as the
// comment"). Not exhaustive — representative entries for the numbers that
// show up in typical module listings.
var svcDescriptions = map[uint64]string{
	0:   "Program termination (EXCP-style quiesce)",
	3:   "EXIT — terminate task",
	13:  "CATALG — catalog a data set",
	14:  "CLOSE — close a data set",
	19:  "OPEN — open a data set",
	20:  "GETMAIN — obtain free storage",
	21:  "FREEMAIN — release free storage",
	93:  "TIME — return current time",
	109: "DEQ — release a resource",
	110: "ENQ — request a resource",
}

// SVCDescription returns the description registered for a supervisor-call
// number, and whether one was found.
func SVCDescription(n uint64) (string, bool) {
	d, ok := svcDescriptions[n]
	return d, ok
}
