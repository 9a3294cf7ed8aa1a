package engine

// Options configures one disassembly run (spec.md 6's CLI surface,
// generalized into the core's entry point).
type Options struct {
	// StartLocation is the initial value of the location counter.
	StartLocation uint32
	// SectionName labels the START statement at StartLocation (location 0
	// unless StartLocation is set); empty means the default label @.
	SectionName string
	// Stats enables the format/mnemonic frequency report (spec.md 4.8),
	// the core behavior behind the CLI's --stat flag.
	Stats bool
}
