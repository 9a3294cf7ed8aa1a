package engine

import (
	"fmt"
	"sort"
)

// reference records one materialized address: the location that produced
// it, the location it points at, and the byte length observed through it
// (spec.md 4.2's length invariant: a DSECT field or label's recorded length
// only ever grows).
type reference struct {
	FromLoc uint32
	ToLoc   uint32
	Length  int
}

// labelRegistry is the location/label registry (spec.md 4.2): the map from
// symbolic names to locations, the reverse map, which names were actually
// defined (as opposed to materialized as a bare reference), the list of
// references recorded against each location, and the back-reference list —
// locations that were referenced before any label existed there, and whose
// already-emitted statement needs its label column patched in at
// finalization.
type labelRegistry struct {
	nameToLoc  map[string]uint32
	locToName  map[uint32]string
	defined    map[string]bool
	usedLength map[uint32]int
	refs       []reference
	backRefs   map[uint32]bool
}

func newLabelRegistry() *labelRegistry {
	return &labelRegistry{
		nameToLoc:  make(map[string]uint32),
		locToName:  make(map[uint32]string),
		defined:    make(map[string]bool),
		usedLength: make(map[uint32]int),
		backRefs:   make(map[uint32]bool),
	}
}

// autoLabel is the auto-generated name for a location with no explicit
// label: L<hex>, uppercase, no leading zeros (spec.md 4.2).
func autoLabel(loc uint32) string {
	return fmt.Sprintf("L%X", loc)
}

// defineLabel records an explicit label at loc. A label is never
// redefined to a different location (spec.md 4.2 invariant); a second
// defineLabel for a name already bound elsewhere is silently ignored, and
// so is a new name at a location that already carries a different defined
// label.
func (r *labelRegistry) defineLabel(name string, loc uint32) {
	if existing, ok := r.nameToLoc[name]; ok {
		if existing != loc {
			return
		}
	} else if other, ok := r.locToName[loc]; ok && other != name && r.defined[other] {
		return
	}
	r.nameToLoc[name] = loc
	r.locToName[loc] = name
	r.defined[name] = true
}

// labelAt returns the label naming loc, auto-creating one (unmarked as
// defined) on first reference. fromLoc is the referrer; if loc is strictly
// earlier and this is the first time a label is created there, loc is
// pushed onto the back-reference list since the statement already emitted
// at that location had no label column at emission time.
func (r *labelRegistry) labelAt(loc, fromLoc uint32) string {
	if name, ok := r.locToName[loc]; ok {
		return name
	}
	name := autoLabel(loc)
	r.nameToLoc[name] = loc
	r.locToName[loc] = name
	if loc < fromLoc {
		r.backRefs[loc] = true
	}
	return name
}

// recordUsedLength widens the maximum observed length at loc.
func (r *labelRegistry) recordUsedLength(loc uint32, n int) {
	if n > r.usedLength[loc] {
		r.usedLength[loc] = n
	}
}

// materializeRef is the single entry point the data and code decoders use
// whenever they turn a location into a symbolic reference: it resolves or
// creates the label, records the reference, and widens the length
// invariant in one step.
func (r *labelRegistry) materializeRef(fromLoc, toLoc uint32, length int) string {
	name := r.labelAt(toLoc, fromLoc)
	if length > 0 {
		r.recordUsedLength(toLoc, length)
	}
	r.refs = append(r.refs, reference{FromLoc: fromLoc, ToLoc: toLoc, Length: length})
	return name
}

// locationOf reports the location bound to name, if any.
func (r *labelRegistry) locationOf(name string) (uint32, bool) {
	loc, ok := r.nameToLoc[name]
	return loc, ok
}

// sortedBackRefs returns the back-reference locations in ascending order,
// for deterministic finalization patching.
func (r *labelRegistry) sortedBackRefs() []uint32 {
	out := make([]uint32, 0, len(r.backRefs))
	for loc := range r.backRefs {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// undefinedNames returns every name that was referenced but never
// explicitly defined, sorted for deterministic reporting (spec.md 4.7's
// undefined-labels report).
func (r *labelRegistry) undefinedNames() []string {
	var out []string
	for name := range r.nameToLoc {
		if !r.defined[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
