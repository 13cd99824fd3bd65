package xref

// VisitedSet records which constant-pool indices have been surfaced by the
// rendition. It is sized to the pool's declared count and belongs to a
// single analysis.
type VisitedSet struct {
	flags []bool
}

func NewVisitedSet(count int) *VisitedSet {
	if count < 0 {
		count = 0
	}
	return &VisitedSet{flags: make([]bool, count)}
}

// Mark records index as visited. Indices outside the pool are ignored.
func (v *VisitedSet) Mark(index uint16) {
	if int(index) < len(v.flags) {
		v.flags[index] = true
	}
}

func (v *VisitedSet) Visited(index uint16) bool {
	return int(index) < len(v.flags) && v.flags[index]
}

// Len returns the pool count the set was sized for.
func (v *VisitedSet) Len() int {
	return len(v.flags)
}

// Count returns the number of marked indices.
func (v *VisitedSet) Count() int {
	n := 0
	for _, f := range v.flags {
		if f {
			n++
		}
	}
	return n
}
