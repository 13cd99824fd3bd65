package xref

// Collect resolves, in ascending index order, every constant-pool entry the
// resolver's VisitedSet has not yet marked. Resolution marks entries as a
// side effect, so an index reached through an earlier entry is skipped when
// the scan arrives at it.
func Collect(r *Resolver) ([]string, error) {
	var literals []string
	for i := 1; i < r.pool.Count(); i++ {
		index := uint16(i)
		if r.visited.Visited(index) || r.pool.Entry(index) == nil {
			continue
		}
		text, err := r.Resolve(index)
		if err != nil {
			return nil, err
		}
		literals = append(literals, text)
	}
	return literals, nil
}
