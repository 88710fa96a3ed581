package pairing

// Queue hands out prioritized pairs one at a time. It materializes a
// batch lazily and refills when the batch runs dry or the comparison
// context changes, so repeated calls within one context walk down the
// priority order instead of re-ranking on every request.
type Queue struct {
	context string
	buffer  []CandidatePair
	primed  bool
}

// Context returns the feature-category filter the current batch was
// built for. Empty means unconstrained.
func (q *Queue) Context() string {
	return q.context
}

// Len returns the number of buffered pairs remaining.
func (q *Queue) Len() int {
	return len(q.buffer)
}

// Next pops the highest-priority remaining pair. When the buffer is
// empty or the context changed, build is called to materialize a fresh
// batch for the new context. ok is false when build produced nothing;
// the caller decides what to fall back to.
func (q *Queue) Next(context string, build func(context string) []CandidatePair) (CandidatePair, bool) {
	if !q.primed || context != q.context || len(q.buffer) == 0 {
		q.context = context
		q.buffer = build(context)
		q.primed = true
	}
	if len(q.buffer) == 0 {
		return CandidatePair{}, false
	}
	pair := q.buffer[0]
	q.buffer = q.buffer[1:]
	return pair, true
}

// Invalidate drops the buffered batch so the next call re-ranks. Call
// it after recording an outcome: the priorities it was built from are
// stale.
func (q *Queue) Invalidate() {
	q.buffer = nil
	q.primed = false
}
