package desim

// checkpoints caches (position, state) pairs to shortcut replay. A checkpoint
// at position p is the state after folding entries [0, p); it depends only on
// those entries and stays valid until one of them is altered or removed.
// Checkpoints are purely an optimization; correctness never depends on them.
type checkpoints[S any] struct {
	states map[int]S
}

func newCheckpoints[S any]() *checkpoints[S] {
	return &checkpoints[S]{states: make(map[int]S)}
}

func (c *checkpoints[S]) capture(position int, state S) {
	c.states[position] = state
}

// nearest returns the highest checkpointed position at or below target.
func (c *checkpoints[S]) nearest(target int) (int, S, bool) {
	best := -1
	var state S
	for p, s := range c.states {
		if p <= target && p > best {
			best, state = p, s
		}
	}
	return best, state, best >= 0
}

// invalidateAfter drops every checkpoint whose position exceeds index. A
// checkpoint at the truncation point itself only depends on entries before
// it and survives.
func (c *checkpoints[S]) invalidateAfter(index int) {
	for p := range c.states {
		if p > index {
			delete(c.states, p)
		}
	}
}

func (c *checkpoints[S]) size() int {
	return len(c.states)
}
