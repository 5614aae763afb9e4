package fixtures

import (
	"context"

	"github.com/desimkit/desim"
)

// Recorder captures observer notifications for assertions.
type Recorder[S any] struct {
	Applied   []int    // indices of applied entries, in notification order
	Truncated [][2]int // (index, dropped) pairs
}

func (r *Recorder[S]) OnApplied(ctx context.Context, index int, entry desim.Entry[S], state S) {
	r.Applied = append(r.Applied, index)
}

func (r *Recorder[S]) OnTruncated(index, dropped int) {
	r.Truncated = append(r.Truncated, [2]int{index, dropped})
}
