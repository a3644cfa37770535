// Package cups simulates the crab cups game on a ring of uniquely labeled cups.
//
// The ring is stored as a successor array indexed by label, so picking up
// cups, finding the destination and putting the cups back are all constant
// time regardless of how many cups are on the table.
package cups

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrConfig is returned when a ring or a run cannot be set up.
	ErrConfig = errors.New("invalid configuration")
	// ErrInvariant means the successor array is no longer a single cycle.
	ErrInvariant = errors.New("ring invariant violated")
)

// MinCups is the smallest ring a move can be played on: the current cup,
// three picked up cups and a destination.
const MinCups = 4

// Label identifies a cup. Labels of a ring are exactly 1..N.
type Label uint32

// Triple holds the three cups picked up during a move, in clockwise order.
type Triple [3]Label

func (t Triple) Contains(l Label) bool {
	return t[0] == l || t[1] == l || t[2] == l
}

type Ring struct {
	// next[l] is the cup clockwise of l; next[0] is unused
	next    []Label
	current Label
}

// Validate checks that New would accept initial and size, and returns the
// number of cups the ring would hold. It allocates nothing proportional to
// size.
func Validate(initial []Label, size int) (int, error) {
	if len(initial) == 0 {
		return 0, fmt.Errorf("%w: no cups given", ErrConfig)
	}
	if size == 0 {
		size = len(initial)
	}
	if size < len(initial) {
		return 0, fmt.Errorf("%w: ring size %d is smaller than the %d initial cups", ErrConfig, size, len(initial))
	}
	if size < MinCups {
		return 0, fmt.Errorf("%w: need at least %d cups, got %d", ErrConfig, MinCups, size)
	}
	if uint64(size) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: ring size %d does not fit a cup label", ErrConfig, size)
	}

	seen := make([]bool, len(initial)+1)
	for _, l := range initial {
		switch {
		case l == 0:
			return 0, fmt.Errorf("%w: cup labels must be positive", ErrConfig)
		case int(l) > len(initial):
			return 0, fmt.Errorf("%w: labels must cover 1..%d without gaps, found %d", ErrConfig, len(initial), l)
		case seen[l]:
			return 0, fmt.Errorf("%w: duplicate cup %d", ErrConfig, l)
		}
		seen[l] = true
	}

	return size, nil
}

// New builds a ring from the initial clockwise order. When size is larger
// than the initial order, cups max(initial)+1 .. size follow in increasing
// order before the ring closes back to initial[0]. A size of zero means
// len(initial).
func New(initial []Label, size int) (*Ring, error) {
	size, err := Validate(initial, size)
	if err != nil {
		return nil, err
	}

	next := make([]Label, size+1)
	prev := initial[0]
	for _, l := range initial[1:] {
		next[prev] = l
		prev = l
	}
	for l := len(initial) + 1; l <= size; l++ {
		next[prev] = Label(l)
		prev = Label(l)
	}
	next[prev] = initial[0]

	return &Ring{
		next:    next,
		current: initial[0],
	}, nil
}

// Len returns the number of cups N.
func (r *Ring) Len() int {
	return len(r.next) - 1
}

// Current returns the cup the next move starts from.
func (r *Ring) Current() Label {
	return r.current
}

func (r *Ring) Successor(l Label) Label {
	return r.next[l]
}

// RemoveThreeAfter detaches the three cups clockwise of l and returns them.
// Their own successor entries are stale until InsertThreeAfter puts them back.
func (r *Ring) RemoveThreeAfter(l Label) Triple {
	a := r.next[l]
	b := r.next[a]
	c := r.next[b]
	r.next[l] = r.next[c]
	return Triple{a, b, c}
}

// InsertThreeAfter splices t back in clockwise of l, keeping its order.
func (r *Ring) InsertThreeAfter(l Label, t Triple) {
	after := r.next[l]
	r.next[l] = t[0]
	r.next[t[0]] = t[1]
	r.next[t[1]] = t[2]
	r.next[t[2]] = after
}

// Each calls fn for count cups, starting with the one clockwise of from.
func (r *Ring) Each(from Label, count int, fn func(Label)) {
	l := from
	for i := 0; i < count; i++ {
		l = r.next[l]
		fn(l)
	}
}

// Verify checks that every label has exactly one predecessor and that
// following successors from the current cup visits all N cups once.
func (r *Ring) Verify() error {
	n := r.Len()
	if r.current == 0 || int(r.current) > n {
		return fmt.Errorf("%w: current cup %d outside 1..%d", ErrInvariant, r.current, n)
	}

	seen := make([]bool, n+1)
	l := r.current
	for i := 0; i < n; i++ {
		l = r.next[l]
		if l == 0 || int(l) > n {
			return fmt.Errorf("%w: successor %d outside 1..%d", ErrInvariant, l, n)
		}
		if seen[l] {
			return fmt.Errorf("%w: cup %d reached twice after %d steps", ErrInvariant, l, i+1)
		}
		seen[l] = true
	}
	if l != r.current {
		return fmt.Errorf("%w: cycle from %d does not close after %d steps", ErrInvariant, r.current, n)
	}

	return nil
}

// MustVerify panics if Verify fails. A broken ring is a bug, never input.
func (r *Ring) MustVerify() {
	if err := r.Verify(); err != nil {
		panic(err)
	}
}

func (r *Ring) Clone() *Ring {
	next := make([]Label, len(r.next))
	copy(next, r.next)
	return &Ring{
		next:    next,
		current: r.current,
	}
}
