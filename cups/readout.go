package cups

import (
	"strconv"
	"strings"
)

// Order returns the N-1 cups clockwise after cup 1.
func (r *Ring) Order() []Label {
	labels := make([]Label, 0, r.Len()-1)
	r.Each(1, r.Len()-1, func(l Label) {
		labels = append(labels, l)
	})
	return labels
}

// OrderString concatenates Order in decimal, e.g. "67384529".
func (r *Ring) OrderString() string {
	var sb strings.Builder
	r.Each(1, r.Len()-1, func(l Label) {
		sb.WriteString(strconv.FormatUint(uint64(l), 10))
	})
	return sb.String()
}

// PairProduct multiplies the two cups clockwise of cup 1.
func (r *Ring) PairProduct() uint64 {
	a := r.Successor(1)
	b := r.Successor(a)
	return uint64(a) * uint64(b)
}
