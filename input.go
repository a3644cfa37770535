package main

import (
	"fmt"
	"strconv"
	"strings"

	"gregoryjjb/crabcups/cups"
)

// ParseLabels reads the cup order from the first non-blank line of text.
// "389125467" is read one cup per digit; "3, 8, 9, 10" or "3 8 9 10" is read
// as a list of numbers. Whether the cups form a valid ring is left to
// cups.New.
func ParseLabels(text string) ([]cups.Label, error) {
	var line string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}
	if line == "" {
		return nil, fmt.Errorf("%w: no cups in input", ErrValidation)
	}

	if !strings.ContainsAny(line, ", \t") {
		labels := make([]cups.Label, 0, len(line))
		for _, c := range line {
			if c < '0' || c > '9' {
				return nil, fmt.Errorf("%w: %q is not a cup label", ErrValidation, c)
			}
			labels = append(labels, cups.Label(c-'0'))
		}
		return labels, nil
	}

	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	labels := make([]cups.Label, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a cup label", ErrValidation, f)
		}
		labels = append(labels, cups.Label(v))
	}
	return labels, nil
}
