// Package sequence holds the comparison and holdout logic used to score
// generated nucleotides against a known sequence.
package sequence

import (
	"errors"
	"fmt"
)

// ErrInvalidHoldout is returned by Split when the holdout size is negative or
// leaves no prompt.
var ErrInvalidHoldout = errors.New("invalid holdout size")

// Matches compares a and b position by position over their common prefix
// length and returns the number of equal positions and that length.
// No alignment is performed: an indel shifts every later position.
func Matches(a, b string) (matches, overlap int) {
	overlap = min(len(a), len(b))
	for i := 0; i < overlap; i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	return matches, overlap
}

// Identity returns the percentage of matching positions over the common
// prefix of a and b. It is 0 when either sequence is empty.
func Identity(a, b string) float64 {
	matches, overlap := Matches(a, b)
	if overlap == 0 {
		return 0
	}
	return float64(matches) / float64(overlap) * 100
}

// Split hides the last holdout symbols of seq. The prompt is everything
// before them and groundTruth is the hidden tail, so
// len(prompt)+len(groundTruth) == len(seq).
//
// A holdout of 0 keeps the full sequence as prompt with an empty ground
// truth. A holdout that is negative or not smaller than len(seq) is rejected.
func Split(seq string, holdout int) (prompt, groundTruth string, err error) {
	if holdout < 0 || holdout >= len(seq) {
		return "", "", fmt.Errorf("%w: %d for a sequence of length %d", ErrInvalidHoldout, holdout, len(seq))
	}
	cut := len(seq) - holdout
	return seq[:cut], seq[cut:], nil
}

// Head returns at most the first n symbols of s.
func Head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Tail returns at most the last n symbols of s.
func Tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
