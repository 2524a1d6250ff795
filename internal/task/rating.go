package task

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedRatingInfo indicates a ground-truth cell could not be decoded.
var ErrMalformedRatingInfo = errors.New("malformed rating info")

// Labels are the canonical answer markers in option order.
var Labels = [4]string{"a", "b", "c", "d"}

// Position returns the 0-based option index of a guess label. The parser only
// ever emits canonical labels, so anything else is a programming error.
func Position(guess string) int {
	for i, label := range Labels {
		if label == guess {
			return i
		}
	}
	panic(fmt.Sprintf("task: invalid guess label %q", guess))
}

// RatingInfo is the ground truth attached to a single corpus item.
type RatingInfo interface {
	Variant() Variant
	// Score returns the score earned by guess. It panics when guess is not a
	// canonical label.
	Score(guess string) int
}

// CorrectIndex is the inverse-task ground truth: the 1-based position of the
// true metaphor among the options.
type CorrectIndex int

// Variant implements RatingInfo.
func (CorrectIndex) Variant() Variant { return Inverse }

// Score implements RatingInfo.
func (c CorrectIndex) Score(guess string) int {
	if Position(guess)+1 == int(c) {
		return 1
	}
	return 0
}

// RatingVector is the standard-task ground truth: the appropriateness rating
// of each option in label order.
type RatingVector [4]float64

// Variant implements RatingInfo.
func (RatingVector) Variant() Variant { return Standard }

// Score implements RatingInfo.
func (r RatingVector) Score(guess string) int {
	return int(r[Position(guess)])
}

// ParseRatingInfo decodes a ground-truth cell for the given variant. Inverse
// cells hold a single index; standard cells hold a "[n n n n]" vector.
func ParseRatingInfo(v Variant, raw string) (RatingInfo, error) {
	switch v {
	case Inverse:
		return parseCorrectIndex(raw)
	case Standard:
		return parseRatingVector(raw)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, v)
	}
}

func parseCorrectIndex(raw string) (RatingInfo, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: index %q: %v", ErrMalformedRatingInfo, raw, err)
	}
	if value != math.Trunc(value) || value < 1 || value > float64(len(Labels)) {
		return nil, fmt.Errorf("%w: index %q out of range 1-%d", ErrMalformedRatingInfo, raw, len(Labels))
	}
	return CorrectIndex(int(value)), nil
}

func parseRatingVector(raw string) (RatingInfo, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return nil, fmt.Errorf("%w: vector %q is not bracketed", ErrMalformedRatingInfo, raw)
	}

	fields := strings.FieldsFunc(trimmed[1:len(trimmed)-1], func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})
	if len(fields) != len(Labels) {
		return nil, fmt.Errorf("%w: vector %q has %d elements, want %d", ErrMalformedRatingInfo, raw, len(fields), len(Labels))
	}

	pool := Standard.OptionPool()
	var vector RatingVector
	for i, field := range fields {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: vector %q: %v", ErrMalformedRatingInfo, raw, err)
		}
		if !inPool(value, pool) {
			return nil, fmt.Errorf("%w: vector %q element %v is not a valid rating", ErrMalformedRatingInfo, raw, value)
		}
		vector[i] = value
	}

	return vector, nil
}

func inPool(value float64, pool []float64) bool {
	for _, option := range pool {
		if value == option {
			return true
		}
	}
	return false
}
