package task

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownVariant indicates the configured task variant is not recognised.
var ErrUnknownVariant = errors.New("unknown task variant")

// Variant selects the ground-truth shape and baseline pool of an experiment.
type Variant int

const (
	// Standard asks the model for the best paraphrase of a metaphor; each
	// option carries a 1-4 appropriateness rating.
	Standard Variant = iota + 1
	// Inverse asks the model to recover the metaphor from a literal
	// paraphrase; exactly one option is correct.
	Inverse
)

// ParseVariant resolves a configuration value into a Variant.
func ParseVariant(value string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "standard":
		return Standard, nil
	case "inverse":
		return Inverse, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, value)
	}
}

func (v Variant) String() string {
	switch v {
	case Standard:
		return "standard"
	case Inverse:
		return "inverse"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Valid reports whether v is one of the known variants.
func (v Variant) Valid() bool {
	return v == Standard || v == Inverse
}

// OptionPool returns the multiset of scores a uniformly random guess can
// earn under this variant.
func (v Variant) OptionPool() []float64 {
	switch v {
	case Inverse:
		return []float64{0, 0, 0, 1}
	case Standard:
		return []float64{1, 2, 3, 4}
	default:
		panic(fmt.Sprintf("task: option pool requested for %s", v))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariant, int(v))
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
