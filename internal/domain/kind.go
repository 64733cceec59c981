package domain

import "fmt"

// Kind selects the arithmetic of an adjustment: additive for shift-invariant
// variables like temperature, multiplicative for ratio-invariant variables
// like precipitation.
type Kind string

const (
	Additive       Kind = "additive"
	Multiplicative Kind = "multiplicative"
)

// ParseKind validates a user-supplied kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Additive, Multiplicative:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown kind %q: want %q or %q", s, Additive, Multiplicative)
	}
}
