package bundle

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownVariant = errors.New("unknown algorithm variant")

// Variant names a pipeline algorithm the aggregators run.
type Variant string

const (
	VariantAIMD  Variant = "aimd"
	VariantRUBIC Variant = "rubic"
)

var variants = []Variant{VariantAIMD, VariantRUBIC}

// Variants returns every supported variant in emission order.
func Variants() []Variant {
	out := make([]Variant, len(variants))
	copy(out, variants)
	return out
}

// ParseVariant accepts a variant name in any letter case.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range variants {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownVariant, s, joinVariants(variants))
}

func (v Variant) String() string {
	return string(v)
}

func joinVariants(vs []Variant) string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}
