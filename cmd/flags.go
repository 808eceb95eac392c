package cmd

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/adamgarcia4/goLearning/ndnagg/bundle"
)

// variantValue is a pflag.Value accepting only known algorithm variants.
type variantValue bundle.Variant

var _ pflag.Value = (*variantValue)(nil)

func newVariantValue(v bundle.Variant, p *bundle.Variant) *variantValue {
	*p = v
	return (*variantValue)(p)
}

func (v *variantValue) String() string { return string(*v) }

func (v *variantValue) Set(s string) error {
	parsed, err := bundle.ParseVariant(s)
	if err != nil {
		return err
	}
	*v = variantValue(parsed)
	return nil
}

func (v *variantValue) Type() string {
	names := make([]string, 0, len(bundle.Variants()))
	for _, variant := range bundle.Variants() {
		names = append(names, variant.String())
	}
	return strings.Join(names, "|")
}

// addVariantFlag registers -a/--algorithm on fs.
func addVariantFlag(fs *pflag.FlagSet, p *bundle.Variant) {
	fs.VarP(newVariantValue(bundle.VariantAIMD, p), "algorithm", "a", "Transport pipeline variant")
}
