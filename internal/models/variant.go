package models

import (
	"fmt"
	"strings"
)

// Variant identifies one spatial-resolution product of the wave model
type Variant string

const (
	VariantGlobal Variant = "global"
	VariantHires  Variant = "hires"
	VariantReg    Variant = "reg"
)

// AllVariants lists every known variant in processing order
var AllVariants = []Variant{VariantGlobal, VariantHires, VariantReg}

// ParseVariant validates a variant name
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllVariants {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown variant %q (want one of global, hires, reg)", s)
}

// ParseVariants validates a list of variant names, dropping duplicates
func ParseVariants(names []string) ([]Variant, error) {
	seen := make(map[Variant]struct{}, len(names))
	variants := make([]Variant, 0, len(names))
	for _, name := range names {
		v, err := ParseVariant(name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
	}
	return variants, nil
}

// ProductType selects the model run product ("1200" or "0000")
type ProductType string

const (
	Product1200 ProductType = "1200"
	Product0000 ProductType = "0000"
)

// ParseProductType validates a product type
func ParseProductType(s string) (ProductType, error) {
	switch p := ProductType(strings.TrimSpace(s)); p {
	case Product1200, Product0000:
		return p, nil
	}
	return "", fmt.Errorf("unknown product type %q (want 1200 or 0000)", s)
}

// ForecastIndex returns the index into the time dimension used for this product
func (p ProductType) ForecastIndex() int {
	if p == Product1200 {
		return 6
	}
	return 10
}
