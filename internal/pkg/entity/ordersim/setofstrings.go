package ordersim

import (
	"fmt"
	"slices"
)

// expandSetOfStrings returns the field specs with each setOfStrings option replaced by the
// generated set of predefined values.
func (g *Generator) expandSetOfStrings(fields []FieldSpec) []FieldSpec {
	out := make([]FieldSpec, 0, len(fields))
	for _, field := range fields {
		if field.SetOfStrings != nil && len(field.PredefinedValues) == 0 {
			field.PredefinedValues = g.valuesFromSetOfStrings(field.SetOfStrings)
		}
		out = append(out, field)
	}
	return out
}

func (g *Generator) valuesFromSetOfStrings(spec *SetOfStrings) []PredefinedValue {
	var values []PredefinedValue
	for i := 0; i < spec.Amount; i++ {
		value := fmt.Sprintf("%s%d", spec.Prefix, i+1)
		if slices.Contains(spec.ExcludeValues, value) {
			continue
		}
		values = append(values, PredefinedValue{
			Value:           value,
			FrequencyFactor: g.freqFactor(spec),
		})
	}
	return values
}

func (g *Generator) freqFactor(spec *SetOfStrings) int {
	factor := 1
	switch {
	case spec.FrequencyMax < 1:
	case spec.FrequencyMin < 1:
	case spec.FrequencyMax <= spec.FrequencyMin:
	default:
		factor = g.randInt(spec.FrequencyMin, spec.FrequencyMax)
	}
	return factor
}
