// Package ordersim generates synthetic orders documents, for load testing of the pipeline
// and for local runs. Documents are built with sjson from a Spec describing how the order
// and item fields should be generated.
package ordersim

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"
)

const (
	DefaultMaxFractionDigits = 2
	TimestampLayoutIsoMillis = "2006-01-02T15:04:05.000Z"
	DateLayout               = "2006-01-02"

	itemsField = "items"
)

var DefaultCharset = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz")

// Spec specifies the shape of generated documents
type Spec struct {
	Orders Count `json:"orders"`

	// Number of items per order
	Items Count `json:"items"`

	// Probability (0-1) of an order having its items key omitted altogether
	OmitItemsRatio float64 `json:"omitItemsRatio"`

	OrderFields []FieldSpec `json:"orderFields"`
	ItemFields  []FieldSpec `json:"itemFields"`
}

// Count is an inclusive range for a random count
type Count struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// FieldSpec specifies how each field should be generated
type FieldSpec struct {

	// Name of the field on sjson format (see github.com/tidwall/sjson)
	Field string `json:"field"`

	// One of the below options can be present in each field spec
	PredefinedValues []PredefinedValue `json:"predefinedValues"`
	RandomizedValue  *RandomizedValue  `json:"randomizedValue"`
	SetOfStrings     *SetOfStrings     `json:"setOfStrings"`

	// Probability (0-1) of the field being set to null instead of a generated value
	NullRatio float64 `json:"nullRatio"`

	// Probability (0-1) of the field being left out of the record
	OmitRatio float64 `json:"omitRatio"`
}

// PredefinedValue enables a field to have one of many provided values set with a probability
// based on the FrequencyFactor.
type PredefinedValue struct {

	// Value can be any json scalar value (string, number, boolean, null)
	Value any `json:"value"`

	// FrequencyFactor specifies the relative probability of each provided value.
	FrequencyFactor int `json:"frequencyFactor"`
}

// RandomizedValue generates a random value for a field.
type RandomizedValue struct {

	// Type is mandatory and have the following supported values:
	//
	//     "int", "integer"
	//     "float"
	//     "string"
	//     "bool"
	//     "date"
	//     "isoTimestampMilliseconds"
	//     "uuid"
	//     "sequence" (Min, Min+1, ... for each generated record)
	Type string `json:"type"`

	// Min and Max specifies the range of the randomized value. For "date" they are
	// the range of days before the current date.
	Min float64 `json:"min"`
	Max float64 `json:"max"`

	// Charset is only applicable for "string" type and names a character set provided
	// when creating the Generator. If omitted DefaultCharset is used.
	Charset string `json:"charset"`

	// MaxFractionDigits is only applicable for "float" type. If omitted
	// DefaultMaxFractionDigits will be used.
	MaxFractionDigits int `json:"maxFractionDigits"`
}

// SetOfStrings generates string values on the format "<prefix>n", where 'n' is a number
// from 1 to "Amount", from which a random value will be assigned to the field.
// Convenient for simulating high cardinality dimensions such as product ids.
//
// If FrequencyMin and FrequencyMax is omitted or set to 0 (or with invalid values), all
// the generated string values will have equal frequency factor. Otherwise a random factor
// in the range is given to each value.
type SetOfStrings struct {
	Amount        int      `json:"amount"`
	Prefix        string   `json:"prefix"`
	FrequencyMin  int      `json:"frequencyMin"`
	FrequencyMax  int      `json:"frequencyMax"`
	ExcludeValues []string `json:"excludeValues"`
}

// Stats holds the counts of a generated document
type Stats struct {
	Orders int
	Items  int
}

// DefaultSpec returns a spec generating documents with all order and item fields populated.
func DefaultSpec() Spec {
	return Spec{
		Orders: Count{Min: 10, Max: 10},
		Items:  Count{Min: 0, Max: 4},
		OrderFields: []FieldSpec{
			{Field: "order_id", RandomizedValue: &RandomizedValue{Type: "sequence", Min: 1}},
			{Field: "date", RandomizedValue: &RandomizedValue{Type: "date", Min: 0, Max: 30}},
			{Field: "customer_id", RandomizedValue: &RandomizedValue{Type: "int", Min: 1, Max: 1000}},
		},
		ItemFields: []FieldSpec{
			{Field: "product_id", SetOfStrings: &SetOfStrings{Amount: 50, Prefix: "P"}},
			{Field: "quantity", RandomizedValue: &RandomizedValue{Type: "int", Min: 1, Max: 5}},
			{Field: "price", RandomizedValue: &RandomizedValue{Type: "float", Min: 1, Max: 100}},
		},
	}
}

// Generator creates orders documents from a Spec. A Generator is not safe for concurrent use.
type Generator struct {
	spec            Spec
	rng             *rand.Rand
	charsets        map[string][]rune
	frequencyRanges map[string][]fieldFrequencyRange
	sequences       map[string]int
	now             func() time.Time
}

// NewGenerator creates a Generator. Using the same seed and clock gives identical documents.
func NewGenerator(spec Spec, seed int64, charsets map[string][]rune) (*Generator, error) {

	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	g := &Generator{
		spec:      spec,
		rng:       rand.New(rand.NewSource(seed)),
		charsets:  charsets,
		sequences: make(map[string]int),
		now:       func() time.Time { return time.Now().UTC() },
	}
	g.spec.OrderFields = g.expandSetOfStrings(g.spec.OrderFields)
	g.spec.ItemFields = g.expandSetOfStrings(g.spec.ItemFields)
	g.frequencyRanges = createFrequencyRanges("order.", g.spec.OrderFields)
	for k, v := range createFrequencyRanges("item.", g.spec.ItemFields) {
		g.frequencyRanges[k] = v
	}
	return g, nil
}

// WithClock sets the clock used for date and timestamp values.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

func validateSpec(spec Spec) error {
	for _, c := range []Count{spec.Orders, spec.Items} {
		if c.Min < 0 || c.Max < 0 {
			return errors.New("min and max counts cannot be negative")
		}
		if c.Min > c.Max {
			return errors.New("min count cannot be higher than max count")
		}
	}
	for _, f := range append(append([]FieldSpec{}, spec.OrderFields...), spec.ItemFields...) {
		if f.Field == "" {
			return errors.New("field name cannot be empty")
		}
		if f.Field == itemsField {
			return fmt.Errorf("field name %q is reserved", itemsField)
		}
		if f.PredefinedValues == nil && f.RandomizedValue == nil && f.SetOfStrings == nil {
			return fmt.Errorf("no value generation option given for field %s", f.Field)
		}
	}
	return nil
}

// Generate creates a new orders document.
func (g *Generator) Generate() (doc []byte, stats Stats, err error) {

	doc = []byte("[]")
	nbOrders := g.randInt(g.spec.Orders.Min, g.spec.Orders.Max)

	for i := 0; i < nbOrders; i++ {
		var order []byte
		order, err = g.createRecord("order.", g.spec.OrderFields)
		if err != nil {
			return nil, stats, err
		}

		if g.rng.Float64() >= g.spec.OmitItemsRatio {
			items := []byte("[]")
			nbItems := g.randInt(g.spec.Items.Min, g.spec.Items.Max)
			for j := 0; j < nbItems; j++ {
				var item []byte
				if item, err = g.createRecord("item.", g.spec.ItemFields); err != nil {
					return nil, stats, err
				}
				if items, err = sjson.SetRawBytes(items, "-1", item); err != nil {
					return nil, stats, err
				}
			}
			if order, err = sjson.SetRawBytes(order, itemsField, items); err != nil {
				return nil, stats, err
			}
			stats.Items += nbItems
		}

		if doc, err = sjson.SetRawBytes(doc, "-1", order); err != nil {
			return nil, stats, err
		}
		stats.Orders++
	}
	return doc, stats, nil
}

// createRecord generates a single random JSON object based on the field specs
func (g *Generator) createRecord(scope string, fields []FieldSpec) (record []byte, err error) {

	record = []byte("{}")
	for _, fieldSpec := range fields {

		if fieldSpec.OmitRatio > 0 && g.rng.Float64() < fieldSpec.OmitRatio {
			continue
		}

		var value any
		switch {
		case fieldSpec.NullRatio > 0 && g.rng.Float64() < fieldSpec.NullRatio:
			value = nil
		case len(fieldSpec.PredefinedValues) > 0:
			value = g.createFieldValueWithFrequencyFactor(g.frequencyRanges[scope+fieldSpec.Field])
		case fieldSpec.RandomizedValue != nil:
			value, err = g.createRandomizedFieldValue(scope, fieldSpec)
		}
		if err != nil {
			return record, err
		}

		record, err = sjson.SetBytes(record, fieldSpec.Field, value)
		if err != nil {
			return record, err
		}
	}
	return record, err
}

// createRandomizedFieldValue handles the fieldSpec option "randomizedValue"
func (g *Generator) createRandomizedFieldValue(scope string, f FieldSpec) (value any, err error) {

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v due to invalid randomizedValue spec: %+v", r, f.RandomizedValue)
		}
	}()
	v := f.RandomizedValue

	switch v.Type {

	case "int", "integer":
		value = g.randInt(int(v.Min), int(v.Max))

	case "float":
		value = g.randFloat(v)

	case "string":
		value = g.randString(v)

	case "bool", "boolean":
		value = g.rng.Intn(2) == 0

	case "date":
		daysAgo := g.randInt(int(v.Min), int(v.Max))
		value = g.now().AddDate(0, 0, -daysAgo).Format(DateLayout)

	case "isoTimestampMilliseconds":
		value = g.now().Format(TimestampLayoutIsoMillis)

	case "uuid":
		var id uuid.UUID
		id, err = uuid.NewRandomFromReader(g.rng)
		value = id.String()

	case "sequence":
		key := scope + f.Field
		value = int(v.Min) + g.sequences[key]
		g.sequences[key]++

	default:
		err = fmt.Errorf("unsupported type for randomized values: %s", v.Type)
	}

	return
}

// randInt creates a random int between min and max (including max)
func (g *Generator) randInt(min, max int) int {
	return g.rng.Intn(max+1-min) + min
}

// randFloat returns a json.Number, to keep the required number of fraction digits without
// floating point inaccuracy digits when injecting the value with sjson.
func (g *Generator) randFloat(v *RandomizedValue) json.Number {
	digits := v.MaxFractionDigits
	if digits == 0 {
		digits = DefaultMaxFractionDigits
	}
	f := v.Min + g.rng.Float64()*(v.Max-v.Min)
	return json.Number(fmt.Sprintf("%.*f", digits, f))
}

func (g *Generator) randString(v *RandomizedValue) string {
	charset, ok := g.charsets[v.Charset]
	if !ok {
		charset = DefaultCharset
	}
	strLength := g.randInt(int(v.Min), int(v.Max))
	var sb strings.Builder
	for i := 0; i < strLength; i++ {
		sb.WriteRune(charset[g.rng.Intn(len(charset))])
	}
	return sb.String()
}

// fieldFrequencyRange is used for internal conversion of predefined values that should be
// randomized with a given distribution.
type fieldFrequencyRange struct {
	Start int
	End   int
	Max   int
	Value any
}

// createFrequencyRanges prepares the data to be used for generating values with the
// requested distribution/value frequency.
func createFrequencyRanges(scope string, fields []FieldSpec) map[string][]fieldFrequencyRange {

	ranges := make(map[string][]fieldFrequencyRange)
	for _, fieldSpec := range fields {

		var freqFactorSum int
		for _, value := range fieldSpec.PredefinedValues {
			freqFactorSum += frequencyFactor(value)
		}

		var (
			index      int
			fieldRange []fieldFrequencyRange
		)
		for _, value := range fieldSpec.PredefinedValues {
			r := fieldFrequencyRange{
				Start: index,
				End:   index + frequencyFactor(value),
				Max:   freqFactorSum,
				Value: value.Value,
			}
			index = r.End
			fieldRange = append(fieldRange, r)
		}
		ranges[scope+fieldSpec.Field] = fieldRange
	}
	return ranges
}

func frequencyFactor(value PredefinedValue) int {
	if value.FrequencyFactor <= 0 {
		return 1
	}
	return value.FrequencyFactor
}

func (g *Generator) createFieldValueWithFrequencyFactor(fields []fieldFrequencyRange) any {
	n := g.rng.Intn(fields[0].Max)
	for _, field := range fields {
		if n >= field.Start && n < field.End {
			return field.Value
		}
	}
	return fields[len(fields)-1].Value
}
