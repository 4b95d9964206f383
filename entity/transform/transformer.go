package transform

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/zpiroux/orderlake/entity"
)

// MaxNestingDepth is the deepest array/object nesting accepted in a document.
// JSON validation and parsing recurse per nesting level, so deeper documents are rejected
// up front with an iterative scan.
const MaxNestingDepth = 10000

var ErrNestingTooDeep = errors.New("document nesting exceeds max depth")

// Transform decodes the orders document and flattens it into rows.
// The decoded orders are returned as well, for metrics and logging purposes.
func Transform(data []byte) ([]entity.Order, []entity.Row, error) {
	orders, err := DecodeOrders(data)
	if err != nil {
		return nil, nil, err
	}
	return orders, Flatten(orders), nil
}

// DecodeOrders decodes a JSON array of order objects. Absent or null fields are kept as null
// fields and never cause an error. The document is required to be valid JSON, and its shape
// an array of objects, with each present items value being an array of objects, otherwise
// ErrTransform is returned. With duplicate keys in an object the last one wins.
func DecodeOrders(data []byte) ([]entity.Order, error) {

	if err := CheckNestingDepth(data); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrTransform, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: document is not valid JSON", entity.ErrTransform)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: top-level JSON value is %s, expected an array of orders", entity.ErrTransform, typeName(doc))
	}

	var (
		orders []entity.Order
		err    error
	)
	index := 0
	doc.ForEach(func(_, value gjson.Result) bool {
		var order entity.Order
		order, err = decodeOrder(index, value)
		if err != nil {
			return false
		}
		orders = append(orders, order)
		index++
		return true
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func decodeOrder(index int, value gjson.Result) (entity.Order, error) {

	var order entity.Order

	if !value.IsObject() {
		return order, fmt.Errorf("%w: order #%d is %s, expected an object", entity.ErrTransform, index, typeName(value))
	}

	fields := lastValues(value)
	order.OrderId = entity.FieldFrom(fields[entity.KeyOrderId])
	order.Date = entity.FieldFrom(fields[entity.KeyDate])
	order.CustomerId = entity.FieldFrom(fields[entity.KeyCustomerId])

	items := fields[entity.KeyItems]
	if !items.Exists() || items.Type == gjson.Null {
		return order, nil
	}
	if !items.IsArray() {
		return order, fmt.Errorf("%w: items of order #%d is %s, expected an array", entity.ErrTransform, index, typeName(items))
	}

	var err error
	itemIndex := 0
	items.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			err = fmt.Errorf("%w: item #%d of order #%d is %s, expected an object", entity.ErrTransform, itemIndex, index, typeName(item))
			return false
		}
		itemFields := lastValues(item)
		order.Items = append(order.Items, entity.Item{
			ProductId: entity.FieldFrom(itemFields[entity.KeyProductId]),
			Quantity:  entity.FieldFrom(itemFields[entity.KeyQuantity]),
			Price:     entity.FieldFrom(itemFields[entity.KeyPrice]),
		})
		itemIndex++
		return true
	})

	return order, err
}

// Flatten denormalizes orders into one row per (order, item) pair, keeping input order
// of both orders and items. Orders without items contribute no rows.
func Flatten(orders []entity.Order) []entity.Row {
	rows := make([]entity.Row, 0, countItems(orders))
	for _, order := range orders {
		for _, item := range order.Items {
			rows = append(rows, entity.NewRow(order, item))
		}
	}
	return rows
}

// lastValues maps the keys of a JSON object to their values. gjson lookups return the first
// of duplicate keys, while decoders in general keep the last one, so the object is walked.
func lastValues(obj gjson.Result) map[string]gjson.Result {
	values := make(map[string]gjson.Result)
	obj.ForEach(func(key, value gjson.Result) bool {
		values[key.String()] = value
		return true
	})
	return values
}

// CheckNestingDepth scans the document without recursion and returns ErrNestingTooDeep if
// arrays and objects are nested deeper than MaxNestingDepth. Brackets in strings are ignored.
// The document is not otherwise validated.
func CheckNestingDepth(data []byte) error {
	var (
		depth    int
		inString bool
		escaped  bool
	)
	for _, c := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
			if depth > MaxNestingDepth {
				return ErrNestingTooDeep
			}
		case ']', '}':
			depth--
		}
	}
	return nil
}

func countItems(orders []entity.Order) int {
	n := 0
	for _, order := range orders {
		n += len(order.Items)
	}
	return n
}

func typeName(r gjson.Result) string {
	switch {
	case r.IsArray():
		return "an array"
	case r.IsObject():
		return "an object"
	}
	switch r.Type {
	case gjson.String:
		return "a string"
	case gjson.Number:
		return "a number"
	case gjson.True, gjson.False:
		return "a boolean"
	case gjson.Null:
		return "null"
	}
	return "empty"
}
