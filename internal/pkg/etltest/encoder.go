package etltest

import (
	"github.com/zpiroux/orderlake/entity"
)

// MockEncoder encodes rows as their string representation, one per line.
// If Err is set it is returned instead, and if Panic is set Encode panics with it.
type MockEncoder struct {
	Err   error
	Panic any

	Encoded [][]entity.Row
}

func NewMockEncoder() *MockEncoder {
	return &MockEncoder{}
}

func (e *MockEncoder) Encode(rows []entity.Row) ([]byte, error) {
	if e.Panic != nil {
		panic(e.Panic)
	}
	if e.Err != nil {
		return nil, e.Err
	}
	e.Encoded = append(e.Encoded, rows)
	var out []byte
	for _, row := range rows {
		out = append(out, row.String()...)
		out = append(out, '\n')
	}
	return out, nil
}

func (e *MockEncoder) Extension() string {
	return "txt"
}
