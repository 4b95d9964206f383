package xparquet

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/zpiroux/orderlake/entity"
	"github.com/zpiroux/orderlake/entity/transform"
)

const ordersDoc = `[
	{"order_id":1,"date":"2024-01-01","customer_id":9,"items":[
		{"product_id":"A","quantity":2,"price":5.0},
		{"product_id":"B","quantity":1,"price":3}
	]},
	{"order_id":2,"date":"2024-01-02","customer_id":7},
	{"order_id":3,"date":null,"customer_id":9,"items":[{"product_id":"C"}]}
]`

func TestEncodeAndReadBack(t *testing.T) {

	rows := testRows(t, ordersDoc)
	require.Len(t, rows, 3)

	encoder, err := NewEncoder("")
	require.NoError(t, err)
	assert.Equal(t, "parquet", encoder.Extension())

	data, err := encoder.Encode(rows)
	require.NoError(t, err)
	assertParquetFile(t, data)

	pr := openReader(t, data)
	defer pr.ReadStop()

	assert.Equal(t, int64(3), pr.GetNumRows())
	assertColumnNames(t, pr.Footer.Schema[1:])

	records, err := pr.ReadByNumber(3)
	require.NoError(t, err)
	out, err := json.Marshal(records)
	require.NoError(t, err)
	res := gjson.ParseBytes(out)

	assert.Equal(t, int64(1), res.Get("0.Order_id").Int())
	assert.Equal(t, "2024-01-01", res.Get("0.Date").String())
	assert.Equal(t, int64(9), res.Get("0.Customer_id").Int())
	assert.Equal(t, "A", res.Get("0.Product_id").String())
	assert.Equal(t, int64(2), res.Get("0.Quantity").Int())
	assert.Equal(t, 5.0, res.Get("0.Price").Float())

	assert.Equal(t, "B", res.Get("1.Product_id").String())
	assert.Equal(t, 3.0, res.Get("1.Price").Float())

	// Missing values are stored as nulls, not as zero values
	assert.Equal(t, int64(3), res.Get("2.Order_id").Int())
	assert.Equal(t, gjson.Null, res.Get("2.Date").Type)
	assert.Equal(t, gjson.Null, res.Get("2.Quantity").Type)
	assert.Equal(t, gjson.Null, res.Get("2.Price").Type)
}

func TestEncodeEmpty(t *testing.T) {

	encoder, err := NewEncoder(CompressionSnappy)
	require.NoError(t, err)

	data, err := encoder.Encode(nil)
	require.NoError(t, err)
	assertParquetFile(t, data)

	pr := openReader(t, data)
	defer pr.ReadStop()
	assert.Equal(t, int64(0), pr.GetNumRows())
	assertColumnNames(t, pr.Footer.Schema[1:])
}

func TestCompressionCodecs(t *testing.T) {

	rows := testRows(t, ordersDoc)

	for _, name := range []string{CompressionSnappy, CompressionGzip, CompressionZstd, CompressionNone, "GZIP"} {
		encoder, err := NewEncoder(name)
		require.NoError(t, err, name)
		data, err := encoder.Encode(rows)
		require.NoError(t, err, name)
		assertParquetFile(t, data)
	}

	_, err := NewEncoder("brotli-ish")
	assert.Error(t, err)
}

func TestInferColumnTypes(t *testing.T) {

	tests := []struct {
		name     string
		doc      string
		expected []ColumnType
	}{
		{
			"scalar kinds",
			`[{"order_id":1,"date":"2024-01-01","customer_id":true,"items":[{"product_id":"A","quantity":2,"price":5.5}]}]`,
			[]ColumnType{ColumnInt64, ColumnString, ColumnBool, ColumnString, ColumnInt64, ColumnDouble},
		},
		{
			"ints widen to double",
			`[{"items":[{"price":5},{"price":5.25},{"price":7}]}]`,
			[]ColumnType{ColumnString, ColumnString, ColumnString, ColumnString, ColumnString, ColumnDouble},
		},
		{
			"nulls do not affect type",
			`[{"order_id":null,"items":[{"quantity":null},{"quantity":3}]}]`,
			[]ColumnType{ColumnString, ColumnString, ColumnString, ColumnString, ColumnInt64, ColumnString},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			types, err := InferColumnTypes(testRows(t, tt.doc))
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, types)
		})
	}

	types, err := InferColumnTypes(nil)
	assert.NoError(t, err)
	assert.Len(t, types, len(entity.Columns))
}

func TestInconsistentColumnTypes(t *testing.T) {

	tests := []struct {
		name string
		doc  string
	}{
		{"string and number", `[{"order_id":1,"items":[{}]},{"order_id":"2","items":[{}]}]`},
		{"bool and number", `[{"items":[{"quantity":1},{"quantity":false}]}]`},
		{"nested value", `[{"items":[{"product_id":{"sku":"A"}}]}]`},
		{"array value", `[{"date":["2024"],"items":[{}]}]`},
		{"float out of range", `[{"items":[{"price":1.5},{"price":1e400}]}]`},
		{"negative float out of range", `[{"items":[{"price":-1e400}]}]`},
	}

	encoder, err := NewEncoder(CompressionSnappy)
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := encoder.Encode(testRows(t, tt.doc))
			assert.Error(t, err)
			assert.True(t, errors.Is(err, entity.ErrSerialize))
			assert.Nil(t, data)
		})
	}
}

func TestOutOfRangeFloatNamesColumnAndRow(t *testing.T) {
	_, err := InferColumnTypes(testRows(t, `[{"items":[{"price":2},{"price":1e400}]}]`))
	assert.EqualError(t, err, "serialize error: column price in row #1 holds 1e400, which is out of range for a double")

	// Large integers beyond int64 still fit a double
	types, err := InferColumnTypes(testRows(t, `[{"order_id":99999999999999999999,"items":[{}]}]`))
	require.NoError(t, err)
	assert.Equal(t, ColumnDouble, types[0])
}

func TestRowJSON(t *testing.T) {
	rows := testRows(t, `[{"order_id":1,"date":"d\"q","items":[{"price":1e2}]}]`)
	record, err := rowJSON(rows[0])
	assert.NoError(t, err)
	assert.JSONEq(t, `{"order_id":1,"date":"d\"q","price":1e2}`, record)
}

func testRows(t *testing.T, doc string) []entity.Row {
	t.Helper()
	_, rows, err := transform.Transform([]byte(doc))
	require.NoError(t, err)
	return rows
}

func assertParquetFile(t *testing.T, data []byte) {
	t.Helper()
	require.True(t, len(data) > 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))
}

func openReader(t *testing.T, data []byte) *reader.ParquetReader {
	t.Helper()
	pf, err := buffer.NewBufferFile(data)
	require.NoError(t, err)
	pr, err := reader.NewParquetReader(pf, nil, 1)
	require.NoError(t, err)
	return pr
}

// The reader renames schema elements to Go style names, so compare case insensitively.
func assertColumnNames(t *testing.T, elements []*parquet.SchemaElement) {
	t.Helper()
	require.Len(t, elements, len(entity.Columns))
	for i, column := range entity.Columns {
		assert.True(t, strings.EqualFold(column, elements[i].GetName()), "expected column %s, got %s", column, elements[i].GetName())
		assert.Equal(t, parquet.FieldRepetitionType_OPTIONAL, elements[i].GetRepetitionType())
	}
}
