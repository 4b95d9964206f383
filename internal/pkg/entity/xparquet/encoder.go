package xparquet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/sjson"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"github.com/zpiroux/orderlake/entity"
)

const (
	rootTag     = "name=parquet_go_root, repetitiontype=REQUIRED"
	parallelism = 1
	extension   = "parquet"
)

// Supported compression codec names, as used in config
const (
	CompressionSnappy = "snappy"
	CompressionGzip   = "gzip"
	CompressionZstd   = "zstd"
	CompressionNone   = "none"
)

var codecs = map[string]parquet.CompressionCodec{
	CompressionSnappy: parquet.CompressionCodec_SNAPPY,
	CompressionGzip:   parquet.CompressionCodec_GZIP,
	CompressionZstd:   parquet.CompressionCodec_ZSTD,
	CompressionNone:   parquet.CompressionCodec_UNCOMPRESSED,
}

// ColumnType is the physical (and converted) Parquet type chosen for an output column.
type ColumnType string

const (
	ColumnInt64  ColumnType = "type=INT64"
	ColumnDouble ColumnType = "type=DOUBLE"
	ColumnString ColumnType = "type=BYTE_ARRAY, convertedtype=UTF8"
	ColumnBool   ColumnType = "type=BOOLEAN"
)

// Encoder writes flat rows as a single Parquet file in memory.
// All columns are OPTIONAL, so null fields are stored as nulls.
type Encoder struct {
	codec parquet.CompressionCodec
}

// NewEncoder creates an Encoder using the named compression codec. An empty name gives snappy.
func NewEncoder(compression string) (*Encoder, error) {
	if compression == "" {
		compression = CompressionSnappy
	}
	codec, ok := codecs[strings.ToLower(compression)]
	if !ok {
		return nil, fmt.Errorf("unsupported parquet compression: %s", compression)
	}
	return &Encoder{codec: codec}, nil
}

func (e *Encoder) Extension() string {
	return extension
}

// Encode serializes the rows. Column types are inferred from the row values; a column
// mixing kinds that cannot share a Parquet type (e.g. strings and numbers) gives ErrSerialize.
func (e *Encoder) Encode(rows []entity.Row) ([]byte, error) {

	types, err := InferColumnTypes(rows)
	if err != nil {
		return nil, err
	}

	schema, err := jsonSchema(entity.Columns, types)
	if err != nil {
		return nil, fmt.Errorf("%w: could not create parquet schema: %v", entity.ErrSerialize, err)
	}

	var buf bytes.Buffer
	pw, err := writer.NewJSONWriterFromWriter(schema, &buf, parallelism)
	if err != nil {
		return nil, fmt.Errorf("%w: could not create parquet writer: %v", entity.ErrSerialize, err)
	}
	pw.CompressionType = e.codec

	for i, row := range rows {
		record, err := rowJSON(row)
		if err != nil {
			return nil, fmt.Errorf("%w: could not create record for row #%d: %v", entity.ErrSerialize, i, err)
		}
		if err = pw.Write(record); err != nil {
			return nil, fmt.Errorf("%w: could not write row #%d: %v", entity.ErrSerialize, i, err)
		}
	}

	if err = pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("%w: could not finalize parquet file: %v", entity.ErrSerialize, err)
	}
	return buf.Bytes(), nil
}

// InferColumnTypes returns the Parquet type for each column in entity.Columns.
// Integers widen to double when mixed with floats, and all-null columns are strings.
// Nested values, and numbers beyond the double range, give ErrSerialize.
func InferColumnTypes(rows []entity.Row) ([]ColumnType, error) {

	kinds := make([]entity.Kind, len(entity.Columns))

	for r, row := range rows {
		for c, field := range row.Fields() {
			kind := field.Kind()
			switch {
			case kind == entity.KindNull:
				continue
			case kind == entity.KindNested:
				return nil, fmt.Errorf("%w: column %s in row #%d holds a nested value %s, which is not supported",
					entity.ErrSerialize, entity.Columns[c], r, field.Raw())
			case kind == entity.KindFloat && !isFiniteDouble(field.Raw()):
				return nil, fmt.Errorf("%w: column %s in row #%d holds %s, which is out of range for a double",
					entity.ErrSerialize, entity.Columns[c], r, field.Raw())
			}
			merged, ok := mergeKinds(kinds[c], kind)
			if !ok {
				return nil, fmt.Errorf("%w: column %s has inconsistent types, %s in row #%d conflicts with previous %s values",
					entity.ErrSerialize, entity.Columns[c], kind, r, kinds[c])
			}
			kinds[c] = merged
		}
	}

	types := make([]ColumnType, len(kinds))
	for i, kind := range kinds {
		switch kind {
		case entity.KindInt:
			types[i] = ColumnInt64
		case entity.KindFloat:
			types[i] = ColumnDouble
		case entity.KindBool:
			types[i] = ColumnBool
		default:
			types[i] = ColumnString
		}
	}
	return types, nil
}

func mergeKinds(current, next entity.Kind) (entity.Kind, bool) {
	switch {
	case current == entity.KindNull || current == next:
		return next, true
	case isNumeric(current) && isNumeric(next):
		return entity.KindFloat, true
	}
	return current, false
}

func isFiniteDouble(raw string) bool {
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil
}

func isNumeric(k entity.Kind) bool {
	return k == entity.KindInt || k == entity.KindFloat
}

type schemaItem struct {
	Tag    string       `json:"Tag"`
	Fields []schemaItem `json:"Fields,omitempty"`
}

func jsonSchema(columns []string, types []ColumnType) (string, error) {
	root := schemaItem{Tag: rootTag}
	for i, name := range columns {
		root.Fields = append(root.Fields, schemaItem{
			Tag: fmt.Sprintf("name=%s, %s, repetitiontype=OPTIONAL", name, types[i]),
		})
	}
	b, err := json.Marshal(root)
	return string(b), err
}

// rowJSON creates the JSON record for a row, with raw values copied as is and null fields left out.
func rowJSON(row entity.Row) (string, error) {
	var (
		record = []byte("{}")
		err    error
	)
	for i, field := range row.Fields() {
		if field.IsNull() {
			continue
		}
		if record, err = sjson.SetRawBytes(record, entity.Columns[i], []byte(field.Raw())); err != nil {
			return "", err
		}
	}
	return string(record), nil
}
