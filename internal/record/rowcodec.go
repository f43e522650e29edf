package record

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Record is one row keyed by field name. A nil value means null.
type Record map[string]any

// ---- RowValue(arr, type, i) -> scalar ----
// Narrow integers are widened to int32 so that they match what an Avro int carries.
func RowValue(arr arrow.Array, ct ColumnType, i int) any {
	if arr.IsNull(i) {
		return nil
	}

	switch ct {
	case ColBool:
		return arr.(*array.Boolean).Value(i)
	case ColInt8:
		return int32(arr.(*array.Int8).Value(i))
	case ColInt16:
		return int32(arr.(*array.Int16).Value(i))
	case ColInt32:
		return arr.(*array.Int32).Value(i)
	case ColInt64:
		return arr.(*array.Int64).Value(i)
	case ColFloat32:
		return arr.(*array.Float32).Value(i)
	case ColFloat64:
		return arr.(*array.Float64).Value(i)
	case ColGeneric:
		switch a := arr.(type) {
		case *array.String:
			return a.Value(i)
		case *array.LargeString:
			return a.Value(i)
		default:
			// collections have no Avro mapping yet, keep their text form
			return arr.ValueStr(i)
		}
	default:
		return nil
	}
}

// ---- Coerce(type, value) -> value ----
// Coerce returns v as the exact Go type the container codec expects for t.
// Only lossless conversions and Avro's own promotions are accepted.
func Coerce(t AvroType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	var (
		out any
		ok  bool
	)
	switch t {
	case AvroBoolean:
		out, ok = v.(bool)
	case AvroInt:
		out, ok = asInt32(v)
	case AvroLong:
		out, ok = asInt64(v)
	case AvroFloat:
		out, ok = asFloat32(v)
	case AvroDouble:
		out, ok = asFloat64(v)
	case AvroString:
		out, ok = asString(v)
	default:
		return nil, fmt.Errorf("%w: avro type %q", ErrUnsupportedType, string(t))
	}
	if !ok {
		return nil, fmt.Errorf("%w: %T is not %s", ErrSchemaMismatch, v, t)
	}
	return out, nil
}

// ---- Builder: records -> arrow.Record ----

// Builder accumulates records into an arrow record with a fixed column layout.
type Builder struct {
	cols []Column
	rb   *array.RecordBuilder
}

func NewBuilder(mem memory.Allocator, cols []Column) (*Builder, error) {
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		dt, err := c.Type.ArrowType()
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		fields[i] = arrow.Field{Name: c.Name, Type: dt, Nullable: c.Nullable}
	}

	return &Builder{
		cols: cols,
		rb:   array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil)),
	}, nil
}

// Append adds one row. Missing keys are appended as nulls.
func (b *Builder) Append(rec Record) error {
	for i, col := range b.cols {
		v, err := Coerce(col.Type, rec[col.Name])
		if err != nil {
			return fmt.Errorf("column %q: %w", col.Name, err)
		}

		fb := b.rb.Field(i)
		if v == nil {
			fb.AppendNull()
			continue
		}

		switch x := fb.(type) {
		case *array.BooleanBuilder:
			x.Append(v.(bool))
		case *array.Int32Builder:
			x.Append(v.(int32))
		case *array.Int64Builder:
			x.Append(v.(int64))
		case *array.Float32Builder:
			x.Append(v.(float32))
		case *array.Float64Builder:
			x.Append(v.(float64))
		case *array.StringBuilder:
			x.Append(v.(string))
		default:
			return fmt.Errorf("column %q: %w: builder %T", col.Name, ErrUnsupportedType, fb)
		}
	}
	return nil
}

func (b *Builder) Schema() *arrow.Schema { return b.rb.Schema() }

// NewRecord returns the accumulated rows and resets the builder.
func (b *Builder) NewRecord() arrow.Record { return b.rb.NewRecord() }

func (b *Builder) Release() { b.rb.Release() }

// ---- small helpers to accept multiple numeric types ----
func asInt32(v any) (int32, bool) {
	switch x := v.(type) {
	case int32:
		return x, true
	case int8:
		return int32(x), true
	case int16:
		return int32(x), true
	case int:
		if x >= math.MinInt32 && x <= math.MaxInt32 {
			return int32(x), true
		}
	case int64:
		if x >= math.MinInt32 && x <= math.MaxInt32 {
			return int32(x), true
		}
	}
	return 0, false
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int16:
		return int64(x), true
	case int8:
		return int64(x), true
	}
	return 0, false
}

func asFloat32(v any) (float32, bool) {
	switch x := v.(type) {
	case float32:
		return x, true
	case int32, int16, int8, int, int64:
		n, _ := asInt64(x)
		return float32(n), true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int32, int16, int8, int, int64:
		n, _ := asInt64(x)
		return float64(n), true
	}
	return 0, false
}

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	}
	return "", false
}
