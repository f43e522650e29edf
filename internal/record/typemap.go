package record

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// AvroType is one of the Avro primitive type names a column can be stored as.
type AvroType string

const (
	AvroNull    AvroType = "null"
	AvroBoolean AvroType = "boolean"
	AvroInt     AvroType = "int"
	AvroLong    AvroType = "long"
	AvroFloat   AvroType = "float"
	AvroDouble  AvroType = "double"
	AvroString  AvroType = "string"
)

// Infer maps a column type to the Avro type its values are written as.
// int8, int16 and int32 all fit in an Avro int.
func Infer(c ColumnType) (AvroType, error) {
	switch c {
	case ColBool:
		return AvroBoolean, nil
	case ColInt8, ColInt16, ColInt32:
		return AvroInt, nil
	case ColInt64:
		return AvroLong, nil
	case ColFloat32:
		return AvroFloat, nil
	case ColFloat64:
		return AvroDouble, nil
	case ColGeneric:
		return AvroString, nil
	default:
		return "", fmt.Errorf("%w: column type %s", ErrUnsupportedType, c)
	}
}

// ParseAvroType accepts the primitive names a decoded column may carry.
func ParseAvroType(name string) (AvroType, error) {
	switch t := AvroType(name); t {
	case AvroBoolean, AvroInt, AvroLong, AvroFloat, AvroDouble, AvroString:
		return t, nil
	default:
		return "", fmt.Errorf("%w: avro type %q", ErrUnsupportedType, name)
	}
}

// ArrowType is the column type a decoded Avro primitive is materialized as.
func (t AvroType) ArrowType() (arrow.DataType, error) {
	switch t {
	case AvroBoolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case AvroInt:
		return arrow.PrimitiveTypes.Int32, nil
	case AvroLong:
		return arrow.PrimitiveTypes.Int64, nil
	case AvroFloat:
		return arrow.PrimitiveTypes.Float32, nil
	case AvroDouble:
		return arrow.PrimitiveTypes.Float64, nil
	case AvroString:
		return arrow.BinaryTypes.String, nil
	default:
		return nil, fmt.Errorf("%w: avro type %q", ErrUnsupportedType, string(t))
	}
}
