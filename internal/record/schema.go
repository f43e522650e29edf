package record

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// ColumnType is the element type of one dataset column, as seen by the Avro mapping.
type ColumnType uint8

const (
	ColBool ColumnType = iota + 1
	ColInt8
	ColInt16
	ColInt32
	ColInt64
	ColFloat32
	ColFloat64
	ColGeneric // text, and collections rendered as text
)

func (c ColumnType) String() string {
	switch c {
	case ColBool:
		return "bool"
	case ColInt8:
		return "int8"
	case ColInt16:
		return "int16"
	case ColInt32:
		return "int32"
	case ColInt64:
		return "int64"
	case ColFloat32:
		return "float32"
	case ColFloat64:
		return "float64"
	case ColGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// ColumnTypeOf reflects an arrow column type into a ColumnType.
func ColumnTypeOf(dt arrow.DataType) (ColumnType, error) {
	switch dt.ID() {
	case arrow.BOOL:
		return ColBool, nil
	case arrow.INT8:
		return ColInt8, nil
	case arrow.INT16:
		return ColInt16, nil
	case arrow.INT32:
		return ColInt32, nil
	case arrow.INT64:
		return ColInt64, nil
	case arrow.FLOAT32:
		return ColFloat32, nil
	case arrow.FLOAT64:
		return ColFloat64, nil
	case arrow.STRING, arrow.LARGE_STRING,
		arrow.LIST, arrow.LARGE_LIST, arrow.FIXED_SIZE_LIST, arrow.STRUCT, arrow.MAP:
		return ColGeneric, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedType, dt)
	}
}

// Column describes one decoded column: its name and the Avro type its values carry.
type Column struct {
	Name     string
	Type     AvroType
	Nullable bool
}
