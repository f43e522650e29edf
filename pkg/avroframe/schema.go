package avroframe

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/tuannm99/avroframe/internal/record"
	"github.com/tuannm99/avroframe/internal/schema"
)

type (
	Schema   = schema.Schema
	Field    = schema.Field
	Union    = schema.Union
	AvroType = record.AvroType
)

const (
	AvroNull    = record.AvroNull
	AvroBoolean = record.AvroBoolean
	AvroInt     = record.AvroInt
	AvroLong    = record.AvroLong
	AvroFloat   = record.AvroFloat
	AvroDouble  = record.AvroDouble
	AvroString  = record.AvroString
)

// InferSchema builds the record schema ToFile uses when none is given: a record named
// "Root" with one ["null", T] field per column, in column order.
func InferSchema(s *arrow.Schema) (Schema, error) { return schema.Infer(s) }

// ParseSchema reads a JSON record schema for use with WithSchema.
func ParseSchema(text string) (Schema, error) { return schema.Parse(text) }
