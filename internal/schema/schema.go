package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/hamba/avro/v2"

	"github.com/tuannm99/avroframe/internal/record"
)

// RecordName is the name given to every inferred record schema.
const RecordName = "Root"

// Union is a field type: a list of Avro primitive alternatives.
type Union []record.AvroType

// UnmarshalJSON accepts both a bare type name and a union array.
func (u *Union) UnmarshalJSON(data []byte) error {
	var single record.AvroType
	if err := json.Unmarshal(data, &single); err == nil {
		*u = Union{single}
		return nil
	}

	var many []record.AvroType
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("%w: field type %s", record.ErrUnsupportedType, data)
	}
	*u = many
	return nil
}

// MarshalJSON writes a single alternative as a bare type name, so a parsed
// `"type":"int"` is not turned into a one-member union.
func (u Union) MarshalJSON() ([]byte, error) {
	if len(u) == 1 {
		return json.Marshal(u[0])
	}
	return json.Marshal([]record.AvroType(u))
}

// Field is one record field. Default holds the raw JSON default; nil means the
// field has none, while `null` is an explicit null default.
type Field struct {
	Name    string          `json:"name"`
	Doc     string          `json:"doc,omitempty"`
	Aliases []string        `json:"aliases,omitempty"`
	Type    Union           `json:"type"`
	Default json.RawMessage `json:"default,omitempty"`
}

// Schema is a flat Avro record schema.
type Schema struct {
	Type      string   `json:"type"`
	Name      string   `json:"name"`
	Namespace string   `json:"namespace,omitempty"`
	Doc       string   `json:"doc,omitempty"`
	Aliases   []string `json:"aliases,omitempty"`
	Fields    []Field  `json:"fields"`
}

// Infer derives a record schema from a dataset schema, one nullable field per column
// in column order.
func Infer(s *arrow.Schema) (Schema, error) {
	fields := make([]Field, 0, s.NumFields())
	for _, f := range s.Fields() {
		ct, err := record.ColumnTypeOf(f.Type)
		if err != nil {
			return Schema{}, fmt.Errorf("column %q: %w", f.Name, err)
		}
		at, err := record.Infer(ct)
		if err != nil {
			return Schema{}, fmt.Errorf("column %q: %w", f.Name, err)
		}
		fields = append(fields, Field{Name: f.Name, Type: Union{record.AvroNull, at}})
	}

	return Schema{
		Type:   "record",
		Name:   RecordName,
		Fields: fields,
	}, nil
}

// Parse reads a JSON record schema.
func Parse(text string) (Schema, error) {
	var s Schema
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		if errors.Is(err, record.ErrUnsupportedType) {
			return Schema{}, fmt.Errorf("parse schema: %w", err)
		}
		return Schema{}, fmt.Errorf("%w: parse schema: %v", record.ErrInvalidArgument, err)
	}
	return s, nil
}

func (s Schema) String() string {
	b, err := json.Marshal(s)
	if err != nil {
		// only plain strings inside, cannot fail
		panic(err)
	}
	return string(b)
}

// Avro parses the schema with the container library, each call with its own cache.
func (s Schema) Avro() (*avro.RecordSchema, error) {
	parsed, err := avro.ParseWithCache(s.String(), "", &avro.SchemaCache{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", record.ErrInvalidArgument, err)
	}

	rs, ok := parsed.(*avro.RecordSchema)
	if !ok {
		return nil, fmt.Errorf("%w: schema is %s, not a record", record.ErrInvalidArgument, parsed.Type())
	}
	return rs, nil
}

// Value returns the single non-null type of a field and whether null is allowed.
func (f Field) Value() (record.AvroType, bool, error) {
	var (
		typ      record.AvroType
		nullable bool
	)
	for _, t := range f.Type {
		if t == record.AvroNull {
			nullable = true
			continue
		}
		if typ != "" {
			return "", false, fmt.Errorf("%w: field %q has union %v", record.ErrUnsupportedType, f.Name, f.Type)
		}
		typ = t
	}
	if typ == "" {
		return "", false, fmt.Errorf("%w: field %q has no value type", record.ErrUnsupportedType, f.Name)
	}
	return typ, nullable, nil
}
