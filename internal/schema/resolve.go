package schema

import (
	"fmt"
	"math"

	"github.com/hamba/avro/v2"

	"github.com/tuannm99/avroframe/internal/record"
)

// Columns derives the decoded column layout from a container record schema.
// Whole-file and chunked decoding both go through here.
func Columns(rs *avro.RecordSchema) ([]record.Column, error) {
	cols := make([]record.Column, 0, len(rs.Fields()))
	for _, f := range rs.Fields() {
		typ, nullable, err := fieldValue(f.Type())
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name(), err)
		}
		cols = append(cols, record.Column{Name: f.Name(), Type: typ, Nullable: nullable})
	}
	return cols, nil
}

func fieldValue(s avro.Schema) (record.AvroType, bool, error) {
	u, ok := s.(*avro.UnionSchema)
	if !ok {
		t, err := record.ParseAvroType(string(s.Type()))
		return t, false, err
	}

	var (
		typ      record.AvroType
		nullable bool
	)
	for _, member := range u.Types() {
		if member.Type() == avro.Null {
			nullable = true
			continue
		}
		if typ != "" {
			return "", false, fmt.Errorf("%w: multi-type union", record.ErrUnsupportedType)
		}
		t, err := record.ParseAvroType(string(member.Type()))
		if err != nil {
			return "", false, err
		}
		typ = t
	}
	if typ == "" {
		return "", false, fmt.Errorf("%w: null-only union", record.ErrUnsupportedType)
	}
	return typ, nullable, nil
}

// Resolver reshapes records read with the writer schema onto the governing schema:
// the reader schema when one was supplied, the writer schema otherwise.
type Resolver struct {
	cols     []record.Column
	defaults map[string]any
	project  bool
}

func NewResolver(writer, reader *avro.RecordSchema) (*Resolver, error) {
	governing := writer
	if reader != nil {
		if err := avro.NewSchemaCompatibility().Compatible(reader, writer); err != nil {
			return nil, fmt.Errorf("%w: reader schema: %v", record.ErrSchemaMismatch, err)
		}
		governing = reader
	}

	cols, err := Columns(governing)
	if err != nil {
		return nil, err
	}

	r := &Resolver{cols: cols, project: reader != nil}
	if r.project {
		r.defaults = make(map[string]any)
		written := make(map[string]struct{}, len(writer.Fields()))
		for _, f := range writer.Fields() {
			written[f.Name()] = struct{}{}
		}
		for i, f := range reader.Fields() {
			if _, ok := written[f.Name()]; !ok && f.HasDefault() {
				r.defaults[f.Name()] = normalizeDefault(cols[i].Type, f.Default())
			}
		}
	}
	return r, nil
}

// Columns returns the governing column layout.
func (r *Resolver) Columns() []record.Column { return r.cols }

// Project keeps only governing fields, fills reader defaults and rejects nulls in
// non-nullable columns. Type promotion is left to record.Coerce.
func (r *Resolver) Project(rec record.Record) (record.Record, error) {
	if !r.project {
		return rec, nil
	}

	out := make(record.Record, len(r.cols))
	for _, c := range r.cols {
		v, ok := rec[c.Name]
		if !ok {
			v = r.defaults[c.Name]
		}
		if v == nil && !c.Nullable {
			return nil, fmt.Errorf("%w: field %q is null", record.ErrSchemaMismatch, c.Name)
		}
		out[c.Name] = v
	}
	return out, nil
}

// normalizeDefault turns a default that is still a JSON number into the Go type
// record.Coerce accepts for the column.
func normalizeDefault(t record.AvroType, v any) any {
	f, ok := v.(float64)
	if !ok {
		return v
	}
	switch t {
	case record.AvroInt, record.AvroLong:
		if f == math.Trunc(f) {
			return int64(f)
		}
	case record.AvroFloat:
		return float32(f)
	}
	return v
}
