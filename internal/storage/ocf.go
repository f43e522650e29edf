package storage

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"

	"github.com/tuannm99/avroframe/internal/record"
	"github.com/tuannm99/avroframe/internal/schema"
)

// SchemaKey is the container metadata entry that carries the writer schema.
const SchemaKey = "avro.schema"

type WriterOptions struct {
	Codec       Codec
	BlockLength int
}

// Writer encodes records into an Avro object container.
type Writer struct {
	enc    *ocf.Encoder
	cols   []record.Column
	count  int
	closed bool
}

// NewWriter writes the container header for s to w. The caller keeps ownership of w.
func NewWriter(w io.Writer, s schema.Schema, opts WriterOptions) (*Writer, error) {
	cols := make([]record.Column, len(s.Fields))
	for i, f := range s.Fields {
		typ, nullable, err := f.Value()
		if err != nil {
			return nil, err
		}
		cols[i] = record.Column{Name: f.Name, Type: typ, Nullable: nullable}
	}

	// validate before anything hits w
	if _, err := s.Avro(); err != nil {
		return nil, err
	}

	if opts.Codec == 0 {
		opts.Codec = CodecNull
	}
	if opts.BlockLength <= 0 {
		opts.BlockLength = DefaultBlockLength
	}

	enc, err := ocf.NewEncoder(s.String(), w,
		ocf.WithCodec(opts.Codec.ocfName()),
		ocf.WithBlockLength(opts.BlockLength),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: write header: %v", ErrStorageIO, err)
	}

	return &Writer{enc: enc, cols: cols}, nil
}

// Write appends one record. Values are coerced to their field's declared type;
// anything that does not fit fails with record.ErrSchemaMismatch.
func (w *Writer) Write(rec record.Record) error {
	if w.closed {
		return ErrClosed
	}

	out := make(map[string]any, len(w.cols))
	for _, c := range w.cols {
		v, err := record.Coerce(c.Type, rec[c.Name])
		if err != nil {
			return fmt.Errorf("record %d field %q: %w", w.count, c.Name, err)
		}
		if v == nil && !c.Nullable {
			return fmt.Errorf("record %d field %q: %w: null in non-nullable field", w.count, c.Name, record.ErrSchemaMismatch)
		}
		out[c.Name] = v
	}

	if err := w.enc.Encode(out); err != nil {
		return fmt.Errorf("record %d: %w: %v", w.count, record.ErrSchemaMismatch, err)
	}
	w.count++
	return nil
}

// Count is the number of records written so far.
func (w *Writer) Count() int { return w.count }

// Close flushes the pending block. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("%w: flush: %v", ErrStorageIO, err)
	}
	slog.Debug("storage: Writer closed", "records", w.count)
	return nil
}

// Reader pulls records one at a time from an Avro object container.
type Reader struct {
	dec    *ocf.Decoder
	schema *avro.RecordSchema
	count  int
}

// NewReader reads the container header from r. The caller keeps ownership of r.
func NewReader(r io.Reader) (*Reader, error) {
	dec, err := ocf.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrStorageIO, err)
	}

	text, ok := dec.Metadata()[SchemaKey]
	if !ok {
		return nil, fmt.Errorf("%w: header has no %s", ErrStorageIO, SchemaKey)
	}
	parsed, err := avro.ParseWithCache(string(text), "", &avro.SchemaCache{})
	if err != nil {
		return nil, fmt.Errorf("%w: embedded schema: %v", ErrStorageIO, err)
	}
	rs, ok := parsed.(*avro.RecordSchema)
	if !ok {
		return nil, fmt.Errorf("%w: embedded schema is %s, not a record", record.ErrUnsupportedType, parsed.Type())
	}

	return &Reader{dec: dec, schema: rs}, nil
}

// Schema is the writer schema embedded in the container header.
func (r *Reader) Schema() *avro.RecordSchema { return r.schema }

// Metadata returns the raw container header metadata.
func (r *Reader) Metadata() map[string][]byte { return r.dec.Metadata() }

// Next decodes the next record. ok is false once the container is exhausted.
func (r *Reader) Next() (rec record.Record, ok bool, err error) {
	if !r.dec.HasNext() {
		if err := r.dec.Error(); err != nil {
			return nil, false, fmt.Errorf("%w: after record %d: %v", ErrStorageIO, r.count, err)
		}
		return nil, false, nil
	}

	var m map[string]any
	if err := r.dec.Decode(&m); err != nil {
		return nil, false, fmt.Errorf("%w: record %d: %v", ErrStorageIO, r.count, err)
	}
	r.count++
	return record.Record(m), true, nil
}
