package avroframe

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/hamba/avro/v2"

	"github.com/tuannm99/avroframe/internal/record"
	"github.com/tuannm99/avroframe/internal/schema"
	"github.com/tuannm99/avroframe/internal/storage"
)

// FromFile decodes a whole container file into one record. The file is closed before
// FromFile returns. The caller must Release the record.
func FromFile(path string, opts ...Option) (rec arrow.Record, err error) {
	o := newOptions(opts)

	f, err := storage.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		storage.CloseFile(f, &err)
		if err != nil && rec != nil {
			rec.Release()
			rec = nil
		}
	}()

	o.logger.Debug("avroframe: FromFile", "path", path)
	return decodeAll(f, o)
}

// FromReader decodes a whole container stream into one record. r is read to the end
// and left open. The caller must Release the record.
func FromReader(r io.Reader, opts ...Option) (arrow.Record, error) {
	return decodeAll(r, newOptions(opts))
}

func decodeAll(r io.Reader, o *options) (arrow.Record, error) {
	d, err := newDecoder(r, o)
	if err != nil {
		return nil, err
	}
	defer d.release()

	n, _, err := d.fill(-1)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("avroframe: decoded", "records", n, "cols", len(d.res.Columns()))
	return d.b.NewRecord(), nil
}

// decoder pulls container records, reshapes them onto the governing schema and
// accumulates them in an arrow builder.
type decoder struct {
	src *storage.Reader
	res *schema.Resolver
	b   *record.Builder
}

func newDecoder(r io.Reader, o *options) (*decoder, error) {
	src, err := storage.NewReader(r)
	if err != nil {
		return nil, err
	}

	var readerSchema *avro.RecordSchema
	if o.schema != nil {
		readerSchema, err = o.schema.Avro()
		if err != nil {
			return nil, err
		}
	}

	res, err := schema.NewResolver(src.Schema(), readerSchema)
	if err != nil {
		return nil, err
	}

	b, err := record.NewBuilder(o.mem, res.Columns())
	if err != nil {
		return nil, err
	}

	return &decoder{src: src, res: res, b: b}, nil
}

// fill appends up to limit records to the builder, all remaining ones when limit < 0.
// done reports that the container is exhausted.
func (d *decoder) fill(limit int) (n int, done bool, err error) {
	for limit < 0 || n < limit {
		rec, ok, err := d.src.Next()
		if err != nil {
			return n, false, err
		}
		if !ok {
			return n, true, nil
		}

		rec, err = d.res.Project(rec)
		if err != nil {
			return n, false, fmt.Errorf("record %d: %w", n, err)
		}
		if err := d.b.Append(rec); err != nil {
			return n, false, fmt.Errorf("record %d: %w", n, err)
		}
		n++
	}
	return n, false, nil
}

func (d *decoder) release() { d.b.Release() }
