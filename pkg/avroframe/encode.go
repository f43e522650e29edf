package avroframe

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/tuannm99/avroframe/internal/record"
	"github.com/tuannm99/avroframe/internal/schema"
	"github.com/tuannm99/avroframe/internal/storage"
)

// ToFile writes every row of rec to a new container file at path, truncating any
// existing file. Without WithSchema the schema is inferred from rec.
//
// The whole dataset is already in memory as one record; rows are streamed to the
// container encoder, which flushes a block every WithBlockLength records.
func ToFile(path string, rec arrow.Record, opts ...Option) (err error) {
	o := newOptions(opts)

	// resolve the schema first so an unsupported column never leaves a file behind
	s, err := writerSchema(rec, o)
	if err != nil {
		return err
	}

	f, err := storage.CreateFile(path)
	if err != nil {
		return err
	}
	defer storage.CloseFile(f, &err)

	o.logger.Debug("avroframe: ToFile", "path", path, "rows", rec.NumRows(), "cols", rec.NumCols())
	return encode(f, rec, s, o)
}

// ToWriter is ToFile for a caller-owned stream. w is not closed.
func ToWriter(w io.Writer, rec arrow.Record, opts ...Option) error {
	o := newOptions(opts)

	s, err := writerSchema(rec, o)
	if err != nil {
		return err
	}
	return encode(w, rec, s, o)
}

func writerSchema(rec arrow.Record, o *options) (schema.Schema, error) {
	if o.schema != nil {
		return *o.schema, nil
	}
	return schema.Infer(rec.Schema())
}

// source binds a schema field to the dataset column that feeds it.
type source struct {
	name string
	col  int // -1 when the dataset has no such column
	typ  record.ColumnType
}

func encode(w io.Writer, rec arrow.Record, s schema.Schema, o *options) error {
	sources := make([]source, len(s.Fields))
	for i, f := range s.Fields {
		sources[i] = source{name: f.Name, col: -1}

		idx := rec.Schema().FieldIndices(f.Name)
		if len(idx) == 0 {
			continue
		}
		ct, err := record.ColumnTypeOf(rec.Schema().Field(idx[0]).Type)
		if err != nil {
			return fmt.Errorf("column %q: %w", f.Name, err)
		}
		sources[i].col = idx[0]
		sources[i].typ = ct
	}

	cw, err := storage.NewWriter(w, s, storage.WriterOptions{
		Codec:       o.codec,
		BlockLength: o.blockLength,
	})
	if err != nil {
		return err
	}

	rows := int(rec.NumRows())
	for i := 0; i < rows; i++ {
		row := make(record.Record, len(sources))
		for _, src := range sources {
			if src.col < 0 {
				continue
			}
			row[src.name] = record.RowValue(rec.Column(src.col), src.typ, i)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	if err := cw.Close(); err != nil {
		return err
	}
	o.logger.Debug("avroframe: encoded", "records", cw.Count(), "codec", o.codec)
	return nil
}
