package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"

	"github.com/tuannm99/avroframe/internal"
	"github.com/tuannm99/avroframe/internal/storage"
	"github.com/tuannm99/avroframe/pkg/avroframe"
)

var errUsage = errors.New("invalid usage")

func run(cfg *internal.AvroFrameConfig, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	switch args[0] {
	case "encode":
		return runEncode(cfg, args[1:])
	case "decode":
		return runDecode(cfg, args[1:], out)
	case "schema":
		return runSchema(args[1:], out)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func runEncode(cfg *internal.AvroFrameConfig, args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	in := fs.String("in", "", "input CSV file")
	out := fs.String("out", "", "output Avro file")
	codecName := fs.String("codec", cfg.Codec.Name, "container codec: null, deflate, snappy, zstandard")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("%w: encode needs -in and -out", errUsage)
	}

	codec, err := avroframe.ParseCodec(*codecName)
	if err != nil {
		return err
	}

	rec, err := readCSV(*in)
	if err != nil {
		return err
	}
	defer rec.Release()

	return avroframe.ToFile(*out, rec,
		avroframe.WithCodec(codec),
		avroframe.WithBlockLength(cfg.Codec.BlockLength),
	)
}

func runDecode(cfg *internal.AvroFrameConfig, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	in := fs.String("in", "", "input Avro file")
	chunkSize := fs.Int("chunk-size", cfg.Decode.ChunkSize, "records per chunk, 0 reads the whole file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("%w: decode needs -in", errUsage)
	}

	if *chunkSize == 0 {
		rec, err := avroframe.FromFile(*in)
		if err != nil {
			return err
		}
		defer rec.Release()

		w := csv.NewWriter(out, rec.Schema(), csv.WithHeader(true))
		if err := w.Write(rec); err != nil {
			return err
		}
		return w.Flush()
	}

	cr, err := avroframe.ChunksFromFile(*in, *chunkSize)
	if err != nil {
		return err
	}
	defer cr.Close()

	w := csv.NewWriter(out, cr.Schema(), csv.WithHeader(true))
	for chunk, err := range cr.All() {
		if err != nil {
			return err
		}
		if err := w.Write(chunk); err != nil {
			return err
		}
	}
	return w.Flush()
}

func runSchema(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	in := fs.String("in", "", "input .avro or .csv file")
	meta := fs.Bool("meta", false, "also print the container metadata of an .avro file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("%w: schema needs -in", errUsage)
	}

	var (
		text     string
		metadata map[string][]byte
	)
	if strings.EqualFold(filepath.Ext(*in), ".csv") {
		if *meta {
			return fmt.Errorf("%w: -meta needs an .avro file", errUsage)
		}
		rec, err := readCSV(*in)
		if err != nil {
			return err
		}
		defer rec.Release()

		s, err := avroframe.InferSchema(rec.Schema())
		if err != nil {
			return err
		}
		text = s.String()
	} else {
		embedded, md, err := embeddedSchema(*in)
		if err != nil {
			return err
		}
		text, metadata = embedded, md
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(text), "", "  "); err != nil {
		return err
	}
	pretty.WriteByte('\n')
	if *meta {
		for _, k := range slices.Sorted(maps.Keys(metadata)) {
			if k == storage.SchemaKey {
				continue
			}
			fmt.Fprintf(&pretty, "%s: %s\n", k, metadata[k])
		}
	}
	_, err := pretty.WriteTo(out)
	return err
}

func embeddedSchema(path string) (text string, metadata map[string][]byte, err error) {
	f, err := storage.OpenFile(path)
	if err != nil {
		return "", nil, err
	}
	defer storage.CloseFile(f, &err)

	r, err := storage.NewReader(f)
	if err != nil {
		return "", nil, err
	}
	return r.Schema().String(), r.Metadata(), nil
}

// readCSV loads a whole CSV file with a header row, inferring column types.
func readCSV(path string) (arrow.Record, error) {
	f, err := storage.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewInferringReader(f, csv.WithHeader(true), csv.WithChunk(-1))
	defer r.Release()

	if !r.Next() {
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return nil, fmt.Errorf("read %s: no rows", path)
	}

	rec := r.Record()
	rec.Retain()
	return rec, nil
}
