package avroframe

import (
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/tuannm99/avroframe/internal/storage"
)

type Codec = storage.Codec

const (
	CodecNull      = storage.CodecNull
	CodecDeflate   = storage.CodecDeflate
	CodecSnappy    = storage.CodecSnappy
	CodecZStandard = storage.CodecZStandard
)

// ParseCodec resolves a codec by its container name ("null", "deflate", ...).
func ParseCodec(name string) (Codec, error) { return storage.GetCodec(name) }

type options struct {
	schema      *Schema
	mem         memory.Allocator
	codec       Codec
	blockLength int
	logger      *slog.Logger
}

type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{
		mem:         memory.DefaultAllocator,
		codec:       storage.CodecNull,
		blockLength: storage.DefaultBlockLength,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// WithSchema sets the writer schema when encoding and the reader schema when decoding.
// Without it, encoding infers a schema from the dataset and decoding uses the schema
// embedded in the container.
func WithSchema(s Schema) Option {
	return func(o *options) { o.schema = &s }
}

// WithAllocator sets the allocator decoded records are built with.
func WithAllocator(mem memory.Allocator) Option {
	return func(o *options) { o.mem = mem }
}

func WithCodec(c Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithBlockLength sets how many records go into one container block.
func WithBlockLength(n int) Option {
	return func(o *options) { o.blockLength = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}
