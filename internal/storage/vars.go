package storage

import (
	"errors"
	"fmt"

	"github.com/hamba/avro/v2/ocf"
)

const (
	FileMode0644 = 0o644
	FileMode0755 = 0o755

	// DefaultBlockLength is the number of records per container block.
	DefaultBlockLength = 100
)

type Codec int

const (
	CodecNull Codec = iota + 1
	CodecDeflate
	CodecSnappy
	CodecZStandard
)

func (c Codec) String() string {
	switch c {
	case CodecNull:
		return "null"
	case CodecDeflate:
		return "deflate"
	case CodecSnappy:
		return "snappy"
	case CodecZStandard:
		return "zstandard"
	default:
		return "unknown"
	}
}

func GetCodec(s string) (Codec, error) {
	switch s {
	case "", "null":
		return CodecNull, nil
	case "deflate":
		return CodecDeflate, nil
	case "snappy":
		return CodecSnappy, nil
	case "zstandard", "zstd":
		return CodecZStandard, nil
	default:
		return 0, fmt.Errorf("invalid codec: %s", s)
	}
}

func (c Codec) ocfName() ocf.CodecName {
	switch c {
	case CodecDeflate:
		return ocf.Deflate
	case CodecSnappy:
		return ocf.Snappy
	case CodecZStandard:
		return ocf.ZStandard
	default:
		return ocf.Null
	}
}

var (
	ErrStorageIO = errors.New("storage: I/O error")
	ErrClosed    = errors.New("storage: already closed")
)
