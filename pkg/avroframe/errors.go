package avroframe

import (
	"github.com/tuannm99/avroframe/internal/record"
	"github.com/tuannm99/avroframe/internal/storage"
)

// Every error returned by this package matches exactly one of these with errors.Is.
var (
	// ErrUnsupportedType: a column or field type has no Avro/arrow mapping.
	ErrUnsupportedType = record.ErrUnsupportedType
	// ErrInvalidArgument: bad chunk size or an unparseable schema.
	ErrInvalidArgument = record.ErrInvalidArgument
	// ErrSchemaMismatch: a value does not fit its declared field type, or the reader
	// schema cannot read the embedded writer schema.
	ErrSchemaMismatch = record.ErrSchemaMismatch
	// ErrIO: opening, reading, writing or closing the container failed.
	ErrIO = storage.ErrStorageIO
)
