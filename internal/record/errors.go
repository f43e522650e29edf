package record

import "errors"

var (
	ErrUnsupportedType = errors.New("avroframe: unsupported type")
	ErrSchemaMismatch  = errors.New("avroframe: schema/values mismatch")
	ErrInvalidArgument = errors.New("avroframe: invalid argument")
)
