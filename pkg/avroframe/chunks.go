package avroframe

import (
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/tuannm99/avroframe/internal/record"
	"github.com/tuannm99/avroframe/internal/storage"
)

// ChunkReader decodes a container lazily, chunkSize records at a time.
//
// Every Next reads exactly enough records for one chunk. Once the container is
// exhausted one more chunk holds the remainder; it is empty when the record count is
// a multiple of chunkSize. Concatenating the chunks gives the same rows as FromFile.
//
// A ChunkReader opened on a path owns the file and releases it when the chunks run
// out, on error, or on Close. Always Close a reader that may not be drained.
type ChunkReader struct {
	dec    *decoder
	schema *arrow.Schema
	file   io.Closer
	size   int
	cur    arrow.Record
	chunks int
	done   bool
	closed bool
	err    error
	log    *slog.Logger
}

// ChunksFromFile opens path and returns a reader over its chunks.
func ChunksFromFile(path string, chunkSize int, opts ...Option) (*ChunkReader, error) {
	if err := checkChunkSize(chunkSize); err != nil {
		return nil, err
	}
	o := newOptions(opts)

	f, err := storage.OpenFile(path)
	if err != nil {
		return nil, err
	}

	d, err := newDecoder(f, o)
	if err != nil {
		storage.CloseFile(f, &err)
		return nil, err
	}

	o.logger.Debug("avroframe: ChunksFromFile", "path", path, "chunk_size", chunkSize)
	return &ChunkReader{dec: d, schema: d.b.Schema(), file: f, size: chunkSize, log: o.logger}, nil
}

// ChunksFromReader returns a reader over the chunks of r. r is never closed.
func ChunksFromReader(r io.Reader, chunkSize int, opts ...Option) (*ChunkReader, error) {
	if err := checkChunkSize(chunkSize); err != nil {
		return nil, err
	}
	o := newOptions(opts)

	d, err := newDecoder(r, o)
	if err != nil {
		return nil, err
	}
	return &ChunkReader{dec: d, schema: d.b.Schema(), size: chunkSize, log: o.logger}, nil
}

func checkChunkSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", record.ErrInvalidArgument, n)
	}
	return nil
}

// Schema is the column layout every chunk has.
func (c *ChunkReader) Schema() *arrow.Schema { return c.schema }

// Next advances to the next chunk. It returns false when there are no more chunks
// or an error occurred; check Err.
func (c *ChunkReader) Next() bool {
	if c.cur != nil {
		c.cur.Release()
		c.cur = nil
	}
	if c.done || c.closed || c.err != nil {
		return false
	}

	n, exhausted, err := c.dec.fill(c.size)
	if err != nil {
		c.err = fmt.Errorf("chunk %d: %w", c.chunks, err)
		c.closeResources()
		return false
	}

	c.cur = c.dec.b.NewRecord()
	c.chunks++
	c.log.Debug("avroframe: chunk", "index", c.chunks-1, "records", n, "last", exhausted)

	if exhausted {
		c.done = true
		c.closeResources()
	}
	return true
}

// Chunk returns the current chunk. It stays valid until the next call to Next or
// Close; Retain it to keep it longer.
func (c *ChunkReader) Chunk() arrow.Record { return c.cur }

func (c *ChunkReader) Err() error { return c.err }

// Close releases the current chunk and, when the reader owns it, the file.
// It is safe to call more than once.
func (c *ChunkReader) Close() error {
	if c.closed {
		return nil
	}
	if c.cur != nil {
		c.cur.Release()
		c.cur = nil
	}
	err := c.closeResources()
	c.closed = true
	return err
}

// All ranges over the remaining chunks. The reader is closed when the loop ends,
// including on break. Each chunk is only valid during its iteration.
func (c *ChunkReader) All() iter.Seq2[arrow.Record, error] {
	return func(yield func(arrow.Record, error) bool) {
		defer c.Close()

		for c.Next() {
			if !yield(c.cur, nil) {
				return
			}
		}
		if err := c.Err(); err != nil {
			yield(nil, err)
		}
	}
}

func (c *ChunkReader) closeResources() error {
	if c.dec != nil {
		c.dec.release()
		c.dec = nil
	}
	return c.closeFile()
}

func (c *ChunkReader) closeFile() error {
	if c.file == nil {
		return nil
	}
	f := c.file
	c.file = nil

	if err := f.Close(); err != nil {
		err = fmt.Errorf("%w: close: %v", storage.ErrStorageIO, err)
		if c.err == nil {
			c.err = err
		}
		return err
	}
	return nil
}
