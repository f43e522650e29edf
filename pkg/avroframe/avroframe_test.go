package avroframe

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"
)

var testSchema = arrow.NewSchema([]arrow.Field{
	{Name: "flag", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
	{Name: "i8", Type: arrow.PrimitiveTypes.Int8, Nullable: true},
	{Name: "i16", Type: arrow.PrimitiveTypes.Int16, Nullable: true},
	{Name: "i32", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	{Name: "i64", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: "f32", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
	{Name: "f64", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "text", Type: arrow.BinaryTypes.String, Nullable: true},
}, nil)

// makeTestRecord builds a dataset with every supported column type; every third
// text value is null.
func makeTestRecord(t *testing.T, mem memory.Allocator, rows int) arrow.Record {
	t.Helper()

	b := array.NewRecordBuilder(mem, testSchema)
	defer b.Release()

	for i := 0; i < rows; i++ {
		b.Field(0).(*array.BooleanBuilder).Append(i%2 == 0)
		b.Field(1).(*array.Int8Builder).Append(int8(i - 5))
		b.Field(2).(*array.Int16Builder).Append(int16(i * 1000))
		b.Field(3).(*array.Int32Builder).Append(int32(i * 100000))
		b.Field(4).(*array.Int64Builder).Append(int64(i) << 40)
		b.Field(5).(*array.Float32Builder).Append(float32(i) / 4)
		b.Field(6).(*array.Float64Builder).Append(float64(i) / 3)
		if i%3 == 0 {
			b.Field(7).(*array.StringBuilder).AppendNull()
		} else {
			b.Field(7).(*array.StringBuilder).Append(fmt.Sprintf("row-%d", i))
		}
	}
	return b.NewRecord()
}

// writeTestFile encodes a dataset of the given size and returns its path.
func writeTestFile(t *testing.T, rows int, opts ...Option) string {
	t.Helper()

	rec := makeTestRecord(t, memory.DefaultAllocator, rows)
	defer rec.Release()

	path := filepath.Join(t.TempDir(), "data.avro")
	require.NoError(t, ToFile(path, rec, opts...))
	return path
}

// cells renders a record row by row, so values compare across int widths.
func cells(rec arrow.Record) [][]string {
	out := make([][]string, 0, rec.NumRows())
	for i := 0; i < int(rec.NumRows()); i++ {
		row := make([]string, rec.NumCols())
		for j := range row {
			row[j] = rec.Column(j).ValueStr(i)
		}
		out = append(out, row)
	}
	return out
}

func columnNames(rec arrow.Record) []string {
	names := make([]string, rec.NumCols())
	for i := range names {
		names[i] = rec.ColumnName(i)
	}
	return names
}

func TestRoundTrip(t *testing.T) {
	for _, codec := range []Codec{CodecNull, CodecDeflate, CodecSnappy, CodecZStandard} {
		t.Run(codec.String(), func(t *testing.T) {
			src := makeTestRecord(t, memory.DefaultAllocator, 10)
			defer src.Release()

			path := filepath.Join(t.TempDir(), "rt.avro")
			require.NoError(t, ToFile(path, src, WithCodec(codec), WithBlockLength(4)))

			got, err := FromFile(path)
			require.NoError(t, err)
			defer got.Release()

			require.EqualValues(t, 10, got.NumRows())
			require.EqualValues(t, 8, got.NumCols())
			require.Equal(t, columnNames(src), columnNames(got))
			require.Equal(t, cells(src), cells(got))

			// narrow integers come back as Avro ints
			require.Equal(t, arrow.PrimitiveTypes.Int32, got.Schema().Field(1).Type)
			require.Equal(t, arrow.PrimitiveTypes.Int32, got.Schema().Field(2).Type)
			require.Equal(t, int32(-5), got.Column(1).(*array.Int32).Value(0))
			require.True(t, got.Column(7).IsNull(0))
			require.Equal(t, "row-1", got.Column(7).(*array.String).Value(1))
		})
	}
}

func TestRoundTrip_Writer(t *testing.T) {
	src := makeTestRecord(t, memory.DefaultAllocator, 3)
	defer src.Release()

	var buf bytes.Buffer
	require.NoError(t, ToWriter(&buf, src))

	got, err := FromReader(&buf)
	require.NoError(t, err)
	defer got.Release()
	require.Equal(t, cells(src), cells(got))
}

func TestFromFile_NoLeaks(t *testing.T) {
	path := writeTestFile(t, 7)

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	got, err := FromFile(path, WithAllocator(mem))
	require.NoError(t, err)
	got.Release()

	cr, err := ChunksFromFile(path, 2, WithAllocator(mem))
	require.NoError(t, err)
	for cr.Next() {
	}
	require.NoError(t, cr.Err())
	require.NoError(t, cr.Close())
}

func chunkSizes(t *testing.T, cr *ChunkReader) []int64 {
	t.Helper()
	var sizes []int64
	for chunk, err := range cr.All() {
		require.NoError(t, err)
		require.Equal(t, cr.Schema(), chunk.Schema())
		sizes = append(sizes, chunk.NumRows())
	}
	return sizes
}

func TestChunks_Sizes(t *testing.T) {
	path := writeTestFile(t, 10)

	cases := []struct {
		size int
		want []int64
	}{
		{1, []int64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0}},
		{3, []int64{3, 3, 3, 1}},
		{4, []int64{4, 4, 2}},
		{5, []int64{5, 5, 0}},
		{10, []int64{10, 0}},
		{11, []int64{10}},
		{100, []int64{10}},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("size=%d", tc.size), func(t *testing.T) {
			cr, err := ChunksFromFile(path, tc.size)
			require.NoError(t, err)
			require.Equal(t, tc.want, chunkSizes(t, cr))
		})
	}
}

func TestChunks_MatchWholeFile(t *testing.T) {
	path := writeTestFile(t, 23)

	whole, err := FromFile(path)
	require.NoError(t, err)
	defer whole.Release()
	want := cells(whole)

	for size := 1; size <= 25; size++ {
		cr, err := ChunksFromFile(path, size)
		require.NoError(t, err)

		var got [][]string
		for cr.Next() {
			chunk := cr.Chunk()
			require.Equal(t, columnNames(whole), columnNames(chunk))
			require.LessOrEqual(t, chunk.NumRows(), int64(size))
			got = append(got, cells(chunk)...)
		}
		require.NoError(t, cr.Err())
		require.NoError(t, cr.Close())
		require.Equal(t, want, got, "chunk size %d", size)
	}
}

func TestChunks_InvalidSize(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.avro")

	for _, size := range []int{0, -1} {
		cr, err := ChunksFromFile(missing, size)
		require.ErrorIs(t, err, ErrInvalidArgument)
		require.NotErrorIs(t, err, ErrIO)
		require.Nil(t, cr)

		cr, err = ChunksFromReader(bytes.NewReader(nil), size)
		require.ErrorIs(t, err, ErrInvalidArgument)
		require.Nil(t, cr)
	}
}

func TestChunks_EarlyBreakReleasesFile(t *testing.T) {
	path := writeTestFile(t, 10)

	cr, err := ChunksFromFile(path, 3)
	require.NoError(t, err)
	require.NotNil(t, cr.file)

	for chunk, err := range cr.All() {
		require.NoError(t, err)
		require.EqualValues(t, 3, chunk.NumRows())
		break
	}

	require.Nil(t, cr.file)
	require.True(t, cr.closed)
	require.False(t, cr.Next())
	require.NoError(t, cr.Close())
}

func TestChunks_ExhaustionReleasesFile(t *testing.T) {
	path := writeTestFile(t, 4)

	cr, err := ChunksFromFile(path, 2)
	require.NoError(t, err)

	require.True(t, cr.Next())
	require.True(t, cr.Next())
	require.NotNil(t, cr.file)

	// trailing empty chunk
	require.True(t, cr.Next())
	require.EqualValues(t, 0, cr.Chunk().NumRows())
	require.Nil(t, cr.file)

	require.False(t, cr.Next())
	require.Nil(t, cr.Chunk())
	require.NoError(t, cr.Close())
}

// trackingReader records whether anyone closed it.
type trackingReader struct {
	r      *bytes.Reader
	closed bool
}

func (t *trackingReader) Read(p []byte) (int, error) { return t.r.Read(p) }
func (t *trackingReader) Close() error {
	t.closed = true
	return nil
}

func TestFromReader_LeavesStreamOpen(t *testing.T) {
	src := makeTestRecord(t, memory.DefaultAllocator, 5)
	defer src.Release()

	var buf bytes.Buffer
	require.NoError(t, ToWriter(&buf, src))
	data := buf.Bytes()

	tr := &trackingReader{r: bytes.NewReader(data)}
	got, err := FromReader(tr)
	require.NoError(t, err)
	got.Release()
	require.False(t, tr.closed)

	tr = &trackingReader{r: bytes.NewReader(data)}
	cr, err := ChunksFromReader(tr, 2)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 2, 1}, chunkSizes(t, cr))
	require.False(t, tr.closed)
}

func TestEmptyDataset(t *testing.T) {
	src := makeTestRecord(t, memory.DefaultAllocator, 0)
	defer src.Release()

	path := filepath.Join(t.TempDir(), "empty.avro")
	require.NoError(t, ToFile(path, src))

	got, err := FromFile(path)
	require.NoError(t, err)
	defer got.Release()

	require.EqualValues(t, 0, got.NumRows())
	require.Equal(t, columnNames(src), columnNames(got))

	cr, err := ChunksFromFile(path, 3)
	require.NoError(t, err)
	require.Equal(t, []int64{0}, chunkSizes(t, cr))
}

func TestToFile_UnsupportedType(t *testing.T) {
	s := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "small", Type: arrow.PrimitiveTypes.Uint8},
	}, nil)
	b := array.NewRecordBuilder(memory.DefaultAllocator, s)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).Append(1)
	b.Field(1).(*array.Uint8Builder).Append(1)
	rec := b.NewRecord()
	defer rec.Release()

	path := filepath.Join(t.TempDir(), "bad.avro")
	err := ToFile(path, rec)
	require.ErrorIs(t, err, ErrUnsupportedType)
	require.Contains(t, err.Error(), `"small"`)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}

func TestToFile_ExplicitSchema(t *testing.T) {
	src := makeTestRecord(t, memory.DefaultAllocator, 4)
	defer src.Release()

	t.Run("subset and widening", func(t *testing.T) {
		s, err := ParseSchema(`{"type":"record","name":"Slim","fields":[
			{"name":"text","type":["null","string"]},
			{"name":"i16","type":"long"},
			{"name":"f32","type":["null","double"]},
			{"name":"absent","type":["null","int"]}
		]}`)
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "slim.avro")
		require.NoError(t, ToFile(path, src, WithSchema(s)))

		got, err := FromFile(path)
		require.NoError(t, err)
		defer got.Release()

		require.Equal(t, []string{"text", "i16", "f32", "absent"}, columnNames(got))
		require.Equal(t, arrow.PrimitiveTypes.Int64, got.Schema().Field(1).Type)
		require.Equal(t, int64(3000), got.Column(1).(*array.Int64).Value(3))
		require.Equal(t, 0.75, got.Column(2).(*array.Float64).Value(3))
		require.Equal(t, got.NumRows(), int64(got.Column(3).NullN()))
	})

	t.Run("mismatch", func(t *testing.T) {
		s := Schema{Type: "record", Name: "Root", Fields: []Field{
			{Name: "f64", Type: Union{AvroNull, AvroInt}},
		}}
		err := ToFile(filepath.Join(t.TempDir(), "mismatch.avro"), src, WithSchema(s))
		require.ErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("null in required field", func(t *testing.T) {
		s := Schema{Type: "record", Name: "Root", Fields: []Field{
			{Name: "text", Type: Union{AvroString}},
		}}
		err := ToFile(filepath.Join(t.TempDir(), "required.avro"), src, WithSchema(s))
		require.ErrorIs(t, err, ErrSchemaMismatch)
	})
}

func TestFromFile_ReaderSchema(t *testing.T) {
	path := writeTestFile(t, 6)

	t.Run("projection and promotion", func(t *testing.T) {
		s, err := ParseSchema(`{"type":"record","name":"Root","fields":[
			{"name":"i32","type":["null","long"]},
			{"name":"text","type":["null","string"]}
		]}`)
		require.NoError(t, err)

		got, err := FromFile(path, WithSchema(s))
		require.NoError(t, err)
		defer got.Release()

		require.Equal(t, []string{"i32", "text"}, columnNames(got))
		require.Equal(t, int64(500000), got.Column(0).(*array.Int64).Value(5))

		cr, err := ChunksFromFile(path, 4, WithSchema(s))
		require.NoError(t, err)
		require.Equal(t, []int64{4, 2}, chunkSizes(t, cr))
	})

	t.Run("conflict", func(t *testing.T) {
		s := Schema{Type: "record", Name: "Root", Fields: []Field{
			{Name: "text", Type: Union{AvroNull, AvroBoolean}},
		}}
		_, err := FromFile(path, WithSchema(s))
		require.ErrorIs(t, err, ErrSchemaMismatch)

		_, err = ChunksFromFile(path, 2, WithSchema(s))
		require.ErrorIs(t, err, ErrSchemaMismatch)
	})
}

func TestFromFile_ReaderSchemaDefaults(t *testing.T) {
	path := writeTestFile(t, 3)

	s, err := ParseSchema(`{"type":"record","name":"Root","namespace":"com.example","fields":[
		{"name":"i32","type":["null","int"]},
		{"name":"x","type":"int","default":7},
		{"name":"y","type":["null","int"],"default":null}
	]}`)
	require.NoError(t, err)
	require.Contains(t, s.String(), `"namespace":"com.example"`)
	require.JSONEq(t, `7`, string(s.Fields[1].Default))

	check := func(t *testing.T, rec arrow.Record) {
		t.Helper()
		require.Equal(t, []string{"i32", "x", "y"}, columnNames(rec))
		require.Equal(t, arrow.PrimitiveTypes.Int32, rec.Schema().Field(1).Type)

		x := rec.Column(1).(*array.Int32)
		y := rec.Column(2)
		for i := 0; i < int(rec.NumRows()); i++ {
			require.Equal(t, int32(7), x.Value(i))
			require.True(t, y.IsNull(i))
		}
	}

	got, err := FromFile(path, WithSchema(s))
	require.NoError(t, err)
	defer got.Release()
	require.EqualValues(t, 3, got.NumRows())
	require.Equal(t, int32(200000), got.Column(0).(*array.Int32).Value(2))
	check(t, got)

	cr, err := ChunksFromFile(path, 2, WithSchema(s))
	require.NoError(t, err)
	defer cr.Close()

	var rows int64
	for chunk, err := range cr.All() {
		require.NoError(t, err)
		check(t, chunk)
		rows += chunk.NumRows()
	}
	require.EqualValues(t, 3, rows)
}

func TestFromFile_Errors(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "missing.avro"))
	require.ErrorIs(t, err, ErrIO)

	junk := filepath.Join(t.TempDir(), "junk.avro")
	require.NoError(t, os.WriteFile(junk, []byte("not a container"), 0o644))
	_, err = FromFile(junk)
	require.ErrorIs(t, err, ErrIO)

	_, err = ChunksFromFile(junk, 2)
	require.ErrorIs(t, err, ErrIO)
}

func TestInferSchema(t *testing.T) {
	s, err := InferSchema(testSchema)
	require.NoError(t, err)
	require.Equal(t, "Root", s.Name)
	require.Len(t, s.Fields, 8)
	for i, f := range s.Fields {
		require.Equal(t, testSchema.Field(i).Name, f.Name)
		require.Equal(t, AvroNull, f.Type[0])
	}
	require.Equal(t, Union{AvroNull, AvroInt}, s.Fields[2].Type)
	require.Equal(t, Union{AvroNull, AvroLong}, s.Fields[4].Type)
}
