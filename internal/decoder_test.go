package internal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go/parquet"
)

func TestBooleanDecoder(t *testing.T) {
	tests := []struct {
		data     byte
		expected bool
	}{
		{0x00, false},
		{0x01, true},
		{0x02, false}, // 最下位ビットのみを見る
		{0x03, true},
		{0xFF, true},
	}

	for _, tt := range tests {
		b, err := BooleanDecoder([]byte{tt.data})
		require.NoError(t, err)
		assert.Equal(t, tt.expected, b, "byte=0x%02x", tt.data)
	}
}

func TestInt32Decoder(t *testing.T) {
	for _, n := range []int32{0, 1, -1, 42, math.MinInt32, math.MaxInt32} {
		got, err := Int32Decoder(le32(n))
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestInt64Decoder_RoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 7299, math.MinInt64, math.MaxInt64, math.MinInt64 + 1, math.MaxInt64 - 1} {
		got, err := Int64Decoder(le64(n))
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestFloatDecoders(t *testing.T) {
	f, err := FloatDecoder(leFloat(9.9))
	require.NoError(t, err)
	assert.Equal(t, float32(9.9), f)

	d, err := DoubleDecoder(leDouble(-90.9))
	require.NoError(t, err)
	assert.Equal(t, -90.9, d)

	d, err = DoubleDecoder(leDouble(math.Inf(-1)))
	require.NoError(t, err)
	assert.True(t, math.IsInf(d, -1))
}

func TestFixedWidthMismatch(t *testing.T) {
	tests := []struct {
		name     string
		decode   func([]byte) error
		typ      parquet.Type
		expected int
		data     []byte
	}{
		{"int32 with 3 bytes", func(b []byte) error { _, err := Int32Decoder(b); return err }, parquet.Type_INT32, 4, []byte{1, 2, 3}},
		{"int32 with 5 bytes", func(b []byte) error { _, err := Int32Decoder(b); return err }, parquet.Type_INT32, 4, []byte{1, 2, 3, 4, 5}},
		{"int64 with 4 bytes", func(b []byte) error { _, err := Int64Decoder(b); return err }, parquet.Type_INT64, 8, []byte{1, 2, 3, 4}},
		{"boolean with 0 bytes", func(b []byte) error { _, err := BooleanDecoder(b); return err }, parquet.Type_BOOLEAN, 1, []byte{}},
		{"boolean with 4 bytes", func(b []byte) error { _, err := BooleanDecoder(b); return err }, parquet.Type_BOOLEAN, 1, le32(1)},
		{"float with 8 bytes", func(b []byte) error { _, err := FloatDecoder(b); return err }, parquet.Type_FLOAT, 4, leDouble(1)},
		{"double with 4 bytes", func(b []byte) error { _, err := DoubleDecoder(b); return err }, parquet.Type_DOUBLE, 8, leFloat(1)},
		{"int96 with 8 bytes", func(b []byte) error { _, err := Int96TimestampDecoder(b); return err }, parquet.Type_INT96, 12, le64(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decode(tt.data)

			var mismatch *SchemaMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, tt.typ, mismatch.Type)
			assert.Equal(t, tt.expected, mismatch.Expected)
			assert.Equal(t, len(tt.data), mismatch.Actual)
		})
	}
}

func TestByteArrayDecoder(t *testing.T) {
	// 長さのプレフィックスに見えるバイト列もそのまま返す
	raw := append(le32(3), []byte("abc")...)

	got := ByteArrayDecoder(raw)
	assert.Equal(t, raw, got)

	got[0] = 0xFF
	assert.Equal(t, byte(3), raw[0], "decoded bytes must not alias the input")

	assert.Empty(t, ByteArrayDecoder([]byte{}))
}
