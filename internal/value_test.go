package internal

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Compare(t *testing.T) {
	ts := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		a, b     Value
		expected int
	}{
		{"bool", BoolValue(false), BoolValue(true), -1},
		{"int32", Int32Value(-1), Int32Value(-2), 1},
		{"int64", Int64Value(math.MaxInt64), Int64Value(math.MaxInt64), 0},
		{"float32", Float32Value(1.5), Float32Value(2.5), -1},
		{"float64", Float64Value(-0.5), Float64Value(-1.5), 1},
		{"timestamp", TimestampValue(ts), TimestampValue(ts.Add(time.Microsecond)), -1},
		{"bytes", BytesValue([]byte("abc")), BytesValue([]byte("abd")), -1},
		{"bytes prefix", BytesValue([]byte("ab")), BytesValue([]byte("a")), 1},
		{"decimal", DecimalValue(decimal.RequireFromString("1.00")), DecimalValue(decimal.RequireFromString("1")), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Compare(tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestValue_CompareKindMismatch(t *testing.T) {
	_, err := Int32Value(1).Compare(Int64Value(1))
	require.Error(t, err)

	_, err = Value{}.Compare(Value{})
	require.Error(t, err)
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Float64Value(math.NaN()).Equal(Float64Value(math.NaN())))
	assert.False(t, Float64Value(0).Equal(Float64Value(math.Copysign(0, -1))))
	assert.False(t, Int32Value(1).Equal(Int64Value(1)))
	assert.False(t, DecimalValue(decimal.RequireFromString("1.0")).Equal(DecimalValue(decimal.RequireFromString("1.00"))))
	assert.True(t, BytesValue(nil).Equal(BytesValue([]byte{})))

	// タイムゾーンが違っても同じ時刻なら一致する
	jst := time.FixedZone("JST", 9*60*60)
	assert.True(t, TimestampValue(time.Date(2017, 1, 1, 9, 0, 0, 0, jst)).Equal(TimestampValue(time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC))))
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		v        Value
		expected string
	}{
		{BoolValue(true), "true"},
		{Int32Value(-7), "-7"},
		{Int64Value(7299), "7299"},
		{Float32Value(9.9), "9.9"},
		{Float64Value(90.9), "90.9"},
		{TimestampValue(time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC)), "2009-01-01 00:00:00.000000"},
		{TimestampValue(time.Date(2010, 12, 31, 23, 59, 59, 999999000, time.UTC)), "2010-12-31 23:59:59.999999"},
		{BytesValue([]byte("01/01/09")), "01/01/09"},
		{DecimalValue(decimal.New(-1, -2)), "-0.01"},
		{Value{}, "<invalid>"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.v.String())
	}
}

func TestValue_MarshalJSON(t *testing.T) {
	stats := ColumnStats{
		Name: "float_col",
		Path: "float_col",
		Min:  &[]Value{Float32Value(float32(math.Inf(-1)))}[0],
		Max:  &[]Value{Float32Value(1.5)}[0],
	}

	b, err := json.Marshal(stats)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"float_col","path":"float_col","min":"-Inf","max":1.5}`, string(b))

	b, err = json.Marshal([]Value{
		BoolValue(false),
		Int64Value(-3),
		Float64Value(math.NaN()),
		TimestampValue(time.Date(2009, 1, 1, 0, 1, 0, 0, time.UTC)),
		DecimalValue(decimal.New(1, -2)),
		{},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[false,-3,"NaN","2009-01-01 00:01:00.000000","0.01",null]`, string(b))
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		kind     Kind
		input    string
		expected Value
	}{
		{KindBool, "true", BoolValue(true)},
		{KindInt32, "-2147483648", Int32Value(math.MinInt32)},
		{KindInt64, "7299", Int64Value(7299)},
		{KindFloat32, "9.9", Float32Value(9.9)},
		{KindFloat64, "90.9", Float64Value(90.9)},
		{KindTimestamp, "2009-01-01 00:00:00", TimestampValue(time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC))},
		{KindTimestamp, "2010-12-31T23:59:59.999999", TimestampValue(time.Date(2010, 12, 31, 23, 59, 59, 999999000, time.UTC))},
		{KindTimestamp, "2020-02-29", TimestampValue(time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC))},
		{KindBytes, "01/01/09", BytesValue([]byte("01/01/09"))},
		{KindDecimal, "-0.01", DecimalValue(decimal.New(-1, -2))},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.input, func(t *testing.T) {
			got, err := ParseValue(tt.kind, tt.input)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestParseValue_Errors(t *testing.T) {
	tests := []struct {
		kind  Kind
		input string
	}{
		{KindBool, "yes"},
		{KindInt32, "2147483648"},
		{KindInt64, "1.5"},
		{KindFloat64, "abc"},
		{KindTimestamp, "01/01/09"},
		{KindDecimal, "1e"},
		{Kind(0), "1"},
	}

	for _, tt := range tests {
		_, err := ParseValue(tt.kind, tt.input)
		assert.Error(t, err, "kind=%s input=%s", tt.kind, tt.input)
	}
}
