package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind は統計値をデコードした結果の種類
type Kind int8

const (
	KindBool Kind = iota + 1
	KindInt32
	KindInt64
	KindTimestamp
	KindFloat32
	KindFloat64
	KindBytes
	KindDecimal
)

const timestampLayout = "2006-01-02 15:04:05.000000"

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindTimestamp:
		return "timestamp"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindBytes:
		return "bytes"
	case KindDecimal:
		return "decimal"
	default:
		return "invalid"
	}
}

// Value はデコードされた統計値
// ゼロ値は無効な値を表す
type Value struct {
	kind Kind
	i64  int64 // bool, int32, int64
	f64  float64
	f32  float32
	ts   time.Time
	buf  []byte
	dec  decimal.Decimal
}

func BoolValue(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.i64 = 1
	}
	return v
}

func Int32Value(n int32) Value     { return Value{kind: KindInt32, i64: int64(n)} }
func Int64Value(n int64) Value     { return Value{kind: KindInt64, i64: n} }
func Float32Value(f float32) Value { return Value{kind: KindFloat32, f32: f} }
func Float64Value(f float64) Value { return Value{kind: KindFloat64, f64: f} }

func TimestampValue(t time.Time) Value {
	return Value{kind: KindTimestamp, ts: t.UTC()}
}

// BytesValue は b をコピーして保持する
func BytesValue(b []byte) Value {
	return Value{kind: KindBytes, buf: append([]byte{}, b...)}
}

func DecimalValue(d decimal.Decimal) Value {
	return Value{kind: KindDecimal, dec: d}
}

func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsValid() bool    { return v.kind != 0 }
func (v Value) Bool() bool       { return v.i64 != 0 }
func (v Value) Int32() int32     { return int32(v.i64) }
func (v Value) Int64() int64     { return v.i64 }
func (v Value) Float32() float32 { return v.f32 }
func (v Value) Float64() float64 { return v.f64 }
func (v Value) Time() time.Time  { return v.ts }

func (v Value) Decimal() decimal.Decimal { return v.dec }

// Bytes は内部のバッファのコピーを返す
func (v Value) Bytes() []byte {
	if v.buf == nil {
		return nil
	}
	return append([]byte{}, v.buf...)
}

// Equal は種類と値がビット単位で一致するかを返す(NaN同士も一致する)
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindBool, KindInt32, KindInt64:
		return v.i64 == o.i64
	case KindFloat32:
		return math.Float32bits(v.f32) == math.Float32bits(o.f32)
	case KindFloat64:
		return math.Float64bits(v.f64) == math.Float64bits(o.f64)
	case KindTimestamp:
		return v.ts.Equal(o.ts)
	case KindBytes:
		return bytes.Equal(v.buf, o.buf)
	case KindDecimal:
		// 1.0 と 1.00 は区別する
		return v.dec.Exponent() == o.dec.Exponent() && v.dec.Equal(o.dec)
	default:
		return true
	}
}

// Compare は同じ種類の値同士を比較する
func (v Value) Compare(o Value) (int, error) {
	if v.kind != o.kind {
		return 0, fmt.Errorf("cannot compare %s with %s", v.kind, o.kind)
	}

	switch v.kind {
	case KindBool, KindInt32, KindInt64:
		return compareOrdered(v.i64, o.i64), nil
	case KindFloat32:
		return compareOrdered(v.f32, o.f32), nil
	case KindFloat64:
		return compareOrdered(v.f64, o.f64), nil
	case KindTimestamp:
		return v.ts.Compare(o.ts), nil
	case KindBytes:
		return bytes.Compare(v.buf, o.buf), nil
	case KindDecimal:
		return v.dec.Cmp(o.dec), nil
	default:
		return 0, fmt.Errorf("cannot compare invalid values")
	}
}

func compareOrdered[T int64 | float32 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.Bool())
	case KindInt32, KindInt64:
		return strconv.FormatInt(v.i64, 10)
	case KindFloat32:
		return strconv.FormatFloat(float64(v.f32), 'g', -1, 32)
	case KindFloat64:
		return strconv.FormatFloat(v.f64, 'g', -1, 64)
	case KindTimestamp:
		return v.ts.Format(timestampLayout)
	case KindBytes:
		return string(v.buf)
	case KindDecimal:
		return v.dec.String()
	default:
		return "<invalid>"
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.Bool())
	case KindInt32, KindInt64:
		return json.Marshal(v.i64)
	case KindFloat32, KindFloat64:
		f := v.f64
		if v.kind == KindFloat32 {
			f = float64(v.f32)
		}
		// JSON では NaN や Inf を表現できないので文字列にする
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return json.Marshal(v.String())
		}
		return []byte(v.String()), nil
	case KindTimestamp, KindBytes, KindDecimal:
		return json.Marshal(v.String())
	default:
		return []byte("null"), nil
	}
}

// ParseValue は文字列表現を kind の値として解釈する
func ParseValue(kind Kind, s string) (Value, error) {
	switch kind {
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil

	case KindInt32:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return Value{}, err
		}
		return Int32Value(int32(n)), nil

	case KindInt64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, err
		}
		return Int64Value(n), nil

	case KindFloat32:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Value{}, err
		}
		return Float32Value(float32(f)), nil

	case KindFloat64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, err
		}
		return Float64Value(f), nil

	case KindTimestamp:
		t, err := parseTimestamp(s)
		if err != nil {
			return Value{}, err
		}
		return TimestampValue(t), nil

	case KindBytes:
		return BytesValue([]byte(s)), nil

	case KindDecimal:
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Value{}, err
		}
		return DecimalValue(d), nil

	default:
		return Value{}, fmt.Errorf("cannot parse value of kind %s", kind)
	}
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.Replace(s, "T", " ", 1)
	for _, layout := range []string{"2006-01-02 15:04:05.999999999", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp '%s'", s)
}
