package internal

import (
	"encoding/binary"
	"math"

	"github.com/xitongsys/parquet-go/parquet"
)

// 統計値は長さのプレフィックスもパディングもなく、PLAIN エンコーディングそのままで格納されている
// 固定長の型はバイト長が一致しなければエラーとし、切り詰めやゼロ埋めはしない

const (
	booleanWidth = 1
	int32Width   = 4
	int64Width   = 8
	int96Width   = 12
	floatWidth   = 4
	doubleWidth  = 8
)

func checkWidth(typ parquet.Type, data []byte, width int) error {
	if len(data) != width {
		return &SchemaMismatchError{Type: typ, Expected: width, Actual: len(data)}
	}
	return nil
}

// BOOLEAN は最下位ビットのみを見る
func BooleanDecoder(data []byte) (bool, error) {
	if err := checkWidth(parquet.Type_BOOLEAN, data, booleanWidth); err != nil {
		return false, err
	}
	return data[0]&0x01 == 1, nil
}

func Int32Decoder(data []byte) (int32, error) {
	if err := checkWidth(parquet.Type_INT32, data, int32Width); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(data)), nil
}

func Int64Decoder(data []byte) (int64, error) {
	if err := checkWidth(parquet.Type_INT64, data, int64Width); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(data)), nil
}

func FloatDecoder(data []byte) (float32, error) {
	if err := checkWidth(parquet.Type_FLOAT, data, floatWidth); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(data)), nil
}

func DoubleDecoder(data []byte) (float64, error) {
	if err := checkWidth(parquet.Type_DOUBLE, data, doubleWidth); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(data)), nil
}

// BYTE_ARRAY の統計値は通常の列の値と違い、先頭に長さを持たない
func ByteArrayDecoder(data []byte) []byte {
	return append([]byte{}, data...)
}
