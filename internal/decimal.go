package internal

import (
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/xitongsys/parquet-go/parquet"
)

// FIXED_LEN_BYTE_ARRAY の統計値をビッグエンディアン・2の補数の整数として読み、
// scale 桁の10進小数として返す
// 桁数が大きくなり得るので浮動小数点は使わない
func DecimalDecoder(data []byte, typeLength, scale int32) (decimal.Decimal, error) {
	if len(data) == 0 {
		return decimal.Decimal{}, &SchemaMismatchError{
			Type:   parquet.Type_FIXED_LEN_BYTE_ARRAY,
			Reason: "empty value",
		}
	}
	if len(data) != int(typeLength) {
		return decimal.Decimal{}, &SchemaMismatchError{
			Type:     parquet.Type_FIXED_LEN_BYTE_ARRAY,
			Expected: int(typeLength),
			Actual:   len(data),
		}
	}

	unscaled := new(big.Int)
	b := new(big.Int)
	for _, c := range data {
		unscaled.Lsh(unscaled, 8)
		unscaled.Add(unscaled, b.SetUint64(uint64(c)))
	}

	// 符号ビットが立っていれば 2^(8*len) を引いて負の値にする
	if data[0] > 127 {
		unscaled.Sub(unscaled, new(big.Int).Lsh(big.NewInt(1), uint(8*len(data))))
	}

	return decimal.NewFromBigInt(unscaled, -scale), nil
}
