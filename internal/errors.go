package internal

import (
	"fmt"

	"github.com/xitongsys/parquet-go/parquet"
)

type (
	// FormatError はファイル自体が Parquet として壊れている場合のエラー
	FormatError struct {
		Reason string
		Err    error
	}

	// SchemaMismatchError は統計値のバイト長がスキーマの型と一致しない場合のエラー
	SchemaMismatchError struct {
		Type     parquet.Type
		Expected int
		Actual   int
		Reason   string
	}

	// UnsupportedTypeError はデコード方法が定義されていない物理型
	UnsupportedTypeError struct {
		Type parquet.Type
	}
)

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid parquet file: %s: %s", e.Reason, e.Err)
	}
	return "invalid parquet file: " + e.Reason
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func (e *SchemaMismatchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("schema mismatch for %s: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("schema mismatch for %s: expected %d bytes, got %d", e.Type, e.Expected, e.Actual)
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported physical type: %s", e.Type)
}

func formatErrorf(format string, args ...any) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}
