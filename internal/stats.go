package internal

import (
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go/parquet"
)

type (
	// ColumnType は統計値のデコードに必要な列の型情報
	// TypeLength と Scale は FIXED_LEN_BYTE_ARRAY(decimal) の場合のみ必須
	ColumnType struct {
		Type       parquet.Type
		TypeLength *int32
		Scale      *int32
	}

	ColumnStats struct {
		Name          string `json:"name"`
		Path          string `json:"path"`
		Min           *Value `json:"min,omitempty"`
		Max           *Value `json:"max,omitempty"`
		NullCount     *int64 `json:"null_count,omitempty"`
		DistinctCount *int64 `json:"distinct_count,omitempty"`
	}
)

// DecodeStat は統計値1つを物理型に従ってデコードする
func DecodeStat(typ ColumnType, raw []byte) (Value, error) {
	switch typ.Type {
	case parquet.Type_BOOLEAN:
		b, err := BooleanDecoder(raw)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil

	case parquet.Type_INT32:
		n, err := Int32Decoder(raw)
		if err != nil {
			return Value{}, err
		}
		return Int32Value(n), nil

	case parquet.Type_INT64:
		n, err := Int64Decoder(raw)
		if err != nil {
			return Value{}, err
		}
		return Int64Value(n), nil

	case parquet.Type_INT96:
		t, err := Int96TimestampDecoder(raw)
		if err != nil {
			return Value{}, err
		}
		return TimestampValue(t), nil

	case parquet.Type_FLOAT:
		f, err := FloatDecoder(raw)
		if err != nil {
			return Value{}, err
		}
		return Float32Value(f), nil

	case parquet.Type_DOUBLE:
		f, err := DoubleDecoder(raw)
		if err != nil {
			return Value{}, err
		}
		return Float64Value(f), nil

	case parquet.Type_BYTE_ARRAY:
		return BytesValue(ByteArrayDecoder(raw)), nil

	case parquet.Type_FIXED_LEN_BYTE_ARRAY:
		if typ.TypeLength == nil || typ.Scale == nil {
			return Value{}, &SchemaMismatchError{Type: typ.Type, Reason: "type_length and scale are required"}
		}
		d, err := DecimalDecoder(raw, *typ.TypeLength, *typ.Scale)
		if err != nil {
			return Value{}, err
		}
		return DecimalValue(d), nil

	default:
		return Value{}, &UnsupportedTypeError{Type: typ.Type}
	}
}

// RowGroupStats は行グループ毎・列チャンク毎の統計値をデコードする
// 統計値を持たない列チャンクは nil、NULL の数だけを持つ列チャンクは Min と Max が nil になる
func RowGroupStats(footer *parquet.FileMetaData) ([][]*ColumnStats, error) {
	tree, err := NewSchemaTree(footer.Schema)
	if err != nil {
		return nil, err
	}

	stats := make([][]*ColumnStats, len(footer.RowGroups))
	for i, rg := range footer.RowGroups {
		stats[i] = make([]*ColumnStats, len(rg.Columns))

		for j, col := range rg.Columns {
			_, _, s, err := columnChunkStats(tree, col)
			if err != nil {
				return nil, fmt.Errorf("failed to decode statistics (row=%d, col=%d): %w", i, j, err)
			}
			stats[i][j] = s
		}
	}

	return stats, nil
}

// 列チャンクに対応するスキーマを探し、統計値をデコードする
func columnChunkStats(tree *Schema, col *parquet.ColumnChunk) (string, *Schema, *ColumnStats, error) {
	if col.MetaData == nil {
		return "", nil, nil, formatErrorf("column chunk has no metadata")
	}

	path := strings.Join(col.MetaData.PathInSchema, ".")
	schema := tree.FindSchema(path)
	if schema == nil || !schema.IsLeaf() {
		return "", nil, nil, &SchemaMismatchError{
			Type:   col.MetaData.Type,
			Reason: fmt.Sprintf("column '%s' does not exist in schema", path),
		}
	}

	stats, err := decodeColumnStats(schema, col.MetaData.Statistics)
	if err != nil {
		return "", nil, nil, fmt.Errorf("'%s': %w", path, err)
	}
	if stats != nil {
		stats.Path = path
	}

	return path, schema, stats, nil
}

func decodeColumnStats(schema *Schema, st *parquet.Statistics) (*ColumnStats, error) {
	if st == nil {
		return nil, nil
	}

	// 新しい min_value/max_value があれば優先し、なければ非推奨の min/max を使う
	rawMin, rawMax := st.MinValue, st.MaxValue
	if rawMin == nil && rawMax == nil {
		rawMin, rawMax = st.Min, st.Max
	}

	// 全て NULL の行グループは最小値・最大値を持たないが、NULL の数は残す
	if rawMin == nil && rawMax == nil {
		if st.NullCount == nil && st.DistinctCount == nil {
			return nil, nil
		}
		return &ColumnStats{Name: schema.Name, NullCount: st.NullCount, DistinctCount: st.DistinctCount}, nil
	}
	if rawMin == nil || rawMax == nil {
		return nil, formatErrorf("only one of min and max is set")
	}

	typ := schema.ColumnType()

	minValue, err := DecodeStat(typ, rawMin)
	if err != nil {
		return nil, fmt.Errorf("failed to decode min: %w", err)
	}

	maxValue, err := DecodeStat(typ, rawMax)
	if err != nil {
		return nil, fmt.Errorf("failed to decode max: %w", err)
	}

	return &ColumnStats{
		Name:          schema.Name,
		Min:           &minValue,
		Max:           &maxValue,
		NullCount:     st.NullCount,
		DistinctCount: st.DistinctCount,
	}, nil
}

// SortingColumns は行グループ毎のソート列を返す
func SortingColumns(footer *parquet.FileMetaData) [][]*parquet.SortingColumn {
	sorting := make([][]*parquet.SortingColumn, len(footer.RowGroups))
	for i, rg := range footer.RowGroups {
		sorting[i] = rg.SortingColumns
	}
	return sorting
}
