package internal

import (
	"strings"

	"github.com/xitongsys/parquet-go/parquet"
)

// Parquetファイルのフッターを表すための一連の構造体
type (
	MetaData struct {
		Version   int32       `json:"version"`
		CreatedBy *string     `json:"created_by,omitempty"`
		Trailer   *Trailer    `json:"trailer"`
		Schema    *Schema     `json:"schema_tree"`
		TotalRows int64       `json:"total_rows"`
		RowGroups []*RowGroup `json:"row_groups"`
	}

	Schema struct {
		Name           string                       `json:"name"`
		Type           *parquet.Type                `json:"type,omitempty"`
		TypeLength     *int32                       `json:"type_length,omitempty"`
		Scale          *int32                       `json:"scale,omitempty"`
		Precision      *int32                       `json:"precision,omitempty"`
		ConvertedType  *parquet.ConvertedType       `json:"converted_type,omitempty"`
		RepetitionType *parquet.FieldRepetitionType `json:"repetition_type,omitempty"`
		Children       map[string]*Schema           `json:"children,omitempty"`
		Depth          int                          `json:"depth"`
	}

	RowGroup struct {
		NumRows        int64                    `json:"num_rows"`
		TotalByteSize  int64                    `json:"total_byte_size"`
		SortingColumns []*parquet.SortingColumn `json:"sorting_columns,omitempty"`
		Columns        []*ColumnChunk           `json:"columns"`
	}

	ColumnChunk struct {
		Path                  string                   `json:"path"`
		Type                  parquet.Type             `json:"type"`
		Codec                 parquet.CompressionCodec `json:"codec"`
		NumValues             int64                    `json:"num_values"`
		TotalUncompressedSize int64                    `json:"total_uncompressed_size"`
		TotalCompressedSize   int64                    `json:"total_compressed_size"`
		DataPageOffset        int64                    `json:"data_page_offset"`
		DictPageOffset        *int64                   `json:"dict_page_offset,omitempty"`
		Stats                 *ColumnStats             `json:"stats,omitempty"`
		Pages                 []*Page                  `json:"pages,omitempty"`
	}
)

// スキーマ要素のリストを木構造に変換する
func NewSchemaTree(elements []*parquet.SchemaElement) (*Schema, error) {
	if len(elements) == 0 {
		return nil, formatErrorf("schema is empty")
	}

	root, rest, err := buildSchema(elements, 0)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, formatErrorf("%d schema elements are not reachable from root", len(rest))
	}

	return root, nil
}

func buildSchema(elements []*parquet.SchemaElement, depth int) (*Schema, []*parquet.SchemaElement, error) {
	if len(elements) == 0 {
		return nil, nil, formatErrorf("schema ends before all children are read")
	}

	elem := elements[0]
	s := &Schema{
		Name:           elem.Name,
		Type:           elem.Type,
		TypeLength:     elem.TypeLength,
		Scale:          elem.Scale,
		Precision:      elem.Precision,
		ConvertedType:  elem.ConvertedType,
		RepetitionType: elem.RepetitionType,
		Depth:          depth,
	}

	// NumChildren を持つフィールドは、後続の NumChildren 個のフィールドをネストしたフィールドとして扱う
	if !elem.IsSetNumChildren() {
		return s, elements[1:], nil
	}

	numChildren := elem.GetNumChildren()
	if numChildren < 0 {
		return nil, nil, formatErrorf("schema element '%s' has negative num_children %d", elem.Name, numChildren)
	}
	s.Children = make(map[string]*Schema, numChildren)
	elements = elements[1:]

	var child *Schema
	var err error
	for i := int32(0); i < numChildren; i++ {
		child, elements, err = buildSchema(elements, depth+1)
		if err != nil {
			return nil, nil, err
		}
		s.Children[child.Name] = child
	}

	return s, elements, nil
}

// 列の名前を指定してスキーマ情報を取得
func (s *Schema) FindSchema(path string) *Schema {
	schema := s
	var ok bool

	for _, p := range strings.Split(path, ".") {
		if schema.Children == nil {
			return nil
		}
		if schema, ok = schema.Children[p]; !ok {
			return nil
		}
	}

	return schema
}

func (s *Schema) IsLeaf() bool {
	return s.Type != nil
}

func (s *Schema) ColumnType() ColumnType {
	typ := ColumnType{TypeLength: s.TypeLength, Scale: s.Scale}
	if s.Type != nil {
		typ.Type = *s.Type
	}
	return typ
}

func (m *MetaData) FindSchema(path string) *Schema {
	return m.Schema.FindSchema(path)
}

// 列の名前を指定して列チャンクを取得
func (m *MetaData) FindColumnChunk(path string) []*ColumnChunk {
	columns := make([]*ColumnChunk, 0)

	for _, row := range m.RowGroups {
		for _, col := range row.Columns {
			if col.Path == path {
				columns = append(columns, col)
			}
		}
	}

	return columns
}

func (col *ColumnChunk) HasDict() bool {
	return col.DictPageOffset != nil
}

func (col *ColumnChunk) PageHeadOffset() int64 {
	if col.HasDict() {
		return *col.DictPageOffset
	}
	return col.DataPageOffset
}

func (col *ColumnChunk) PageTailOffset() int64 {
	if col.Codec == parquet.CompressionCodec_UNCOMPRESSED {
		return col.PageHeadOffset() + col.TotalUncompressedSize
	}
	return col.PageHeadOffset() + col.TotalCompressedSize
}
