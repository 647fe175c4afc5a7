package internal

import "github.com/xitongsys/parquet-go/parquet"

// 列チャンク内のページヘッダーを表すための一連の構造体
// ページの内容そのものは読まない
type (
	Page struct {
		Type             parquet.PageType `json:"type"`
		UncompressedSize int32            `json:"uncompressed_size"`
		CompressedSize   int32            `json:"compressed_size"`
		Offset           int64            `json:"offset"`
		NumValues        int32            `json:"num_values"`
		Encoding         parquet.Encoding `json:"encoding"`
		Data             *DataPage        `json:"data,omitempty"`
	}

	DataPage struct {
		RepetitionLevelEncoding *parquet.Encoding `json:"repetition_level_encoding,omitempty"`
		DefinitionLevelEncoding *parquet.Encoding `json:"definition_level_encoding,omitempty"`
		NumNulls                *int32            `json:"num_nulls,omitempty"`
		NumRows                 *int32            `json:"num_rows,omitempty"`
		Stats                   *ColumnStats      `json:"stats,omitempty"`
	}
)

// 圧縮されている場合はページ内容のサイズとして CompressedSize を使う
func (p *Page) Size(compressed bool) int32 {
	if compressed {
		return p.CompressedSize
	}
	return p.UncompressedSize
}
