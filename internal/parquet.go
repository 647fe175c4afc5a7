package internal

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/DataDog/zstd"
	"github.com/apache/thrift/lib/go/thrift"
	"github.com/xitongsys/parquet-go/parquet"
)

const (
	magic = "PAR1"

	// フッター長(4バイト) + 末尾のマジックナンバー
	footerTailSize = 4 + len(magic)
)

// zstd のフレームの先頭4バイト
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

type (
	// Trailer はシリアライズされたフッター(FileMetaData)の位置
	Trailer struct {
		Offset uint64 `json:"metadata_offset"`
		Length uint32 `json:"metadata_length"`
	}

	InspectOptions struct {
		Pages bool
	}

	// Parquetファイルをデコードしていくための構造体
	Parquet struct {
		r      io.ReadSeeker
		size   int64
		closer io.Closer
		proto  thrift.TProtocol // ページヘッダーの読み取り用
	}
)

func (t *Trailer) End() uint64 {
	return t.Offset + uint64(t.Length)
}

func NewParquet(r io.ReadSeeker, size int64) *Parquet {
	return &Parquet{
		r:    r,
		size: size,
		// バッファリングすると先読みした分だけオフセットがずれるので r を直接読ませる
		proto: thrift.NewTCompactProtocolConf(
			&thrift.StreamTransport{Reader: r},
			&thrift.TConfiguration{},
		),
	}
}

// ファイルを開く
// zstd で圧縮されたファイルはメモリ上に展開してから扱う
func OpenFile(path string) (*Parquet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat parquet file: %w", err)
	}

	head := make([]byte, len(zstdMagic))
	if n, _ := io.ReadFull(f, head); n == len(zstdMagic) && bytes.Equal(head, zstdMagic) {
		defer f.Close()

		data, err := decompress(f)
		if err != nil {
			return nil, err
		}
		return NewParquet(bytes.NewReader(data), int64(len(data))), nil
	}

	par := NewParquet(f, stat.Size())
	par.closer = f
	return par, nil
}

func decompress(f *os.File) ([]byte, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to head of archive: %w", err)
	}

	zr := zstd.NewReader(f)
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, &FormatError{Reason: "failed to decompress zstd archive", Err: err}
	}

	return data, nil
}

func (par *Parquet) Close() error {
	if par.closer == nil {
		return nil
	}
	return par.closer.Close()
}

func (par *Parquet) Size() int64 {
	return par.size
}

// パスを指定してフッターの位置を求める
func LocateFooter(path string) (*Trailer, error) {
	par, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer par.Close()

	return par.Trailer()
}

// パスを指定してフッターをデコードする
func ReadFileMetaData(ctx context.Context, path string) (*parquet.FileMetaData, error) {
	par, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer par.Close()

	return par.FileMetaData(ctx)
}

// 先頭と末尾のマジックナンバーを検証し、フッターの位置を求める
func (par *Parquet) Trailer() (*Trailer, error) {
	if par.size < int64(len(magic)+footerTailSize) {
		return nil, formatErrorf("file is too small (%d bytes)", par.size)
	}

	head, err := par.Read(0, int64(len(magic)))
	if err != nil {
		return nil, err
	}
	if string(head) != magic {
		return nil, formatErrorf("magic number at head is %q", head)
	}

	// ファイル末尾から8バイト戻った位置にフッター長、その後ろにマジックナンバーがある
	tail, err := par.Read(par.size-int64(footerTailSize), int64(footerTailSize))
	if err != nil {
		return nil, err
	}
	if string(tail[4:]) != magic {
		return nil, formatErrorf("magic number at tail is %q", tail[4:])
	}

	length := binary.LittleEndian.Uint32(tail[:4])
	end := uint64(par.size) - uint64(footerTailSize)
	if uint64(length) > end {
		return nil, formatErrorf("footer length %d exceeds file size %d", length, par.size)
	}

	return &Trailer{Offset: end - uint64(length), Length: length}, nil
}

// フッターを読み取り FileMetaData にデコードする
func (par *Parquet) FileMetaData(ctx context.Context) (*parquet.FileMetaData, error) {
	trailer, err := par.Trailer()
	if err != nil {
		return nil, err
	}

	return par.readFileMetaData(ctx, trailer)
}

func (par *Parquet) readFileMetaData(ctx context.Context, trailer *Trailer) (*parquet.FileMetaData, error) {
	buf, err := par.Read(int64(trailer.Offset), int64(trailer.Length))
	if err != nil {
		return nil, err
	}

	transport := thrift.NewTMemoryBufferLen(len(buf))
	if _, err := transport.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to buffer footer: %w", err)
	}

	footer := parquet.NewFileMetaData()
	if err := footer.Read(ctx, thrift.NewTCompactProtocolConf(transport, &thrift.TConfiguration{})); err != nil {
		return nil, &FormatError{Reason: "failed to decode footer", Err: err}
	}

	return footer, nil
}

// Parquetファイルを解析し、スキーマ等の構造を返す
func (par *Parquet) Inspect(ctx context.Context, opts InspectOptions) (*MetaData, error) {
	trailer, err := par.Trailer()
	if err != nil {
		return nil, err
	}

	footer, err := par.readFileMetaData(ctx, trailer)
	if err != nil {
		return nil, err
	}

	return par.inspectFooter(ctx, trailer, footer, opts)
}

func (par *Parquet) inspectFooter(
	ctx context.Context,
	trailer *Trailer,
	footer *parquet.FileMetaData,
	opts InspectOptions,
) (*MetaData, error) {
	tree, err := NewSchemaTree(footer.Schema)
	if err != nil {
		return nil, err
	}

	metaData := &MetaData{
		Version:   footer.Version,
		CreatedBy: footer.CreatedBy,
		Trailer:   trailer,
		Schema:    tree,
		TotalRows: footer.NumRows,
		RowGroups: make([]*RowGroup, len(footer.RowGroups)),
	}

	// 行グループ毎に変換
	for i, rg := range footer.RowGroups {
		metaData.RowGroups[i] = &RowGroup{
			NumRows:        rg.NumRows,
			TotalByteSize:  rg.TotalByteSize,
			SortingColumns: rg.SortingColumns,
			Columns:        make([]*ColumnChunk, len(rg.Columns)),
		}

		// 列チャンク毎に変換
		for j, col := range rg.Columns {
			path, schema, stats, err := columnChunkStats(tree, col)
			if err != nil {
				return nil, fmt.Errorf("failed to inspect column chunk (row=%d, col=%d): %w", i, j, err)
			}

			chunk := &ColumnChunk{
				Path:                  path,
				Type:                  col.MetaData.Type,
				Codec:                 col.MetaData.Codec,
				NumValues:             col.MetaData.NumValues,
				TotalUncompressedSize: col.MetaData.TotalUncompressedSize,
				TotalCompressedSize:   col.MetaData.TotalCompressedSize,
				DataPageOffset:        col.MetaData.DataPageOffset,
				DictPageOffset:        col.MetaData.DictionaryPageOffset,
				Stats:                 stats,
			}

			if opts.Pages {
				chunk.Pages, err = par.inspectPages(ctx, chunk, schema, int64(trailer.Offset))
				if err != nil {
					return nil, fmt.Errorf("failed to inspect page of row=%d, col=%d: %w", i, j, err)
				}
			}

			metaData.RowGroups[i].Columns[j] = chunk
		}
	}

	return metaData, nil
}

// ページ情報の変換
// limit はページ群が越えてはならないオフセット(フッターの先頭)
func (par *Parquet) inspectPages(ctx context.Context, col *ColumnChunk, schema *Schema, limit int64) ([]*Page, error) {
	// 辞書ページがあるならそのオフセット、辞書ページを持たないならデータページのオフセットが先頭になる
	offset := col.PageHeadOffset()
	endOfPages := col.PageTailOffset()

	if offset < int64(len(magic)) || endOfPages > limit || offset > endOfPages {
		return nil, formatErrorf("pages [%d, %d) are out of data range", offset, endOfPages)
	}

	if _, err := par.r.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to head of pages(%d): %w", offset, err)
	}

	isCompressed := col.Codec != parquet.CompressionCodec_UNCOMPRESSED
	pages := make([]*Page, 0)
	var page *Page
	var err error

	// 1ページずつ読み取り、ページ群の終端に移動した時点で終了
	for offset < endOfPages {
		page, offset, err = par.inspectNextPage(ctx, isCompressed, schema)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect page(%d): %w", offset, err)
		}

		pages = append(pages, page)
	}

	if offset != endOfPages {
		return nil, formatErrorf("last page ends at %d, beyond end of column chunk %d", offset, endOfPages)
	}

	return pages, nil
}

func (par *Parquet) inspectNextPage(ctx context.Context, isCompressed bool, schema *Schema) (*Page, int64, error) {
	header := parquet.NewPageHeader()
	if err := header.Read(ctx, par.proto); err != nil {
		return nil, 0, &FormatError{Reason: "failed to read page header", Err: err}
	}

	// ページヘッダー読み取り後のオフセットがページ内容の先頭
	offset, err := par.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get current offset: %w", err)
	}

	page := &Page{
		Type:             header.Type,
		UncompressedSize: header.UncompressedPageSize,
		CompressedSize:   header.CompressedPageSize,
		Offset:           offset,
	}
	if page.Size(isCompressed) < 0 {
		return nil, 0, formatErrorf("negative page size %d", page.Size(isCompressed))
	}

	switch page.Type {
	case parquet.PageType_DATA_PAGE:
		h := header.DataPageHeader
		if h == nil {
			return nil, 0, formatErrorf("data page has no data_page_header")
		}
		page.NumValues = h.NumValues
		page.Encoding = h.Encoding
		page.Data = &DataPage{
			RepetitionLevelEncoding: &h.RepetitionLevelEncoding,
			DefinitionLevelEncoding: &h.DefinitionLevelEncoding,
		}
		if page.Data.Stats, err = decodeColumnStats(schema, h.Statistics); err != nil {
			return nil, 0, fmt.Errorf("failed to decode page statistics: %w", err)
		}

	case parquet.PageType_DATA_PAGE_V2:
		h := header.DataPageHeaderV2
		if h == nil {
			return nil, 0, formatErrorf("data page has no data_page_header_v2")
		}
		page.NumValues = h.NumValues
		page.Encoding = h.Encoding
		page.Data = &DataPage{NumNulls: &h.NumNulls, NumRows: &h.NumRows}
		if page.Data.Stats, err = decodeColumnStats(schema, h.Statistics); err != nil {
			return nil, 0, fmt.Errorf("failed to decode page statistics: %w", err)
		}

	case parquet.PageType_DICTIONARY_PAGE:
		h := header.DictionaryPageHeader
		if h == nil {
			return nil, 0, formatErrorf("dictionary page has no dictionary_page_header")
		}
		page.NumValues = h.NumValues
		page.Encoding = h.Encoding

	default:
		// nop
	}

	// ページ内容はデコードしないのでシークして読み飛ばす
	offset += int64(page.Size(isCompressed))
	if _, err := par.r.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("failed to seek to next page(%d): %w", offset, err)
	}

	return page, offset, nil
}

func (par *Parquet) Read(offset, size int64) ([]byte, error) {
	if offset < 0 || size < 0 || offset+size > par.size {
		return nil, formatErrorf("range [%d, %d) is out of file(%d bytes)", offset, offset+size, par.size)
	}

	if _, err := par.r.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek parquet file(offset: %d, size: %d): %w", offset, size, err)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(par.r, buf); err != nil {
		return nil, fmt.Errorf("failed to read parquet file(offset: %d, size: %d): %w", offset, size, err)
	}

	return buf, nil
}
