package internal

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/thrift/lib/go/thrift"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go/parquet"
)

type testColumn struct {
	name       string
	typ        parquet.Type
	typeLength *int32
	scale      *int32
	stats      *parquet.Statistics
}

func serializeThrift(t *testing.T, msg thrift.TStruct) []byte {
	t.Helper()

	transport := thrift.NewTMemoryBufferLen(1024)
	s := &thrift.TSerializer{
		Transport: transport,
		Protocol:  thrift.NewTCompactProtocolConf(transport, &thrift.TConfiguration{}),
	}

	b, err := s.Write(context.Background(), msg)
	require.NoError(t, err)
	return b
}

// 1行グループ・フラットなスキーマのフッターを作る
func flatFooter(columns ...testColumn) *parquet.FileMetaData {
	numChildren := int32(len(columns))
	footer := &parquet.FileMetaData{
		Version: 1,
		Schema:  []*parquet.SchemaElement{{Name: "schema", NumChildren: &numChildren}},
		NumRows: 10,
		RowGroups: []*parquet.RowGroup{{
			NumRows:       10,
			TotalByteSize: 100,
		}},
	}

	for _, c := range columns {
		footer.Schema = append(footer.Schema, &parquet.SchemaElement{
			Name:           c.name,
			Type:           parquet.TypePtr(c.typ),
			TypeLength:     c.typeLength,
			Scale:          c.scale,
			RepetitionType: parquet.FieldRepetitionTypePtr(parquet.FieldRepetitionType_OPTIONAL),
		})
		footer.RowGroups[0].Columns = append(footer.RowGroups[0].Columns, &parquet.ColumnChunk{
			FileOffset: 4,
			MetaData: &parquet.ColumnMetaData{
				Type:                  c.typ,
				Encodings:             []parquet.Encoding{parquet.Encoding_PLAIN},
				PathInSchema:          []string{c.name},
				Codec:                 parquet.CompressionCodec_UNCOMPRESSED,
				NumValues:             10,
				TotalUncompressedSize: 0,
				TotalCompressedSize:   0,
				DataPageOffset:        4,
				Statistics:            c.stats,
			},
		})
	}

	return footer
}

// PAR1 + body + フッター + フッター長 + PAR1
func buildParquet(t *testing.T, body []byte, footer *parquet.FileMetaData) []byte {
	t.Helper()

	meta := serializeThrift(t, footer)

	var buf bytes.Buffer
	buf.WriteString(magic)
	buf.Write(body)
	buf.Write(meta)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(len(meta))))
	buf.WriteString(magic)
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func int32Ptr(n int32) *int32 { return &n }
func int64Ptr(n int64) *int64 { return &n }

func le32(n int32) []byte {
	return binary.LittleEndian.AppendUint32(nil, uint32(n))
}

func le64(n int64) []byte {
	return binary.LittleEndian.AppendUint64(nil, uint64(n))
}

func leFloat(f float32) []byte {
	return binary.LittleEndian.AppendUint32(nil, math.Float32bits(f))
}

func leDouble(f float64) []byte {
	return binary.LittleEndian.AppendUint64(nil, math.Float64bits(f))
}

func int96(dayNanos int64, julianDay uint32) []byte {
	return binary.LittleEndian.AppendUint32(le64(dayNanos), julianDay)
}

func minMax(lo, hi []byte) *parquet.Statistics {
	return &parquet.Statistics{Min: lo, Max: hi}
}
