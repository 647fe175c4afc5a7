package internal

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/xitongsys/parquet-go/parquet"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ディレクトリを走査する際に対象とするファイルの拡張子
var parquetSuffixes = []string{".parquet", ".parq", ".parquet.zst"}

type (
	FileStats struct {
		Path           string                     `json:"path"`
		RowGroups      [][]*ColumnStats           `json:"row_groups"`
		SortingColumns [][]*parquet.SortingColumn `json:"sorting_columns,omitempty"`
	}

	Scanner struct {
		concurrency int
		logger      *zap.Logger
	}
)

// 1ファイルの行グループ毎の統計値を読み取る
func ReadFileStats(ctx context.Context, path string) (*FileStats, error) {
	footer, err := ReadFileMetaData(ctx, path)
	if err != nil {
		return nil, err
	}

	stats, err := RowGroupStats(footer)
	if err != nil {
		return nil, err
	}

	return &FileStats{Path: path, RowGroups: stats, SortingColumns: SortingColumns(footer)}, nil
}

func NewScanner(concurrency int, logger *zap.Logger) *Scanner {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{concurrency: concurrency, logger: logger}
}

// ファイルまたはディレクトリ以下の Parquet ファイルの統計値をパス順に返す
// いずれかのファイルで失敗した時点で全体を中断する
func (s *Scanner) Scan(ctx context.Context, paths ...string) ([]*FileStats, error) {
	files, err := s.collect(paths)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("collected parquet files", zap.Int("count", len(files)))

	results := make([]*FileStats, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			stats, err := ReadFileStats(ctx, path)
			if err != nil {
				s.logger.Warn("failed to read statistics", zap.String("path", path), zap.Error(err))
				return fmt.Errorf("failed to read statistics of %s: %w", path, err)
			}

			s.logger.Debug("decoded statistics", zap.String("path", path), zap.Int("row_groups", len(stats.RowGroups)))
			results[i] = stats
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (s *Scanner) collect(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	files := make([]string, 0)
	add := func(path string) {
		if _, ok := seen[path]; !ok {
			seen[path] = struct{}{}
			files = append(files, path)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", root, err)
		}

		// 明示的に指定されたファイルは拡張子に関わらず対象にする
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// 隠しディレクトリ(.hive-staging 等)は読み飛ばす
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if isParquetFile(d.Name()) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

func isParquetFile(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return false
	}
	for _, suffix := range parquetSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// 全ファイルの統計値を列毎に畳み込む
func Summarize(files []*FileStats) ([]*ColumnRange, error) {
	agg := NewRangeAggregator()
	for _, f := range files {
		if err := agg.AggregateRowGroups(f.RowGroups); err != nil {
			return nil, fmt.Errorf("failed to summarize %s: %w", f.Path, err)
		}
	}
	return agg.Result(), nil
}
