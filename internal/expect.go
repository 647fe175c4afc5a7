package internal

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go/parquet"
)

type (
	// Expectations は行グループの統計値に対する期待値
	// Columns はファイル中の列の順に並べる
	Expectations struct {
		SingleRowGroup bool                       `toml:"single_row_group"`
		SortingColumns []SortingColumnExpectation `toml:"sorting_columns"` // 全ての行グループで一致することを期待する
		Columns        []ColumnExpectation        `toml:"columns"`
	}

	SortingColumnExpectation struct {
		ColumnIdx  int32 `toml:"column_idx"`
		Descending bool  `toml:"descending"`
		NullsFirst bool  `toml:"nulls_first"`
	}

	ColumnExpectation struct {
		Name           string `toml:"name"`
		Min            string `toml:"min"`
		Max            string `toml:"max"`
		Absent         bool   `toml:"absent"` // 最小値・最大値が書かれていないことを期待する
		Skip           bool   `toml:"skip"`
		Round          *int   `toml:"round"`           // 浮動小数点数を小数点以下 Round 桁に丸めて比較する
		NonOverlapping bool   `toml:"non_overlapping"` // 行グループ同士の [min, max] が重ならない
	}
)

func LoadExpectations(path string) (*Expectations, error) {
	exp := &Expectations{}
	md, err := toml.DecodeFile(path, exp)
	if err != nil {
		return nil, fmt.Errorf("failed to load expectations: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in expectations: %s", strings.Join(keys, ", "))
	}

	if err := exp.validate(); err != nil {
		return nil, err
	}

	return exp, nil
}

func (e *Expectations) validate() error {
	for i, s := range e.SortingColumns {
		if s.ColumnIdx < 0 {
			return fmt.Errorf("sorting column %d has negative column_idx", i)
		}
	}

	for i, c := range e.Columns {
		if c.Skip || c.Absent {
			continue
		}
		if c.Min == "" && c.Max == "" && c.NonOverlapping {
			continue
		}
		if c.Min == "" || c.Max == "" {
			return fmt.Errorf("column %d (%s) needs both min and max, or absent/skip/non_overlapping", i, c.Name)
		}
		if c.Round != nil && *c.Round < 0 {
			return fmt.Errorf("column %d (%s) has negative round", i, c.Name)
		}
	}
	return nil
}

// VerifyFiles は全ファイルの行グループをパス順に連結して検証する
func (e *Expectations) VerifyFiles(files []*FileStats) error {
	rowGroups := make([][]*ColumnStats, 0)
	sorting := make([][]*parquet.SortingColumn, 0)
	for _, f := range files {
		rowGroups = append(rowGroups, f.RowGroups...)
		sorting = append(sorting, f.SortingColumns...)
	}

	var result *multierror.Error
	if err := e.Verify(rowGroups); err != nil {
		result = multierror.Append(result, err)
	}
	if err := e.VerifySortingColumns(sorting); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// Verify は全ての不一致をまとめて返す
func (e *Expectations) Verify(rowGroups [][]*ColumnStats) error {
	var result *multierror.Error

	if len(rowGroups) == 0 {
		return multierror.Append(result, fmt.Errorf("no row groups to verify"))
	}
	if e.SingleRowGroup && len(rowGroups) != 1 {
		return multierror.Append(result, fmt.Errorf("expected exactly one row group, got %d", len(rowGroups)))
	}

	columnsMatch := true
	for i, rg := range rowGroups {
		if len(rg) != len(e.Columns) {
			result = multierror.Append(result, fmt.Errorf("row group %d has %d columns, expected %d", i, len(rg), len(e.Columns)))
			columnsMatch = false
			continue
		}

		for j, c := range e.Columns {
			if c.Skip || (!c.Absent && c.Min == "") {
				continue
			}
			if err := c.check(rg[j]); err != nil {
				result = multierror.Append(result, fmt.Errorf("row group %d, column %d (%s): %w", i, j, c.Name, err))
			}
		}
	}

	if columnsMatch {
		for j, c := range e.Columns {
			if c.Skip || !c.NonOverlapping {
				continue
			}
			if err := checkNonOverlapping(rowGroups, j); err != nil {
				result = multierror.Append(result, fmt.Errorf("column %d (%s): %w", j, c.Name, err))
			}
		}
	}

	return result.ErrorOrNil()
}

// VerifySortingColumns は全ての行グループのソート列が期待値と一致するかを検証する
// 期待値が空ならソート列は検証しない
func (e *Expectations) VerifySortingColumns(sorting [][]*parquet.SortingColumn) error {
	if len(e.SortingColumns) == 0 {
		return nil
	}

	var result *multierror.Error
	for i, actual := range sorting {
		if !e.sortingColumnsMatch(actual) {
			result = multierror.Append(result, fmt.Errorf("row group %d has sorting columns %s, expected %s",
				i, formatSortingColumns(actual), e.formatExpectedSortingColumns()))
		}
	}
	return result.ErrorOrNil()
}

func (e *Expectations) sortingColumnsMatch(actual []*parquet.SortingColumn) bool {
	if len(actual) != len(e.SortingColumns) {
		return false
	}
	for i, s := range e.SortingColumns {
		a := actual[i]
		if a == nil || a.ColumnIdx != s.ColumnIdx || a.Descending != s.Descending || a.NullsFirst != s.NullsFirst {
			return false
		}
	}
	return true
}

func (e *Expectations) formatExpectedSortingColumns() string {
	actual := make([]*parquet.SortingColumn, len(e.SortingColumns))
	for i, s := range e.SortingColumns {
		actual[i] = &parquet.SortingColumn{ColumnIdx: s.ColumnIdx, Descending: s.Descending, NullsFirst: s.NullsFirst}
	}
	return formatSortingColumns(actual)
}

func formatSortingColumns(sorting []*parquet.SortingColumn) string {
	items := make([]string, len(sorting))
	for i, s := range sorting {
		if s == nil {
			items[i] = "nil"
			continue
		}
		items[i] = fmt.Sprintf("(%d, descending=%t, nulls_first=%t)", s.ColumnIdx, s.Descending, s.NullsFirst)
	}
	return "[" + strings.Join(items, ", ") + "]"
}

// 最小値の順に並べ、隣り合う行グループで前の最大値が次の最小値を超えないことを確かめる
func checkNonOverlapping(rowGroups [][]*ColumnStats, col int) error {
	type indexed struct {
		rowGroup int
		stats    *ColumnStats
	}

	ranges := make([]indexed, 0, len(rowGroups))
	for i, rg := range rowGroups {
		if rg[col] == nil || rg[col].Min == nil {
			return fmt.Errorf("row group %d has no min/max to check overlap", i)
		}
		ranges = append(ranges, indexed{rowGroup: i, stats: rg[col]})
	}

	var cmpErr error
	sort.SliceStable(ranges, func(a, b int) bool {
		c, err := ranges[a].stats.Min.Compare(*ranges[b].stats.Min)
		if err != nil && cmpErr == nil {
			cmpErr = err
		}
		return c < 0
	})
	if cmpErr != nil {
		return cmpErr
	}

	for k := 1; k < len(ranges); k++ {
		l, r := ranges[k-1], ranges[k]
		c, err := l.stats.Max.Compare(*r.stats.Min)
		if err != nil {
			return err
		}
		if c > 0 {
			return fmt.Errorf("row groups %d and %d overlap: max %s is greater than min %s",
				l.rowGroup, r.rowGroup, l.stats.Max, r.stats.Min)
		}
	}
	return nil
}

func (c *ColumnExpectation) check(stats *ColumnStats) error {
	hasRange := stats != nil && stats.Min != nil

	if c.Absent {
		if hasRange {
			return fmt.Errorf("expected no statistics, got min=%s max=%s", stats.Min, stats.Max)
		}
		return nil
	}

	if !hasRange {
		return fmt.Errorf("expected min=%s max=%s, got no statistics", c.Min, c.Max)
	}
	if c.Name != "" && stats.Name != c.Name {
		return fmt.Errorf("column name is '%s'", stats.Name)
	}

	if err := c.compare("min", c.Min, *stats.Min); err != nil {
		return err
	}
	return c.compare("max", c.Max, *stats.Max)
}

func (c *ColumnExpectation) compare(label, expected string, actual Value) error {
	want, err := ParseValue(actual.Kind(), expected)
	if err != nil {
		return fmt.Errorf("invalid expected %s '%s' for %s column: %w", label, expected, actual.Kind(), err)
	}

	if c.Round != nil {
		switch actual.Kind() {
		case KindFloat32:
			actual = Float32Value(float32(roundFloat(float64(actual.Float32()), *c.Round)))
			want = Float32Value(float32(roundFloat(float64(want.Float32()), *c.Round)))
		case KindFloat64:
			actual = Float64Value(roundFloat(actual.Float64(), *c.Round))
			want = Float64Value(roundFloat(want.Float64(), *c.Round))
		}
	}

	cmp, err := actual.Compare(want)
	if err != nil {
		return err
	}
	if cmp != 0 {
		return fmt.Errorf("%s is %s, expected %s", label, actual, want)
	}
	return nil
}

func roundFloat(f float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(f*p) / p
}
