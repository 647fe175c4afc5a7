package internal

import "fmt"

type (
	Aggregator[T any] interface {
		Aggregate(T) error
	}

	// ColumnRange は複数の行グループにまたがる列の最小値・最大値
	// 全ての行グループが NULL のみの列では Min と Max は無効な値になる
	ColumnRange struct {
		Name      string `json:"name"`
		Path      string `json:"path"`
		Min       Value  `json:"min"`
		Max       Value  `json:"max"`
		RowGroups int    `json:"row_groups"`
		NullCount *int64 `json:"null_count,omitempty"`
	}

	// RangeAggregator は行グループ毎の統計値を列のパス毎に畳み込む
	RangeAggregator struct {
		ranges    map[string]*ColumnRange
		order     []string
		rowGroups int // AggregateRowGroups で畳み込んだ行グループの数
	}
)

var _ Aggregator[*ColumnStats] = (*RangeAggregator)(nil)

func NewRangeAggregator() *RangeAggregator {
	return &RangeAggregator{ranges: make(map[string]*ColumnRange)}
}

func (agg *RangeAggregator) Aggregate(stats *ColumnStats) error {
	if stats == nil {
		return nil
	}

	r, ok := agg.ranges[stats.Path]
	if !ok {
		r = &ColumnRange{Name: stats.Name, Path: stats.Path}
		if stats.NullCount != nil {
			n := int64(0)
			r.NullCount = &n
		}
		agg.ranges[stats.Path] = r
		agg.order = append(agg.order, stats.Path)
	}

	// 一つでも NULL の数が不明な行グループがあれば合計も不明とする
	if r.NullCount != nil && stats.NullCount != nil {
		*r.NullCount += *stats.NullCount
	} else {
		r.NullCount = nil
	}
	r.RowGroups++

	if stats.Min == nil || stats.Max == nil {
		return nil
	}

	if !r.Min.IsValid() {
		r.Min, r.Max = *stats.Min, *stats.Max
		return nil
	}

	c, err := stats.Min.Compare(r.Min)
	if err != nil {
		return fmt.Errorf("failed to aggregate min of '%s': %w", stats.Path, err)
	}
	if c < 0 {
		r.Min = *stats.Min
	}

	c, err = stats.Max.Compare(r.Max)
	if err != nil {
		return fmt.Errorf("failed to aggregate max of '%s': %w", stats.Path, err)
	}
	if c > 0 {
		r.Max = *stats.Max
	}

	return nil
}

func (agg *RangeAggregator) AggregateRowGroups(stats [][]*ColumnStats) error {
	for _, rg := range stats {
		for _, s := range rg {
			if err := agg.Aggregate(s); err != nil {
				return err
			}
		}
		agg.rowGroups++
	}
	return nil
}

// 最初に現れた順で列毎の結果を返す
// 統計値を持たない行グループがあった列の NULL の数は不明とする
func (agg *RangeAggregator) Result() []*ColumnRange {
	ranges := make([]*ColumnRange, len(agg.order))
	for i, path := range agg.order {
		r := *agg.ranges[path]
		if r.RowGroups < agg.rowGroups {
			r.NullCount = nil
		} else if r.NullCount != nil {
			n := *r.NullCount
			r.NullCount = &n
		}
		ranges[i] = &r
	}
	return ranges
}
