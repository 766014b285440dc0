// Copyright 2026 The chartmodel Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package datatable

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/aclements/go-moremath/stats"
)

// ColumnStats aggregates the numeric values of one column. Null cells
// and non-numeric columns contribute nothing; with no numeric values
// N is 0 and every aggregate is NaN.
type ColumnStats struct {
	// N is the number of non-null numeric values aggregated.
	N int

	Min     float64
	Max     float64
	Sum     float64
	Mean    float64
	GeoMean float64
	StdDev  float64
	Median  float64
}

// Statistics computes per-column aggregates over a DataSource and feeds
// axis autoscaling with data extents. Results are cached per column; the
// cache invalidates itself through change notification from the source.
type Statistics struct {
	source DataSource

	mu    sync.Mutex
	gen   uint64 // bumped by invalidate; guards stale cache stores
	cache map[int]ColumnStats
}

// NewStatistics creates a statistics view over src and registers it as a
// listener so cached aggregates follow mutations. Returns ErrNoDataSource
// if src is nil. Call Close to detach.
func NewStatistics(src DataSource) (*Statistics, error) {
	if src == nil {
		return nil, ErrNoDataSource
	}
	s := &Statistics{
		source: src,
		cache:  make(map[int]ColumnStats),
	}
	src.AddDataListener(s)
	return s, nil
}

// Column returns the aggregates for one column, computing and caching
// them on first use. Returns ErrInvalidColumn for a bad index.
func (s *Statistics) Column(col int) (ColumnStats, error) {
	if col < 0 || col >= s.source.ColumnCount() {
		return ColumnStats{}, fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}

	s.mu.Lock()
	if cs, ok := s.cache[col]; ok {
		s.mu.Unlock()
		return cs, nil
	}
	gen := s.gen
	s.mu.Unlock()

	cs := s.compute(col)

	// A mutation may have invalidated the cache while compute ran
	// unlocked. Caching the result then would serve pre-mutation extents
	// until the next invalidation, so only a result computed against the
	// current generation is kept.
	s.mu.Lock()
	if s.gen == gen {
		s.cache[col] = cs
	}
	s.mu.Unlock()
	return cs, nil
}

// Min returns the minimum numeric value of a column.
func (s *Statistics) Min(col int) (float64, error) {
	cs, err := s.Column(col)
	return cs.Min, err
}

// Max returns the maximum numeric value of a column.
func (s *Statistics) Max(col int) (float64, error) {
	cs, err := s.Column(col)
	return cs.Max, err
}

// Mean returns the arithmetic mean of a column.
func (s *Statistics) Mean(col int) (float64, error) {
	cs, err := s.Column(col)
	return cs.Mean, err
}

// Quantile returns the q-quantile (0 <= q <= 1) of a column's numeric
// values, NaN when the column has none.
func (s *Statistics) Quantile(col int, q float64) (float64, error) {
	if col < 0 || col >= s.source.ColumnCount() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	xs := s.collect(col)
	if len(xs) == 0 {
		return math.NaN(), nil
	}
	sort.Float64s(xs)
	sample := stats.Sample{Xs: xs, Sorted: true}
	return sample.Quantile(q), nil
}

// compute aggregates one column from scratch.
func (s *Statistics) compute(col int) ColumnStats {
	xs := s.collect(col)
	if len(xs) == 0 {
		nan := math.NaN()
		return ColumnStats{Min: nan, Max: nan, Sum: nan, Mean: nan,
			GeoMean: nan, StdDev: nan, Median: nan}
	}

	sort.Float64s(xs)
	sample := stats.Sample{Xs: xs, Sorted: true}
	min, max := sample.Bounds()

	sum := 0.0
	for _, x := range xs {
		sum += x
	}

	return ColumnStats{
		N:       len(xs),
		Min:     min,
		Max:     max,
		Sum:     sum,
		Mean:    stats.Mean(xs),
		GeoMean: stats.GeoMean(xs),
		StdDev:  sample.StdDev(),
		Median:  sample.Quantile(0.5),
	}
}

// collect snapshots the non-null numeric values of one column.
func (s *Statistics) collect(col int) []float64 {
	count := s.source.RowCount()
	xs := make([]float64, 0, count)
	for row := 0; row < count; row++ {
		v, err := s.source.Cell(col, row)
		if err != nil {
			continue
		}
		if x, ok := v.Float(); ok && !math.IsNaN(x) {
			xs = append(xs, x)
		}
	}
	return xs
}

// invalidate drops all cached aggregates and marks in-flight computations
// as stale.
func (s *Statistics) invalidate() {
	s.mu.Lock()
	s.gen++
	s.cache = make(map[int]ColumnStats)
	s.mu.Unlock()
}

// Close detaches the statistics view from its source.
func (s *Statistics) Close() {
	s.source.RemoveDataListener(s)
}

// DataAdded implements DataListener.
func (s *Statistics) DataAdded(DataSource, []DataChangeEvent) { s.invalidate() }

// DataUpdated implements DataListener.
func (s *Statistics) DataUpdated(DataSource, []DataChangeEvent) { s.invalidate() }

// DataRemoved implements DataListener.
func (s *Statistics) DataRemoved(DataSource, []DataChangeEvent) { s.invalidate() }
