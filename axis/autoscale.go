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

package axis

import (
	"math"

	"github.com/gochart/chartmodel/datatable"
)

// Expand determines how much an autoscaled range is padded beyond the
// actual data extents, as an absolute amount plus a fraction of the data
// span.
type Expand struct {
	Absolute float64
	Relative float64
}

// AutoscalerOption configures an Autoscaler during creation.
type AutoscalerOption func(*Autoscaler)

// WithExpand sets the range expansion. The default is no absolute
// padding and 5% relative padding.
func WithExpand(e Expand) AutoscalerOption {
	return func(as *Autoscaler) { as.expand = e }
}

// Autoscaler keeps an axis range in sync with the value extents of one
// data source column. The axis itself never computes extents; the
// autoscaler is the external collaborator that recomputes them on every
// data change and pushes the result through SetRange.
//
// While the axis is in manual state (SetAutoscaled(false)) the
// autoscaler stays registered but pushes nothing.
type Autoscaler struct {
	axis   *Axis
	source datatable.DataSource
	column int
	stats  *datatable.Statistics
	expand Expand
}

// NewAutoscaler binds axis to the given column of src, switches the axis
// to autoscaled state and performs an initial rescale. Returns
// datatable.ErrNoDataSource for a nil source and
// datatable.ErrInvalidColumn for a bad column. Call Close to detach.
func NewAutoscaler(axis *Axis, src datatable.DataSource, column int, opts ...AutoscalerOption) (*Autoscaler, error) {
	// NewStatistics validates src and registers its cache invalidation
	// listener first, so extents are already invalidated by the time the
	// autoscaler's own listener runs.
	stats, err := datatable.NewStatistics(src)
	if err != nil {
		return nil, err
	}
	if _, err := src.ColumnType(column); err != nil {
		stats.Close()
		return nil, err
	}

	as := &Autoscaler{
		axis:   axis,
		source: src,
		column: column,
		stats:  stats,
		expand: Expand{Relative: 0.05},
	}
	for _, opt := range opts {
		opt(as)
	}

	axis.SetAutoscaled(true)
	src.AddDataListener(as)
	as.Rescale()
	return as, nil
}

// Rescale recomputes the column extents and pushes the padded range to
// the axis. It is a no-op while the axis is in manual state or the
// column holds no numeric values.
func (as *Autoscaler) Rescale() {
	if !as.axis.Autoscaled() {
		return
	}
	cs, err := as.stats.Column(as.column)
	if err != nil || cs.N == 0 || math.IsNaN(cs.Min) || math.IsNaN(cs.Max) {
		return
	}

	ext := as.expand.Relative*(cs.Max-cs.Min) + as.expand.Absolute
	as.axis.SetRange(cs.Min-ext, cs.Max+ext)
}

// Close detaches the autoscaler and its statistics view from the source.
// The axis keeps its last range and stays in autoscaled state.
func (as *Autoscaler) Close() {
	as.source.RemoveDataListener(as)
	as.stats.Close()
}

// DataAdded implements datatable.DataListener.
func (as *Autoscaler) DataAdded(datatable.DataSource, []datatable.DataChangeEvent) {
	as.Rescale()
}

// DataUpdated implements datatable.DataListener.
func (as *Autoscaler) DataUpdated(datatable.DataSource, []datatable.DataChangeEvent) {
	as.Rescale()
}

// DataRemoved implements datatable.DataListener.
func (as *Autoscaler) DataRemoved(datatable.DataSource, []datatable.DataChangeEvent) {
	as.Rescale()
}
