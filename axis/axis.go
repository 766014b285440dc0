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

// Package axis provides the range state machine chart renderers map data
// values through: a named [min, max] pair with change notification, an
// advisory manual/autoscaled flag, tick generation and an autoscaler
// that follows a data table's value extents.
package axis

import (
	"fmt"
	"math"
	"reflect"
	"sync"

	"gonum.org/v1/plot"
)

// AxisListener receives range change notifications from an Axis.
// Notification is synchronous on the mutating goroutine and fires only
// when the (min, max) pair actually changes.
type AxisListener interface {
	RangeChanged(axis *Axis, min, max float64)
}

// AxisListenerFunc adapts a function to the AxisListener interface.
type AxisListenerFunc func(axis *Axis, min, max float64)

// RangeChanged implements AxisListener.
func (f AxisListenerFunc) RangeChanged(axis *Axis, min, max float64) {
	f(axis, min, max)
}

// Option configures an Axis during creation.
type Option func(*Axis)

// WithLabel sets the axis label.
func WithLabel(label string) Option {
	return func(a *Axis) { a.label = label }
}

// WithTicker sets the tick generator used by Ticks. The default is
// plot.DefaultTicks.
func WithTicker(t plot.Ticker) Option {
	return func(a *Axis) { a.ticker = t }
}

// Axis is a scalar range [min, max] with listeners. It is a dumb range
// container: min <= max is not enforced (an inverted range renders a
// reversed axis) and NaN or infinite bounds are stored as-is, never
// validated. Renderers guard against non-finite ranges themselves.
//
// The autoscaled flag is advisory only. It tells consumers whether the
// current range was set manually or is expected to be overwritten by an
// autoscaling collaborator; it never blocks the setters.
type Axis struct {
	label  string
	ticker plot.Ticker

	mu         sync.Mutex
	min, max   float64
	autoscaled bool

	listenerMu sync.Mutex
	listeners  []AxisListener
}

// New creates an axis with the given initial range.
func New(min, max float64, opts ...Option) *Axis {
	a := &Axis{
		min:    min,
		max:    max,
		ticker: plot.DefaultTicks{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Label returns the axis label.
func (a *Axis) Label() string { return a.label }

// Min returns the lower bound.
func (a *Axis) Min() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.min
}

// Max returns the upper bound.
func (a *Axis) Max() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.max
}

// Range returns max - min. The result is signed: a negative range means
// the axis is inverted.
func (a *Axis) Range() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.max - a.min
}

// Bounds returns both bounds in one consistent snapshot.
func (a *Axis) Bounds() (min, max float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.min, a.max
}

// SetMin assigns the lower bound, keeping the upper bound.
func (a *Axis) SetMin(min float64) {
	a.mu.Lock()
	max := a.max
	a.mu.Unlock()
	a.SetRange(min, max)
}

// SetMax assigns the upper bound, keeping the lower bound.
func (a *Axis) SetMax(max float64) {
	a.mu.Lock()
	min := a.min
	a.mu.Unlock()
	a.SetRange(min, max)
}

// SetRange assigns both bounds. Listeners are notified once, after the
// new bounds are stored, and only if the pair actually changed (two NaN
// bounds count as equal).
func (a *Axis) SetRange(min, max float64) {
	a.mu.Lock()
	if sameFloat(a.min, min) && sameFloat(a.max, max) {
		a.mu.Unlock()
		return
	}
	a.min, a.max = min, max
	a.mu.Unlock()

	for _, l := range a.snapshotListeners() {
		l.RangeChanged(a, min, max)
	}
}

// Autoscaled reports whether the axis is in autoscaled state.
func (a *Axis) Autoscaled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.autoscaled
}

// SetAutoscaled toggles between manual and autoscaled state. Switching
// state does not touch the bounds and emits no notification.
func (a *Axis) SetAutoscaled(autoscaled bool) {
	a.mu.Lock()
	a.autoscaled = autoscaled
	a.mu.Unlock()
}

// AddAxisListener registers a listener for range change notification.
func (a *Axis) AddAxisListener(l AxisListener) {
	if l == nil {
		return
	}
	a.listenerMu.Lock()
	defer a.listenerMu.Unlock()
	a.listeners = append(a.listeners, l)
}

// RemoveAxisListener unregisters a previously added listener. Func
// adapters (AxisListenerFunc) are matched by function identity.
func (a *Axis) RemoveAxisListener(l AxisListener) {
	a.listenerMu.Lock()
	defer a.listenerMu.Unlock()
	for i, registered := range a.listeners {
		if sameListener(registered, l) {
			a.listeners = append(a.listeners[:i], a.listeners[i+1:]...)
			return
		}
	}
}

// sameListener compares listeners without panicking on uncomparable
// dynamic types: func values are matched by code pointer.
func sameListener(a, b AxisListener) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	if ta.Kind() == reflect.Func {
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}
	return false
}

// snapshotListeners copies the registry so notification iterates without
// holding any lock; a listener may re-enter the axis freely.
func (a *Axis) snapshotListeners() []AxisListener {
	a.listenerMu.Lock()
	defer a.listenerMu.Unlock()
	return append([]AxisListener(nil), a.listeners...)
}

// Ticks generates tick marks for the current range using the configured
// ticker. Degenerate and non-finite ranges yield no ticks. An inverted
// range produces the ticks of the ordered range; the renderer flips them.
func (a *Axis) Ticks() []plot.Tick {
	min, max := a.Bounds()
	if math.IsNaN(min) || math.IsNaN(max) ||
		math.IsInf(min, 0) || math.IsInf(max, 0) || min == max {
		return nil
	}
	if min > max {
		min, max = max, min
	}
	return a.ticker.Ticks(min, max)
}

func (a *Axis) String() string {
	min, max := a.Bounds()
	return fmt.Sprintf("Axis[%g:%g] %q", min, max, a.label)
}

// sameFloat is float equality that treats two NaNs as equal, so setting
// an unset bound to NaN again is not a change.
func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}
