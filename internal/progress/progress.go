// Package progress implements cooperative progress reporting for long-running
// reduction operations. Reporters are synchronous: every update invokes the
// callback on the caller's goroutine, and nested sub-tasks rescale their own
// [0,100] range into a slice of the parent's range so that overall progress
// increases monotonically.
package progress

// Callback receives a progress value in [0,100] and an optional message.
type Callback func(value float64, message string)

// Reporter reports progress over a [0,100] range, optionally mapped onto a
// sub-range of a parent reporter. A nil *Reporter is valid and all its
// methods are no-ops, so callers can pass nil when progress is not wanted.
type Reporter struct {
	callback Callback
	parent   *Reporter
	// start and stop bound this reporter's output in the parent's scale.
	start float64
	stop  float64
	// value is the last reported value in this reporter's own [0,100] scale.
	value float64
}

// NewReporter creates a top-level reporter invoking cb for every update.
// Returns nil if cb is nil.
func NewReporter(cb Callback) *Reporter {
	if cb == nil {
		return nil
	}
	return &Reporter{callback: cb, start: 0, stop: 100}
}

// clamp bounds v to the [0,100] progress scale.
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Report sets the current progress value in this reporter's own [0,100]
// scale and propagates it, rescaled, to the callback or parent.
//
// Parameters:
//   - value: Progress in [0,100]; values outside the range are clamped.
//   - message: Optional milestone description; empty keeps the previous one.
func (r *Reporter) Report(value float64, message string) {
	if r == nil {
		return
	}
	r.value = clamp(value)
	scaled := r.start + (r.stop-r.start)*r.value/100.0
	if r.parent != nil {
		r.parent.Report(scaled, message)
		return
	}
	r.callback(scaled, message)
}

// Value returns the last reported value in this reporter's own scale.
func (r *Reporter) Value() float64 {
	if r == nil {
		return 0
	}
	return r.value
}

// SubTask creates a child reporter whose [0,100] range maps onto the slice of
// this reporter's scale between the current value and maxValue. Reporting 100
// on the child is equivalent to reporting maxValue on this reporter.
//
// Returns nil when called on a nil reporter, so sub-tasks compose without
// nil checks at the call sites.
func (r *Reporter) SubTask(maxValue float64) *Reporter {
	if r == nil {
		return nil
	}
	return &Reporter{
		parent: r,
		start:  r.value,
		stop:   clamp(maxValue),
	}
}

// SetValue reports counted progress: n items done out of outOf. An outOf of
// zero or less reports completion.
func (r *Reporter) SetValue(n, outOf int, message string) {
	if r == nil {
		return
	}
	if outOf <= 0 {
		r.Report(100, message)
		return
	}
	r.Report(100.0*float64(n)/float64(outOf), message)
}
