package mcphost

import (
	"slices"
	"sync"
)

// rollingWindow tracks the last N tool call latencies for percentile
// calculation. It uses a ring buffer so that only the most recent [size]
// measurements are kept. All methods are safe for concurrent use.
type rollingWindow struct {
	mu      sync.Mutex
	samples []int64 // ring buffer of latency measurements in ms
	errs    []bool  // parallel ring buffer of error flags
	pos     int     // next write position
	count   int     // total samples written (may exceed len(samples))
	size    int     // window capacity
}

// newRollingWindow creates a new rolling window with the given capacity.
// A size of 0 or negative defaults to 100.
func newRollingWindow(size int) *rollingWindow {
	if size <= 0 {
		size = 100
	}
	return &rollingWindow{
		samples: make([]int64, size),
		errs:    make([]bool, size),
		size:    size,
	}
}

// Record adds a latency measurement (in ms) to the window, tagging it with
// the error flag. The oldest measurement is overwritten once the buffer is
// full.
func (w *rollingWindow) Record(latencyMs int64, isError bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.samples[w.pos] = latencyMs
	w.errs[w.pos] = isError
	w.pos = (w.pos + 1) % w.size
	w.count++
}

// windowLen returns the number of meaningful samples in the buffer (≤ size).
func (w *rollingWindow) windowLen() int {
	if w.count >= w.size {
		return w.size
	}
	return w.count
}

// sortedCopy returns a sorted copy of the current window samples.
func (w *rollingWindow) sortedCopy() []int64 {
	n := w.windowLen()
	if n == 0 {
		return nil
	}
	cp := make([]int64, n)
	copy(cp, w.samples[:n])
	if w.count >= w.size {
		copy(cp, w.samples)
	}
	slices.Sort(cp)
	return cp
}

// P50 returns the median (50th-percentile) latency in ms.
// Returns 0 if no measurements have been recorded.
func (w *rollingWindow) P50() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	sorted := w.sortedCopy()
	if len(sorted) == 0 {
		return 0
	}
	return sorted[len(sorted)/2]
}

// P99 returns the 99th-percentile latency in ms.
// Returns 0 if no measurements have been recorded.
func (w *rollingWindow) P99() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	sorted := w.sortedCopy()
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * 0.99)
	return sorted[idx]
}

// ErrorRate returns the fraction of calls in the current window that resulted
// in an error (0.0–1.0). Returns 0 if no measurements have been recorded.
func (w *rollingWindow) ErrorRate() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := w.windowLen()
	if n == 0 {
		return 0
	}
	errors := 0
	for i := 0; i < n; i++ {
		if w.errs[i] {
			errors++
		}
	}
	return float64(errors) / float64(n)
}

// Count returns the total number of invocations recorded (may exceed window
// capacity).
func (w *rollingWindow) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}
