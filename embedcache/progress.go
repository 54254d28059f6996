package embedcache

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports how far a precompute run has got through its
// pending reviews. Skipped reviews count towards completion and are shown
// separately.
type ProgressTracker struct {
	writer         io.Writer
	pending        int
	updated        int
	skipped        int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a tracker for pending reviews that writes a
// status line every reportInterval reviews. A nil writer discards output.
func NewProgressTracker(writer io.Writer, pending, reportInterval int) *ProgressTracker {
	if writer == nil {
		writer = io.Discard
	}
	if reportInterval <= 0 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		pending:        pending,
		reportInterval: reportInterval,
	}
}

// Start resets the counters and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.updated = 0
	p.skipped = 0
	p.lastReported = 0
}

// Record adds the outcome of one committed batch.
func (p *ProgressTracker) Record(results []ItemResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	for _, res := range results {
		switch res.Status {
		case StatusUpdated:
			p.updated++
		case StatusSkipped:
			p.skipped++
		}
	}

	if done := p.done(); done-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = done
	}
}

// Finish prints the final status line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	fmt.Fprintln(p.writer)
}

// Counts returns the reviews embedded and skipped so far.
func (p *ProgressTracker) Counts() (updated, skipped int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updated, p.skipped
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// done is capped at pending. Must be called with lock held.
func (p *ProgressTracker) done() int {
	return min(p.updated+p.skipped, p.pending)
}

// report prints the current status. Must be called with lock held.
func (p *ProgressTracker) report() {
	done := p.done()
	rate := 0.0
	if elapsed := time.Since(p.startTime); elapsed > 0 {
		rate = float64(p.updated) / elapsed.Seconds()
	}

	percentage := 0.0
	if p.pending > 0 {
		percentage = float64(done) / float64(p.pending) * 100.0
	}

	fmt.Fprintf(p.writer, "\rEmbedding: %d/%d (%.1f%%) - %d skipped - %.1f reviews/s",
		done, p.pending, percentage, p.skipped, rate)
}
