package optimize

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Progress tracks the number of objective-function evaluations an
// optimiser driver has performed, and prints a one-line update to
// stderr no more often than once every interval (60 seconds) of
// wall-clock time. The counter is protected by a mutex, so Tick may
// be called from concurrently running evaluations.
type Progress struct {
	mutex    sync.Mutex
	label    string
	silent   bool
	interval time.Duration
	evals    int
	lastPrint time.Time
	start    time.Time
}

// NewProgress returns a Progress reporter labelled for one optimiser
// driver run. Reports nothing when silent is true.
func NewProgress(label string, silent bool) *Progress {
	now := time.Now()
	return &Progress{
		label:     label,
		silent:    silent,
		interval:  60 * time.Second,
		lastPrint: now,
		start:     now,
	}
}

// Tick records one objective-function evaluation and, if at least
// interval has elapsed since the last report, prints the
// current evaluation count and elapsed time.
func (p *Progress) Tick() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.evals++
	if p.silent {
		return
	}
	now := time.Now()
	if now.Sub(p.lastPrint) < p.interval {
		return
	}
	p.lastPrint = now
	fmt.Fprintf(os.Stderr, "%s: %d evaluations, %.0fs elapsed\n", p.label, p.evals, now.Sub(p.start).Seconds())
}

// Evals returns the number of evaluations recorded so far.
func (p *Progress) Evals() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.evals
}
