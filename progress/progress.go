// Package progress draws a single line terminal progress bar with an
// estimated time to completion.
package progress

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Weights of the overall and instantaneous completion rates in the ETA.
const (
	WeightOverall       = 0.75
	WeightInstantaneous = 1 - WeightOverall
)

// Bar is a progress bar. It is safe for concurrent use.
type Bar struct {
	// Max is the counter value at completion. When zero the counter is not shown.
	Max int
	// Char fills the completed part of the bar. Defaults to ">".
	Char string
	Out  io.Writer
	// Now defaults to time.Now.
	Now func() time.Time

	mtx          sync.Mutex
	started      time.Time
	lastCheck    time.Time
	lastFraction float64
}

// New returns a bar writing to out.
func New(max int, out io.Writer) *Bar {
	return &Bar{Max: max, Char: ">", Out: out}
}

func (b *Bar) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// Start records the start time.
func (b *Bar) Start() {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	t := b.now()
	b.started = t
	b.lastCheck = t
	b.lastFraction = 0
}

// Update redraws the bar for the given completed fraction and counter value.
func (b *Bar) Update(fraction float64, counter int) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	t := b.now()
	eta := b.eta(t, fraction)
	fmt.Fprint(b.Out, b.render(fraction, counter, eta))
	b.lastCheck = t
	b.lastFraction = fraction
}

// Finish ends the line.
func (b *Bar) Finish() {
	fmt.Fprintln(b.Out)
}

func (b *Bar) eta(t time.Time, fraction float64) time.Duration {
	var overall, instantaneous float64
	if elapsed := t.Sub(b.started).Seconds(); elapsed > 0 {
		overall = fraction / elapsed
	}
	if elapsed := t.Sub(b.lastCheck).Seconds(); elapsed > 0 {
		instantaneous = (fraction - b.lastFraction) / elapsed
	}
	rate := WeightOverall*overall + WeightInstantaneous*instantaneous
	if rate <= 0 {
		return 0
	}
	return time.Duration((1 - fraction) / rate * float64(time.Second))
}

func (b *Bar) render(fraction float64, counter int, eta time.Duration) string {
	percent := int(math.Floor(0.5 + fraction*100))
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	char := b.Char
	if char == "" {
		char = ">"
	}

	remaining := eta.Seconds()
	hours := math.Floor(remaining / 3600)
	minutes := math.Floor((remaining - 3600*hours) / 60)
	seconds := remaining - 3600*hours - 60*minutes

	var s strings.Builder
	s.WriteString("\r    [")
	s.WriteString(strings.Repeat(char, percent))
	s.WriteString(strings.Repeat("-", 100-percent))
	fmt.Fprintf(&s, "]   %3d %% done. ETA: %2d h: %2d m: %04.1f s.", percent, int(hours), int(minutes), seconds)
	if b.Max > 0 {
		w := len(strconv.Itoa(b.Max))
		fmt.Fprintf(&s, " Completed: %*d/%*d.", w, counter, w, b.Max)
	}
	return s.String()
}
