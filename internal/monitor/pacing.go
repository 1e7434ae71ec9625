package monitor

import (
	"sync"
	"time"
)

// pacer holds the adaptive pause between block fetches. A block the node does
// not have yet stretches it by the factor, any fetched block shrinks it, always
// clamped to the configured bounds.
type pacer struct {
	mu      sync.Mutex
	current time.Duration
	factor  float64
	lower   time.Duration
	upper   time.Duration
}

func newPacer(initial time.Duration, factor float64, lower, upper time.Duration) *pacer {
	p := &pacer{factor: factor, lower: lower, upper: upper}
	p.current = p.clamp(initial)
	return p
}

// Increase multiplies the pause by the factor and returns the new value.
func (p *pacer) Increase() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.clamp(time.Duration(float64(p.current) * p.factor))
	return p.current
}

// Decrease divides the pause by the factor and returns the new value.
func (p *pacer) Decrease() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.clamp(time.Duration(float64(p.current) / p.factor))
	return p.current
}

// Current returns the pause without adjusting it.
func (p *pacer) Current() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *pacer) clamp(d time.Duration) time.Duration {
	if d < p.lower {
		return p.lower
	}
	if d > p.upper {
		return p.upper
	}
	return d
}
