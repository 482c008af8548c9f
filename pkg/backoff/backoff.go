package backoff

import (
	"math/rand"
	"time"
)

// Backoff produces full-jitter exponential delays in [0, min*2^attempt),
// capped at max. Not safe for concurrent use; each connection loop owns one.
type Backoff struct {
	min     time.Duration
	max     time.Duration
	attempt int
}

func New(min, max time.Duration) *Backoff {
	if min <= 0 {
		min = 250 * time.Millisecond
	}
	if max < min {
		max = min
	}

	return &Backoff{min: min, max: max}
}

func (b *Backoff) Next() time.Duration {
	ceiling := b.min << b.attempt
	if ceiling > b.max || ceiling <= 0 {
		ceiling = b.max
	} else {
		b.attempt++
	}

	return time.Duration(rand.Int63n(int64(ceiling)) + 1)
}

func (b *Backoff) Reset() {
	b.attempt = 0
}
