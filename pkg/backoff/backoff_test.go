package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextStaysInBounds(t *testing.T) {
	b := New(250*time.Millisecond, 10*time.Second)

	for i := 0; i < 100; i++ {
		d := b.Next()
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 10*time.Second)
	}
}

func TestCeilingGrows(t *testing.T) {
	b := New(time.Second, time.Hour)

	// after a few attempts the jitter window must allow delays above the floor
	for i := 0; i < 6; i++ {
		b.Next()
	}

	seenAboveFloor := false
	for i := 0; i < 200; i++ {
		if b.Next() > time.Second {
			seenAboveFloor = true
			break
		}
	}
	assert.True(t, seenAboveFloor)
}

func TestReset(t *testing.T) {
	b := New(time.Second, time.Hour)
	for i := 0; i < 10; i++ {
		b.Next()
	}

	b.Reset()

	for i := 0; i < 50; i++ {
		assert.LessOrEqual(t, b.Next(), 2*time.Second)
		b.Reset()
	}
}

func TestDefaults(t *testing.T) {
	b := New(0, 0)

	d := b.Next()
	assert.Greater(t, d, time.Duration(0))
	assert.LessOrEqual(t, d, 250*time.Millisecond)
}
