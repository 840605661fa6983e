package clock

import (
	"testing"
	"time"
)

func TestManualClock_Advance(t *testing.T) {
	t.Parallel()

	c := NewManualClock(time.Unix(100, 0).UTC())
	c.Advance(90 * time.Second)
	if got := c.Now(); !got.Equal(time.Unix(190, 0)) {
		t.Fatalf("Now()=%v, want %v", got, time.Unix(190, 0))
	}
}
