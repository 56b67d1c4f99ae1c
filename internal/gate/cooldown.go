package gate

import (
	"math"
	"time"
)

// ElapsedMinutes returns the absolute distance between last and now in
// fractional minutes. The absolute value absorbs clock skew between writers.
func ElapsedMinutes(last, now time.Time) float64 {
	return math.Abs(now.Sub(last).Minutes())
}

// Elapsed reports whether elapsed minutes strictly exceed the cooldown.
func Elapsed(elapsedMinutes float64, cooldown time.Duration) bool {
	return elapsedMinutes > cooldown.Minutes()
}
