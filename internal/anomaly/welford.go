// Package anomaly flags risk reports whose score breaks from the route's
// recent history, using one-pass running statistics.
package anomaly

import "math"

// Welford accumulates mean and variance online, one value at a time, without
// retaining the series.
type Welford struct {
	count int
	mean  float64
	sum   float64 // sum of squared deviations
}

// Update folds a new value into the running statistics.
func (w *Welford) Update(x float64) {
	w.count++
	old := w.mean
	w.mean += (x - old) / float64(w.count)
	w.sum += (x - old) * (x - w.mean)
}

// Count returns how many values have been observed.
func (w *Welford) Count() int { return w.count }

// Mean returns the running mean.
func (w *Welford) Mean() float64 { return w.mean }

// Variance returns the sample variance; zero until two values are seen.
func (w *Welford) Variance() float64 {
	if w.count < 2 {
		return 0
	}
	return w.sum / float64(w.count-1)
}

// StdDev returns the sample standard deviation.
func (w *Welford) StdDev() float64 {
	return math.Sqrt(w.Variance())
}

// ZScore places a value against the current statistics. Zero when the
// deviation is zero, so a flat series never flags.
func (w *Welford) ZScore(x float64) float64 {
	sd := w.StdDev()
	if sd == 0 {
		return 0
	}
	return (x - w.mean) / sd
}
