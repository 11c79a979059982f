package tracks

// speedWindow is a bounded ring of the most recent speeds for one identity.
// A mean is only reported once minSamples values are present.
type speedWindow struct {
	buf        []float64
	next       int
	count      int
	minSamples int
}

func newSpeedWindow(size int) *speedWindow {
	if size < 1 {
		size = 1
	}
	return &speedWindow{
		buf:        make([]float64, size),
		minSamples: MinSamples(size),
	}
}

// MinSamples is the number of trailing samples required before a rolling
// mean is defined for the given window size.
func MinSamples(window int) int {
	return max(2, window/2)
}

func (w *speedWindow) push(v float64) {
	w.buf[w.next] = v
	w.next = (w.next + 1) % len(w.buf)
	if w.count < len(w.buf) {
		w.count++
	}
}

// mean returns the average of the buffered values, or false while the
// window holds fewer than minSamples values.
func (w *speedWindow) mean() (float64, bool) {
	if w.count < w.minSamples {
		return 0, false
	}
	var sum float64
	for i := 0; i < w.count; i++ {
		sum += w.buf[i]
	}
	return sum / float64(w.count), true
}
