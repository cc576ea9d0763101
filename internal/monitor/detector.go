package monitor

// Detector holds the last observed status and decides whether a new
// observation is a transition. The first observation only seeds the baseline.
type Detector struct {
	current string
	seeded  bool
}

// Observe records status and reports the previous status when it differs.
// The held status is updated on every call.
func (d *Detector) Observe(status string) (old string, changed bool) {
	if !d.seeded {
		d.current, d.seeded = status, true
		return "", false
	}
	old = d.current
	d.current = status
	return old, old != status
}

// Current returns the held status, if any.
func (d *Detector) Current() (string, bool) {
	return d.current, d.seeded
}

// Reset forgets the held status so the next observation seeds a new baseline.
func (d *Detector) Reset() {
	d.current, d.seeded = "", false
}
