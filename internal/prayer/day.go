package prayer

import "time"

// Day bundles a calendar day's prayer windows with its neighbours so that
// queries near midnight or at the end of isha resolve without refetching.
// A Day is never mutated after construction.
type Day struct {
	Date      time.Time `json:"date"`
	Times     []Time    `json:"times"`
	Yesterday []Time    `json:"yesterday,omitempty"`
	Tomorrow  []Time    `json:"tomorrow,omitempty"`
}

// Find returns today's window for p.
func (d *Day) Find(p Prayer) (Time, bool) {
	return find(d.Times, p)
}

func find(times []Time, p Prayer) (Time, bool) {
	for _, t := range times {
		if t.Type == p {
			return t, true
		}
	}
	return Time{}, false
}

// Current returns the essential prayer whose window contains instant.
// Before today's fajr it falls back to yesterday's isha.
func (d *Day) Current(instant time.Time) (Time, bool) {
	for _, t := range d.Times {
		if t.Type.IsEssential() && t.Contains(instant) {
			return t, true
		}
	}
	return find(d.Yesterday, Isha)
}

// Next returns the first essential prayer starting strictly after instant,
// searching tomorrow once today is exhausted. With sunriseAfterIsha set,
// fajr is skipped so that sunrise becomes the terminal night event.
func (d *Day) Next(instant time.Time, sunriseAfterIsha bool) (Time, bool) {
	match := func(t Time) bool {
		if !t.Type.IsEssential() || !t.Start.After(instant) {
			return false
		}
		return !(sunriseAfterIsha && t.Type == Fajr)
	}
	for _, t := range d.Times {
		if match(t) {
			return t, true
		}
	}
	for _, t := range d.Tomorrow {
		if match(t) {
			return t, true
		}
	}
	return Time{}, false
}

// Essential returns today's essential windows in order.
func (d *Day) Essential() []Time {
	var out []Time
	for _, t := range d.Times {
		if t.Type.IsEssential() {
			out = append(out, t)
		}
	}
	return out
}
