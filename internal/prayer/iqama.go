package prayer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IqamaSpec is either a fixed clock time or a number of minutes after adhan.
// The zero value resolves to nothing.
type IqamaSpec struct {
	Hour    int
	Minute  int
	After   int
	isClock bool
}

// ClockTime returns a spec fixed at hour:minute local time.
func ClockTime(hour, minute int) *IqamaSpec {
	return &IqamaSpec{Hour: hour, Minute: minute, isClock: true}
}

// MinutesAfter returns a spec n minutes after the adhan.
func MinutesAfter(n int) *IqamaSpec {
	return &IqamaSpec{After: n}
}

// IsClock reports whether the spec is a fixed clock time.
func (s IqamaSpec) IsClock() bool { return s.isClock }

// String renders "13:30" for clock specs and "+10" for offsets.
func (s IqamaSpec) String() string {
	if s.isClock {
		return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
	}
	return "+" + strconv.Itoa(s.After)
}

// ParseIqamaSpec accepts "HH:MM" or "+N" (a bare "N" is read as minutes).
func ParseIqamaSpec(raw string) (*IqamaSpec, error) {
	s := strings.TrimSpace(raw)
	if strings.Contains(s, ":") {
		t, err := ParseClock(s, time.Time{}, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid iqama time %q: %w", raw, err)
		}
		return ClockTime(t.Hour(), t.Minute()), nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "+"))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid iqama offset %q: want HH:MM or +minutes", raw)
	}
	return MinutesAfter(n), nil
}

// MarshalText encodes the spec in its String form.
func (s IqamaSpec) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes "HH:MM" or "+N".
func (s *IqamaSpec) UnmarshalText(b []byte) error {
	v, err := ParseIqamaSpec(string(b))
	if err != nil {
		return err
	}
	*s = *v
	return nil
}

// resolve places the spec against a prayer window. Clock times are set on the
// day of the window start in loc; for isha only, a time earlier than the start
// is pushed to the next day. The result must land inside the window.
func (s IqamaSpec) resolve(pt Time, loc *time.Location) (time.Time, bool) {
	if s.isClock {
		start := pt.Start.In(loc)
		t := time.Date(start.Year(), start.Month(), start.Day(), s.Hour, s.Minute, 0, 0, loc)
		if pt.Type == Isha && t.Before(pt.Start) {
			t = t.AddDate(0, 0, 1)
		}
		if t.Before(pt.Start) || t.After(pt.End) {
			return time.Time{}, false
		}
		return t, true
	}
	if s.After <= 0 {
		return time.Time{}, false
	}
	t := pt.Start.Add(time.Duration(s.After) * time.Minute)
	if !t.Before(pt.End) {
		return time.Time{}, false
	}
	return t, true
}

// IqamaTimes holds the congregation times per obligation, with a separate
// Jumuah slot that stands in for dhuhr on Fridays.
type IqamaTimes struct {
	Fajr    *IqamaSpec `json:"fajr,omitempty" yaml:"fajr,omitempty"`
	Dhuhr   *IqamaSpec `json:"dhuhr,omitempty" yaml:"dhuhr,omitempty"`
	Asr     *IqamaSpec `json:"asr,omitempty" yaml:"asr,omitempty"`
	Maghrib *IqamaSpec `json:"maghrib,omitempty" yaml:"maghrib,omitempty"`
	Isha    *IqamaSpec `json:"isha,omitempty" yaml:"isha,omitempty"`
	Jumuah  *IqamaSpec `json:"jumuah,omitempty" yaml:"jumuah,omitempty"`
}

// IsEmpty reports whether no slot is set.
func (q IqamaTimes) IsEmpty() bool {
	return q.Fajr == nil && q.Dhuhr == nil && q.Asr == nil &&
		q.Maghrib == nil && q.Isha == nil && q.Jumuah == nil
}

// Spec returns the slot for p. On a Friday dhuhr the Jumuah slot wins when set.
func (q IqamaTimes) Spec(p Prayer, friday bool) *IqamaSpec {
	switch p {
	case Fajr:
		return q.Fajr
	case Dhuhr:
		if friday && q.Jumuah != nil {
			return q.Jumuah
		}
		return q.Dhuhr
	case Asr:
		return q.Asr
	case Maghrib:
		return q.Maghrib
	case Isha:
		return q.Isha
	}
	return nil
}

// Resolve returns the iqama instant for the window, or false when no slot is
// configured or the instant would fall outside the window.
func (q IqamaTimes) Resolve(pt Time, loc *time.Location) (time.Time, bool) {
	if !pt.Type.IsObligation() {
		return time.Time{}, false
	}
	if loc == nil {
		loc = pt.Start.Location()
	}
	spec := q.Spec(pt.Type, IsFriday(pt.Start, loc))
	if spec == nil {
		return time.Time{}, false
	}
	return spec.resolve(pt, loc)
}

// Khutba resolves the Jumuah slot against a Friday dhuhr window.
func (q IqamaTimes) Khutba(pt Time, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = pt.Start.Location()
	}
	if pt.Type != Dhuhr || q.Jumuah == nil || !IsFriday(pt.Start, loc) {
		return time.Time{}, false
	}
	return q.Jumuah.resolve(pt, loc)
}

// PreAdhanMinutes is the reminder lead time per prayer.
type PreAdhanMinutes struct {
	Fajr    int `json:"fajr" yaml:"fajr"`
	Sunrise int `json:"sunrise" yaml:"sunrise"`
	Dhuhr   int `json:"dhuhr" yaml:"dhuhr"`
	Asr     int `json:"asr" yaml:"asr"`
	Maghrib int `json:"maghrib" yaml:"maghrib"`
	Isha    int `json:"isha" yaml:"isha"`
}

// DefaultPreAdhan returns 20 minutes for every prayer except fajr.
func DefaultPreAdhan() PreAdhanMinutes {
	return PreAdhanMinutes{Sunrise: 20, Dhuhr: 20, Asr: 20, Maghrib: 20, Isha: 20}
}

// For returns the lead time for p; sunnah times have none.
func (m PreAdhanMinutes) For(p Prayer) int {
	switch p {
	case Fajr:
		return m.Fajr
	case Sunrise:
		return m.Sunrise
	case Dhuhr:
		return m.Dhuhr
	case Asr:
		return m.Asr
	case Maghrib:
		return m.Maghrib
	case Isha:
		return m.Isha
	}
	return 0
}

// Set updates the lead time for p.
func (m *PreAdhanMinutes) Set(p Prayer, minutes int) {
	switch p {
	case Fajr:
		m.Fajr = minutes
	case Sunrise:
		m.Sunrise = minutes
	case Dhuhr:
		m.Dhuhr = minutes
	case Asr:
		m.Asr = minutes
	case Maghrib:
		m.Maghrib = minutes
	case Isha:
		m.Isha = minutes
	}
}
