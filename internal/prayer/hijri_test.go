package prayer

import (
	"testing"
	"time"
)

func TestToHijri(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		date time.Time
		want HijriDate
	}{
		{"first of ramadan", time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC), HijriDate{1, 9, 1445}},
		{"ramadan", time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), HijriDate{10, 9, 1445}},
		// 00:30 in Tokyo is still the previous day in UTC.
		{"local calendar day", time.Date(2024, 3, 11, 0, 30, 0, 0, tokyo), HijriDate{1, 9, 1445}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToHijri(tt.date)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ToHijri = %+v, want %+v", got, tt.want)
			}
			if !got.IsRamadan() {
				t.Error("IsRamadan = false")
			}
		})
	}
}

func TestToHijri_OutOfScope(t *testing.T) {
	if _, err := ToHijri(time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Error("dates past 2077 should fail")
	}
}

func TestHijriDate_Format(t *testing.T) {
	tests := []struct {
		name string
		h    HijriDate
		want string
	}{
		{"full date", HijriDate{Day: 10, Month: 8, Year: 1447}, "10 Sha'ban 1447 AH"},
		{"first month", HijriDate{Day: 1, Month: 1, Year: 1448}, "1 Muharram 1448 AH"},
		{"zero day returns empty", HijriDate{Month: 9, Year: 1447}, ""},
		{"bad month returns empty", HijriDate{Day: 15, Month: 13, Year: 1447}, ""},
		{"zero year returns empty", HijriDate{Day: 15, Month: 9}, ""},
		{"all empty returns empty", HijriDate{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.h.Format(); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}
