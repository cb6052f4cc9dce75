package prayer

import (
	"fmt"
	"time"

	"github.com/hablullah/go-hijri"
)

// HijriMonths are the transliterated month names, Muharram first.
var HijriMonths = [12]string{
	"Muharram", "Safar", "Rabi' al-Awwal", "Rabi' al-Thani",
	"Jumada al-Ula", "Jumada al-Akhirah", "Rajab", "Sha'ban",
	"Ramadan", "Shawwal", "Dhu al-Qa'dah", "Dhu al-Hijjah",
}

// HijriDate is a date on the Umm al-Qura calendar.
type HijriDate struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// ToHijri converts the calendar day of date, read in date's own location.
// Dates outside 1937-2077 are not covered by the Umm al-Qura table.
func ToHijri(date time.Time) (HijriDate, error) {
	noon := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, time.UTC)
	h, err := hijri.CreateUmmAlQuraDate(noon)
	if err != nil {
		return HijriDate{}, fmt.Errorf("hijri date of %s: %w", date.Format(time.DateOnly), err)
	}
	return HijriDate{Day: int(h.Day), Month: int(h.Month), Year: int(h.Year)}, nil
}

// MonthName returns the month's name, or "" when out of range.
func (h HijriDate) MonthName() string {
	if h.Month < 1 || h.Month > 12 {
		return ""
	}
	return HijriMonths[h.Month-1]
}

// IsRamadan reports whether h falls in the ninth month.
func (h HijriDate) IsRamadan() bool { return h.Month == 9 }

// Format renders "10 Sha'ban 1447 AH", or "" for an invalid date.
func (h HijriDate) Format() string {
	if h.Day == 0 || h.Year == 0 || h.MonthName() == "" {
		return ""
	}
	return fmt.Sprintf("%d %s %d AH", h.Day, h.MonthName(), h.Year)
}
