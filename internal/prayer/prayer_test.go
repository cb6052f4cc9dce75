package prayer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%q): %v", name, err)
	}
	return loc
}

// ---------------------------------------------------------------------------
// Prayer enumeration
// ---------------------------------------------------------------------------

func TestPrayer_Classification(t *testing.T) {
	tests := []struct {
		p          Prayer
		obligation bool
		essential  bool
		sunnah     bool
	}{
		{Fajr, true, true, false},
		{Sunrise, false, true, false},
		{Dhuhr, true, true, false},
		{Asr, true, true, false},
		{Maghrib, true, true, false},
		{Isha, true, true, false},
		{Midnight, false, false, true},
		{LastThird, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.p.String(), func(t *testing.T) {
			if got := tt.p.IsObligation(); got != tt.obligation {
				t.Errorf("IsObligation() = %v, want %v", got, tt.obligation)
			}
			if got := tt.p.IsEssential(); got != tt.essential {
				t.Errorf("IsEssential() = %v, want %v", got, tt.essential)
			}
			if got := tt.p.IsSunnah(); got != tt.sunnah {
				t.Errorf("IsSunnah() = %v, want %v", got, tt.sunnah)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		raw     string
		want    Prayer
		wantErr bool
	}{
		{"fajr", Fajr, false},
		{"Fajr", Fajr, false},
		{" ISHA ", Isha, false},
		{"lastThird", LastThird, false},
		{"Last Third", LastThird, false},
		{"jumuah", Dhuhr, false},
		{"imsak", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPrayer_JSONRoundTripAsText(t *testing.T) {
	data, err := json.Marshal(map[string]Prayer{"p": Maghrib})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"p":"maghrib"}` {
		t.Errorf("json = %s, want maghrib identifier", data)
	}

	var out struct{ P Prayer }
	if err := json.Unmarshal([]byte(`{"P":"asr"}`), &out); err != nil {
		t.Fatal(err)
	}
	if out.P != Asr {
		t.Errorf("decoded %v, want asr", out.P)
	}
}

func TestShortNames_AllPrayers(t *testing.T) {
	for _, p := range All {
		if p.Short() == "" {
			t.Errorf("missing short name for %v", p)
		}
	}
}

// ---------------------------------------------------------------------------
// Time window
// ---------------------------------------------------------------------------

func TestTime_ContainsIsHalfOpen(t *testing.T) {
	start := time.Date(2022, 11, 26, 12, 10, 0, 0, time.UTC)
	pt := Time{Type: Dhuhr, Start: start, End: start.Add(2 * time.Hour)}

	if !pt.Contains(start) {
		t.Error("window should contain its start")
	}
	if pt.Contains(pt.End) {
		t.Error("window should not contain its end")
	}
	if pt.Contains(start.Add(-time.Second)) {
		t.Error("window should not contain instants before start")
	}
	if pt.Duration() != 2*time.Hour {
		t.Errorf("Duration() = %v, want 2h", pt.Duration())
	}
}

func TestTime_MarshalJSONIncludesTitle(t *testing.T) {
	start := time.Date(2022, 11, 26, 1, 46, 0, 0, time.UTC)
	data, err := json.Marshal(Time{Type: LastThird, Start: start, End: start.Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, `"type":"lastThird"`) || !strings.Contains(s, `"title":"Last Third"`) {
		t.Errorf("unexpected json %s", s)
	}
}

// ---------------------------------------------------------------------------
// ParseClock
// ---------------------------------------------------------------------------

func TestParseClock(t *testing.T) {
	date := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		raw     string
		wantH   int
		wantM   int
		wantErr bool
	}{
		{"simple HH:MM", "15:02", 15, 2, false},
		{"midnight", "00:00", 0, 0, false},
		{"with timezone suffix", "15:02 (BST)", 15, 2, false},
		{"with spaces and suffix", "  05:17  (EET) ", 5, 17, false},
		{"invalid format", "bad", 0, 0, true},
		{"empty string", "", 0, 0, true},
		{"missing minute", "15:", 0, 0, true},
		{"non-numeric", "ab:cd", 0, 0, true},
		{"hour out of range", "25:00", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClock(tt.raw, date, time.UTC)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseClock(%q) expected error, got nil", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClock(%q) unexpected error: %v", tt.raw, err)
			}
			if got.Hour() != tt.wantH || got.Minute() != tt.wantM {
				t.Errorf("ParseClock(%q) = %02d:%02d, want %02d:%02d",
					tt.raw, got.Hour(), got.Minute(), tt.wantH, tt.wantM)
			}
			if got.Year() != 2026 || got.Month() != 2 || got.Day() != 28 {
				t.Errorf("ParseClock(%q) wrong date: got %v", tt.raw, got.Format("2006-01-02"))
			}
		})
	}
}

func TestParseClock_Location(t *testing.T) {
	riyadh := mustZone(t, "Asia/Riyadh")
	date := time.Date(2026, 2, 28, 0, 0, 0, 0, riyadh)

	got, err := ParseClock("05:17", date, riyadh)
	if err != nil {
		t.Fatal(err)
	}
	if got.Location() != riyadh {
		t.Errorf("location = %v, want Asia/Riyadh", got.Location())
	}
}

// ---------------------------------------------------------------------------
// FormatRemaining
// ---------------------------------------------------------------------------

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"hours and minutes", 2*time.Hour + 15*time.Minute, "2h 15m"},
		{"exact hours", 3 * time.Hour, "3h 0m"},
		{"minutes only", 45 * time.Minute, "45m"},
		{"zero", 0, "0m"},
		{"negative", -5 * time.Minute, "0m"},
		{"seconds truncated", 90 * time.Second, "1m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatRemaining(tt.duration)
			if got != tt.want {
				t.Errorf("FormatRemaining(%v) = %q, want %q", tt.duration, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

func TestFilter_Includes(t *testing.T) {
	tests := []struct {
		filter  Filter
		sunrise bool
		sunnah  bool
	}{
		{FilterAll, true, true},
		{FilterEssential, true, false},
		{FilterObligation, false, false},
		{FilterSunnah, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			if !tt.filter.Includes(Fajr) || !tt.filter.Includes(Isha) {
				t.Error("obligations must always be included")
			}
			if got := tt.filter.Includes(Sunrise); got != tt.sunrise {
				t.Errorf("Includes(sunrise) = %v, want %v", got, tt.sunrise)
			}
			if got := tt.filter.Includes(Midnight); got != tt.sunnah {
				t.Errorf("Includes(midnight) = %v, want %v", got, tt.sunnah)
			}
		})
	}
}

func TestAdjustments_IsEmpty(t *testing.T) {
	if !(Adjustments{}).IsEmpty() {
		t.Error("zero adjustments should be empty")
	}
	if !(Adjustments{FajrSunriseRelative: true}).IsEmpty() {
		t.Error("relative flags alone do not make adjustments non-empty")
	}
	if (Adjustments{Asr: 1}).IsEmpty() {
		t.Error("non-zero delta should not be empty")
	}
	if (Adjustments{ElevationRule: TwilightAngle}).IsEmpty() {
		t.Error("elevation override should not be empty")
	}
}

func TestRequest_Source(t *testing.T) {
	if got := (Request{Method: MethodLondon}).Source(); got != SourceLondon {
		t.Errorf("london method source = %q, want %q", got, SourceLondon)
	}
	if got := (Request{Method: MethodISNA, Timetable: SourceAladhan}).Source(); got != SourceAladhan {
		t.Errorf("explicit timetable source = %q, want %q", got, SourceAladhan)
	}
	if got := (Request{Method: MethodISNA}).Source(); got != SourceEngine {
		t.Errorf("engine source = %q, want empty", got)
	}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("MakkahRamadan")
	if err != nil || m != MethodMakkahRamadan {
		t.Errorf("ParseMethod = %q, %v", m, err)
	}
	if _, err := ParseMethod("nope"); err == nil {
		t.Error("expected error for unknown method")
	}
}

func TestCoordinates_Validate(t *testing.T) {
	if err := (Coordinates{Latitude: 91}).Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("Validate() = %v, want ErrInvalidParameters", err)
	}
	if err := (Coordinates{Latitude: 40.7, Longitude: -74}).Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestRecommended(t *testing.T) {
	if Recommended(51.5) != SeventhOfTheNight {
		t.Error("high latitude should recommend seventh of the night")
	}
	if Recommended(21.4) != MiddleOfTheNight {
		t.Error("low latitude should recommend middle of the night")
	}
}

func TestParseInstant(t *testing.T) {
	riyadh := mustZone(t, "Asia/Riyadh")
	fallback := time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)

	tests := []struct {
		raw     string
		want    time.Time
		wantErr bool
	}{
		{"", fallback, false},
		{"2024-03-04T10:00:00Z", time.Date(2024, 3, 4, 13, 0, 0, 0, riyadh), false},
		{"2024-03-04T10:00", time.Date(2024, 3, 4, 10, 0, 0, 0, riyadh), false},
		{"2024-03-04", time.Date(2024, 3, 4, 0, 0, 0, 0, riyadh), false},
		{"March 4", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseInstant(tt.raw, riyadh, fallback)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (!got.Equal(tt.want) || got.Location() != riyadh) {
				t.Errorf("got %v, want %v in Asia/Riyadh", got, tt.want)
			}
		})
	}
}
