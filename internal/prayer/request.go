package prayer

import (
	"fmt"
	"strings"
)

// Method names a calculation method. Most map to a fixed parameter set for
// the astronomical engine; London is served from a published timetable.
type Method string

const (
	MethodMWL           Method = "mwl"
	MethodISNA          Method = "isna"
	MethodMoonsighting  Method = "moonsighting"
	MethodEgypt         Method = "egypt"
	MethodAlgerian      Method = "algerian"
	MethodTunisian      Method = "tunisian"
	MethodLondon        Method = "london"
	MethodMakkah        Method = "makkah"
	MethodMakkahRamadan Method = "makkahRamadan"
	MethodDubai         Method = "dubai"
	MethodKuwait        Method = "kuwait"
	MethodQatar         Method = "qatar"
	MethodKarachi       Method = "karachi"
	MethodSingapore     Method = "singapore"
	MethodJAKIM         Method = "jakim"
	MethodIndonesia     Method = "indonesia"
	MethodTurkey        Method = "turkey"
	MethodMorocco       Method = "morocco"
	MethodTehran        Method = "tehran"
	MethodUIOF          Method = "uiof"
	MethodFrance15      Method = "france15"
	MethodFrance18      Method = "france18"
	MethodRussia        Method = "russia"
	MethodShia          Method = "shia"
	MethodCustom        Method = "custom"
)

// Methods lists every method with a human readable name, in menu order.
var Methods = []struct {
	Method Method
	Name   string
}{
	{MethodMWL, "Muslim World League"},
	{MethodISNA, "Islamic Society of North America"},
	{MethodMoonsighting, "Moonsighting Committee Worldwide"},
	{MethodEgypt, "Egyptian General Authority of Survey"},
	{MethodAlgerian, "Algerian Ministry of Religious Affairs"},
	{MethodTunisian, "Tunisian Ministry of Religious Affairs"},
	{MethodLondon, "London Unified Prayer Times (timetable)"},
	{MethodMakkah, "Umm Al-Qura University, Makkah"},
	{MethodMakkahRamadan, "Umm Al-Qura University, Makkah (Ramadan isha +30m)"},
	{MethodDubai, "Dubai"},
	{MethodKuwait, "Kuwait"},
	{MethodQatar, "Qatar"},
	{MethodKarachi, "University of Islamic Sciences, Karachi"},
	{MethodSingapore, "Majlis Ugama Islam Singapura"},
	{MethodJAKIM, "JAKIM (Malaysia)"},
	{MethodIndonesia, "KEMENAG (Indonesia)"},
	{MethodTurkey, "Diyanet Isleri Baskanligi, Turkey"},
	{MethodMorocco, "Ministry of Habous and Islamic Affairs, Morocco"},
	{MethodTehran, "Institute of Geophysics, University of Tehran"},
	{MethodUIOF, "Union des Organisations Islamiques de France"},
	{MethodFrance15, "France (15 degrees)"},
	{MethodFrance18, "France (18 degrees)"},
	{MethodRussia, "Spiritual Administration of Muslims of Russia"},
	{MethodShia, "Shia Ithna-Ashari (Jafari)"},
	{MethodCustom, "Custom angles"},
}

// ParseMethod resolves a method name case-insensitively.
func ParseMethod(s string) (Method, error) {
	for _, m := range Methods {
		if strings.EqualFold(string(m.Method), strings.TrimSpace(s)) {
			return m.Method, nil
		}
	}
	return "", fmt.Errorf("unknown calculation method %q", s)
}

// Madhab selects the jurisprudence used for the asr shadow length.
type Madhab string

const (
	Standard Madhab = "standard"
	Hanafi   Madhab = "hanafi"
)

// ShadowLength is the asr shadow factor.
func (m Madhab) ShadowLength() float64 {
	if m == Hanafi {
		return 2
	}
	return 1
}

// ElevationRule picks the high-latitude fallback used when twilight angles
// cannot be reached.
type ElevationRule string

const (
	ElevationNone     ElevationRule = ""
	MiddleOfTheNight  ElevationRule = "middleOfTheNight"
	SeventhOfTheNight ElevationRule = "seventhOfTheNight"
	TwilightAngle     ElevationRule = "twilightAngle"
)

const recommendedMinLatitude = 48.0

// Recommended returns the rule to use at the given latitude when none is set.
func Recommended(latitude float64) ElevationRule {
	if latitude > recommendedMinLatitude || latitude < -recommendedMinLatitude {
		return SeventhOfTheNight
	}
	return MiddleOfTheNight
}

// Filter selects which prayers a calculation emits.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterObligation Filter = "obligation"
	FilterEssential  Filter = "essential"
	FilterSunnah     Filter = "sunnah"
)

// Includes reports whether p is emitted under the filter. Obligations are
// always emitted; sunrise only for all/essential; sunnah only for all/sunnah.
func (f Filter) Includes(p Prayer) bool {
	switch {
	case p.IsObligation():
		return true
	case p == Sunrise:
		return f == FilterAll || f == FilterEssential || f == ""
	case p.IsSunnah():
		return f == FilterAll || f == FilterSunnah
	}
	return false
}

// Timetable sources for the table-based calculation variant.
const (
	SourceEngine  = ""
	SourceLondon  = "london"
	SourceAladhan = "aladhan"
)

// Coordinates is a point on the earth.
type Coordinates struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Validate checks the coordinate ranges.
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidParameters, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidParameters, c.Longitude)
	}
	return nil
}

// Request carries everything a calculation needs besides the date and zone.
type Request struct {
	Coordinates    Coordinates
	Method         Method
	Madhab         Madhab
	ElevationRule  ElevationRule
	FajrDegrees    float64
	MaghribDegrees float64
	IshaDegrees    float64
	Adjustments    Adjustments
	Filter         Filter
	// Timetable overrides the astronomical engine with a fetched table.
	Timetable string
}

// Source returns the timetable backing the request, SourceEngine for the
// astronomical engine.
func (r Request) Source() string {
	if r.Method == MethodLondon {
		return SourceLondon
	}
	return r.Timetable
}

// Adjustments are per-prayer minute offsets plus the relative anchoring
// switches and an optional elevation rule override.
type Adjustments struct {
	Fajr    int `json:"fajr,omitempty" yaml:"fajr,omitempty"`
	Sunrise int `json:"sunrise,omitempty" yaml:"sunrise,omitempty"`
	Dhuhr   int `json:"dhuhr,omitempty" yaml:"dhuhr,omitempty"`
	Asr     int `json:"asr,omitempty" yaml:"asr,omitempty"`
	Maghrib int `json:"maghrib,omitempty" yaml:"maghrib,omitempty"`
	Isha    int `json:"isha,omitempty" yaml:"isha,omitempty"`

	FajrSunriseRelative bool          `json:"fajr_sunrise_relative,omitempty" yaml:"fajr_sunrise_relative,omitempty"`
	IshaMaghribRelative bool          `json:"isha_maghrib_relative,omitempty" yaml:"isha_maghrib_relative,omitempty"`
	ElevationRule       ElevationRule `json:"elevation_rule,omitempty" yaml:"elevation_rule,omitempty"`
}

// IsEmpty reports whether every delta is zero and no elevation override is set.
func (a Adjustments) IsEmpty() bool {
	return a.Fajr == 0 && a.Sunrise == 0 && a.Dhuhr == 0 &&
		a.Asr == 0 && a.Maghrib == 0 && a.Isha == 0 &&
		a.ElevationRule == ElevationNone
}

// Minutes returns the offset configured for p.
func (a Adjustments) Minutes(p Prayer) int {
	switch p {
	case Fajr:
		return a.Fajr
	case Sunrise:
		return a.Sunrise
	case Dhuhr:
		return a.Dhuhr
	case Asr:
		return a.Asr
	case Maghrib:
		return a.Maghrib
	case Isha:
		return a.Isha
	}
	return 0
}
