package calc

import (
	"fmt"
	"time"

	"github.com/smokyabdulrahman/prayer-timer/internal/astro"
	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
)

// method is the parameter set of one calculation method. Minute offsets are
// part of the method itself and apply before user adjustments.
type method struct {
	fajr         float64
	isha         float64
	ishaInterval int
	maghrib      float64
	sunrise      int
	dhuhr        int
	asr          int
	maghribShift int
	fajrShift    int
	ishaShift    int
	// rule is the high-latitude rule the method prescribes. It yields only
	// to an explicit adjustments override.
	rule prayer.ElevationRule
	// aladhan is the Al Adhan API method id used when the request is served
	// from that timetable.
	aladhan int
}

var methods = map[prayer.Method]method{
	prayer.MethodMWL:           {fajr: 18, isha: 17, aladhan: 3},
	prayer.MethodISNA:          {fajr: 15, isha: 15, aladhan: 2},
	prayer.MethodMoonsighting:  {fajr: 18, isha: 18, dhuhr: 5, maghribShift: 3, aladhan: 15},
	prayer.MethodEgypt:         {fajr: 19.5, isha: 17.5, aladhan: 5},
	prayer.MethodAlgerian:      {fajr: 18, isha: 17, aladhan: 19},
	prayer.MethodTunisian:      {fajr: 18, isha: 18, aladhan: 18},
	prayer.MethodMakkah:        {fajr: 18.5, ishaInterval: 90, aladhan: 4},
	prayer.MethodMakkahRamadan: {fajr: 18.5, ishaInterval: 90, aladhan: 4},
	prayer.MethodDubai:         {fajr: 18.2, isha: 18.2, sunrise: -3, dhuhr: 3, asr: 3, maghribShift: 3, aladhan: 16},
	prayer.MethodKuwait:        {fajr: 18, isha: 17.5, aladhan: 9},
	prayer.MethodQatar:         {fajr: 18, ishaInterval: 90, aladhan: 10},
	prayer.MethodKarachi:       {fajr: 18, isha: 18, aladhan: 1},
	prayer.MethodSingapore:     {fajr: 20, isha: 18, dhuhr: 1, aladhan: 11},
	prayer.MethodJAKIM:         {fajr: 20, isha: 18, aladhan: 17},
	prayer.MethodIndonesia:     {fajr: 20, isha: 18, fajrShift: 2, sunrise: -2, dhuhr: 3, asr: 2, maghribShift: 2, ishaShift: 2, aladhan: 20},
	prayer.MethodTurkey:        {fajr: 18, isha: 17, sunrise: -7, dhuhr: 5, asr: 4, maghribShift: 7, aladhan: 13},
	prayer.MethodMorocco:       {fajr: 19.1, isha: 17, dhuhr: 5, maghribShift: 4, aladhan: 21},
	prayer.MethodTehran:        {fajr: 17.7, isha: 14, maghrib: 4.5, aladhan: 7},
	prayer.MethodUIOF:          {fajr: 12, isha: 12, aladhan: 12, rule: prayer.TwilightAngle},
	prayer.MethodFrance15:      {fajr: 15, isha: 15, aladhan: 3, rule: prayer.TwilightAngle},
	prayer.MethodFrance18:      {fajr: 18, isha: 18, aladhan: 3, rule: prayer.TwilightAngle},
	prayer.MethodRussia:        {fajr: 16, isha: 15, aladhan: 14, rule: prayer.TwilightAngle},
	prayer.MethodShia:          {fajr: 16, isha: 14, maghrib: 4, aladhan: 0},
	// London is served from its timetable; its solar fallback is MWL.
	prayer.MethodLondon: {fajr: 18, isha: 17, aladhan: 3},
}

// lookup resolves the method of req, defaulting to MWL. The custom method
// takes its angles from the request.
func lookup(req prayer.Request) (method, error) {
	if req.Method == prayer.MethodCustom {
		if req.FajrDegrees <= 0 || req.IshaDegrees <= 0 {
			return method{}, fmt.Errorf("%w: custom method needs fajr and isha degrees", prayer.ErrInvalidParameters)
		}
		return method{fajr: req.FajrDegrees, isha: req.IshaDegrees, maghrib: req.MaghribDegrees, aladhan: 3}, nil
	}
	if req.Method == "" {
		return methods[prayer.MethodMWL], nil
	}
	m, ok := methods[req.Method]
	if !ok {
		return method{}, fmt.Errorf("%w: unknown method %q", prayer.ErrInvalidParameters, req.Method)
	}
	return m, nil
}

// elevationRule picks the high-latitude rule. The adjustments override wins,
// except for the custom method which keeps the request's own rule. A method
// with a fixed rule comes next.
func (m method) elevationRule(req prayer.Request) prayer.ElevationRule {
	if req.Method != prayer.MethodCustom && req.Adjustments.ElevationRule != prayer.ElevationNone {
		return req.Adjustments.ElevationRule
	}
	if m.rule != prayer.ElevationNone {
		return m.rule
	}
	if req.ElevationRule != prayer.ElevationNone {
		return req.ElevationRule
	}
	return prayer.Recommended(req.Coordinates.Latitude)
}

func (m method) params(req prayer.Request) astro.Params {
	return astro.Params{
		FajrAngle:    m.fajr,
		IshaAngle:    m.isha,
		IshaInterval: m.ishaInterval,
		MaghribAngle: m.maghrib,
		ShadowLength: req.Madhab.ShadowLength(),
		Rule:         m.elevationRule(req),
	}
}

// shift applies the method's own minute offsets to raw engine output.
func (m method) shift(t astro.Times) astro.Times {
	t.Fajr = t.Fajr.Add(time.Duration(m.fajrShift) * time.Minute)
	t.Sunrise = t.Sunrise.Add(time.Duration(m.sunrise) * time.Minute)
	t.Dhuhr = t.Dhuhr.Add(time.Duration(m.dhuhr) * time.Minute)
	t.Asr = t.Asr.Add(time.Duration(m.asr) * time.Minute)
	t.Maghrib = t.Maghrib.Add(time.Duration(m.maghribShift) * time.Minute)
	t.Isha = t.Isha.Add(time.Duration(m.ishaShift) * time.Minute)
	return t
}

// aladhanSchool maps the madhab onto the Al Adhan school parameter.
func aladhanSchool(m prayer.Madhab) int {
	if m == prayer.Hanafi {
		return 1
	}
	return 0
}
