// Package astro computes raw solar prayer times for one local date. Sunrise,
// sunset and solar noon come from suncalc; twilight and shadow based times
// are derived from the solar declination at noon.
package astro

import (
	"fmt"
	"math"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
)

// horizon is the apparent altitude of the sun's upper limb at rise and set.
const horizon = -0.833

// Params are the solar parameters of a calculation method.
type Params struct {
	FajrAngle float64
	IshaAngle float64
	// IshaInterval places isha a fixed number of minutes after maghrib.
	IshaInterval int
	// MaghribAngle places maghrib below the horizon; zero means sunset.
	MaghribAngle float64
	ShadowLength float64
	Rule         prayer.ElevationRule
}

// Times are the unadjusted instants for one date.
type Times struct {
	Fajr    time.Time
	Sunrise time.Time
	Dhuhr   time.Time
	Asr     time.Time
	Maghrib time.Time
	Isha    time.Time
}

// Compute returns the raw times for the calendar date of date in loc.
func Compute(date time.Time, loc *time.Location, c prayer.Coordinates, p Params) (Times, error) {
	if err := c.Validate(); err != nil {
		return Times{}, err
	}
	if loc == nil {
		loc = date.Location()
	}
	y, m, d := date.In(loc).Date()
	ref := time.Date(y, m, d, 12, 0, 0, 0, loc)

	st := suncalc.GetTimesWithObserver(ref, suncalc.Observer{
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		Location:  loc,
	})
	noon := project(st[suncalc.SolarNoon].Value, ref, loc)
	s := sun{lat: c.Latitude, decl: declination(noon), noon: noon}

	if _, ok := s.hourAngle(horizon); !ok {
		return Times{}, fmt.Errorf("%w: no sunrise at latitude %.4f on %s",
			prayer.ErrInvalidParameters, c.Latitude, ref.Format(time.DateOnly))
	}
	sunrise := project(st[suncalc.Sunrise].Value, ref, loc)
	sunset := project(st[suncalc.Sunset].Value, ref, loc)

	asr, ok := s.after(s.asrAltitude(p.ShadowLength))
	if !ok {
		return Times{}, fmt.Errorf("%w: asr altitude unreachable", prayer.ErrInvalidParameters)
	}

	maghrib := sunset
	if p.MaghribAngle > 0 {
		if t, ok := s.after(-p.MaghribAngle); ok {
			maghrib = t
		}
	}

	fajr, fajrOK := s.before(-p.FajrAngle)
	var isha time.Time
	ishaOK := true
	if p.IshaInterval > 0 {
		isha = maghrib.Add(time.Duration(p.IshaInterval) * time.Minute)
	} else {
		isha, ishaOK = s.after(-p.IshaAngle)
	}

	if p.Rule == prayer.ElevationNone {
		if !fajrOK || !ishaOK {
			return Times{}, fmt.Errorf("%w: twilight angles unreachable at latitude %.4f",
				prayer.ErrInvalidElevation, c.Latitude)
		}
	} else {
		night := 24*time.Hour - sunset.Sub(sunrise)

		safeFajr := sunrise.Add(-portion(p.Rule, p.FajrAngle, night))
		if !fajrOK || fajr.Before(safeFajr) {
			fajr = safeFajr
		}
		if p.IshaInterval <= 0 {
			safeIsha := sunset.Add(portion(p.Rule, p.IshaAngle, night))
			if !ishaOK || isha.After(safeIsha) {
				isha = safeIsha
			}
		}
	}

	return Times{
		Fajr:    fajr,
		Sunrise: sunrise,
		Dhuhr:   noon,
		Asr:     asr,
		Maghrib: maghrib,
		Isha:    isha,
	}, nil
}

// portion is the share of the night the elevation rule allows for twilight.
func portion(rule prayer.ElevationRule, angle float64, night time.Duration) time.Duration {
	var f float64
	switch rule {
	case prayer.MiddleOfTheNight:
		f = 1.0 / 2
	case prayer.SeventhOfTheNight:
		f = 1.0 / 7
	case prayer.TwilightAngle:
		f = angle / 60
	}
	return time.Duration(f * float64(night))
}

// project moves the clock time of v onto the calendar day of ref.
func project(v, ref time.Time, loc *time.Location) time.Time {
	v = v.In(loc)
	return time.Date(ref.Year(), ref.Month(), ref.Day(), v.Hour(), v.Minute(), v.Second(), 0, loc)
}

type sun struct {
	lat  float64
	decl float64
	noon time.Time
}

// hourAngle is the time from transit until the sun reaches altitude.
func (s sun) hourAngle(altitude float64) (time.Duration, bool) {
	phi, delta := rad(s.lat), rad(s.decl)
	cosH := (math.Sin(rad(altitude)) - math.Sin(phi)*math.Sin(delta)) / (math.Cos(phi) * math.Cos(delta))
	if cosH < -1 || cosH > 1 || math.IsNaN(cosH) {
		return 0, false
	}
	hours := deg(math.Acos(cosH)) / 15
	return time.Duration(hours * float64(time.Hour)), true
}

func (s sun) before(altitude float64) (time.Time, bool) {
	h, ok := s.hourAngle(altitude)
	return s.noon.Add(-h), ok
}

func (s sun) after(altitude float64) (time.Time, bool) {
	h, ok := s.hourAngle(altitude)
	return s.noon.Add(h), ok
}

// asrAltitude is the altitude at which an object's shadow is shadow times its
// height plus its noon shadow.
func (s sun) asrAltitude(shadow float64) float64 {
	if shadow <= 0 {
		shadow = 1
	}
	return deg(math.Atan(1 / (shadow + math.Tan(rad(math.Abs(s.lat-s.decl))))))
}

// declination of the sun in degrees at t, low precision.
func declination(t time.Time) float64 {
	d := julianDay(t) - 2451545.0
	g := rad(357.529 + 0.98560028*d)
	q := 280.459 + 0.98564736*d
	l := rad(q + 1.915*math.Sin(g) + 0.020*math.Sin(2*g))
	e := rad(23.439 - 0.00000036*d)
	return deg(math.Asin(math.Sin(e) * math.Sin(l)))
}

func julianDay(t time.Time) float64 {
	return float64(t.Unix())/86400 + 2440587.5
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }
