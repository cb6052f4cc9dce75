package calc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smokyabdulrahman/prayer-timer/internal/logger"
	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
)

func torontoRequest() prayer.Request {
	return prayer.Request{
		Coordinates: prayer.Coordinates{Latitude: 43.6532, Longitude: -79.3832},
		Method:      prayer.MethodISNA,
		Filter:      prayer.FilterAll,
	}
}

func near(got, want time.Time, tol time.Duration) bool {
	d := got.Sub(want)
	if d < 0 {
		d = -d
	}
	return d <= tol
}

// ---------------------------------------------------------------------------
// AstroService
// ---------------------------------------------------------------------------

func TestEngine_Toronto(t *testing.T) {
	loc := zone(t, "America/Toronto")
	date := time.Date(2022, 2, 22, 0, 0, 0, 0, loc)
	svc := NewAstroService(logger.Nop())

	got := calculate(t, svc, date, torontoRequest())
	if len(got) != 8 {
		t.Fatalf("got %d windows, want 8", len(got))
	}

	next := date.AddDate(0, 0, 1)
	want := map[prayer.Prayer]time.Time{
		prayer.Fajr:      hm(date, 5, 46),
		prayer.Sunrise:   hm(date, 7, 5),
		prayer.Dhuhr:     hm(date, 12, 32),
		prayer.Asr:       hm(date, 15, 29),
		prayer.Maghrib:   hm(date, 17, 57),
		prayer.Isha:      hm(date, 19, 16),
		prayer.Midnight:  hm(date, 23, 51),
		prayer.LastThird: hm(next, 1, 49),
	}
	for _, w := range got {
		if !near(w.Start, want[w.Type], 4*time.Minute) {
			t.Errorf("%v = %s, want about %s", w.Type, w.Start.Format("15:04"), want[w.Type].Format("15:04"))
		}
	}
}

func TestEngine_Ordered(t *testing.T) {
	loc := zone(t, "America/Toronto")
	svc := NewAstroService(logger.Nop())
	req := torontoRequest()
	req.Filter = prayer.FilterEssential

	for d := time.Date(2024, 1, 1, 0, 0, 0, 0, loc); d.Year() == 2024; d = d.AddDate(0, 0, 9) {
		t.Run(d.Format(time.DateOnly), func(t *testing.T) {
			got := calculate(t, svc, d, req)
			if len(got) != 6 {
				t.Fatalf("got %d windows", len(got))
			}
			for i, w := range got {
				if !w.Start.Before(w.End) {
					t.Errorf("%v start %v not before end %v", w.Type, w.Start, w.End)
				}
				if i > 0 && !got[i-1].End.Equal(w.Start) {
					t.Errorf("%v does not start where %v ends", w.Type, got[i-1].Type)
				}
				if w.Start.Second() != 0 {
					t.Errorf("%v start %v not rounded", w.Type, w.Start)
				}
			}
		})
	}
}

func TestEngine_DefaultFilterIsEssential(t *testing.T) {
	loc := zone(t, "America/Toronto")
	req := torontoRequest()
	req.Filter = ""

	got := calculate(t, NewAstroService(logger.Nop()), time.Date(2024, 6, 1, 0, 0, 0, 0, loc), req)
	if len(got) != 6 {
		t.Errorf("got %d windows, want 6", len(got))
	}
}

func TestEngine_MethodShifts(t *testing.T) {
	loc := zone(t, "America/Toronto")
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, loc)
	svc := NewAstroService(logger.Nop())

	base := torontoRequest()
	base.Method = prayer.MethodMWL
	mwl := calculate(t, svc, date, base)

	// Moonsighting shares MWL's horizon events but adds a dhuhr offset.
	moon := base
	moon.Method = prayer.MethodMoonsighting
	shifted := calculate(t, svc, date, moon)

	d := find(t, shifted, prayer.Dhuhr).Start.Sub(find(t, mwl, prayer.Dhuhr).Start)
	if d != 5*time.Minute {
		t.Errorf("moonsighting dhuhr offset = %v, want 5m", d)
	}

	// Indonesia shares JAKIM's angles and shifts every prayer.
	jakim := base
	jakim.Method = prayer.MethodJAKIM
	plain := calculate(t, svc, date, jakim)
	indonesia := base
	indonesia.Method = prayer.MethodIndonesia
	got := calculate(t, svc, date, indonesia)

	want := map[prayer.Prayer]time.Duration{
		prayer.Fajr:    2 * time.Minute,
		prayer.Sunrise: -2 * time.Minute,
		prayer.Dhuhr:   3 * time.Minute,
		prayer.Asr:     2 * time.Minute,
		prayer.Maghrib: 2 * time.Minute,
		prayer.Isha:    2 * time.Minute,
	}
	for p, off := range want {
		if d := find(t, got, p).Start.Sub(find(t, plain, p).Start); d != off {
			t.Errorf("indonesia %v offset = %v, want %v", p, d, off)
		}
	}
}

func TestEngine_Errors(t *testing.T) {
	loc := zone(t, "America/Toronto")
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, loc)
	svc := NewAstroService(logger.Nop())

	tests := []struct {
		name string
		mod  func(*prayer.Request)
		want error
	}{
		{"unknown method", func(r *prayer.Request) { r.Method = "lunar" }, prayer.ErrInvalidParameters},
		{"custom without degrees", func(r *prayer.Request) { r.Method = prayer.MethodCustom }, prayer.ErrInvalidParameters},
		{"latitude out of range", func(r *prayer.Request) { r.Coordinates.Latitude = 95 }, prayer.ErrInvalidParameters},
		{"fajr after sunrise", func(r *prayer.Request) { r.Adjustments.Fajr = 180 }, prayer.ErrInvalidTimes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := torontoRequest()
			tt.mod(&req)
			_, err := svc.Calculate(context.Background(), date, loc, req)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEngine_Custom(t *testing.T) {
	loc := zone(t, "America/Toronto")
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, loc)
	svc := NewAstroService(logger.Nop())

	req := torontoRequest()
	req.Method = prayer.MethodCustom
	req.FajrDegrees, req.IshaDegrees = 15, 15
	custom := calculate(t, svc, date, req)
	isna := calculate(t, svc, date, torontoRequest())

	for i := range custom {
		if !custom[i].Start.Equal(isna[i].Start) {
			t.Errorf("%v: custom 15/15 = %v, isna = %v", custom[i].Type, custom[i].Start, isna[i].Start)
		}
	}
}

func TestEngine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAstroService(logger.Nop()).Calculate(ctx, time.Now(), time.UTC, torontoRequest())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// Methods
// ---------------------------------------------------------------------------

func TestMethods_Complete(t *testing.T) {
	for _, m := range prayer.Methods {
		if m.Method == prayer.MethodCustom {
			continue
		}
		if _, ok := methods[m.Method]; !ok {
			t.Errorf("method %q has no parameters", m.Method)
		}
	}
}

func TestLookup_DefaultsToMWL(t *testing.T) {
	m, err := lookup(prayer.Request{})
	if err != nil {
		t.Fatal(err)
	}
	if m != methods[prayer.MethodMWL] {
		t.Errorf("empty method = %+v, want MWL", m)
	}
}

func TestElevationRule(t *testing.T) {
	tests := []struct {
		name string
		req  prayer.Request
		want prayer.ElevationRule
	}{
		{"recommended low latitude", prayer.Request{Coordinates: prayer.Coordinates{Latitude: 30}}, prayer.MiddleOfTheNight},
		{"recommended high latitude", prayer.Request{Coordinates: prayer.Coordinates{Latitude: 55}}, prayer.SeventhOfTheNight},
		{"request rule", prayer.Request{ElevationRule: prayer.TwilightAngle}, prayer.TwilightAngle},
		{
			"adjustment override",
			prayer.Request{ElevationRule: prayer.TwilightAngle, Adjustments: prayer.Adjustments{ElevationRule: prayer.MiddleOfTheNight}},
			prayer.MiddleOfTheNight,
		},
		{
			"custom ignores override",
			prayer.Request{
				Method: prayer.MethodCustom, FajrDegrees: 15, IshaDegrees: 15,
				ElevationRule: prayer.TwilightAngle, Adjustments: prayer.Adjustments{ElevationRule: prayer.MiddleOfTheNight},
			},
			prayer.TwilightAngle,
		},
		{"method rule beats recommended", prayer.Request{Method: prayer.MethodFrance18, Coordinates: prayer.Coordinates{Latitude: 48.85}}, prayer.TwilightAngle},
		{"method rule beats request rule", prayer.Request{Method: prayer.MethodUIOF, ElevationRule: prayer.SeventhOfTheNight}, prayer.TwilightAngle},
		{"russia", prayer.Request{Method: prayer.MethodRussia, Coordinates: prayer.Coordinates{Latitude: 55.75}}, prayer.TwilightAngle},
		{
			"override beats method rule",
			prayer.Request{Method: prayer.MethodFrance15, Adjustments: prayer.Adjustments{ElevationRule: prayer.MiddleOfTheNight}},
			prayer.MiddleOfTheNight,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := lookup(tt.req)
			if err != nil {
				t.Fatal(err)
			}
			if got := m.elevationRule(tt.req); got != tt.want {
				t.Errorf("elevationRule = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAladhanSchool(t *testing.T) {
	if aladhanSchool(prayer.Hanafi) != 1 || aladhanSchool(prayer.Standard) != 0 || aladhanSchool("") != 0 {
		t.Error("school mapping wrong")
	}
}
