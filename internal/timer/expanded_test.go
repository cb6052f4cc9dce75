package timer

import (
	"testing"
	"time"

	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
)

func TestExpandedInstants(t *testing.T) {
	day := dayOn(t, 2022, 11, 26)
	s := masjidSettings(t)

	hm := func(h, m int) time.Time { return clock(day, h, m) }

	tests := []struct {
		name   string
		prayer prayer.Prayer
		mutate func(*Settings)
		want   []time.Time
	}{
		{
			name:   "dhuhr with reminder, stopwatch and iqama",
			prayer: prayer.Dhuhr,
			want:   []time.Time{hm(11, 50), hm(12, 10), hm(12, 30), hm(12, 45)},
		},
		{
			name:   "maghrib relative iqama",
			prayer: prayer.Maghrib,
			want:   []time.Time{hm(17, 12), hm(17, 32), hm(17, 40), hm(17, 52)},
		},
		{
			name:   "iqama disabled",
			prayer: prayer.Dhuhr,
			mutate: func(s *Settings) { s.IqamaEnabled = false },
			want:   []time.Time{hm(11, 50), hm(12, 10), hm(12, 30)},
		},
		{
			name:   "reminder longer than window dropped",
			prayer: prayer.Maghrib,
			mutate: func(s *Settings) {
				s.PreAdhan.Maghrib = 60
				s.IqamaEnabled = false
				s.StopwatchMinutes = 0
			},
			want: []time.Time{hm(17, 32)},
		},
		{
			name:   "coinciding iqama and stopwatch collapse",
			prayer: prayer.Maghrib,
			mutate: func(s *Settings) {
				s.IqamaTimes.Maghrib = prayer.MinutesAfter(20)
				s.PreAdhan.Maghrib = 0
			},
			want: []time.Time{hm(17, 32), hm(17, 52)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := s
			if tt.mutate != nil {
				tt.mutate(&settings)
			}
			pt, ok := day.Find(tt.prayer)
			if !ok {
				t.Fatalf("fixture has no %v", tt.prayer)
			}
			got := ExpandedInstants(pt, settings)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d instants %v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if !got[i].Equal(tt.want[i]) {
					t.Errorf("[%d] = %v, want %v", i, got[i].Format("15:04"), tt.want[i].Format("15:04"))
				}
			}
		})
	}
}

func TestSortInstants(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	in := []time.Time{base.Add(time.Hour), base, base.Add(time.Hour), base.Add(-time.Minute)}

	got := SortInstants(in)

	want := []time.Time{base.Add(-time.Minute), base, base.Add(time.Hour)}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
