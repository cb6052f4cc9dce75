package config

import (
	"context"
	"slices"
	"testing"
	"time"
)

// --- ChangedGroups ---

func TestChangedGroups(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  []Group
	}{
		{"method", "isna", []Group{PrayerRecalculation, NotificationReschedule}},
		{"adjust_isha", "5", []Group{PrayerRecalculation, NotificationReschedule}},
		{"latitude", "21.42", []Group{PrayerRecalculation, NotificationReschedule, LocationUpdate}},
		{"timezone", "Asia/Riyadh", []Group{PrayerRecalculation, NotificationReschedule, LocationUpdate}},
		{"iqama_fajr", "+20", []Group{NotificationReschedule}},
		{"stopwatch_minutes", "15", []Group{NotificationReschedule}},
		{"time_format", "12h", nil},
		{"log_level", "debug", nil},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			old := Defaults()
			next := Defaults()
			if err := next.Set(tt.key, tt.value); err != nil {
				t.Fatal(err)
			}

			groups, changed := ChangedGroups(old, next)
			if !slices.Equal(changed, []string{tt.key}) {
				t.Errorf("changed = %v, want [%s]", changed, tt.key)
			}
			if len(groups) != len(tt.want) {
				t.Fatalf("groups = %v, want %v", groups, tt.want)
			}
			for _, g := range tt.want {
				if !slices.Contains(groups[g], tt.key) {
					t.Errorf("group %s = %v, missing %s", g, groups[g], tt.key)
				}
			}
		})
	}
}

func TestChangedGroups_NoChange(t *testing.T) {
	groups, changed := ChangedGroups(Defaults(), Defaults())
	if len(groups) != 0 || len(changed) != 0 {
		t.Errorf("identical configs reported %v / %v", groups, changed)
	}
}

// --- Bus ---

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	return Event{}
}

func assertQuiet(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Errorf("unexpected event %+v", ev)
	default:
	}
}

func TestBus_Publish(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	recalc := bus.Subscribe(PrayerRecalculation)
	notify := bus.Subscribe(NotificationReschedule)
	location := bus.Subscribe(LocationUpdate)

	old := Defaults()
	next := Defaults()
	if err := next.Set("iqama_dhuhr", "13:15"); err != nil {
		t.Fatal(err)
	}

	sent := bus.Publish(old, next)
	if !slices.Equal(sent, []Group{NotificationReschedule}) {
		t.Errorf("sent = %v, want [notificationReschedule]", sent)
	}

	ev := receive(t, notify)
	if ev.Group != NotificationReschedule || !slices.Equal(ev.Keys, []string{"iqama_dhuhr"}) {
		t.Errorf("event = %+v", ev)
	}
	if ev.Config.Iqama.Dhuhr == nil {
		t.Error("event should carry the new config")
	}
	assertQuiet(t, recalc)
	assertQuiet(t, location)
}

func TestBus_PublishLocation(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	recalc := bus.Subscribe(PrayerRecalculation)
	location := bus.Subscribe(LocationUpdate)

	next := Defaults()
	next.Latitude, next.Longitude = 21.4225, 39.8262
	bus.Publish(Defaults(), next)

	if ev := receive(t, location); !slices.Equal(ev.Keys, []string{"latitude", "longitude"}) {
		t.Errorf("location keys = %v", ev.Keys)
	}
	receive(t, recalc)
}

func TestBus_SubscribeAny(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	ch := bus.SubscribeAny(PrayerRecalculation, NotificationReschedule)

	// A zone change touches both groups but arrives once.
	zone := Defaults()
	if err := zone.Set("timezone", "Asia/Riyadh"); err != nil {
		t.Fatal(err)
	}
	bus.Publish(Defaults(), zone)
	ev := receive(t, ch)
	if ev.Group != PrayerRecalculation || !slices.Equal(ev.Keys, []string{"timezone"}) || ev.Config.Timezone != "Asia/Riyadh" {
		t.Errorf("event = %+v", ev)
	}
	assertQuiet(t, ch)

	iqama := zone
	if err := iqama.Set("iqama_fajr", "+20"); err != nil {
		t.Fatal(err)
	}
	bus.Publish(zone, iqama)
	if ev := receive(t, ch); ev.Group != NotificationReschedule || ev.Config.Timezone != "Asia/Riyadh" {
		t.Errorf("event = %+v", ev)
	}

	quiet := iqama
	quiet.TimeFormat = "12h"
	bus.Publish(iqama, quiet)
	assertQuiet(t, ch)
}

func TestWatch_AppliesInOrder(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Event, 8)
	done := Watch(ctx, bus, func(ev Event) { got <- ev })

	prev := Defaults()
	zones := []string{"Asia/Riyadh", "Europe/Paris", "UTC"}
	for _, z := range zones {
		next := prev
		if err := next.Set("timezone", z); err != nil {
			t.Fatal(err)
		}
		bus.Publish(prev, next)
		prev = next
	}
	for _, z := range zones {
		if ev := receive(t, got); ev.Config.Timezone != z {
			t.Errorf("applied %q, want %q", ev.Config.Timezone, z)
		}
	}
	assertQuiet(t, got)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not stop on cancel")
	}
}

func TestWatch_StopsOnClose(t *testing.T) {
	bus := NewBus()
	done := Watch(context.Background(), bus, func(Event) {})
	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not stop on close")
	}
}

func TestBus_FullSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	bus.Subscribe(NotificationReschedule) // never drained

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			next := Defaults()
			next.StopwatchMinutes = i + 1
			bus.Publish(Defaults(), next)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestBus_Close(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe(PrayerRecalculation)
	merged := bus.SubscribeAny(PrayerRecalculation, LocationUpdate)
	bus.Close()
	bus.Close()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}
	if _, ok := <-merged; ok {
		t.Error("SubscribeAny channel should be closed")
	}
	if sent := bus.Publish(Defaults(), Config{}); sent != nil {
		t.Errorf("closed bus sent %v", sent)
	}
	if _, ok := <-bus.Subscribe(LocationUpdate); ok {
		t.Error("subscribing to a closed bus should yield a closed channel")
	}
}
