package config

import (
	"context"
	"slices"
	"sync"
)

// Group names a set of settings whose change requires the same follow-up.
type Group string

const (
	// PrayerRecalculation covers everything that changes the prayer windows.
	PrayerRecalculation Group = "prayerRecalculation"
	// NotificationReschedule covers everything that moves reminder instants.
	NotificationReschedule Group = "notificationReschedule"
	// LocationUpdate covers the position and time zone.
	LocationUpdate Group = "locationUpdate"
)

// Groups lists every group in a stable order.
var Groups = []Group{PrayerRecalculation, NotificationReschedule, LocationUpdate}

// Event is delivered to subscribers when a change touches their group.
type Event struct {
	Group  Group
	Keys   []string
	Config Config
}

// ChangedGroups compares two configs key by key and returns the groups that
// the differing keys belong to, together with those keys.
func ChangedGroups(prev, next Config) (map[Group][]string, []string) {
	groups := map[Group][]string{}
	var changed []string
	for _, k := range keys {
		if k.get(&prev) == k.get(&next) {
			continue
		}
		changed = append(changed, k.name)
		for _, g := range k.groups {
			groups[g] = append(groups[g], k.name)
		}
	}
	return groups, changed
}

// Bus fans configuration changes out to subscribers by group. Delivery is
// non-blocking: a subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.Mutex
	subs   map[Group][]chan Event
	multi  []multiSub
	closed bool
}

// multiSub receives one event per published change touching any of groups.
type multiSub struct {
	groups []Group
	ch     chan Event
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Group][]chan Event)}
}

// Subscribe returns a channel receiving events for group. The channel is
// closed by Close.
func (b *Bus) Subscribe(group Group) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, 8)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[group] = append(b.subs[group], ch)
	return ch
}

// SubscribeAny returns a channel receiving a single event for every published
// change that touches at least one of groups. The event carries the first
// touched group and the changed keys of all of them, so changes arrive in
// publish order. The channel is closed by Close.
func (b *Bus) SubscribeAny(groups ...Group) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, 8)
	if b.closed {
		close(ch)
		return ch
	}
	b.multi = append(b.multi, multiSub{groups: slices.Clone(groups), ch: ch})
	return ch
}

// Publish diffs prev against next and notifies every touched group. It returns
// the groups that were notified.
func (b *Bus) Publish(prev, next Config) []Group {
	groups, _ := ChangedGroups(prev, next)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	var sent []Group
	for _, g := range Groups {
		names, ok := groups[g]
		if !ok {
			continue
		}
		sent = append(sent, g)
		for _, ch := range b.subs[g] {
			select {
			case ch <- Event{Group: g, Keys: slices.Clone(names), Config: next}:
			default:
			}
		}
	}
	for _, sub := range b.multi {
		ev, ok := merge(sub.groups, groups, next)
		if !ok {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
	return sent
}

// merge folds the touched groups among want into one event.
func merge(want []Group, touched map[Group][]string, next Config) (Event, bool) {
	var ev Event
	for _, g := range Groups {
		names, ok := touched[g]
		if !ok || !slices.Contains(want, g) {
			continue
		}
		if ev.Group == "" {
			ev.Group = g
		}
		for _, n := range names {
			if !slices.Contains(ev.Keys, n) {
				ev.Keys = append(ev.Keys, n)
			}
		}
	}
	if ev.Group == "" {
		return Event{}, false
	}
	ev.Config = next
	return ev, true
}

// Close closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	for _, sub := range b.multi {
		close(sub.ch)
	}
	b.subs, b.multi = nil, nil
}

// Watch calls apply for every change that moves the prayer windows or the
// timer settings until ctx is done or the bus closes. Each change is applied
// once and in publish order, so consumers can take the request, zone and
// settings from the same event. The returned channel is closed when watching
// stops.
func Watch(ctx context.Context, bus *Bus, apply func(Event)) <-chan struct{} {
	events := bus.SubscribeAny(PrayerRecalculation, NotificationReschedule)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				apply(ev)
			}
		}
	}()
	return done
}
