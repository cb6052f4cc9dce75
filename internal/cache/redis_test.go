package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/smokyabdulrahman/prayer-timer/internal/geo"
)

func newRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRedis(RedisOptions{Addr: mr.Addr(), Prefix: "pt:"})
	t.Cleanup(func() { r.Close() })
	return r, mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	r, mr := newRedis(t)
	ctx := context.Background()

	if err := r.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := r.Set(ctx, "year", sampleEntry{Fajr: "05:17", Isha: "19:10"}, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("pt:year") {
		t.Error("key not stored under prefix")
	}

	var got sampleEntry
	if err := r.Get(ctx, "year", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Fajr != "05:17" || got.Isha != "19:10" {
		t.Errorf("got %+v", got)
	}
}

func TestRedisStore_Miss(t *testing.T) {
	r, _ := newRedis(t)

	var got sampleEntry
	if err := r.Get(context.Background(), "absent", &got); !errors.Is(err, ErrMiss) {
		t.Errorf("Get = %v, want ErrMiss", err)
	}
}

func TestRedisStore_Expiry(t *testing.T) {
	r, mr := newRedis(t)
	ctx := context.Background()

	_ = r.Set(ctx, "year", sampleEntry{Fajr: "05:17"}, time.Minute)
	mr.FastForward(2 * time.Minute)

	var got sampleEntry
	if err := r.Get(ctx, "year", &got); !errors.Is(err, ErrMiss) {
		t.Errorf("Get = %v, want ErrMiss after expiry", err)
	}
}

func TestRedisStore_CorruptValue(t *testing.T) {
	r, mr := newRedis(t)

	mr.Set("pt:year", "{bad json")

	var got sampleEntry
	err := r.Get(context.Background(), "year", &got)
	if err == nil || errors.Is(err, ErrMiss) {
		t.Errorf("Get = %v, want decode error", err)
	}
}

func TestRedisStore_Unavailable(t *testing.T) {
	r, mr := newRedis(t)
	mr.Close()

	var got sampleEntry
	err := r.Get(context.Background(), "year", &got)
	if err == nil || errors.Is(err, ErrMiss) {
		t.Errorf("Get = %v, want transport error", err)
	}
}

func TestRedisStore_GeoHelpers(t *testing.T) {
	r, _ := newRedis(t)
	ctx := context.Background()

	if got := LoadGeo(ctx, r); got != nil {
		t.Fatal("expected miss before save")
	}
	if err := SaveGeo(ctx, r, &geo.Location{City: "Leeds", Timezone: "Europe/London"}); err != nil {
		t.Fatalf("SaveGeo: %v", err)
	}
	got := LoadGeo(ctx, r)
	if got == nil || got.City != "Leeds" {
		t.Errorf("LoadGeo = %+v, want Leeds", got)
	}
}
