package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serve(t *testing.T, status int, body string) *Detector {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewDetector(srv.URL)
}

func TestDetect(t *testing.T) {
	d := serve(t, http.StatusOK, `{"status":"success","lat":21.4225,"lon":39.8262,"city":"Mecca","country":"Saudi Arabia","timezone":"Asia/Riyadh"}`)

	loc, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	want := Location{Latitude: 21.4225, Longitude: 39.8262, City: "Mecca", Country: "Saudi Arabia", Timezone: "Asia/Riyadh"}
	if *loc != want {
		t.Errorf("Detect() = %+v, want %+v", *loc, want)
	}
}

func TestDetect_UnknownZoneDropped(t *testing.T) {
	d := serve(t, http.StatusOK, `{"status":"success","lat":51.5,"lon":-0.12,"timezone":"Mars/Olympus_Mons"}`)

	loc, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	if loc.Timezone != "" {
		t.Errorf("Timezone = %q, want empty", loc.Timezone)
	}
}

func TestDetect_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"api failure", http.StatusOK, `{"status":"fail","message":"reserved range"}`, "reserved range"},
		{"http error", http.StatusInternalServerError, `oops`, "500"},
		{"invalid json", http.StatusOK, `not json at all`, "decode"},
		{"null island", http.StatusOK, `{"status":"success","lat":0,"lon":0}`, "no coordinates"},
		{"out of range", http.StatusOK, `{"status":"success","lat":123,"lon":10}`, "latitude"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := serve(t, tt.status, tt.body).Detect(context.Background())
			if !errors.Is(err, ErrUnavailable) {
				t.Fatalf("err = %v, want ErrUnavailable", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestDetect_ConnectionRefused(t *testing.T) {
	// Nothing listens on port 1.
	if _, err := NewDetector("http://127.0.0.1:1").Detect(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestDetect_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewDetector(srv.URL).Detect(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestNewDetector_Default(t *testing.T) {
	if d := NewDetector(""); d.URL != DefaultURL || d.Client.Timeout != timeout {
		t.Errorf("NewDetector(\"\") = %+v", d)
	}
}
