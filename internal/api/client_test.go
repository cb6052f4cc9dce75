package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// sampleLondonResponse returns a London Prayer Times payload with two days.
func sampleLondonResponse() londonResponse {
	return londonResponse{
		City: "london",
		Times: map[string]londonDay{
			"2026-02-28": {
				Date: "2026-02-28", Fajr: "05:04", Sunrise: "06:48", Dhuhr: "12:13",
				Asr: "15:02", Asr2: "15:41", Magrib: "17:39", Isha: "19:05",
			},
			"2026-03-01": {
				Date: "2026-03-01", Fajr: "05:02", Sunrise: "06:46", Dhuhr: "12:13",
				Asr: "15:04", Asr2: "15:43", Magrib: "17:41", Isha: "19:07",
			},
		},
	}
}

// sampleCalendarResponse returns a valid Al Adhan calendar response covering
// the first days of January and February.
func sampleCalendarResponse(days int) CalendarResponse {
	data := map[string][]Data{}
	for _, month := range []int{1, 2} {
		key := fmt.Sprintf("%d", month)
		for i := 0; i < days; i++ {
			data[key] = append(data[key], Data{
				Timings: Timings{
					Fajr:    "05:17 (GMT)",
					Sunrise: "06:48 (GMT)",
					Dhuhr:   "12:13 (GMT)",
					Asr:     "15:02 (GMT)",
					Sunset:  "17:39 (GMT)",
					Maghrib: "17:39 (GMT)",
					Isha:    "19:10 (GMT)",
				},
				Date: DateInfo{
					Gregorian: GregorianDate{Date: fmt.Sprintf("%02d-%02d-2026", i+1, month)},
				},
				Meta: Meta{
					Timezone: "Europe/London",
					Method:   MethodInfo{ID: 2, Name: "ISNA"},
					School:   "STANDARD",
				},
			})
		}
	}
	return CalendarResponse{Code: 200, Status: "OK", Data: data}
}

func TestNewClient(t *testing.T) {
	c := NewClient("secret")
	if c == nil {
		t.Fatal("NewClient returned nil")
	}
	if c.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", c.BaseURL, defaultBaseURL)
	}
	if c.LondonURL != defaultLondonURL {
		t.Errorf("LondonURL = %q, want %q", c.LondonURL, defaultLondonURL)
	}
	if c.LondonKey != "secret" {
		t.Errorf("LondonKey = %q, want %q", c.LondonKey, "secret")
	}
}

// ---------------------------------------------------------------------------
// London timetable
// ---------------------------------------------------------------------------

func TestFetchLondonYear_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("format") != "json" {
			t.Errorf("format = %q, want json", q.Get("format"))
		}
		if q.Get("key") != "secret" {
			t.Errorf("key = %q, want secret", q.Get("key"))
		}
		if q.Get("year") != "2026" {
			t.Errorf("year = %q, want 2026", q.Get("year"))
		}
		if q.Get("24hours") != "true" {
			t.Errorf("24hours = %q, want true", q.Get("24hours"))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sampleLondonResponse())
	}))
	defer server.Close()

	c := NewClient("secret")
	c.LondonURL = server.URL

	got, err := c.FetchLondonYear(context.Background(), 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d days, want 2", len(got))
	}
	day := got["2026-02-28"]
	if day.Fajr != "05:04" {
		t.Errorf("Fajr = %q, want %q", day.Fajr, "05:04")
	}
	if day.Maghrib != "17:39" {
		t.Errorf("Maghrib = %q, want %q", day.Maghrib, "17:39")
	}
	if day.AsrHanafi != "15:41" {
		t.Errorf("AsrHanafi = %q, want %q", day.AsrHanafi, "15:41")
	}
}

func TestFetchLondonYear_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"city":"london","times":{}}`))
	}))
	defer server.Close()

	c := NewClient("")
	c.LondonURL = server.URL

	if _, err := c.FetchLondonYear(context.Background(), 2026); err == nil {
		t.Fatal("expected error for empty timetable, got nil")
	}
}

func TestFetchLondonYear_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient("bad")
	c.LondonURL = server.URL

	_, err := c.FetchLondonYear(context.Background(), 2026)
	if err == nil {
		t.Fatal("expected error for HTTP 401, got nil")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error should mention 401, got: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Al Adhan calendar
// ---------------------------------------------------------------------------

func TestFetchAladhanYear_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calendar/2026" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("latitude") == "" {
			t.Error("missing latitude param")
		}
		if q.Get("longitude") == "" {
			t.Error("missing longitude param")
		}
		if q.Get("method") != "2" {
			t.Errorf("method = %q, want %q", q.Get("method"), "2")
		}
		if q.Get("school") != "1" {
			t.Errorf("school = %q, want %q", q.Get("school"), "1")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sampleCalendarResponse(3))
	}))
	defer server.Close()

	c := NewClient("")
	c.BaseURL = server.URL

	got, err := c.FetchAladhanYear(context.Background(), 2026, AladhanParams{
		Latitude: 51.5074, Longitude: -0.1278, Method: 2, School: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 6 {
		t.Errorf("got %d days, want 6", len(got))
	}
	day, ok := got["2026-02-03"]
	if !ok {
		t.Fatal("missing 2026-02-03 row; dates must be re-keyed as ISO")
	}
	if day.Fajr != "05:17 (GMT)" {
		t.Errorf("Fajr = %q, want raw timing with suffix", day.Fajr)
	}
	if day.AsrHanafi != "" {
		t.Errorf("AsrHanafi = %q, want empty", day.AsrHanafi)
	}
}

func TestFetchAladhanYear_BadDate(t *testing.T) {
	resp := sampleCalendarResponse(1)
	resp.Data["1"][0].Date.Gregorian.Date = "2026/01/01"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewClient("")
	c.BaseURL = server.URL

	if _, err := c.FetchAladhanYear(context.Background(), 2026, AladhanParams{}); err == nil {
		t.Fatal("expected error for malformed date, got nil")
	}
}

func TestFetchAladhanYear_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient("")
	c.BaseURL = server.URL

	_, err := c.FetchAladhanYear(context.Background(), 2026, AladhanParams{})
	if err == nil {
		t.Fatal("expected error for HTTP 503, got nil")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should mention 503, got: %v", err)
	}
}

func TestFetchAladhanYear_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	c := NewClient("")
	c.BaseURL = server.URL

	_, err := c.FetchAladhanYear(context.Background(), 2026, AladhanParams{})
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
	if !strings.Contains(err.Error(), "decode") {
		t.Errorf("error should mention decode, got: %v", err)
	}
}

func TestFetchAladhanYear_APIErrorCode(t *testing.T) {
	resp := CalendarResponse{Code: 400, Status: "Bad Request"}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewClient("")
	c.BaseURL = server.URL

	_, err := c.FetchAladhanYear(context.Background(), 2026, AladhanParams{})
	if err == nil {
		t.Fatal("expected error for API code 400, got nil")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error should mention 400, got: %v", err)
	}
}

func TestFetchAladhanYear_ConnectionRefused(t *testing.T) {
	c := NewClient("")
	c.BaseURL = "http://127.0.0.1:1" // nothing listening

	if _, err := c.FetchAladhanYear(context.Background(), 2026, AladhanParams{}); err == nil {
		t.Fatal("expected error for connection refused, got nil")
	}
}

func TestFetchAladhanYear_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(sampleCalendarResponse(1))
	}))
	defer server.Close()

	c := NewClient("")
	c.BaseURL = server.URL

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.FetchAladhanYear(ctx, 2026, AladhanParams{}); err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}
