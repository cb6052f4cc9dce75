// Package geo resolves the user's position from their public IP address so
// that prayer times work without configured coordinates.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/smokyabdulrahman/prayer-timer/internal/metrics"
	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
)

// DefaultURL is the free ip-api.com endpoint; it needs no key.
const DefaultURL = "http://ip-api.com/json/?fields=status,message,lat,lon,city,country,timezone"

const timeout = 5 * time.Second

// ErrUnavailable wraps every detection failure.
var ErrUnavailable = errors.New("geolocation unavailable")

// Location is a detected position. The JSON form is what the file cache
// stores.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Timezone  string  `json:"timezone"`
}

// Coordinates returns the detected point.
func (l Location) Coordinates() prayer.Coordinates {
	return prayer.Coordinates{Latitude: l.Latitude, Longitude: l.Longitude}
}

type ipAPIResponse struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	City     string  `json:"city"`
	Country  string  `json:"country"`
	Timezone string  `json:"timezone"`
}

// Detector queries an ip-api compatible endpoint.
type Detector struct {
	URL    string
	Client *http.Client
}

// NewDetector returns a detector for url, or DefaultURL when url is empty.
func NewDetector(url string) *Detector {
	if url == "" {
		url = DefaultURL
	}
	return &Detector{URL: url, Client: &http.Client{Timeout: timeout}}
}

// DetectLocation detects the position through DefaultURL.
func DetectLocation(ctx context.Context) (*Location, error) {
	return NewDetector("").Detect(ctx)
}

// Detect resolves the caller's position. A time zone the local tz database
// does not know is dropped rather than failing the lookup.
func (d *Detector) Detect(ctx context.Context) (loc *Location, err error) {
	defer func() { metrics.GeoLookups.WithLabelValues(metrics.Result(err)).Inc() }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if body.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, body.Message)
	}

	loc = &Location{
		Latitude:  body.Lat,
		Longitude: body.Lon,
		City:      body.City,
		Country:   body.Country,
		Timezone:  body.Timezone,
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return nil, fmt.Errorf("%w: no coordinates in response", ErrUnavailable)
	}
	if err := loc.Coordinates().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if _, err := time.LoadLocation(loc.Timezone); loc.Timezone != "" && err != nil {
		loc.Timezone = ""
	}
	return loc, nil
}
