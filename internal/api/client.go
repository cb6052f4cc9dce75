// Package api fetches published yearly prayer timetables: the London Prayer
// Times unified timetable and the Al Adhan calendar.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL   = "https://api.aladhan.com/v1"
	defaultLondonURL = "https://www.londonprayertimes.com/api/times/"
)

// Client communicates with the timetable APIs.
type Client struct {
	httpClient *http.Client
	// BaseURL is the Al Adhan API base URL.
	// Exported for testing with httptest.
	BaseURL string
	// LondonURL is the London Prayer Times endpoint.
	LondonURL string
	// LondonKey is the API key issued by londonprayertimes.com.
	LondonKey string
}

// NewClient creates a new API client with sensible defaults.
func NewClient(londonKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		BaseURL:   defaultBaseURL,
		LondonURL: defaultLondonURL,
		LondonKey: londonKey,
	}
}

// AladhanParams selects the Al Adhan method and school (0 standard, 1 hanafi).
type AladhanParams struct {
	Latitude  float64
	Longitude float64
	Method    int
	School    int
}

// FetchLondonYear fetches the London unified timetable for a year.
func (c *Client) FetchLondonYear(ctx context.Context, year int) (YearTable, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("key", c.LondonKey)
	params.Set("year", strconv.Itoa(year))
	params.Set("24hours", "true")

	var resp londonResponse
	if err := c.getJSON(ctx, c.LondonURL, params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Times) == 0 {
		return nil, fmt.Errorf("London timetable for %d is empty", year)
	}

	table := make(YearTable, len(resp.Times))
	for date, d := range resp.Times {
		table[date] = DayTable{
			Fajr:      d.Fajr,
			Sunrise:   d.Sunrise,
			Dhuhr:     d.Dhuhr,
			Asr:       d.Asr,
			AsrHanafi: d.Asr2,
			Maghrib:   d.Magrib,
			Isha:      d.Isha,
		}
	}
	return table, nil
}

// FetchAladhanYear fetches the Al Adhan calendar for a whole year.
func (c *Client) FetchAladhanYear(ctx context.Context, year int, p AladhanParams) (YearTable, error) {
	endpoint := fmt.Sprintf("%s/calendar/%d", c.BaseURL, year)

	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%f", p.Latitude))
	params.Set("longitude", fmt.Sprintf("%f", p.Longitude))
	params.Set("method", strconv.Itoa(p.Method))
	params.Set("school", strconv.Itoa(p.School))

	var resp CalendarResponse
	if err := c.getJSON(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 200 {
		return nil, fmt.Errorf("API error: code=%d status=%s", resp.Code, resp.Status)
	}

	table := make(YearTable, 366)
	for _, days := range resp.Data {
		for _, d := range days {
			date, err := time.Parse("02-01-2006", d.Date.Gregorian.Date)
			if err != nil {
				return nil, fmt.Errorf("invalid calendar date %q: %w", d.Date.Gregorian.Date, err)
			}
			table[date.Format(time.DateOnly)] = DayTable{
				Fajr:    d.Timings.Fajr,
				Sunrise: d.Timings.Sunrise,
				Dhuhr:   d.Timings.Dhuhr,
				Asr:     d.Timings.Asr,
				Maghrib: d.Timings.Maghrib,
				Isha:    d.Timings.Isha,
			}
		}
	}
	return table, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("API request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode API response: %w", err)
	}
	return nil
}
