package api

// DayTable is one row of a published timetable, clock times as "HH:MM".
type DayTable struct {
	Fajr      string `json:"fajr"`
	Sunrise   string `json:"sunrise"`
	Dhuhr     string `json:"dhuhr"`
	Asr       string `json:"asr"`
	AsrHanafi string `json:"asr_hanafi,omitempty"`
	Maghrib   string `json:"maghrib"`
	Isha      string `json:"isha"`
}

// YearTable maps ISO dates ("2006-01-02") to their rows.
type YearTable map[string]DayTable

// londonResponse maps the London Prayer Times yearly payload.
type londonResponse struct {
	City  string               `json:"city"`
	Times map[string]londonDay `json:"times"`
}

type londonDay struct {
	Date    string `json:"date"`
	Fajr    string `json:"fajr"`
	Sunrise string `json:"sunrise"`
	Dhuhr   string `json:"dhuhr"`
	Asr     string `json:"asr"`
	Asr2    string `json:"asr_2"`
	Magrib  string `json:"magrib"`
	Isha    string `json:"isha"`
}

// CalendarResponse represents the Al Adhan yearly calendar response.
// Data is keyed by month number ("1".."12") with one entry per day.
type CalendarResponse struct {
	Code   int               `json:"code"`
	Status string            `json:"status"`
	Data   map[string][]Data `json:"data"`
}

// Data holds the prayer timings, date info, and metadata.
type Data struct {
	Timings Timings  `json:"timings"`
	Date    DateInfo `json:"date"`
	Meta    Meta     `json:"meta"`
}

// Timings contains all prayer and event times as HH:MM strings.
// The API may include a timezone suffix like " (BST)" which we strip during parsing.
type Timings struct {
	Fajr    string `json:"Fajr"`
	Sunrise string `json:"Sunrise"`
	Dhuhr   string `json:"Dhuhr"`
	Asr     string `json:"Asr"`
	Sunset  string `json:"Sunset"`
	Maghrib string `json:"Maghrib"`
	Isha    string `json:"Isha"`
}

// DateInfo contains date representations.
type DateInfo struct {
	Readable  string        `json:"readable"`
	Gregorian GregorianDate `json:"gregorian"`
}

// GregorianDate represents the Gregorian date from the API response.
type GregorianDate struct {
	Date string `json:"date"` // e.g. "28-02-2026"
}

// Meta contains request metadata returned by the API.
type Meta struct {
	Timezone string     `json:"timezone"`
	Method   MethodInfo `json:"method"`
	School   string     `json:"school"`
}

// MethodInfo identifies the calculation method used.
type MethodInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
