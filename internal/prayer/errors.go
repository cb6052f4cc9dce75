package prayer

import "errors"

// Calculation errors. Callers match with errors.Is; call sites wrap them with
// the failing date or prayer.
var (
	// ErrInvalidParameters means the engine produced no result for the
	// coordinates and date.
	ErrInvalidParameters = errors.New("invalid calculation parameters")
	// ErrInvalidTimes means fajr/sunrise or sunnah ordering was violated, or a
	// timetable could not be parsed.
	ErrInvalidTimes = errors.New("invalid prayer times")
	// ErrInvalidElevation means dhuhr/asr/maghrib/isha ordering was violated,
	// typically at high latitudes without a suitable elevation rule.
	ErrInvalidElevation = errors.New("invalid prayer times for elevation")
	// ErrTimetableFetch wraps transport failures from the timetable path.
	ErrTimetableFetch = errors.New("timetable fetch failed")
)
