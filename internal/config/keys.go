package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
)

// key describes one settable config key and the change groups it belongs to.
type key struct {
	name   string
	groups []Group
	set    func(c *Config, value string) error
	get    func(c *Config) string
}

var (
	calcGroups     = []Group{PrayerRecalculation, NotificationReschedule}
	locationGroups = []Group{LocationUpdate, PrayerRecalculation, NotificationReschedule}
	notifyGroups   = []Group{NotificationReschedule}
)

func stringKey(name string, groups []Group, field func(*Config) *string) key {
	return key{
		name:   name,
		groups: groups,
		set:    func(c *Config, v string) error { *field(c) = v; return nil },
		get:    func(c *Config) string { return *field(c) },
	}
}

func intKey(name string, groups []Group, lo, hi int, field func(*Config) *int) key {
	return key{
		name:   name,
		groups: groups,
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("invalid %s %q: must be an integer", name, v)
			}
			if n < lo || n > hi {
				return fmt.Errorf("invalid %s %q: must be between %d and %d", name, v, lo, hi)
			}
			*field(c) = n
			return nil
		},
		get: func(c *Config) string {
			if n := *field(c); n != 0 {
				return strconv.Itoa(n)
			}
			return ""
		},
	}
}

func floatKey(name string, groups []Group, lo, hi float64, field func(*Config) *float64) key {
	return key{
		name:   name,
		groups: groups,
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("invalid %s %q: must be a number", name, v)
			}
			if f < lo || f > hi {
				return fmt.Errorf("invalid %s %q: must be between %g and %g", name, v, lo, hi)
			}
			*field(c) = f
			return nil
		},
		get: func(c *Config) string {
			if f := *field(c); f != 0 {
				return strconv.FormatFloat(f, 'f', -1, 64)
			}
			return ""
		},
	}
}

func boolKey(name string, groups []Group, field func(*Config) *bool) key {
	return key{
		name:   name,
		groups: groups,
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("invalid %s %q: must be true or false", name, v)
			}
			*field(c) = b
			return nil
		},
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
	}
}

func iqamaKey(name string, field func(*prayer.IqamaTimes) **prayer.IqamaSpec) key {
	return key{
		name:   name,
		groups: notifyGroups,
		set: func(c *Config, v string) error {
			if strings.TrimSpace(v) == "" {
				*field(&c.Iqama) = nil
				return nil
			}
			spec, err := prayer.ParseIqamaSpec(v)
			if err != nil {
				return err
			}
			*field(&c.Iqama) = spec
			return nil
		},
		get: func(c *Config) string {
			if s := *field(&c.Iqama); s != nil {
				return s.String()
			}
			return ""
		},
	}
}

func preAdhanKey(p prayer.Prayer) key {
	name := "pre_adhan_" + strings.ToLower(p.String())
	return key{
		name:   name,
		groups: notifyGroups,
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || n < 0 || n > 180 {
				return fmt.Errorf("invalid %s %q: must be minutes between 0 and 180", name, v)
			}
			// Copy so that configs sharing the pointer stay independent.
			d := prayer.DefaultPreAdhan()
			if c.PreAdhan != nil {
				d = *c.PreAdhan
			}
			d.Set(p, n)
			c.PreAdhan = &d
			return nil
		},
		get: func(c *Config) string {
			if c.PreAdhan == nil {
				return ""
			}
			return strconv.Itoa(c.PreAdhan.For(p))
		},
	}
}

func adjustKey(p prayer.Prayer, field func(*prayer.Adjustments) *int) key {
	return intKey("adjust_"+strings.ToLower(p.String()), calcGroups, -180, 180,
		func(c *Config) *int { return field(&c.Adjustments) })
}

var keys = []key{
	stringKey("city", locationGroups, func(c *Config) *string { return &c.City }),
	stringKey("country", locationGroups, func(c *Config) *string { return &c.Country }),
	floatKey("latitude", locationGroups, -90, 90, func(c *Config) *float64 { return &c.Latitude }),
	floatKey("longitude", locationGroups, -180, 180, func(c *Config) *float64 { return &c.Longitude }),
	{
		name:   "timezone",
		groups: locationGroups,
		set: func(c *Config, v string) error {
			if _, err := time.LoadLocation(v); err != nil {
				return fmt.Errorf("invalid timezone %q: %w", v, err)
			}
			c.Timezone = v
			return nil
		},
		get: func(c *Config) string { return c.Timezone },
	},

	{
		name:   "method",
		groups: calcGroups,
		set: func(c *Config, v string) error {
			m, err := prayer.ParseMethod(v)
			if err != nil {
				return err
			}
			c.Method = m
			return nil
		},
		get: func(c *Config) string { return string(c.Method) },
	},
	{
		name:   "madhab",
		groups: calcGroups,
		set: func(c *Config, v string) error {
			switch m := prayer.Madhab(strings.ToLower(strings.TrimSpace(v))); m {
			case prayer.Standard, prayer.Hanafi:
				c.Madhab = m
				return nil
			}
			return fmt.Errorf("invalid madhab %q: must be \"standard\" or \"hanafi\"", v)
		},
		get: func(c *Config) string { return string(c.Madhab) },
	},
	{
		name:   "elevation_rule",
		groups: calcGroups,
		set: func(c *Config, v string) error {
			r, err := parseElevationRule(v)
			if err != nil {
				return err
			}
			c.ElevationRule = r
			return nil
		},
		get: func(c *Config) string { return string(c.ElevationRule) },
	},
	floatKey("fajr_degrees", calcGroups, 0, 30, func(c *Config) *float64 { return &c.FajrDegrees }),
	floatKey("maghrib_degrees", calcGroups, 0, 30, func(c *Config) *float64 { return &c.MaghribDegrees }),
	floatKey("isha_degrees", calcGroups, 0, 30, func(c *Config) *float64 { return &c.IshaDegrees }),
	adjustKey(prayer.Fajr, func(a *prayer.Adjustments) *int { return &a.Fajr }),
	adjustKey(prayer.Sunrise, func(a *prayer.Adjustments) *int { return &a.Sunrise }),
	adjustKey(prayer.Dhuhr, func(a *prayer.Adjustments) *int { return &a.Dhuhr }),
	adjustKey(prayer.Asr, func(a *prayer.Adjustments) *int { return &a.Asr }),
	adjustKey(prayer.Maghrib, func(a *prayer.Adjustments) *int { return &a.Maghrib }),
	adjustKey(prayer.Isha, func(a *prayer.Adjustments) *int { return &a.Isha }),
	boolKey("fajr_sunrise_relative", calcGroups, func(c *Config) *bool { return &c.Adjustments.FajrSunriseRelative }),
	boolKey("isha_maghrib_relative", calcGroups, func(c *Config) *bool { return &c.Adjustments.IshaMaghribRelative }),
	{
		name:   "adjust_elevation_rule",
		groups: calcGroups,
		set: func(c *Config, v string) error {
			r, err := parseElevationRule(v)
			if err != nil {
				return err
			}
			c.Adjustments.ElevationRule = r
			return nil
		},
		get: func(c *Config) string { return string(c.Adjustments.ElevationRule) },
	},
	{
		name:   "filter",
		groups: calcGroups,
		set: func(c *Config, v string) error {
			switch f := prayer.Filter(strings.ToLower(strings.TrimSpace(v))); f {
			case prayer.FilterAll, prayer.FilterObligation, prayer.FilterEssential, prayer.FilterSunnah:
				c.Filter = f
				return nil
			}
			return fmt.Errorf("invalid filter %q: must be all, obligation, essential or sunnah", v)
		},
		get: func(c *Config) string { return string(c.Filter) },
	},
	{
		name:   "timetable",
		groups: calcGroups,
		set: func(c *Config, v string) error {
			switch v {
			case prayer.SourceEngine, prayer.SourceLondon, prayer.SourceAladhan:
				c.Timetable = v
				return nil
			}
			return fmt.Errorf("invalid timetable %q: must be empty, \"london\" or \"aladhan\"", v)
		},
		get: func(c *Config) string { return c.Timetable },
	},
	stringKey("london_api_key", calcGroups, func(c *Config) *string { return &c.LondonAPIKey }),

	iqamaKey("iqama_fajr", func(q *prayer.IqamaTimes) **prayer.IqamaSpec { return &q.Fajr }),
	iqamaKey("iqama_dhuhr", func(q *prayer.IqamaTimes) **prayer.IqamaSpec { return &q.Dhuhr }),
	iqamaKey("iqama_asr", func(q *prayer.IqamaTimes) **prayer.IqamaSpec { return &q.Asr }),
	iqamaKey("iqama_maghrib", func(q *prayer.IqamaTimes) **prayer.IqamaSpec { return &q.Maghrib }),
	iqamaKey("iqama_isha", func(q *prayer.IqamaTimes) **prayer.IqamaSpec { return &q.Isha }),
	iqamaKey("iqama_jumuah", func(q *prayer.IqamaTimes) **prayer.IqamaSpec { return &q.Jumuah }),
	{
		name:   "iqama_enabled",
		groups: notifyGroups,
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("invalid iqama_enabled %q: must be true or false", v)
			}
			c.IqamaEnabled = &b
			return nil
		},
		get: func(c *Config) string {
			if c.IqamaEnabled == nil {
				return ""
			}
			return strconv.FormatBool(*c.IqamaEnabled)
		},
	},
	preAdhanKey(prayer.Fajr),
	preAdhanKey(prayer.Sunrise),
	preAdhanKey(prayer.Dhuhr),
	preAdhanKey(prayer.Asr),
	preAdhanKey(prayer.Maghrib),
	preAdhanKey(prayer.Isha),
	intKey("stopwatch_minutes", notifyGroups, 0, 120, func(c *Config) *int { return &c.StopwatchMinutes }),
	boolKey("sunrise_after_isha", notifyGroups, func(c *Config) *bool { return &c.SunriseAfterIsha }),

	{
		name: "time_format",
		set: func(c *Config, v string) error {
			if v != "12h" && v != "24h" {
				return fmt.Errorf("invalid time_format %q: must be \"12h\" or \"24h\"", v)
			}
			c.TimeFormat = v
			return nil
		},
		get: func(c *Config) string { return c.TimeFormat },
	},
	{
		name:   "timeline_mode",
		groups: notifyGroups,
		set: func(c *Config, v string) error {
			if !validTimelineMode(v) {
				return fmt.Errorf("invalid timeline_mode %q: must be none, finalHour, hourly, intervals or intervals:N", v)
			}
			c.TimelineMode = v
			return nil
		},
		get: func(c *Config) string { return c.TimelineMode },
	},
	intKey("timeline_limit", notifyGroups, 1, 1000, func(c *Config) *int { return &c.TimelineLimit }),
	stringKey("cache_dir", nil, func(c *Config) *string { return &c.CacheDir }),
	stringKey("redis_addr", nil, func(c *Config) *string { return &c.RedisAddr }),
	stringKey("redis_password", nil, func(c *Config) *string { return &c.RedisPassword }),
	intKey("redis_db", nil, 0, 15, func(c *Config) *int { return &c.RedisDB }),
	stringKey("mqtt_broker", nil, func(c *Config) *string { return &c.MQTTBroker }),
	stringKey("mqtt_topic", nil, func(c *Config) *string { return &c.MQTTTopic }),
	stringKey("mqtt_client_id", nil, func(c *Config) *string { return &c.MQTTClientID }),
	stringKey("mqtt_username", nil, func(c *Config) *string { return &c.MQTTUsername }),
	stringKey("mqtt_password", nil, func(c *Config) *string { return &c.MQTTPassword }),
	{
		name: "publish_interval",
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil || d < time.Second {
				return fmt.Errorf("invalid publish_interval %q: must be a duration of at least 1s", v)
			}
			c.PublishInterval = v
			return nil
		},
		get: func(c *Config) string { return c.PublishInterval },
	},
	stringKey("listen_addr", nil, func(c *Config) *string { return &c.ListenAddr }),
	{
		name: "log_level",
		set: func(c *Config, v string) error {
			switch strings.ToLower(v) {
			case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
				c.LogLevel = strings.ToLower(v)
				return nil
			}
			return fmt.Errorf("invalid log_level %q", v)
		},
		get: func(c *Config) string { return c.LogLevel },
	},
}

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = func() []string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.name
	}
	return names
}()

func lookupKey(name string) (key, bool) {
	for _, k := range keys {
		if k.name == name {
			return k, true
		}
	}
	return key{}, false
}

func parseElevationRule(v string) (prayer.ElevationRule, error) {
	switch r := prayer.ElevationRule(strings.TrimSpace(v)); r {
	case prayer.ElevationNone, prayer.MiddleOfTheNight, prayer.SeventhOfTheNight, prayer.TwilightAngle:
		return r, nil
	}
	return "", fmt.Errorf("invalid elevation rule %q: must be middleOfTheNight, seventhOfTheNight or twilightAngle", v)
}

// validTimelineMode mirrors manager.ParseMode without importing it.
func validTimelineMode(v string) bool {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(v), ":")
	switch strings.ToLower(name) {
	case "", "none", "finalhour", "final-hour", "hourly":
		return !hasArg
	case "intervals":
		if !hasArg {
			return true
		}
		n, err := strconv.Atoi(arg)
		return err == nil && n >= 0
	}
	return false
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(name, value string) error {
	k, ok := lookupKey(name)
	if !ok {
		return fmt.Errorf("unknown config key %q; valid keys: %s", name, strings.Join(ValidKeys, ", "))
	}
	return k.set(c, value)
}

// Get returns the string value of a config key.
func (c *Config) Get(name string) (string, error) {
	k, ok := lookupKey(name)
	if !ok {
		return "", fmt.Errorf("unknown config key %q", name)
	}
	return k.get(c), nil
}

// Validate re-checks every set key, as values may come from a hand-edited
// file or the environment. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	probe := *c
	for _, k := range keys {
		v := k.get(c)
		if v == "" {
			continue
		}
		if err := k.set(&probe, v); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Method == prayer.MethodCustom && (c.FajrDegrees <= 0 || c.IshaDegrees <= 0) {
		errs = append(errs, errors.New("method custom needs fajr_degrees and isha_degrees"))
	}
	return errors.Join(errs...)
}

