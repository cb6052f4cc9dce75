// Package config provides persistent configuration for the prayer-timer CLI,
// feed server and publisher.
//
// Configuration is stored at ~/.config/prayer-timer/config.json (XDG-compliant),
// or as YAML when the path ends in .yaml or .yml. The merge priority is:
// CLI flags > environment > config file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
	"github.com/smokyabdulrahman/prayer-timer/internal/timer"
)

const (
	configDirName  = "prayer-timer"
	configFileName = "config.json"
)

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults or auto-detect).
type Config struct {
	City      string  `json:"city,omitempty" yaml:"city,omitempty"`
	Country   string  `json:"country,omitempty" yaml:"country,omitempty"`
	Latitude  float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	Timezone  string  `json:"timezone,omitempty" yaml:"timezone,omitempty"`

	Method         prayer.Method        `json:"method,omitempty" yaml:"method,omitempty"`
	Madhab         prayer.Madhab        `json:"madhab,omitempty" yaml:"madhab,omitempty"`
	ElevationRule  prayer.ElevationRule `json:"elevation_rule,omitempty" yaml:"elevation_rule,omitempty"`
	FajrDegrees    float64              `json:"fajr_degrees,omitempty" yaml:"fajr_degrees,omitempty"`
	MaghribDegrees float64              `json:"maghrib_degrees,omitempty" yaml:"maghrib_degrees,omitempty"`
	IshaDegrees    float64              `json:"isha_degrees,omitempty" yaml:"isha_degrees,omitempty"`
	Adjustments    prayer.Adjustments   `json:"adjustments,omitempty" yaml:"adjustments,omitempty"`
	Filter         prayer.Filter        `json:"filter,omitempty" yaml:"filter,omitempty"`
	Timetable      string               `json:"timetable,omitempty" yaml:"timetable,omitempty"` // "london" or "aladhan"
	LondonAPIKey   string               `json:"london_api_key,omitempty" yaml:"london_api_key,omitempty"`

	Iqama            prayer.IqamaTimes       `json:"iqama,omitempty" yaml:"iqama,omitempty"`
	IqamaEnabled     *bool                   `json:"iqama_enabled,omitempty" yaml:"iqama_enabled,omitempty"` // pointer so we can distinguish "not set" from false
	PreAdhan         *prayer.PreAdhanMinutes `json:"pre_adhan,omitempty" yaml:"pre_adhan,omitempty"`
	StopwatchMinutes int                     `json:"stopwatch_minutes,omitempty" yaml:"stopwatch_minutes,omitempty"`
	SunriseAfterIsha bool                    `json:"sunrise_after_isha,omitempty" yaml:"sunrise_after_isha,omitempty"`

	TimeFormat    string `json:"time_format,omitempty" yaml:"time_format,omitempty"` // "12h" or "24h"
	TimelineMode  string `json:"timeline_mode,omitempty" yaml:"timeline_mode,omitempty"`
	TimelineLimit int    `json:"timeline_limit,omitempty" yaml:"timeline_limit,omitempty"`
	CacheDir      string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`

	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`

	MQTTBroker      string `json:"mqtt_broker,omitempty" yaml:"mqtt_broker,omitempty"`
	MQTTTopic       string `json:"mqtt_topic,omitempty" yaml:"mqtt_topic,omitempty"`
	MQTTClientID    string `json:"mqtt_client_id,omitempty" yaml:"mqtt_client_id,omitempty"`
	MQTTUsername    string `json:"mqtt_username,omitempty" yaml:"mqtt_username,omitempty"`
	MQTTPassword    string `json:"mqtt_password,omitempty" yaml:"mqtt_password,omitempty"`
	PublishInterval string `json:"publish_interval,omitempty" yaml:"publish_interval,omitempty"`

	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	LogLevel   string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	enabled := true
	pre := prayer.DefaultPreAdhan()
	return Config{
		Method:          prayer.MethodMWL,
		Madhab:          prayer.Standard,
		Filter:          prayer.FilterEssential,
		IqamaEnabled:    &enabled,
		PreAdhan:        &pre,
		TimeFormat:      "24h",
		TimelineMode:    "intervals:4",
		TimelineLimit:   24,
		MQTTTopic:       "prayer-timer",
		PublishInterval: "1m",
		ListenAddr:      ":8080",
		LogLevel:        "warn",
	}
}

// Merge returns c with every unset field taken from base.
func (c Config) Merge(base Config) Config {
	out := base
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&out.City, c.City)
	set(&out.Country, c.Country)
	set(&out.Timezone, c.Timezone)
	set(&out.Timetable, c.Timetable)
	set(&out.LondonAPIKey, c.LondonAPIKey)
	set(&out.TimeFormat, c.TimeFormat)
	set(&out.TimelineMode, c.TimelineMode)
	set(&out.CacheDir, c.CacheDir)
	set(&out.RedisAddr, c.RedisAddr)
	set(&out.RedisPassword, c.RedisPassword)
	set(&out.MQTTBroker, c.MQTTBroker)
	set(&out.MQTTTopic, c.MQTTTopic)
	set(&out.MQTTClientID, c.MQTTClientID)
	set(&out.MQTTUsername, c.MQTTUsername)
	set(&out.MQTTPassword, c.MQTTPassword)
	set(&out.PublishInterval, c.PublishInterval)
	set(&out.ListenAddr, c.ListenAddr)
	set(&out.LogLevel, c.LogLevel)

	if c.Latitude != 0 || c.Longitude != 0 {
		out.Latitude, out.Longitude = c.Latitude, c.Longitude
	}
	if c.Method != "" {
		out.Method = c.Method
	}
	if c.Madhab != "" {
		out.Madhab = c.Madhab
	}
	if c.ElevationRule != "" {
		out.ElevationRule = c.ElevationRule
	}
	if c.Filter != "" {
		out.Filter = c.Filter
	}
	if c.FajrDegrees != 0 {
		out.FajrDegrees = c.FajrDegrees
	}
	if c.MaghribDegrees != 0 {
		out.MaghribDegrees = c.MaghribDegrees
	}
	if c.IshaDegrees != 0 {
		out.IshaDegrees = c.IshaDegrees
	}
	if c.Adjustments != (prayer.Adjustments{}) {
		out.Adjustments = c.Adjustments
	}
	if !c.Iqama.IsEmpty() {
		out.Iqama = c.Iqama
	}
	if c.IqamaEnabled != nil {
		out.IqamaEnabled = c.IqamaEnabled
	}
	if c.PreAdhan != nil {
		out.PreAdhan = c.PreAdhan
	}
	if c.StopwatchMinutes != 0 {
		out.StopwatchMinutes = c.StopwatchMinutes
	}
	if c.SunriseAfterIsha {
		out.SunriseAfterIsha = true
	}
	if c.TimelineLimit != 0 {
		out.TimelineLimit = c.TimelineLimit
	}
	if c.RedisDB != 0 {
		out.RedisDB = c.RedisDB
	}
	return out
}

// HasLocation reports whether coordinates are configured.
func (c *Config) HasLocation() bool {
	return c.Latitude != 0 || c.Longitude != 0
}

// Zone returns the configured time zone, falling back to time.Local.
func (c *Config) Zone() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Request converts the calculation settings into a prayer.Request.
func (c *Config) Request() prayer.Request {
	return prayer.Request{
		Coordinates:    prayer.Coordinates{Latitude: c.Latitude, Longitude: c.Longitude},
		Method:         c.Method,
		Madhab:         c.Madhab,
		ElevationRule:  c.ElevationRule,
		FajrDegrees:    c.FajrDegrees,
		MaghribDegrees: c.MaghribDegrees,
		IshaDegrees:    c.IshaDegrees,
		Adjustments:    c.Adjustments,
		Filter:         c.Filter,
		Timetable:      c.Timetable,
	}
}

// Settings converts the timer preferences into timer.Settings for loc.
func (c *Config) Settings(loc *time.Location) timer.Settings {
	pre := prayer.DefaultPreAdhan()
	if c.PreAdhan != nil {
		pre = *c.PreAdhan
	}
	return timer.Settings{
		IqamaTimes:       c.Iqama,
		IqamaEnabled:     c.IqamaEnabled == nil || *c.IqamaEnabled,
		StopwatchMinutes: c.StopwatchMinutes,
		PreAdhan:         pre,
		SunriseAfterIsha: c.SunriseAfterIsha,
		Location:         loc,
	}
}

// PublishEvery parses the publish interval, defaulting to one minute.
func (c *Config) PublishEvery() (time.Duration, error) {
	if c.PublishInterval == "" {
		return time.Minute, nil
	}
	d, err := time.ParseDuration(c.PublishInterval)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid publish_interval %q: must be a positive duration", c.PublishInterval)
	}
	return d, nil
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFrom reads the config file at path. A missing file yields an empty
// Config; a file that cannot be decoded is an error.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Config{}
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// SaveTo writes the config to path, creating the directory if needed.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold API keys and broker credentials.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}
