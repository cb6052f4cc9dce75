package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/prayer-timer/internal/api"
	"github.com/smokyabdulrahman/prayer-timer/internal/cache"
	"github.com/smokyabdulrahman/prayer-timer/internal/calc"
	"github.com/smokyabdulrahman/prayer-timer/internal/config"
	"github.com/smokyabdulrahman/prayer-timer/internal/display"
	"github.com/smokyabdulrahman/prayer-timer/internal/geo"
	"github.com/smokyabdulrahman/prayer-timer/internal/logger"
	"github.com/smokyabdulrahman/prayer-timer/internal/manager"
	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
)

const (
	redisPrefix = "prayer-timer:"
	pingTimeout = 2 * time.Second
)

// keyFlags maps global flags onto config keys. Values go through
// config.Set so flags, the environment and the file share one parser.
var keyFlags = []struct {
	flag, key, usage string
}{
	{"city", "city", "City label (display only)"},
	{"country", "country", "Country label (display only)"},
	{"latitude", "latitude", "Latitude in degrees"},
	{"longitude", "longitude", "Longitude in degrees"},
	{"timezone", "timezone", "IANA time zone, e.g. Europe/London"},
	{"method", "method", "Calculation method (see 'methods')"},
	{"madhab", "madhab", "Asr madhab: standard or hanafi"},
	{"timetable", "timetable", "Timetable source: london or aladhan (default: local engine)"},
	{"time-format", "time_format", "Time format: 12h or 24h"},
	{"cache-dir", "cache_dir", "Cache directory (default: ~/.cache/prayer-timer/)"},
	{"log-level", "log_level", "Log level: debug, info, warn or error"},
}

// app carries the state shared by every subcommand of one invocation.
type app struct {
	version    string
	configPath string
	jsonOut    bool

	// file is the config as stored on disk; cfg is the effective config
	// after the environment, flags and defaults.
	file *config.Config
	cfg  *config.Config
	log  zerolog.Logger

	now    func() time.Time
	detect func(ctx context.Context) (*geo.Location, error)

	// services builds the engine and timetable services for store.
	services func(cfg *config.Config, store cache.Store, log zerolog.Logger) (engine, table calc.Service)
}

func newApp(version string) *app {
	return &app{
		version:  version,
		log:      logger.Nop(),
		now:      time.Now,
		detect:   geo.DetectLocation,
		services: defaultServices,
	}
}

func defaultServices(cfg *config.Config, store cache.Store, log zerolog.Logger) (calc.Service, calc.Service) {
	return calc.NewAstroService(log), calc.NewTableService(api.NewClient(cfg.LondonAPIKey), store, log)
}

// NewRootCmd creates the root command for the prayer-timer CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	return newApp(version).command()
}

func (a *app) command() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "prayer-timer",
		Short: "Islamic prayer times and live prayer timer",
		Long: "Prayer times from a local astronomical engine or a published timetable,\n" +
			"with a live countdown/stopwatch/iqama timer, a JSON feed and MQTT publishing.",
		Version: a.version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		// Default action: show today's prayer schedule.
		RunE:          a.runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	for _, f := range keyFlags {
		pf.String(f.flag, "", f.usage)
	}
	pf.StringVar(&a.configPath, "config", "", "Config file (default: ~/.config/prayer-timer/config.json)")
	pf.BoolVar(&a.jsonOut, "json", false, "Output as JSON")

	rootCmd.AddCommand(
		a.newTodayCmd(),
		a.newNextCmd(),
		a.newTimerCmd(),
		a.newListCmd(),
		a.newWeekCmd(),
		a.newMonthCmd(),
		a.newQueryCmd(),
		a.newTimelineCmd(),
		a.newInstantsCmd(),
		a.newConfigCmd(),
		a.newMethodsCmd(),
		a.newServeCmd(),
		a.newPublishCmd(),
	)
	return rootCmd
}

// setup resolves the effective config: flags > environment > file > defaults.
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadEnv(); err != nil {
		return err
	}
	file, err := a.loadFile()
	if err != nil {
		return err
	}
	cfg, err := a.overlay(cmd.Flags(), *file)
	if err != nil {
		return err
	}

	a.file = file
	a.cfg = &cfg
	a.log = logger.New(cmd.ErrOrStderr(), cfg.LogLevel, logger.FormatAuto)
	if a.jsonOut {
		display.SetEnabled(false)
	}
	return nil
}

func (a *app) path() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.Path()
}

func (a *app) loadFile() (*config.Config, error) {
	path, err := a.path()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// overlay applies the environment and every explicitly set key flag to cfg,
// then fills the remaining fields with defaults.
func (a *app) overlay(flags *pflag.FlagSet, cfg config.Config) (config.Config, error) {
	if err := cfg.ApplyEnv(); err != nil {
		return config.Config{}, err
	}
	var errs []error
	flags.Visit(func(f *pflag.Flag) {
		for _, kf := range keyFlags {
			if kf.flag != f.Name {
				continue
			}
			if err := cfg.Set(kf.key, f.Value.String()); err != nil {
				errs = append(errs, fmt.Errorf("--%s: %w", f.Name, err))
			}
		}
	})
	if err := errors.Join(errs...); err != nil {
		return config.Config{}, err
	}
	return cfg.Merge(config.Defaults()), nil
}

// ----------------------------------------------------------------------------
// Session
// ----------------------------------------------------------------------------

// session is everything a calculation command needs.
type session struct {
	mgr    *manager.Manager
	req    prayer.Request
	loc    *time.Location
	now    time.Time
	layout string
	closer func() error
}

// Close releases the timetable store.
func (s *session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func (a *app) session(ctx context.Context) (*session, error) {
	files := a.fileStore()
	if err := a.locate(ctx, files); err != nil {
		return nil, err
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	loc, err := a.cfg.Zone()
	if err != nil {
		return nil, err
	}

	store, closer := a.tableStore(ctx, files)
	engine, table := a.services(a.cfg, store, a.log)
	return &session{
		mgr:    manager.New(engine, table, a.cfg.Settings(loc), a.log),
		req:    a.cfg.Request(),
		loc:    loc,
		now:    a.now().In(loc),
		layout: clockLayout(a.cfg),
		closer: closer,
	}, nil
}

// fileStore opens the file cache. A failure disables caching.
func (a *app) fileStore() cache.Store {
	fs, err := cache.New(a.cfg.CacheDir)
	if err != nil {
		a.log.Warn().Err(err).Msg("cache disabled")
		return nil
	}
	return fs
}

// tableStore prefers Redis when configured and reachable, then the file store.
func (a *app) tableStore(ctx context.Context, files cache.Store) (cache.Store, func() error) {
	if a.cfg.RedisAddr == "" {
		return files, nil
	}
	rs := cache.NewRedis(cache.RedisOptions{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
		Prefix:   redisPrefix,
	})
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rs.Ping(pingCtx); err != nil {
		a.log.Warn().Err(err).Str("addr", a.cfg.RedisAddr).Msg("redis unavailable, using file cache")
		_ = rs.Close()
		return files, nil
	}
	return rs, rs.Close
}

// locate fills in coordinates when none are configured.
// Priority: config > cached geolocation > IP auto-detect.
func (a *app) locate(ctx context.Context, store cache.Store) error {
	if a.cfg.HasLocation() {
		return nil
	}

	var found *geo.Location
	if store != nil {
		found = cache.LoadGeo(ctx, store)
	}
	if found == nil {
		detected, err := a.detect(ctx)
		if err != nil {
			return fmt.Errorf("no location specified and auto-detection failed: %w", err)
		}
		found = detected
		if store != nil {
			if err := cache.SaveGeo(ctx, store, found); err != nil {
				a.log.Warn().Err(err).Msg("geolocation not cached")
			}
		}
	}

	a.cfg.Latitude, a.cfg.Longitude = found.Latitude, found.Longitude
	if a.cfg.Timezone == "" {
		a.cfg.Timezone = found.Timezone
	}
	if a.cfg.City == "" {
		a.cfg.City, a.cfg.Country = found.City, found.Country
	}
	return nil
}

// ----------------------------------------------------------------------------
// Output helpers
// ----------------------------------------------------------------------------

// clockLayout converts the time_format setting to a Go layout.
func clockLayout(cfg *config.Config) string {
	if cfg.TimeFormat == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}

// locationLabel builds "City, Country" or falls back to coordinates.
func locationLabel(cfg *config.Config) string {
	switch {
	case cfg.City != "" && cfg.Country != "":
		return cfg.City + ", " + cfg.Country
	case cfg.City != "":
		return cfg.City
	}
	return fmt.Sprintf("%.4f, %.4f", cfg.Latitude, cfg.Longitude)
}

type locationJSON struct {
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Timezone  string  `json:"timezone"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (s *session) location(cfg *config.Config) locationJSON {
	return locationJSON{
		City:      cfg.City,
		Country:   cfg.Country,
		Timezone:  s.loc.String(),
		Latitude:  cfg.Latitude,
		Longitude: cfg.Longitude,
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
