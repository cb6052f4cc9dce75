package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-timer/internal/config"
	"github.com/smokyabdulrahman/prayer-timer/internal/manager"
	"github.com/smokyabdulrahman/prayer-timer/internal/prayer"
	"github.com/smokyabdulrahman/prayer-timer/internal/publish"
	"github.com/smokyabdulrahman/prayer-timer/internal/server"
	"github.com/smokyabdulrahman/prayer-timer/internal/timer"
)

func (a *app) newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prayer feed over HTTP",
		Long: "Serve /day, /timer, /timeline, /range, /healthz and /metrics as JSON.\n" +
			"SIGHUP reloads the config file; SIGINT or SIGTERM shut down gracefully.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.ListenAddr
			}
			return a.runServe(cmd, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: listen_addr setting)")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, addr string) error {
	s, err := a.session(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	mode, err := manager.ParseMode(a.cfg.TimelineMode)
	if err != nil {
		return err
	}
	srv := server.New(s.mgr, server.Options{
		Request:  s.req,
		Location: s.loc,
		Mode:     mode,
		Limit:    a.cfg.TimelineLimit,
		Now:      a.now,
	}, a.log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := config.NewBus()
	defer bus.Close()
	srv.Watch(ctx, bus)
	go a.reloadOnHangup(ctx, cmd, bus)

	return srv.ListenAndServe(ctx, addr)
}

// ----------------------------------------------------------------------------
// publish
// ----------------------------------------------------------------------------

func (a *app) newPublishCmd() *cobra.Command {
	var (
		interval string
		format   string
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish timer snapshots to MQTT",
		Long: "Connect to mqtt_broker and publish the timer as retained JSON to <mqtt_topic>/timer\n" +
			"and a status line to <mqtt_topic>/status on every interval.\n" +
			"SIGHUP reloads the config file; SIGINT or SIGTERM stop publishing.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("interval") {
				if err := a.cfg.Set("publish_interval", interval); err != nil {
					return err
				}
			}
			return a.runPublish(cmd, format)
		},
	}
	cmd.Flags().StringVar(&interval, "interval", "", "Publish interval, e.g. 30s (default: publish_interval setting)")
	cmd.Flags().StringVar(&format, "format", timer.FormatFull, "Status line format (see 'next --format')")
	return cmd
}

func (a *app) runPublish(cmd *cobra.Command, format string) error {
	every, err := a.cfg.PublishEvery()
	if err != nil {
		return err
	}
	clientID := a.cfg.MQTTClientID
	if clientID == "" {
		clientID = "prayer-timer-" + uuid.NewString()[:8]
	}
	client, err := publish.Connect(publish.ConnectOptions{
		Broker:   a.cfg.MQTTBroker,
		ClientID: clientID,
		Username: a.cfg.MQTTUsername,
		Password: a.cfg.MQTTPassword,
	}, a.log)
	if err != nil {
		return err
	}
	defer publish.Disconnect(client)

	s, err := a.session(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := config.NewBus()
	defer bus.Close()
	f := newFollower(s)
	f.watch(ctx, bus)
	go a.reloadOnHangup(ctx, cmd, bus)

	p := publish.New(client, a.cfg.MQTTTopic, f.timer, a.log)
	p.SetFormat(format, s.layout)
	return p.Run(ctx, every)
}

// ----------------------------------------------------------------------------
// Live configuration
// ----------------------------------------------------------------------------

// follower keeps the request and zone of a long-running command in step with
// config bus events.
type follower struct {
	mgr *manager.Manager

	mu  sync.RWMutex
	req prayer.Request
	loc *time.Location
}

func newFollower(s *session) *follower {
	return &follower{mgr: s.mgr, req: s.req, loc: s.loc}
}

func (f *follower) snapshot() (prayer.Request, *time.Location) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.req, f.loc
}

// timer resolves the timer at instant with the latest inputs.
func (f *follower) timer(ctx context.Context, at time.Time) (timer.Timer, error) {
	req, loc := f.snapshot()
	return f.mgr.Timer(ctx, at.In(loc), req)
}

// watch applies config bus changes until ctx is done or the bus closes. The
// returned channel is closed when watching stops.
func (f *follower) watch(ctx context.Context, bus *config.Bus) <-chan struct{} {
	return config.Watch(ctx, bus, f.apply)
}

// apply replaces the request, zone and timer settings from one change. An
// unloadable zone keeps the previous one.
func (f *follower) apply(ev config.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if loc, err := ev.Config.Zone(); err == nil {
		f.loc = loc
	}
	f.req = ev.Config.Request()
	f.mgr.SetSettings(ev.Config.Settings(f.loc))
}

// reloadOnHangup re-reads the config on SIGHUP and publishes the difference
// on bus until ctx is done.
func (a *app) reloadOnHangup(ctx context.Context, cmd *cobra.Command, bus *config.Bus) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := a.reload(cmd, bus); err != nil {
				a.log.Error().Err(err).Msg("config reload failed, keeping previous settings")
			}
		}
	}
}

// reload rebuilds the effective config and publishes what changed. A reload
// without coordinates keeps the current position.
func (a *app) reload(cmd *cobra.Command, bus *config.Bus) error {
	file, err := a.loadFile()
	if err != nil {
		return err
	}
	next, err := a.overlay(cmd.Flags(), *file)
	if err != nil {
		return err
	}
	prev := *a.cfg
	if !next.HasLocation() {
		next.Latitude, next.Longitude = prev.Latitude, prev.Longitude
		if next.Timezone == "" {
			next.Timezone = prev.Timezone
		}
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.file = file
	a.cfg = &next
	groups := bus.Publish(prev, next)
	a.log.Info().Interface("groups", groups).Msg("config reloaded")
	return nil
}
