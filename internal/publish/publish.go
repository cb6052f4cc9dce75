// Package publish pushes timer snapshots to MQTT topics so that wall
// displays and home automation can follow the prayer timer without polling.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/prayer-timer/internal/metrics"
	"github.com/smokyabdulrahman/prayer-timer/internal/timer"
)

const (
	// qos 1: displays must see every regime change at least once.
	qos            = 1
	publishTimeout = 5 * time.Second
	connectTimeout = 10 * time.Second
	disconnectWait = 250 // milliseconds
)

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("mqtt publish timed out")

// Client is the part of mqtt.Client the publisher uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Source resolves the timer for an instant.
type Source func(ctx context.Context, at time.Time) (timer.Timer, error)

// ConnectOptions describe the broker connection.
type ConnectOptions struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// Connect dials the broker. The returned client reconnects on its own and
// must be released with Disconnect.
func Connect(opts ConnectOptions, log zerolog.Logger) (mqtt.Client, error) {
	if opts.Broker == "" {
		return nil, errors.New("no mqtt broker configured")
	}
	log = log.With().Str("component", "mqtt").Str("broker", opts.Broker).Logger()

	o := mqtt.NewClientOptions()
	o.AddBroker(opts.Broker)
	if opts.ClientID != "" {
		o.SetClientID(opts.ClientID)
	}
	if opts.Username != "" {
		o.SetUsername(opts.Username)
		o.SetPassword(opts.Password)
	}
	o.SetAutoReconnect(true)
	o.SetConnectTimeout(connectTimeout)
	o.OnConnect = func(mqtt.Client) {
		log.Info().Msg("connected to broker")
	}
	o.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("connection lost")
	}

	client := mqtt.NewClient(o)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to %s: %w", opts.Broker, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", opts.Broker, err)
	}
	return client, nil
}

// Disconnect closes client, allowing in-flight messages a short grace period.
func Disconnect(client mqtt.Client) {
	client.Disconnect(disconnectWait)
}

// Publisher sends retained timer snapshots: the JSON state to <prefix>/timer
// and a formatted line to <prefix>/status.
type Publisher struct {
	client     Client
	prefix     string
	source     Source
	log        zerolog.Logger
	now        func() time.Time
	format     string
	timeFormat string
}

// New returns a publisher writing under prefix.
func New(client Client, prefix string, source Source, log zerolog.Logger) *Publisher {
	return &Publisher{
		client:     client,
		prefix:     strings.TrimSuffix(prefix, "/"),
		source:     source,
		log:        log.With().Str("component", "publisher").Logger(),
		now:        time.Now,
		format:     timer.FormatFull,
		timeFormat: "15:04",
	}
}

// SetFormat changes the status line format and clock layout.
func (p *Publisher) SetFormat(format, timeFormat string) {
	if format != "" {
		p.format = format
	}
	if timeFormat != "" {
		p.timeFormat = timeFormat
	}
}

// TimerTopic is where JSON snapshots go.
func (p *Publisher) TimerTopic() string { return p.prefix + "/timer" }

// StatusTopic is where formatted status lines go.
func (p *Publisher) StatusTopic() string { return p.prefix + "/status" }

// Publish sends one snapshot of t.
func (p *Publisher) Publish(ctx context.Context, t timer.Timer) (err error) {
	defer func() { metrics.Published.WithLabelValues(metrics.Result(err)).Inc() }()

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode timer: %w", err)
	}
	if err := p.send(ctx, p.TimerTopic(), payload); err != nil {
		return err
	}
	status := timer.FormatOutput(t, p.format, p.timeFormat)
	return p.send(ctx, p.StatusTopic(), []byte(status))
}

func (p *Publisher) send(ctx context.Context, topic string, payload []byte) error {
	token := p.client.Publish(topic, qos, true, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("publish to %s: %w", topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Run publishes immediately and then on every tick of interval until ctx is
// done. Failures are logged and retried on the next tick.
func (p *Publisher) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid publish interval %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		p.tick(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (p *Publisher) tick(ctx context.Context) {
	at := p.now()
	t, err := p.source(ctx, at)
	if err != nil {
		p.log.Warn().Err(err).Time("at", at).Msg("no timer to publish")
		return
	}
	if err := p.Publish(ctx, t); err != nil {
		p.log.Warn().Err(err).Msg("publish failed")
		return
	}
	p.log.Debug().Str("prayer", t.Prayer.String()).Str("type", t.Type.String()).Msg("published timer")
}
