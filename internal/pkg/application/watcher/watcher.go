package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	DefaultBroker string = "tcp://localhost:1883"
	DefaultTopic  string = "devices/+/sensors/+/value"
)

var ErrMalformedTopic = errors.New("malformed topic")

var topicPattern = regexp.MustCompile(`^devices/([^/]+)/sensors/([^/]+)/value$`)

type Reading struct {
	DeviceID string
	SensorID string
	Value    float64
	Received time.Time
}

// Handler receives every valid reading. It is called from paho's goroutines
// and must be safe for concurrent use.
type Handler func(ctx context.Context, r Reading)

type Config struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
}

// ParseTopic extracts the device and sensor ids from a sensor value topic.
func ParseTopic(topic string) (string, string, error) {
	m := topicPattern.FindStringSubmatch(strings.TrimPrefix(topic, "/"))
	if m == nil {
		return "", "", fmt.Errorf("%w: %s", ErrMalformedTopic, topic)
	}
	return m[1], m[2], nil
}

// ParseValue accepts a plain number or a {"value": n} document.
func ParseValue(payload []byte) (float64, error) {
	s := strings.TrimSpace(string(payload))

	v, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return v, nil
	}

	doc := struct {
		Value *float64 `json:"value"`
	}{}
	if jsonErr := json.Unmarshal([]byte(s), &doc); jsonErr == nil && doc.Value != nil {
		return *doc.Value, nil
	}

	return 0, fmt.Errorf("failed to parse value %q: %w", s, err)
}

func ParseMessage(topic string, payload []byte) (Reading, error) {
	deviceID, sensorID, err := ParseTopic(topic)
	if err != nil {
		return Reading{}, err
	}

	v, err := ParseValue(payload)
	if err != nil {
		return Reading{}, err
	}

	return Reading{DeviceID: deviceID, SensorID: sensorID, Value: v, Received: time.Now().UTC()}, nil
}

// NewMessageHandler returns a paho handler that logs each reading and passes
// it on to handler. Messages that cannot be parsed are logged and dropped.
func NewMessageHandler(ctx context.Context, handler Handler) mqtt.MessageHandler {
	logger := logging.GetFromContext(ctx)

	return func(_ mqtt.Client, msg mqtt.Message) {
		r, err := ParseMessage(msg.Topic(), msg.Payload())
		if err != nil {
			logger.Warn().Err(err).Str("topic", msg.Topic()).Msg("dropping message")
			return
		}

		logger.Info().
			Str("device_id", r.DeviceID).
			Str("sensor_id", r.SensorID).
			Float64("value", r.Value).
			Msg("sensor value received")

		if handler != nil {
			handler(ctx, r)
		}
	}
}

// Run connects to the broker, subscribes to cfg.Topic and blocks until ctx is
// done.
func Run(ctx context.Context, cfg Config, handler Handler) error {
	logger := logging.GetFromContext(ctx)

	if cfg.Broker == "" {
		cfg.Broker = DefaultBroker
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "majiup-watcher-" + uuid.NewString()
	}

	onMessage := NewMessageHandler(ctx, handler)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetDefaultPublishHandler(onMessage)
	opts.OnConnect = func(c mqtt.Client) {
		logger.Info().Str("broker", cfg.Broker).Msg("connected")

		// resubscribe after every reconnect
		token := c.Subscribe(cfg.Topic, 1, onMessage)
		token.Wait()
		if token.Error() != nil {
			logger.Error().Err(token.Error()).Str("topic", cfg.Topic).Msg("failed to subscribe")
			return
		}
		logger.Info().Str("topic", cfg.Topic).Msg("subscribed")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn().Err(err).Msg("connection lost")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Broker, token.Error())
	}

	<-ctx.Done()

	client.Disconnect(250)
	logger.Info().Msg("disconnected from broker")

	return nil
}
