// Package events publishes gateway action events to an MQTT broker so
// other home-automation consumers can react to device activity.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/castellan-home/castellan/pkg/gateway"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second
	disconnectQuiesceMs   = 250
)

// ErrNotConnected indicates a publish was attempted while the broker
// connection is down.
var ErrNotConnected = errors.New("mqtt client not connected")

// Config holds MQTT broker connection settings.
type Config struct {
	Host        string
	Port        int
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
}

// Publisher publishes action events to MQTT. It implements
// gateway.EventSink. A Publisher is safe for concurrent use; paho
// serializes outbound messages internally.
type Publisher struct {
	client mqtt.Client
	prefix string
	qos    byte
}

// NewPublisher connects to the broker and returns a Publisher. The paho
// client auto-reconnects after transient broker outages.
func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "castellan"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Minute)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("MQTT connected")
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect timeout after %v", defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect failed: %w", err)
	}

	return &Publisher{
		client: client,
		prefix: cfg.TopicPrefix,
		qos:    cfg.QoS,
	}, nil
}

// ActionCompleted publishes one action event to
// <prefix>/events/<device>. Publish failures are logged, never
// propagated: event delivery must not affect action outcomes.
func (p *Publisher) ActionCompleted(evt gateway.ActionEvent) {
	topic := fmt.Sprintf("%s/events/%s", p.prefix, evt.Device)
	if err := p.publishJSON(topic, evt); err != nil {
		log.Warn().
			Err(err).
			Str("topic", topic).
			Str("action", evt.Action).
			Msg("Failed to publish action event")
	}
}

// ConnectionStateChanged publishes a device's connection state to
// <prefix>/state/<device> as a retained message so late subscribers see
// the current topology without waiting for the next transition.
func (p *Publisher) ConnectionStateChanged(device, state string) {
	topic := fmt.Sprintf("%s/state/%s", p.prefix, device)
	payload := map[string]string{"device": device, "state": state}
	if err := p.publishRetained(topic, payload); err != nil {
		log.Warn().
			Err(err).
			Str("topic", topic).
			Str("state", state).
			Msg("Failed to publish connection state")
	}
}

// Publish sends an arbitrary JSON payload under the configured prefix.
func (p *Publisher) Publish(subtopic string, payload any) error {
	return p.publishJSON(fmt.Sprintf("%s/%s", p.prefix, subtopic), payload)
}

func (p *Publisher) publishJSON(topic string, payload any) error {
	return p.publish(topic, payload, false)
}

func (p *Publisher) publishRetained(topic string, payload any) error {
	return p.publish(topic, payload, true)
}

func (p *Publisher) publish(topic string, payload any, retained bool) error {
	if !p.client.IsConnected() {
		return ErrNotConnected
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := p.client.Publish(topic, p.qos, retained, body)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("publish timeout after %v", defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	return nil
}

// Close disconnects from the broker, allowing in-flight messages a short
// quiesce period.
func (p *Publisher) Close() {
	p.client.Disconnect(disconnectQuiesceMs)
}
