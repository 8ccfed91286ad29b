package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/Nixie-Tech-LLC/signance/internal/metrics"
)

const publishTimeout = 5 * time.Second

// Publisher is the part of mqtt.Client the sink needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSink publishes each event to <prefix>/<event>, so players can
// subscribe to <prefix>/# or to single event types.
type MQTTSink struct {
	client Publisher
	prefix string
	logger zerolog.Logger
}

func NewMQTTSink(client Publisher, prefix string, logger zerolog.Logger) *MQTTSink {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = "signance/events"
	}
	return &MQTTSink{
		client: client,
		prefix: prefix,
		logger: logger.With().Str("component", "mqtt_sink").Logger(),
	}
}

// Topic returns the topic an event is published on.
func (s *MQTTSink) Topic(event string) string {
	return s.prefix + "/" + event
}

func (s *MQTTSink) Notify(event string, payload map[string]any) {
	data, err := json.Marshal(NewEvent(event, payload))
	if err != nil {
		s.logger.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return
	}
	token := s.client.Publish(s.Topic(event), 1, false, data)
	if !token.WaitTimeout(publishTimeout) {
		metrics.NotificationsTotal.WithLabelValues("mqtt", "timeout").Inc()
		s.logger.Warn().Str("event", event).Msg("mqtt publish timed out")
		return
	}
	if err := token.Error(); err != nil {
		metrics.NotificationsTotal.WithLabelValues("mqtt", "failed").Inc()
		s.logger.Error().Err(err).Str("event", event).Msg("mqtt publish failed")
		return
	}
	metrics.NotificationsTotal.WithLabelValues("mqtt", "sent").Inc()
}

// ConnectMQTT opens the broker connection used by MQTTSink.
func ConnectMQTT(brokerURL, clientID string, logger zerolog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		logger.Info().Str("broker", brokerURL).Msg("connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn().Err(err).Msg("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		// ConnectRetry keeps trying in the background
		logger.Warn().Str("broker", brokerURL).Msg("MQTT broker not reachable yet, retrying in background")
		return client, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	return client, nil
}
