// v0
// internal/mirror/mqtt.go
package mirror

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"nrgchamp/dashboard/internal/notify"
)

const publishWait = 2 * time.Second

// MQTTConfig selects the broker and topic for notifications.
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
}

func (c MQTTConfig) Enabled() bool { return c.Broker != "" && c.Topic != "" }

type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// NotificationPublisher implements notify.Sink over MQTT.
type NotificationPublisher struct {
	client mqttPublisher
	topic  string
	log    *slog.Logger
}

// ConnectMQTT dials the broker and returns a connected client.
func ConnectMQTT(cfg MQTTConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker)
	if cfg.ClientID != "" {
		opts.SetClientID(cfg.ClientID)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(5 * time.Second)
	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt %s: %w", cfg.Broker, token.Error())
	}
	return c, nil
}

func NewNotificationPublisher(client mqttPublisher, topic string, log *slog.Logger) *NotificationPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &NotificationPublisher{client: client, topic: topic, log: log.With(slog.String("component", "notification_mirror"))}
}

// Publish sends the notification as JSON with QoS 0. Failures are logged.
func (p *NotificationPublisher) Publish(item notify.Item) {
	payload, err := json.Marshal(item)
	if err != nil {
		p.log.Error("notification_mirror_encode_err", slog.Any("err", err))
		return
	}
	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(publishWait) {
		p.log.Warn("notification_mirror_timeout", slog.String("id", item.ID))
		return
	}
	if token.Error() != nil {
		p.log.Error("notification_mirror_publish_err", slog.Any("err", token.Error()), slog.String("id", item.ID))
	}
}
