// v0
// internal/mirror/mirror_test.go
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nrgchamp/dashboard/internal/breaker"
	"nrgchamp/dashboard/internal/history"
	"nrgchamp/dashboard/internal/notify"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type recordingWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.msgs)
}

func TestHistoryPublisherDeliversEntries(t *testing.T) {
	w := &recordingWriter{}
	p, err := newHistoryPublisher(KafkaConfig{Brokers: []string{"kafka:9092"}, Topic: "dashboard.history"}, quietLogger(), w, w)
	require.NoError(t, err)
	p.Start(context.Background())

	e := history.NewEntry(history.TypePrediction, time.Unix(1714564800, 0), map[string]any{"prediction": 4321.5})
	p.Mirror(e)
	require.Eventually(t, func() bool { return w.count() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, p.Stop(context.Background()))

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.True(t, w.closed)
	assert.Equal(t, []byte(e.ID), w.msgs[0].Key)
	var decoded history.Entry
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, e.ID, decoded.ID)
	assert.Equal(t, history.TypePrediction, decoded.Type)
	published, failed := p.Stats()
	assert.EqualValues(t, 1, published)
	assert.Zero(t, failed)
}

func TestHistoryPublisherCountsFailures(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p, err := newHistoryPublisher(KafkaConfig{Brokers: []string{"kafka:9092"}, Topic: "t"}, quietLogger(), w, nil)
	require.NoError(t, err)
	p.Start(context.Background())
	p.Mirror(history.NewEntry(history.TypeDataRefresh, time.Now(), nil))
	require.Eventually(t, func() bool { _, f := p.Stats(); return f == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, p.Stop(context.Background()))
}

func TestHistoryPublisherIgnoresEntriesBeforeStart(t *testing.T) {
	w := &recordingWriter{}
	p, err := newHistoryPublisher(KafkaConfig{Topic: "t"}, quietLogger(), w, nil)
	require.NoError(t, err)
	p.Mirror(history.NewEntry(history.TypeDataRefresh, time.Now(), nil))
	assert.Zero(t, w.count())
}

func TestNewHistoryPublisherNeedsConfig(t *testing.T) {
	_, err := NewHistoryPublisher(KafkaConfig{}, breaker.Settings{}, quietLogger())
	assert.Error(t, err)
}

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type fakeMQTT struct {
	topic   string
	payload []byte
}

func (f *fakeMQTT) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	f.topic = topic
	f.payload = payload.([]byte)
	return doneToken{}
}

func TestNotificationPublisher(t *testing.T) {
	client := &fakeMQTT{}
	p := NewNotificationPublisher(client, "dashboard/notifications", quietLogger())
	n := notify.New(quietLogger(), nil, p)

	item := n.Error("Failed to load city data: HTTP 500: Internal Server Error")

	assert.Equal(t, "dashboard/notifications", client.topic)
	var got notify.Item
	require.NoError(t, json.Unmarshal(client.payload, &got))
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, notify.SeverityError, got.Severity)
}

func TestConfigsEnabled(t *testing.T) {
	assert.False(t, KafkaConfig{Topic: "t"}.Enabled())
	assert.True(t, KafkaConfig{Brokers: []string{"b"}, Topic: "t"}.Enabled())
	assert.False(t, MQTTConfig{Broker: "tcp://b:1883"}.Enabled())
	assert.True(t, MQTTConfig{Broker: "tcp://b:1883", Topic: "t"}.Enabled())
}
