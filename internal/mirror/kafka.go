// v0
// internal/mirror/kafka.go
// Package mirror forwards dashboard history entries to Kafka and
// notifications to MQTT. Both are optional and never block the dashboard.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/segmentio/kafka-go"

	"nrgchamp/dashboard/internal/breaker"
	"nrgchamp/dashboard/internal/history"
)

const (
	historyQueueSize   = 256
	historyBreakerName = "history-mirror"
)

var errNilWriter = errors.New("history publisher requires a writer")

// KafkaConfig selects the history topic.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether enough is configured to publish.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0 && strings.TrimSpace(c.Topic) != ""
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type writeCloser interface {
	Close() error
}

// HistoryPublisher copies history entries to Kafka from a background loop.
// Entries arriving while the queue is full are dropped and logged.
type HistoryPublisher struct {
	cfg    KafkaConfig
	log    *slog.Logger
	writer messageWriter
	closer writeCloser
	queue  chan history.Entry

	runCtx    context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	published atomic.Int64
	failed    atomic.Int64
}

// NewHistoryPublisher builds the Kafka writer, guarded by a breaker when
// settings.Enabled.
func NewHistoryPublisher(cfg KafkaConfig, settings breaker.Settings, log *slog.Logger, opts ...breaker.Option) (*HistoryPublisher, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("history mirror needs brokers and a topic")
	}
	base := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	var brk *breaker.Breaker
	if settings.Enabled {
		brk = breaker.New(historyBreakerName, settings.Kafka, nil, append([]breaker.Option{breaker.WithLogger(log)}, opts...)...)
	}
	return newHistoryPublisher(cfg, log, breaker.NewKafkaWriter(base, brk, settings.KafkaPolicy), base)
}

func newHistoryPublisher(cfg KafkaConfig, log *slog.Logger, writer messageWriter, closer writeCloser) (*HistoryPublisher, error) {
	if writer == nil {
		return nil, errNilWriter
	}
	if log == nil {
		log = slog.Default()
	}
	return &HistoryPublisher{
		cfg:    cfg,
		log:    log.With(slog.String("component", "history_mirror")),
		writer: writer,
		closer: closer,
		queue:  make(chan history.Entry, historyQueueSize),
	}, nil
}

// Start launches the delivery loop.
func (p *HistoryPublisher) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.runCtx, p.cancel = context.WithCancel(ctx)
		p.started.Store(true)
		p.wg.Add(1)
		go p.run()
		p.log.Info("history_mirror_started", slog.String("topic", p.cfg.Topic))
	})
}

// Stop ends the loop after draining queued entries, then closes the writer.
func (p *HistoryPublisher) Stop(ctx context.Context) error {
	var stopErr error
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			stopErr = ctx.Err()
		}
		if p.closer != nil {
			if err := p.closer.Close(); err != nil {
				p.log.Error("history_mirror_close_err", slog.Any("err", err))
			}
		}
		p.log.Info("history_mirror_stopped", slog.Int64("published", p.published.Load()), slog.Int64("failed", p.failed.Load()))
	})
	return stopErr
}

// Mirror implements history.Mirror.
func (p *HistoryPublisher) Mirror(e history.Entry) {
	if !p.started.Load() {
		p.log.Warn("history_mirror_not_started", slog.String("id", e.ID))
		return
	}
	select {
	case p.queue <- e:
	default:
		p.failed.Add(1)
		p.log.Warn("history_mirror_queue_full", slog.String("id", e.ID))
	}
}

// Stats returns delivered and failed counts.
func (p *HistoryPublisher) Stats() (published, failed int64) {
	return p.published.Load(), p.failed.Load()
}

func (p *HistoryPublisher) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.runCtx.Done():
			p.drain()
			p.started.Store(false)
			return
		case e := <-p.queue:
			p.deliver(p.runCtx, e)
		}
	}
}

func (p *HistoryPublisher) drain() {
	for {
		select {
		case e := <-p.queue:
			p.deliver(context.Background(), e)
		default:
			return
		}
	}
}

func (p *HistoryPublisher) deliver(ctx context.Context, e history.Entry) {
	value, err := json.Marshal(e)
	if err != nil {
		p.failed.Add(1)
		p.log.Error("history_mirror_encode_err", slog.Any("err", err), slog.String("id", e.ID))
		return
	}
	msg := kafka.Message{
		Key:     []byte(e.ID),
		Value:   value,
		Headers: []kafka.Header{{Key: "type", Value: []byte(e.Type)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.failed.Add(1)
		p.log.Error("history_mirror_publish_err", slog.Any("err", err), slog.String("id", e.ID))
		return
	}
	p.published.Add(1)
}
