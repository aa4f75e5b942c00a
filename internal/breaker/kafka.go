// v0
// internal/breaker/kafka.go
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of kafka.Writer used by the guarded writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPolicy bounds retries of a guarded Kafka write.
type KafkaPolicy struct {
	Attempts int
	Timeout  time.Duration
	Backoff  time.Duration
}

// DefaultKafkaPolicy mirrors the env defaults.
func DefaultKafkaPolicy() KafkaPolicy {
	return KafkaPolicy{Attempts: 5, Timeout: 3 * time.Second, Backoff: 200 * time.Millisecond}
}

// KafkaWriter retries writes under a breaker. A nil breaker writes straight
// through.
type KafkaWriter struct {
	writer MessageWriter
	brk    *Breaker
	policy KafkaPolicy
}

func NewKafkaWriter(writer MessageWriter, brk *Breaker, policy KafkaPolicy) *KafkaWriter {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &KafkaWriter{writer: writer, brk: brk, policy: policy}
}

// Breaker returns the guard, nil when disabled.
func (w *KafkaWriter) Breaker() *Breaker { return w.brk }

func (w *KafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w == nil || w.writer == nil {
		return errors.New("nil kafka writer")
	}
	if w.brk == nil {
		return w.writer.WriteMessages(ctx, msgs...)
	}
	attempts := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		attempts++
		attemptCtx, cancel := w.attemptContext(ctx)
		err := w.brk.Execute(attemptCtx, func(execCtx context.Context) error {
			return w.writer.WriteMessages(execCtx, msgs...)
		})
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempts >= w.policy.Attempts {
			return err
		}
		if waitErr := w.wait(ctx); waitErr != nil {
			return waitErr
		}
	}
}

func (w *KafkaWriter) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.policy.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, w.policy.Timeout)
}

func (w *KafkaWriter) wait(ctx context.Context) error {
	if w.policy.Backoff <= 0 {
		return nil
	}
	timer := time.NewTimer(w.policy.Backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
