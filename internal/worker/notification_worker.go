package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/residence-ops/residence-tickets/internal/notification"
)

// ErrQueueFull is returned by MailQueue.Send when the buffer is saturated.
var ErrQueueFull = errors.New("mail queue full")

// MailQueue is a notification.Mailer that buffers messages for a background
// worker, so event handlers running inside a request never wait on SMTP.
type MailQueue struct {
	next    notification.Mailer
	jobs    chan notification.Message
	timeout time.Duration
	logger  *zap.Logger
}

// NewMailQueue wraps next with a buffer of size messages. Each delivery is
// bounded by timeout.
func NewMailQueue(next notification.Mailer, size int, timeout time.Duration, logger *zap.Logger) *MailQueue {
	if size <= 0 {
		size = 64
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MailQueue{
		next:    next,
		jobs:    make(chan notification.Message, size),
		timeout: timeout,
		logger:  logger,
	}
}

// Send enqueues msg without blocking.
func (q *MailQueue) Send(_ context.Context, msg notification.Message) error {
	select {
	case q.jobs <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// StartNotificationWorker delivers queued mail until ctx is cancelled. The
// returned channel is closed once the worker has stopped; messages still
// queued at that point are dropped and counted in the log.
func StartNotificationWorker(ctx context.Context, q *MailQueue) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				if pending := len(q.jobs); pending > 0 {
					q.logger.Warn("dropping queued mail on shutdown", zap.Int("pending", pending))
				}
				return
			case msg := <-q.jobs:
				q.deliver(ctx, msg)
			}
		}
	}()
	return done
}

func (q *MailQueue) deliver(ctx context.Context, msg notification.Message) {
	sendCtx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	if err := q.next.Send(sendCtx, msg); err != nil {
		q.logger.Error("mail delivery failed",
			zap.Strings("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err))
	}
}
