package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/residence-ops/residence-tickets/internal/notification"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []notification.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg notification.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestMailQueueDeliversInBackground(t *testing.T) {
	next := &recordingMailer{}
	q := NewMailQueue(next, 4, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := StartNotificationWorker(ctx, q)

	require.NoError(t, q.Send(context.Background(), notification.Message{To: []string{"a@residence.test"}, Subject: "one"}))
	require.NoError(t, q.Send(context.Background(), notification.Message{To: []string{"b@residence.test"}, Subject: "two"}))

	assert.Eventually(t, func() bool { return next.count() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestMailQueueRejectsWhenFull(t *testing.T) {
	q := NewMailQueue(&recordingMailer{}, 1, time.Second, zap.NewNop())

	require.NoError(t, q.Send(context.Background(), notification.Message{Subject: "first"}))
	assert.ErrorIs(t, q.Send(context.Background(), notification.Message{Subject: "second"}), ErrQueueFull)
}

func TestMailQueueLogsDeliveryFailures(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	next := &recordingMailer{err: errors.New("relay refused")}
	q := NewMailQueue(next, 1, time.Second, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	done := StartNotificationWorker(ctx, q)
	require.NoError(t, q.Send(context.Background(), notification.Message{To: []string{"a@residence.test"}}))

	assert.Eventually(t, func() bool { return logs.FilterMessage("mail delivery failed").Len() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
