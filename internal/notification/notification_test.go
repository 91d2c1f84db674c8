package notification

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/residence-ops/residence-tickets/internal/config"
)

func TestCompose(t *testing.T) {
	date := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	raw, err := Compose("noreply@residence.test", Message{
		To:      []string{"gardien@residence.test"},
		Subject: "Ticket assigné : Fuite d'eau",
		Body:    "Hall plafond",
	}, date)
	require.NoError(t, err)

	r, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := r.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Ticket assigné : Fuite d'eau", subject)

	to, err := r.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "gardien@residence.test", to[0].Address)

	sent, err := r.Header.Date()
	require.NoError(t, err)
	assert.True(t, sent.Equal(date))

	part, err := r.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(part.Body)
	require.NoError(t, err)
	assert.Equal(t, "Hall plafond", string(body))
}

func TestComposeRequiresRecipient(t *testing.T) {
	_, err := Compose("noreply@residence.test", Message{Subject: "x"}, time.Now())
	assert.ErrorIs(t, err, errNoRecipients)
}

func TestNewSelectsAdapter(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	mailer := New(config.NotificationConfig{}, logger)
	require.NoError(t, mailer.Send(context.Background(), Message{To: []string{"a@b.c"}, Subject: "hello"}))
	assert.Equal(t, 1, logs.FilterMessage("mail not sent, smtp disabled").Len())

	_, isSMTP := New(config.NotificationConfig{SMTPHost: "smtp.residence.test", SMTPPort: 25}, logger).(*SMTPMailer)
	assert.True(t, isSMTP)
}
