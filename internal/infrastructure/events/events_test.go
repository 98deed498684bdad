package events_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-auth/internal/application/ports"
	"github.com/jhoicas/invorya-auth/internal/infrastructure/events"
	"github.com/jhoicas/invorya-auth/pkg/logger"
)

func TestLogPublisher_EscribeEventoSinSecretos(t *testing.T) {
	var buf bytes.Buffer
	pub := events.NewLogPublisher(logger.New(logger.Config{Env: "production", Level: "info", Out: &buf}))

	err := pub.Publish(context.Background(), ports.AuthEvent{
		Type:         ports.EventUserDisabled,
		CompanyID:    "c1",
		UserID:       "u1",
		ActorID:      "u0",
		Role:         "cashier",
		TokenVersion: 4,
		OccurredAt:   time.Now(),
	})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, ports.EventUserDisabled, line["event"])
	assert.Equal(t, "u1", line["user_id"])
	assert.Equal(t, "u0", line["actor_id"])
	assert.EqualValues(t, 4, line["token_version"])
}

func TestNewAMQPPublisher_SinURL(t *testing.T) {
	_, err := events.NewAMQPPublisher("", "invorya.auth", nil)
	assert.Error(t, err)
}
