package actuator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-lease-backend/config"
)

func newTestClient(url string) *Client {
	return NewClient(&config.ActuatorConfig{
		URL:            url,
		APIKey:         "relay-key",
		TimeoutSeconds: 2,
	})
}

func TestSendCommand(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "relay-key", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.SendCommand(context.Background(), "dev-1", OpenGate())
	require.NoError(t, err)

	assert.Equal(t, "dev-1", captured["deviceId"])
	assert.NotEmpty(t, captured["messageId"])
	assert.Equal(t, map[string]any{"openGate": true}, captured["payload"])
}

func TestSendCommand_RelayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.SendCommand(context.Background(), "dev-1", ExitApproved(true))
	assert.Error(t, err)
}

func TestCommandPayloads(t *testing.T) {
	assert.Equal(t, map[string]any{"openGate": true}, OpenGate())
	assert.Equal(t, map[string]any{"exitApproved": false}, ExitApproved(false))
	assert.Equal(t, map[string]any{"slot3Booked": true}, SlotBooked(3, true))
	assert.Equal(t, map[string]any{"slot1Booked": false}, SlotBooked(1, false))
}
