package actuator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"parking-lease-backend/config"
)

// Commander sends a structured command to a physical device. Delivery is
// fire-and-forget relative to lease-state commits: no guarantee is assumed,
// and a failure never unwinds an already committed state change.
type Commander interface {
	SendCommand(ctx context.Context, deviceID string, payload map[string]any) error
}

// Client relays cloud-to-device commands through the HTTP relay in front of
// the IoT hub.
type Client struct {
	url    string
	apiKey string
	client *http.Client
}

// NewClient creates a relay client from configuration.
func NewClient(cfg *config.ActuatorConfig) *Client {
	return &Client{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// SendCommand posts one command envelope to the relay. Each message carries
// a fresh id so the relay can de-duplicate retries.
func (c *Client) SendCommand(ctx context.Context, deviceID string, payload map[string]any) error {
	envelope := map[string]any{
		"messageId": uuid.NewString(),
		"deviceId":  deviceID,
		"payload":   payload,
	}

	jsonBody, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal command envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("relay returned non-success status code: %d", resp.StatusCode)
	}
	return nil
}
