package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// RelayProvider posts {"email", "content"} to an HTTP email relay, which
// takes care of the actual mail transport.
type RelayProvider struct {
	url    string
	client *http.Client
}

func NewRelayProvider(url string) *RelayProvider {
	return &RelayProvider{url: url, client: http.DefaultClient}
}

func (p *RelayProvider) Type() string { return "relay" }

type relayPayload struct {
	Email   string `json:"email"`
	Content string `json:"content"`
}

// Deliver sends body to the relay. The relay contract has no subject field;
// the subject only appears in logs.
func (p *RelayProvider) Deliver(ctx context.Context, address, subject, body string) error {
	data, err := json.Marshal(relayPayload{Email: address, Content: body})
	if err != nil {
		return fmt.Errorf("failed to marshal relay payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("relay returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
