package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/smartsecurity/access-register/internal/config"
)

// HTTPPushGateway posts messages as JSON to a push endpoint.
type HTTPPushGateway struct {
	endpoint   string
	headers    map[string]string
	httpClient *http.Client
}

// NewHTTPPushGateway creates the gateway from its config section.
func NewHTTPPushGateway(cfg config.PushHTTP) *HTTPPushGateway {
	return &HTTPPushGateway{
		endpoint: cfg.Endpoint,
		headers:  cfg.Headers,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type pushRequest struct {
	To           string            `json:"to"`
	Notification map[string]string `json:"notification"`
	MessageID    string            `json:"messageId"`
}

type pushResponse struct {
	Name      string `json:"name"`
	MessageID string `json:"messageId"`
}

func (g *HTTPPushGateway) Send(ctx context.Context, msg Message) (string, error) {
	body, err := json.Marshal(pushRequest{
		To:           msg.Token,
		Notification: map[string]string{"title": msg.Title, "body": msg.Body},
		MessageID:    msg.ID,
	})
	if err != nil {
		return "", fmt.Errorf("marshal push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range g.headers {
		req.Header.Set(k, v)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post push: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("push endpoint returned %d", resp.StatusCode)
	}

	var out pushResponse
	if err := json.Unmarshal(raw, &out); err == nil {
		if out.Name != "" {
			return out.Name, nil
		}
		if out.MessageID != "" {
			return out.MessageID, nil
		}
	}

	log.Debug().Str("endpoint", g.endpoint).Int("status", resp.StatusCode).Msg("Push posted")
	return msg.ID, nil
}
