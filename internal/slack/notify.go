package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultEndpoint = "https://slack.com/api/chat.postMessage"

type Config struct {
	Token   string
	Channel string
	// Endpoint overrides DefaultEndpoint.
	Endpoint string
	Client   *http.Client
}

// Notifier posts plain text messages to a single channel.
type Notifier struct {
	endpoint string
	token    string
	channel  string
	client   *http.Client
}

func NewNotifier(cfg *Config) *Notifier {
	n := &Notifier{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		channel:  cfg.Channel,
		client:   cfg.Client,
	}
	if n.endpoint == "" {
		n.endpoint = DefaultEndpoint
	}
	if n.client == nil {
		n.client = &http.Client{Timeout: 10 * time.Second}
	}
	return n
}

type postMessage struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type postResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (n *Notifier) Notify(ctx context.Context, text string) error {
	body, err := json.Marshal(postMessage{Channel: n.channel, Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", n.token))

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack responded with status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var out postResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("invalid slack response: %w", err)
	}
	if !out.OK {
		return fmt.Errorf("slack error: %s", out.Error)
	}

	return nil
}
