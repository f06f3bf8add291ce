package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/prodscrape/models"
)

// EventProductUpdated is sent after a product page was fetched and its
// record persisted.
const EventProductUpdated = "product.updated"

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-Prodscrape-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string      `json:"type"`
	URL       string      `json:"url"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
// Header: X-Prodscrape-Signature: sha256=<hex>
func Deliver(ctx context.Context, client *http.Client, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Prodscrape-Webhook/1.0")

	if secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(secret, body))
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body keyed with secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Notifier delivers product.updated events to one endpoint.
type Notifier struct {
	URL    string
	Secret string

	// Delays lists the wait before each delivery attempt.
	// default: [0s, 1s, 5s, 30s]
	Delays []time.Duration

	client *http.Client
}

// NewNotifier creates a Notifier for url. It returns nil when url is
// empty so callers can skip wiring it.
func NewNotifier(url, secret string) *Notifier {
	if url == "" {
		return nil
	}
	return &Notifier{
		URL:    url,
		Secret: secret,
		Delays: []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second},
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// RecordUpdated queues a product.updated event for rec and returns
// immediately.
func (n *Notifier) RecordUpdated(rec *models.ProductRecord) {
	n.DeliverAsync(&Event{
		Type:      EventProductUpdated,
		URL:       rec.URL,
		Timestamp: rec.UpdatedAt.Unix(),
		Data:      rec,
	})
}

// DeliverAsync sends a webhook event in the background, retrying after
// each of n.Delays.
func (n *Notifier) DeliverAsync(event *Event) {
	go func() {
		for attempt, delay := range n.Delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := Deliver(ctx, n.client, n.URL, n.Secret, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"url", n.URL,
					"event", event.Type,
					"product_url", event.URL,
					"attempt", attempt+1,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"url", n.URL,
				"event", event.Type,
				"product_url", event.URL,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries",
			"url", n.URL,
			"event", event.Type,
			"product_url", event.URL,
		)
	}()
}
