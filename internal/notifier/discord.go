package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pauljones0/stockwatch/internal/models"
	"github.com/pauljones0/stockwatch/internal/status"
	"github.com/pauljones0/stockwatch/internal/util"
)

const (
	colorInStock    = 7715328  // #76B900
	colorOutOfStock = 3092790  // #2F3136
	colorOther      = 16753920 // #FFA500

	maxSendRetries = 3
)

// Discord shows alerts as webhook embeds. The embed title links to the
// storefront, so clicking it opens the store in a new tab.
type Discord struct {
	webhookURL  string
	client      *http.Client
	rateLimiter *rate.Limiter
	retryBase   time.Duration
}

func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		// Discord allows 5 requests per 2s per webhook.
		rateLimiter: rate.NewLimiter(rate.Every(400*time.Millisecond), 1),
		retryBase:   time.Second,
	}
}

type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}

type discordEmbed struct {
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	URL         string             `json:"url,omitempty"`
	Timestamp   string             `json:"timestamp,omitempty"`
	Color       int                `json:"color,omitempty"`
	Footer      discordEmbedFooter `json:"footer,omitempty"`
}

// Show posts the alert to the webhook. An empty webhook URL is a no-op.
func (c *Discord) Show(ctx context.Context, alert models.Alert) error {
	if c.webhookURL == "" {
		return nil
	}
	payload := discordWebhookPayload{Embeds: []discordEmbed{formatAlertToEmbed(alert, time.Now())}}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return util.RetryWithBackoff(ctx, maxSendRetries, c.retryBase, func(attempt int) error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return util.Permanent(fmt.Errorf("rate limiter: %w", err))
		}
		return c.post(ctx, payloadBytes)
	})
}

func (c *Discord) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return util.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	sendErr := fmt.Errorf("discord status: %s, body: %s", resp.Status, string(bodyBytes))

	backoff := retryBackoff(resp, c.retryBase)
	if backoff == 0 {
		return util.Permanent(sendErr)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return util.RetryAfter(sendErr, backoff)
	}
	return sendErr
}

// retryBackoff returns how long to wait before retrying resp, or zero when
// the status is not retryable. 429 honours Retry-After (seconds).
func retryBackoff(resp *http.Response, base time.Duration) time.Duration {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs := util.SafeAtoi(resp.Header.Get("Retry-After")); secs > 0 {
			return time.Duration(secs) * time.Second
		}
		return base
	case resp.StatusCode >= 500:
		return base
	default:
		return 0
	}
}

func formatAlertToEmbed(alert models.Alert, now time.Time) discordEmbed {
	return discordEmbed{
		Title:       alert.Title,
		Description: alert.Body,
		URL:         alert.URL,
		Timestamp:   now.UTC().Format(time.RFC3339),
		Color:       alertColor(alert.Body),
		Footer:      discordEmbedFooter{Text: "Click the title to open the store"},
	}
}

func alertColor(body string) int {
	switch {
	case strings.HasSuffix(body, " to "+status.InStock+"."):
		return colorInStock
	case strings.HasSuffix(body, " to "+status.OutOfStock+"."):
		return colorOutOfStock
	default:
		return colorOther
	}
}
