package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Permission is the outcome of a notification permission request.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

type PermissionRequester interface {
	// Supported reports whether the notification channel exists at all.
	Supported() bool
	RequestPermission(ctx context.Context) (Permission, error)
}

// WebhookPermission checks that a Discord webhook accepts us. A GET on a
// webhook URL returns its metadata when the token is valid.
type WebhookPermission struct {
	webhookURL string
	client     *http.Client
}

func NewWebhookPermission(webhookURL string) *WebhookPermission {
	return &WebhookPermission{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *WebhookPermission) Supported() bool {
	return p.webhookURL != ""
}

func (p *WebhookPermission) RequestPermission(ctx context.Context) (Permission, error) {
	if !p.Supported() {
		return PermissionDefault, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.webhookURL, nil)
	if err != nil {
		return PermissionDenied, fmt.Errorf("invalid webhook URL: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return PermissionDefault, fmt.Errorf("webhook unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return PermissionGranted, nil
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound:
		return PermissionDenied, nil
	default:
		return PermissionDefault, fmt.Errorf("webhook check returned %s", resp.Status)
	}
}

// RequestOnce asks r for permission and returns the outcome. Unsupported
// channels and errors resolve to a non-granted permission; nothing is fatal.
func RequestOnce(ctx context.Context, r PermissionRequester) Permission {
	if r == nil || !r.Supported() {
		return PermissionDefault
	}
	p, err := r.RequestPermission(ctx)
	if err != nil {
		slog.Warn("Notification permission request failed", "error", err)
		return PermissionDefault
	}
	return p
}
