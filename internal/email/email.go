// Package email delivers transactional mail through the Resend API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"forum/internal/models"
	"forum/internal/observability"
)

const resendEndpoint = "https://api.resend.com/emails"

// Notifier sends the registration verification email. The token is the
// recipient's proof of address ownership; signup completes only when it is
// redeemed.
type Notifier interface {
	SendVerification(ctx context.Context, to, name, token string) error
}

// ResendNotifier sends mail through the Resend HTTP API.
type ResendNotifier struct {
	apiKey   string
	from     string
	baseURL  string
	endpoint string
	client   *http.Client
}

// NewResendNotifier returns a Notifier backed by Resend.
func NewResendNotifier(apiKey, from, baseURL string) *ResendNotifier {
	return &ResendNotifier{
		apiKey:   apiKey,
		from:     from,
		baseURL:  baseURL,
		endpoint: resendEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendVerification mails the signup verification link.
func (n *ResendNotifier) SendVerification(ctx context.Context, to, name, token string) error {
	link := fmt.Sprintf("%s/verify?token=%s", n.baseURL, url.QueryEscape(token))
	body := resendRequest{
		From:    n.from,
		To:      []string{to},
		Subject: "Verify your registration",
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>Finish creating your account by confirming your email address:</p><p><a href=%q>Verify my email</a></p><p>The link expires in 24 hours. If you did not sign up, you can ignore this message.</p>",
			name, link,
		),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return models.NewInternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return models.NewInternalError(err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		observability.EmailsSentTotal.WithLabelValues("error").Inc()
		return models.NewExternalError("failed to send verification email", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.EmailsSentTotal.WithLabelValues("error").Inc()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.NewExternalError("failed to send verification email",
			fmt.Errorf("resend returned %d: %s", resp.StatusCode, snippet))
	}

	observability.EmailsSentTotal.WithLabelValues("sent").Inc()
	observability.GlobalLogger.InfoContext(ctx, "verification email sent", "to", to)
	return nil
}

// LogNotifier writes the verification link to the log instead of sending
// mail. Used in development when no Resend key is configured.
type LogNotifier struct {
	baseURL string
}

// NewLogNotifier returns a Notifier that only logs.
func NewLogNotifier(baseURL string) *LogNotifier {
	return &LogNotifier{baseURL: baseURL}
}

// SendVerification logs the link that would have been mailed.
func (n *LogNotifier) SendVerification(ctx context.Context, to, name, token string) error {
	link := fmt.Sprintf("%s/verify?token=%s", n.baseURL, url.QueryEscape(token))
	observability.GlobalLogger.InfoContext(ctx, "verification email (log only)",
		"to", to, "name", name, "link", link)
	return nil
}
