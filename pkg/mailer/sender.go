// Package mailer delivers transactional email through the Resend HTTP API,
// or only logs it when no provider is configured.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/boskojeremic/iflowx/pkg/logger"
	"go.uber.org/zap"
)

// Sender sends transactional emails
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message represents an email to send
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

// ResendSender sends emails via the Resend HTTP API
type ResendSender struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// NewResendSender creates a Resend email sender
func NewResendSender(apiKey, apiURL string, timeout time.Duration) *ResendSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ResendSender{
		apiKey: apiKey,
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type resendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Send posts the message to the Resend API
func (r *ResendSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(resendRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("marshal resend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create resend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resend request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var re resendError
		_ = json.Unmarshal(respBody, &re)
		return fmt.Errorf("resend error (HTTP %d): %s %s", resp.StatusCode, re.Name, re.Message)
	}
	return nil
}

// LogSender logs emails instead of sending them. Bodies are never logged
// because invite links carry secrets.
type LogSender struct{}

// NewLogSender creates a sender that logs emails
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the recipient and subject through the request-scoped logger
func (l *LogSender) Send(ctx context.Context, msg Message) error {
	logger.FromContext(ctx).Named("mail").Info("Email not sent, no provider configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
