// Copyright (c) 2026 Paperchat. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package mail delivers transactional email through the Resend HTTP API.
// Callers treat delivery as best-effort; a failed send never fails the
// business operation that triggered it.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/paperchat/internal/platform/ctxutil"
)

const (
	resendEndpoint = "https://api.resend.com/emails"
	sendTimeout    = 10 * time.Second
)

// Sender defines the outbound email contract.
type Sender interface {
	Send(context context.Context, to, subject, htmlBody string) error
}

// # Resend Implementation

// ResendSender delivers email through the Resend API.
type ResendSender struct {
	apiKey     string
	from       string
	httpClient *http.Client
}

// NewResendSender constructs a [ResendSender] with the given API key and
// sender address.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		apiKey:     apiKey,
		from:       from,
		httpClient: &http.Client{Timeout: sendTimeout},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

/*
Send delivers one HTML email to a single recipient.

Parameters:
  - context: context.Context
  - to: string
  - subject: string
  - htmlBody: string

Returns:
  - error: Transport failures or non-2xx API responses
*/
func (sender *ResendSender) Send(context context.Context, to, subject, htmlBody string) error {
	payload, err := json.Marshal(resendRequest{
		From:    sender.from,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
	})
	if err != nil {
		return fmt.Errorf("mail_sender_encode_failed: %w", err)
	}

	request, err := http.NewRequestWithContext(context, http.MethodPost, resendEndpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("mail_sender_request_failed: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+sender.apiKey)
	request.Header.Set("Content-Type", "application/json")

	response, err := sender.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("mail_sender_send_failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return fmt.Errorf("mail_sender_send_failed: status %d: %s", response.StatusCode, body)
	}

	return nil
}

// # Development Fallback

// LogSender writes outbound mail to the structured log instead of sending
// it. Used when no API key is configured.
type LogSender struct{}

// Send logs the message and reports success.
func (sender *LogSender) Send(context context.Context, to, subject, htmlBody string) error {
	ctxutil.GetLogger(context).InfoContext(context, "mail_logged_not_sent",
		slog.String("to", to),
		slog.String("subject", subject),
	)
	return nil
}

// NewSender selects the Resend implementation when an API key is configured
// and the log fallback otherwise.
func NewSender(apiKey, from string) Sender {
	if apiKey == "" {
		return &LogSender{}
	}
	return NewResendSender(apiKey, from)
}
