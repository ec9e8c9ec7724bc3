package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medassist/internal/config"
)

type Notifier interface {
	Send(ctx context.Context, phoneNumber, message string) error
}

type smsNotifier struct {
	cfg  config.SMSConfig
	http *http.Client
}

// NewSMSNotifier sends messages through the Africa's Talking messaging API.
func NewSMSNotifier(cfg config.SMSConfig) Notifier {
	return &smsNotifier{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

func (n *smsNotifier) Send(ctx context.Context, phoneNumber, message string) error {
	form := url.Values{}
	form.Set("username", n.cfg.Username)
	form.Set("to", internationalFormat(phoneNumber))
	form.Set("message", message)
	if n.cfg.SenderID != "" {
		form.Set("from", n.cfg.SenderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(n.cfg.BaseURL, "/")+"/version1/messaging", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("apiKey", n.cfg.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("failed to send SMS: status %d: %s", resp.StatusCode, body)
	}
	return nil
}

// internationalFormat prefixes "+" to a bare 254XXXXXXXXX number.
func internationalFormat(phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + phone
}
