package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"marketplace-api/internal/config"
	"net/http"
	"time"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type mailerClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	apiKey     string
	fromEmail  string
	fromName   string
}

func NewMailerClient(mailCfg *config.Mail) Mailer {
	return &mailerClientImpl{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseApiURL: mailCfg.BaseApiURL,
		apiKey:     mailCfg.APIKey,
		fromEmail:  mailCfg.FromEmail,
		fromName:   mailCfg.FromName,
	}
}

func (c *mailerClientImpl) Send(ctx context.Context, to, subject, body string) error {
	// No mail API configured: log and move on. Order confirmation must never
	// depend on the mail provider being reachable.
	if c.baseApiURL == "" {
		log.Printf("mailer not configured, skipping email to=%s subject=%q", to, subject)
		return nil
	}

	payload := map[string]interface{}{
		"from":    map[string]string{"email": c.fromEmail, "name": c.fromName},
		"to":      []map[string]string{{"email": to}},
		"subject": subject,
		"html":    body,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v3/mail/send", bytes.NewBuffer(raw))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail api error %d: %s", resp.StatusCode, string(b))
	}

	return nil
}
