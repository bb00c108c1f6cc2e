package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.mailgun.net/v3"

// MailgunConfig carries the credentials and sender identity for the
// Mailgun messages API.
type MailgunConfig struct {
	Domain    string
	APIKey    string
	FromTitle string
	FromEmail string
	// APIBase overrides the Mailgun endpoint, used by tests.
	APIBase string
}

// Mailgun sends email through the Mailgun HTTP API.
type Mailgun struct {
	cfg    MailgunConfig
	client *http.Client
}

func NewMailgun(cfg MailgunConfig) *Mailgun {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	return &Mailgun{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	if m.cfg.APIKey == "" {
		return fmt.Errorf("%w: mailgun api key is not configured", ErrDelivery)
	}
	if m.cfg.Domain == "" {
		return fmt.Errorf("%w: mailgun domain is not configured", ErrDelivery)
	}

	form := url.Values{}
	form.Set("from", fmt.Sprintf("%s <%s>", m.cfg.FromTitle, m.cfg.FromEmail))
	form.Set("to", to)
	form.Set("subject", subject)
	form.Set("text", text)
	form.Set("html", html)

	endpoint := fmt.Sprintf("%s/%s/messages", m.cfg.APIBase, m.cfg.Domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", m.cfg.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: mailgun returned status %d", ErrDelivery, resp.StatusCode)
	}
	return nil
}
