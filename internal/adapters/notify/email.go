package notify

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"net/http"
	texttemplate "text/template"
	"time"

	"github.com/DanielPopoola/atelier-storefront/internal/config"
	"github.com/DanielPopoola/atelier-storefront/internal/core/ports"
)

//go:embed templates/*
var templateFS embed.FS

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type sendEmailResponse struct {
	ID string `json:"id"`
}

// EmailNotifier renders a named template and posts it to a Resend-compatible API.
type EmailNotifier struct {
	baseURL    string
	apiKey     string
	from       string
	html       *htmltemplate.Template
	text       *texttemplate.Template
	httpClient *http.Client
}

func NewEmailNotifier(cfg config.NotificationConfig) (*EmailNotifier, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing html templates: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parsing text templates: %w", err)
	}
	return &EmailNotifier{
		baseURL: cfg.EmailBaseURL,
		apiKey:  cfg.EmailAPIKey,
		from:    cfg.FromAddress,
		html:    html,
		text:    text,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

var _ ports.Notifier = (*EmailNotifier)(nil)

func (n *EmailNotifier) Send(ctx context.Context, msg ports.Notification) error {
	var htmlBody, textBody bytes.Buffer
	if err := n.html.ExecuteTemplate(&htmlBody, msg.Template+".html", msg.TemplateData); err != nil {
		return fmt.Errorf("rendering %s html: %w", msg.Template, err)
	}
	if err := n.text.ExecuteTemplate(&textBody, msg.Template+".txt", msg.TemplateData); err != nil {
		return fmt.Errorf("rendering %s text: %w", msg.Template, err)
	}

	body, err := json.Marshal(sendEmailRequest{
		From:    n.from,
		To:      []string{msg.RecipientEmail},
		Subject: msg.Subject,
		HTML:    htmlBody.String(),
		Text:    textBody.String(),
	})
	if err != nil {
		return fmt.Errorf("error marshalling json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email provider returned status %d: %s", resp.StatusCode, string(raw))
	}

	var sent sendEmailResponse
	if err := json.NewDecoder(resp.Body).Decode(&sent); err != nil {
		return fmt.Errorf("error decoding json response: %w", err)
	}
	return nil
}
