package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/agentctl/agentctl/pkg/mail"
)

const defaultUser = "me"

// Client implements the mail.Service interface on top of the Gmail API.
// The OAuth handshake itself is delegated to the official SDK; this
// client only loads previously issued credentials.
type Client struct {
	svc  *gmailapi.Service
	user string
}

// ClientConfig holds configuration for the Gmail client
type ClientConfig struct {
	CredentialsPath string // OAuth client secret JSON
	TokenPath       string // previously issued user token JSON
	User            string // defaults to "me"
}

// NewClient creates a new Gmail-backed mail service
func NewClient(ctx context.Context, config ClientConfig) (*Client, error) {
	if config.User == "" {
		config.User = defaultUser
	}

	creds, err := os.ReadFile(config.CredentialsPath)
	if err != nil {
		return nil, &mail.AuthError{Reason: "reading credentials file", Err: err}
	}

	oauthCfg, err := google.ConfigFromJSON(creds, gmailapi.GmailModifyScope)
	if err != nil {
		return nil, &mail.AuthError{Reason: "parsing credentials file", Err: err}
	}

	token, err := loadToken(config.TokenPath)
	if err != nil {
		return nil, &mail.AuthError{Reason: "loading oauth token", Err: err}
	}

	svc, err := gmailapi.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, token)))
	if err != nil {
		return nil, &mail.AuthError{Reason: "creating gmail service", Err: err}
	}

	return &Client{svc: svc, user: config.User}, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// ListEmails returns up to maxResults message summaries matching query.
func (c *Client) ListEmails(ctx context.Context, maxResults int64, query string) ([]mail.Message, error) {
	call := c.svc.Users.Messages.List(c.user).Context(ctx)
	if maxResults > 0 {
		call = call.MaxResults(maxResults)
	}
	if query != "" {
		call = call.Q(query)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, wrapErr("list", err)
	}

	messages := make([]mail.Message, 0, len(resp.Messages))
	for _, ref := range resp.Messages {
		msg, err := c.fetch(ctx, ref.Id, "metadata")
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, nil
}

// GetEmail returns the full message, including its decoded body.
func (c *Client) GetEmail(ctx context.Context, id string) (*mail.Message, error) {
	return c.fetch(ctx, id, "full")
}

// SendEmail sends a message and returns its summary record.
func (c *Client) SendEmail(ctx context.Context, to []string, subject, body string, opts mail.SendOptions) (*mail.Message, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	if len(opts.Cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(opts.Cc, ", "))
	}
	if len(opts.Bcc) > 0 {
		fmt.Fprintf(&b, "Bcc: %s\r\n", strings.Join(opts.Bcc, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(body)

	raw := base64.URLEncoding.EncodeToString([]byte(b.String()))
	sent, err := c.svc.Users.Messages.Send(c.user, &gmailapi.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return nil, wrapErr("send", err)
	}

	return &mail.Message{
		ID:       sent.Id,
		ThreadID: sent.ThreadId,
		Subject:  subject,
		To:       to,
		Cc:       opts.Cc,
		Bcc:      opts.Bcc,
		Date:     time.Now().UTC(),
		Body:     body,
	}, nil
}

// SearchEmails returns message summaries matching query.
func (c *Client) SearchEmails(ctx context.Context, query string, maxResults int64) ([]mail.Message, error) {
	return c.ListEmails(ctx, maxResults, query)
}

// fetch retrieves one message in the given format and normalizes it.
func (c *Client) fetch(ctx context.Context, id, format string) (*mail.Message, error) {
	call := c.svc.Users.Messages.Get(c.user, id).Format(format).Context(ctx)
	if format == "metadata" {
		call = call.MetadataHeaders("Subject", "From", "To", "Cc", "Date")
	}

	raw, err := call.Do()
	if err != nil {
		return nil, wrapErr("get", err)
	}

	msg := &mail.Message{
		ID:       raw.Id,
		ThreadID: raw.ThreadId,
		Snippet:  raw.Snippet,
	}

	if raw.Payload != nil {
		for _, h := range raw.Payload.Headers {
			switch h.Name {
			case "Subject":
				msg.Subject = h.Value
			case "From":
				msg.From = h.Value
			case "To":
				msg.To = splitAddresses(h.Value)
			case "Cc":
				msg.Cc = splitAddresses(h.Value)
			case "Date":
				if t, err := parseDate(h.Value); err == nil {
					msg.Date = t
				}
			}
		}

		if format == "full" {
			msg.Body = extractBody(raw.Payload)
			for _, part := range raw.Payload.Parts {
				if part.Filename != "" {
					msg.Attachments = append(msg.Attachments, part.Filename)
				}
			}
		}
	}

	return msg, nil
}

// extractBody walks the MIME tree for the first text/plain part.
func extractBody(payload *gmailapi.MessagePart) string {
	if payload.Body != nil && payload.Body.Data != "" && strings.HasPrefix(payload.MimeType, "text/") {
		if decoded, ok := decodeBody(payload.Body.Data); ok {
			return decoded
		}
	}
	for _, part := range payload.Parts {
		if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
			if decoded, ok := decodeBody(part.Body.Data); ok {
				return decoded
			}
		}
	}
	for _, part := range payload.Parts {
		if body := extractBody(part); body != "" {
			return body
		}
	}
	return ""
}

// decodeBody decodes a message body. The API serves base64url without
// padding; padded input is accepted too.
func decodeBody(data string) (string, bool) {
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(decoded), true
	}
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded), true
	}
	return "", false
}

func splitAddresses(header string) []string {
	parts := strings.Split(header, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
}

// wrapErr maps Gmail API failures onto the two mail error kinds.
func wrapErr(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return &mail.AuthError{Reason: fmt.Sprintf("gmail rejected %s", op), Err: err}
		}
	}
	return &mail.OpError{Op: op, Reason: "gmail api call failed", Err: err}
}
