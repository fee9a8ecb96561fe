// Package mail defines the mail capability consumed by mail tasks. The
// wire client and OAuth flow live behind the Service interface; the
// dispatcher only sees its two opaque error kinds.
package mail

import (
	"context"
	"fmt"
	"time"
)

// Message is the normalized mail-message record returned by every
// Service implementation.
type Message struct {
	ID          string    `json:"id"`
	ThreadID    string    `json:"thread_id"`
	Subject     string    `json:"subject"`
	From        string    `json:"from"`
	To          []string  `json:"to"`
	Cc          []string  `json:"cc,omitempty"`
	Bcc         []string  `json:"bcc,omitempty"`
	Date        time.Time `json:"date"`
	Snippet     string    `json:"snippet"`
	Body        string    `json:"body,omitempty"`
	Attachments []string  `json:"attachments,omitempty"`
}

// SendOptions carries the optional recipients for SendEmail.
type SendOptions struct {
	Cc  []string
	Bcc []string
}

// Service is the mail capability. Implementations must distinguish
// authentication failures (AuthError) from operation failures (OpError);
// callers treat both as opaque.
type Service interface {
	ListEmails(ctx context.Context, maxResults int64, query string) ([]Message, error)
	GetEmail(ctx context.Context, id string) (*Message, error)
	SendEmail(ctx context.Context, to []string, subject, body string, opts SendOptions) (*Message, error)
	SearchEmails(ctx context.Context, query string, maxResults int64) ([]Message, error)
}

// AuthError indicates the mail provider rejected or lacks credentials.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mail authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("mail authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// OpError indicates a mail operation failed after authentication.
type OpError struct {
	Op     string
	Reason string
	Err    error
}

func (e *OpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mail %s failed: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("mail %s failed: %s", e.Op, e.Reason)
}

func (e *OpError) Unwrap() error { return e.Err }
