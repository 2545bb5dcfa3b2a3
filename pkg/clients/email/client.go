package email

import (
	"context"
	"log/slog"
)

// Message is a single plain-text email.
type Message struct {
	To      string
	From    string
	Subject string
	Body    string
}

// Result holds the outcome of a send attempt.
type Result struct {
	DeliveryStatus string
	Sent           bool
}

// Client sends one email per call with a single attempt; callers decide
// what a failure means. Implementations are the SMTP relay and a stub.
type Client interface {
	Send(ctx context.Context, msg Message) (*Result, error)
}

// StubClient logs messages instead of delivering them. It backs the
// "stub" mail transport and keeps nothing in memory.
type StubClient struct {
	FromAddress string
}

// NewStubClient creates an email client that logs instead of sending.
func NewStubClient(fromAddress string) *StubClient {
	return &StubClient{FromAddress: fromAddress}
}

func (c *StubClient) Send(_ context.Context, msg Message) (*Result, error) {
	if msg.From == "" {
		msg.From = c.FromAddress
	}
	slog.Info("sending email (stub)", "to", msg.To, "from", msg.From, "subject", msg.Subject)

	return &Result{
		DeliveryStatus: "logged",
		Sent:           true,
	}, nil
}
