package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

// sendTimeout bounds one SMTP conversation. There is no retry.
const sendTimeout = 30 * time.Second

// Security is how the connection to the relay is protected.
type Security int

const (
	// SecurityNone sends over plain SMTP.
	SecurityNone Security = iota
	// SecuritySSL uses implicit TLS from the first byte (port 465).
	SecuritySSL
	// SecurityStartTLS upgrades a plain connection with STARTTLS (port 587).
	SecurityStartTLS
)

func (s Security) String() string {
	switch s {
	case SecuritySSL:
		return "ssl"
	case SecurityStartTLS:
		return "starttls"
	default:
		return "none"
	}
}

// SecurityForPort picks the connection security from the relay port.
func SecurityForPort(port int) Security {
	switch port {
	case 465:
		return SecuritySSL
	case 587:
		return SecurityStartTLS
	default:
		return SecurityNone
	}
}

// SMTPConfig holds relay settings and the sender's login.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPClient delivers messages through an authenticated SMTP relay.
type SMTPClient struct {
	cfg SMTPConfig
}

// NewSMTPClient validates the relay settings. Credentials are required
// because every supported relay needs a login.
func NewSMTPClient(cfg SMTPConfig) (*SMTPClient, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp: host cannot be empty")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("smtp: invalid port %d", cfg.Port)
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("smtp: sender credentials are required")
	}
	return &SMTPClient{cfg: cfg}, nil
}

func (c *SMTPClient) options() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(c.cfg.Port),
		mail.WithTimeout(sendTimeout),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(c.cfg.Username),
		mail.WithPassword(c.cfg.Password),
	}
	switch SecurityForPort(c.cfg.Port) {
	case SecuritySSL:
		opts = append(opts, mail.WithSSL())
	case SecurityStartTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	return opts
}

func (c *SMTPClient) Send(ctx context.Context, msg Message) (*Result, error) {
	from := msg.From
	if from == "" {
		from = c.cfg.Username
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	client, err := mail.NewClient(c.cfg.Host, c.options()...)
	if err != nil {
		return nil, fmt.Errorf("failed to configure smtp client: %w", err)
	}

	slog.Debug("sending email", "to", msg.To, "subject", msg.Subject,
		"relay", c.cfg.Host, "port", c.cfg.Port, "security", SecurityForPort(c.cfg.Port).String())

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return nil, fmt.Errorf("smtp send to %s failed: %w", msg.To, err)
	}

	return &Result{
		DeliveryStatus: "sent",
		Sent:           true,
	}, nil
}
