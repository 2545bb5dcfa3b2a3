package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	DefaultSMTPServer   = "smtp.gmail.com"
	DefaultSMTPPort     = 465
	DefaultHost         = "0.0.0.0"
	DefaultPort         = 5001
	DefaultGroqModel    = "llama3-8b-8192"
	DefaultCalendlyLink = "https://calendly.com/22cs101-kpriet/30min"
	DefaultLogFile      = "logs/meeting_logs.json"
	DefaultSQLitePath   = "logs/meetings.db"

	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	TransportSMTP = "smtp"
	TransportStub = "stub"
)

// ErrMissingCredentials is returned when mail would be sent over SMTP
// without a sender address or password.
var ErrMissingCredentials = errors.New("missing sender credentials: set sender_email and sender_password in config.json")

// Config is built once at process start and handed to every component
// by pointer. Field tags follow the keys of config.json.
type Config struct {
	SenderEmail    string `json:"sender_email"`
	SenderPassword string `json:"sender_password"`
	SMTPServer     string `json:"smtp_server"`
	SMTPPort       Port   `json:"smtp_port"`
	Host           string `json:"flask_host"`
	Port           Port   `json:"flask_port"`
	RSVPBaseURL    string `json:"rsvp_base_url"`
	GroqAPIKey     string `json:"groq_api_key"`
	GroqModel      string `json:"groq_model"`
	CalendlyLink   string `json:"calendly_link"`

	LogFile        string            `json:"log_file"`
	Store          string            `json:"store"`
	DatabaseURL    string            `json:"database_url"`
	SQLitePath     string            `json:"sqlite_path"`
	Contacts       map[string]string `json:"contacts"`
	MailTransport  string            `json:"mail_transport"`
	AllowedOrigins []string          `json:"allowed_origins"`
}

// Port accepts either a JSON number or a numeric string.
type Port int

func (p *Port) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid port %s: %w", string(data), err)
	}
	*p = Port(n)
	return nil
}

// Load reads the config file at path, applies defaults and then the
// environment overrides (GROQ_API_KEY, DATABASE_URL).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data, os.LookupEnv)
}

// Parse decodes raw config JSON. lookupEnv is injected so tests can supply
// their own environment.
func Parse(data []byte, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	if lookupEnv != nil {
		if v, ok := lookupEnv("GROQ_API_KEY"); ok && v != "" {
			cfg.GroqAPIKey = v
		}
		if v, ok := lookupEnv("DATABASE_URL"); ok && v != "" {
			cfg.DatabaseURL = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SMTPServer == "" {
		c.SMTPServer = DefaultSMTPServer
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = DefaultSMTPPort
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.GroqModel == "" {
		c.GroqModel = DefaultGroqModel
	}
	if c.CalendlyLink == "" {
		c.CalendlyLink = DefaultCalendlyLink
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
	if c.Store == "" {
		c.Store = StoreFile
	}
	if c.SQLitePath == "" {
		c.SQLitePath = DefaultSQLitePath
	}
	if c.MailTransport == "" {
		c.MailTransport = TransportSMTP
	}
	if c.Contacts == nil {
		c.Contacts = map[string]string{}
	}
}

// Validate checks settings that would otherwise fail later at wiring time.
// Missing mail credentials are not checked here; see MailCredentials.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("store %q requires database_url or DATABASE_URL", c.Store)
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}

	switch c.MailTransport {
	case TransportSMTP, TransportStub:
	default:
		return fmt.Errorf("unknown mail_transport %q", c.MailTransport)
	}

	if c.SMTPPort < 1 || c.SMTPPort > 65535 {
		return fmt.Errorf("smtp_port %d out of range", c.SMTPPort)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("flask_port %d out of range", c.Port)
	}
	return nil
}

// MailCredentials reports whether outbound mail can be sent with the
// configured transport.
func (c *Config) MailCredentials() error {
	if c.MailTransport == TransportStub {
		return nil
	}
	if c.SenderEmail == "" || c.SenderPassword == "" {
		return ErrMissingCredentials
	}
	return nil
}

// ListenAddr is the bind address of the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
