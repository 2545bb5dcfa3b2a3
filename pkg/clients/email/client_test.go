package email_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"meeting-scheduler/api/pkg/clients/email"
)

func TestSecurityForPort(t *testing.T) {
	t.Parallel()
	tests := []struct {
		port int
		want email.Security
	}{
		{port: 465, want: email.SecuritySSL},
		{port: 587, want: email.SecurityStartTLS},
		{port: 25, want: email.SecurityNone},
		{port: 2525, want: email.SecurityNone},
	}

	for _, tt := range tests {
		if got := email.SecurityForPort(tt.port); got != tt.want {
			t.Errorf("port %d: expected %s, got %s", tt.port, tt.want, got)
		}
	}
}

func TestNewSMTPClient_Validation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cfg     email.SMTPConfig
		wantErr string
	}{
		{name: "valid", cfg: email.SMTPConfig{Host: "smtp.example.com", Port: 465, Username: "bot@example.com", Password: "pw"}},
		{name: "missing host", cfg: email.SMTPConfig{Port: 465, Username: "u", Password: "p"}, wantErr: "host cannot be empty"},
		{name: "bad port", cfg: email.SMTPConfig{Host: "h", Username: "u", Password: "p"}, wantErr: "invalid port 0"},
		{name: "missing password", cfg: email.SMTPConfig{Host: "h", Port: 587, Username: "u"}, wantErr: "credentials are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := email.NewSMTPClient(tt.cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestStubClient_LogsWithoutKeepingMessages(t *testing.T) {
	t.Parallel()
	c := email.NewStubClient("bot@example.com")

	for i := 0; i < 3; i++ {
		res, err := c.Send(context.Background(), email.Message{To: "a@x.com", Subject: "hi", Body: "body"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Sent || res.DeliveryStatus != "logged" {
			t.Errorf("expected logged stub result, got %+v", res)
		}
	}

	if got := reflect.TypeOf(*c).NumField(); got != 1 {
		t.Errorf("expected stub to hold only its sender address, got %d fields", got)
	}
}
