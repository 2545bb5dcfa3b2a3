package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"meeting-scheduler/api/pkg/clients/llm"
)

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func TestGroqClient_ExtractMeeting(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		apiKey     string
		status     int
		body       string
		wantErr    string
		wantIntent *llm.Intent
	}{
		{
			name:   "success with prose around the JSON",
			apiKey: "key",
			status: http.StatusOK,
			body: completion("Sure! Here you go:\n" +
				`{"emails":["a@x.com","b@x.com"],"date":"2024-01-01","time":"10:00","days":2}` +
				"\nLet me know."),
			wantIntent: &llm.Intent{Emails: []string{"a@x.com", "b@x.com"}, Date: "2024-01-01", Time: "10:00", Days: 2},
		},
		{
			name:       "missing days defaults to one",
			apiKey:     "key",
			status:     http.StatusOK,
			body:       completion(`{"emails":["a@x.com"],"date":"tomorrow","time":"09:00"}`),
			wantIntent: &llm.Intent{Emails: []string{"a@x.com"}, Date: "tomorrow", Time: "09:00", Days: 1},
		},
		{
			name:    "unauthorized",
			apiKey:  "bad",
			status:  http.StatusUnauthorized,
			body:    `{"error":"invalid"}`,
			wantErr: "groq API error 401",
		},
		{
			name:    "server error",
			apiKey:  "key",
			status:  http.StatusInternalServerError,
			body:    `oops`,
			wantErr: "groq API error 500: oops",
		},
		{
			name:    "non JSON body",
			apiKey:  "key",
			status:  http.StatusOK,
			body:    `<html>`,
			wantErr: "groq returned non-JSON response",
		},
		{
			name:    "reply without JSON",
			apiKey:  "key",
			status:  http.StatusOK,
			body:    completion("I could not find any meeting."),
			wantErr: llm.ErrNoJSON.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer "+tt.apiKey {
					t.Errorf("expected bearer auth, got %q", got)
				}
				var req struct {
					Model       string  `json:"model"`
					Temperature float64 `json:"temperature"`
					Messages    []struct {
						Role    string `json:"role"`
						Content string `json:"content"`
					} `json:"messages"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("failed to decode request: %v", err)
				}
				if req.Model != "test-model" || req.Temperature != 0.2 || len(req.Messages) != 2 {
					t.Errorf("unexpected request: %+v", req)
				}
				if len(req.Messages) == 2 && !strings.Contains(req.Messages[1].Content, "lunch with bob") {
					t.Errorf("expected prompt to embed the user text, got %q", req.Messages[1].Content)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := llm.NewGroqClient(tt.apiKey, "test-model", srv.Client())
			c.SetBaseURL(srv.URL)

			intent, err := c.ExtractMeeting(context.Background(), "lunch with bob tomorrow")
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(intent.Emails, ",") != strings.Join(tt.wantIntent.Emails, ",") ||
				intent.Date != tt.wantIntent.Date || intent.Time != tt.wantIntent.Time || intent.Days != tt.wantIntent.Days {
				t.Errorf("expected %+v, got %+v", tt.wantIntent, intent)
			}
		})
	}
}

func TestGroqClient_MissingKeyMakesNoRequest(t *testing.T) {
	t.Parallel()
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := llm.NewGroqClient("", "m", srv.Client())
	c.SetBaseURL(srv.URL)

	_, err := c.ExtractMeeting(context.Background(), "anything")
	if !errors.Is(err, llm.ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
	if called {
		t.Error("expected no HTTP request without an API key")
	}
}

func TestParseIntent_InvalidJSON(t *testing.T) {
	t.Parallel()
	_, err := llm.ParseIntent(`{"emails": [}`)
	if !errors.Is(err, llm.ErrNoJSON) {
		t.Errorf("expected malformed JSON block to wrap ErrNoJSON, got %v", err)
	}
}

func TestGroqClient_LimitsResponseBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(strings.Repeat("x", 3*llm.MaxResponseBody)))
	}))
	defer srv.Close()

	c := llm.NewGroqClient("key", "m", srv.Client())
	c.SetBaseURL(srv.URL)

	_, err := c.ExtractMeeting(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if len(err.Error()) > llm.MaxResponseBody+100 {
		t.Errorf("expected upstream body to be truncated, error is %d bytes", len(err.Error()))
	}
}
