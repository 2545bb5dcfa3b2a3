package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1/chat/completions"
	requestTimeout = 30 * time.Second
	temperature    = 0.2
	systemPrompt   = "You are a helpful assistant that extracts meeting scheduling info."
)

// maxResponseBody caps how much of an upstream reply is read.
const maxResponseBody = 1 << 20 // 1MB

var (
	// ErrMissingAPIKey is returned before any request when no key is configured.
	ErrMissingAPIKey = errors.New("missing Groq API key: set GROQ_API_KEY or groq_api_key in config.json")
	// ErrNoJSON is returned when the model reply has no parseable JSON object in it.
	ErrNoJSON = errors.New("failed to extract JSON from model output")
)

var jsonBlock = regexp.MustCompile(`(?s)\{.*\}`)

// Intent is the structured meeting request pulled out of free text.
type Intent struct {
	Emails []string `json:"emails"`
	Date   string   `json:"date"`
	Time   string   `json:"time"`
	Days   int      `json:"days"`
}

// Extractor turns a natural-language request into an Intent.
type Extractor interface {
	ExtractMeeting(ctx context.Context, text string) (*Intent, error)
}

// GroqClient calls Groq's OpenAI-compatible chat completions endpoint.
type GroqClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGroqClient creates an extractor. Accepts an optional http.Client for
// custom transport settings; the default one times out after 30s.
func NewGroqClient(apiKey, model string, httpClient *http.Client) *GroqClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &GroqClient{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func buildPrompt(text string) string {
	return fmt.Sprintf(`
Extract the following details from this message:
- List of emails
- Start date (YYYY-MM-DD)
- Time (HH:MM 24hr format)
- Number of days

Message: %q

Return ONLY this JSON structure (no explanation):
{
  "emails": ["email1@example.com", "email2@example.com"],
  "date": "YYYY-MM-DD",
  "time": "HH:MM",
  "days": <number>
}
`, text)
}

func (c *GroqClient) ExtractMeeting(ctx context.Context, text string) (*Intent, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(text)},
		},
		Temperature: temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("groq API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	slog.Debug("groq API response", "status", resp.StatusCode, "model", c.model)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("groq API error 401: invalid or missing API key, verify GROQ_API_KEY has not been revoked: %s", string(body))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("groq API error %d: %s", resp.StatusCode, string(body))
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("groq returned non-JSON response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("groq response has no choices")
	}

	return parseIntent(result.Choices[0].Message.Content)
}

// parseIntent pulls the first {...} block out of the model's reply.
func parseIntent(content string) (*Intent, error) {
	block := jsonBlock.FindString(content)
	if block == "" {
		return nil, ErrNoJSON
	}

	var intent Intent
	if err := json.Unmarshal([]byte(block), &intent); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoJSON, err)
	}
	if intent.Days < 1 {
		intent.Days = 1
	}
	if intent.Emails == nil {
		intent.Emails = []string{}
	}
	return &intent, nil
}
