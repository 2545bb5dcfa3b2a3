package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoRecipients = errors.New("no valid recipients: provide email addresses or known contact names")
	ErrInvalidDate  = errors.New("could not parse date")
	ErrInvalidTime  = errors.New("could not parse time")
	ErrInvalidDays  = errors.New("days must be at least 1")
	ErrSaveFailed   = errors.New("failed to save meeting log")
)

// SendFailure is one invite that could not be delivered.
type SendFailure struct {
	Email string `json:"email"`
	Date  string `json:"date"`
	Error string `json:"error"`
}

// SendError aggregates every failed send of a Schedule call. The meeting
// log is still written when it is returned.
type SendError struct {
	Failures []SendFailure
}

func (e *SendError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Email, f.Error))
	}
	return "failed to send to: " + strings.Join(parts, ", ")
}
