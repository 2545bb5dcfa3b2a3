package rsvp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"meeting-scheduler/api/pkg/clients/email"
	"meeting-scheduler/api/pkg/config"
	"meeting-scheduler/api/services/storage"
)

const followUpSubject = "Your Meeting Link"

// Service records RSVP answers against the meeting log and mails the
// meeting link back on acceptance.
type Service struct {
	cfg    *config.Config
	store  storage.Storage
	mailer email.Client
}

// NewService creates an RSVP Service. All dependencies are required.
func NewService(cfg *config.Config, store storage.Storage, mailer email.Client) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("service: config cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("service: store cannot be nil")
	}
	if mailer == nil {
		return nil, fmt.Errorf("service: mail client cannot be nil")
	}
	return &Service{cfg: cfg, store: store, mailer: mailer}, nil
}

// textMiddleware sets the Content-Type header to text/plain
func textMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// LoadRoutes mounts the RSVP links embedded in invite emails. They live
// outside /api/v1 because the URLs are already in people's inboxes.
func (s *Service) LoadRoutes(parentRouter *mux.Router) {
	router := parentRouter.PathPrefix("/rsvp").Subrouter()
	router.StrictSlash(false)
	router.Use(textMiddleware)

	router.HandleFunc("/accept/{email}", s.HandleAccept).Methods("GET")
	router.HandleFunc("/decline/{email}", s.HandleDecline).Methods("GET")

	// Subrouters report a method mismatch as 404; answer it explicitly.
	router.HandleFunc("/accept/{email}", methodNotAllowed)
	router.HandleFunc("/decline/{email}", methodNotAllowed)
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", http.MethodGet)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

// Accept marks the earliest pending invite for addr as accepted, then
// looks up the newest meeting addr belongs to and mails its link. The two
// steps read the log independently. A failed follow-up is logged and
// otherwise ignored; the caller always gets the confirmation text.
func (s *Service) Accept(ctx context.Context, addr string) (string, error) {
	matched, err := s.store.UpdateOne(ctx, storage.Pending(addr), func(m *storage.MeetingRecord) {
		m.SetRSVP(addr, storage.Accepted())
	})
	if errors.Is(err, storage.ErrLogNotFound) {
		return noMeetingsMessage(addr), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to record acceptance for %s: %w", addr, err)
	}
	if !matched {
		slog.Info("no pending invite to accept", "email", addr)
	}

	link, err := s.meetingLink(ctx, addr)
	if err != nil {
		return "", err
	}

	msg := email.Message{
		To:      addr,
		From:    s.cfg.SenderEmail,
		Subject: followUpSubject,
		Body:    followUpBody(link),
	}
	if _, err := s.mailer.Send(ctx, msg); err != nil {
		slog.Warn("failed to send meeting link", "email", addr, "error", err)
	}

	return fmt.Sprintf("✅ Thanks %s, your RSVP was recorded and the meeting link has been sent to your inbox!", addr), nil
}

// Decline marks the earliest pending invite for addr as declined. An empty
// reason is stored as null. No email is sent.
func (s *Service) Decline(ctx context.Context, addr, reason string) (string, error) {
	_, err := s.store.UpdateOne(ctx, storage.Pending(addr), func(m *storage.MeetingRecord) {
		m.SetRSVP(addr, storage.Declined(reason))
	})
	if errors.Is(err, storage.ErrLogNotFound) {
		return noMeetingsMessage(addr), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to record decline for %s: %w", addr, err)
	}
	return fmt.Sprintf("Thanks, %s, your RSVP has been recorded as: ❌ Declined", addr), nil
}

// meetingLink scans from the newest record for one addr was invited to,
// whatever its RSVP state, and falls back to the Calendly link.
func (s *Service) meetingLink(ctx context.Context, addr string) (string, error) {
	records, err := s.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load meeting log: %w", err)
	}
	for i := len(records) - 1; i >= 0; i-- {
		if !records[i].HasEmail(addr) {
			continue
		}
		if records[i].MeetLink != "" {
			return records[i].MeetLink, nil
		}
		break
	}
	return s.cfg.CalendlyLink, nil
}

func noMeetingsMessage(addr string) string {
	return fmt.Sprintf("No meetings found for %s.", addr)
}

func followUpBody(link string) string {
	return fmt.Sprintf("Hi,\n\nThanks for RSVPing YES! Here's your meeting link:\n%s\n\nBest,\nAI Scheduler", link)
}
