package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"meeting-scheduler/api/pkg/clients/email"
	"meeting-scheduler/api/pkg/config"
	"meeting-scheduler/api/services/contacts"
	"meeting-scheduler/api/services/storage"
)

// Request is a structured scheduling request, usually produced by the
// intent extractor and confirmed by the user.
type Request struct {
	Recipients []string `json:"emails"`
	Date       string   `json:"date"`
	Time       string   `json:"time"`
	Days       int      `json:"days"`
	MeetLink   string   `json:"meetLink,omitempty"`
}

// Result describes what a Schedule call did, including partial outcomes
// when an error is also returned.
type Result struct {
	Emails     []string                `json:"emails"`
	Unresolved []string                `json:"unresolved,omitempty"`
	Warnings   []string                `json:"warnings,omitempty"`
	Records    []storage.MeetingRecord `json:"records"`
	Sent       int                     `json:"sent"`
	Failures   []SendFailure           `json:"failures,omitempty"`
}

// Scheduler sends RSVP invites and appends the scheduled days to the
// meeting log. It is the only writer of new records.
type Scheduler struct {
	cfg      *config.Config
	store    storage.Storage
	mailer   email.Client
	resolver contacts.Resolver

	now     func() time.Time
	baseURL func() string
}

// New creates a Scheduler. All dependencies are required.
func New(cfg *config.Config, store storage.Storage, mailer email.Client, resolver contacts.Resolver) (*Scheduler, error) {
	if cfg == nil {
		return nil, fmt.Errorf("scheduler: config cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("scheduler: store cannot be nil")
	}
	if mailer == nil {
		return nil, fmt.Errorf("scheduler: mail client cannot be nil")
	}
	if resolver == nil {
		return nil, fmt.Errorf("scheduler: contact resolver cannot be nil")
	}
	return &Scheduler{
		cfg:      cfg,
		store:    store,
		mailer:   mailer,
		resolver: resolver,
		now:      time.Now,
		baseURL:  func() string { return BaseURL(cfg) },
	}, nil
}

// Schedule creates one record per day for req.Days days and sends an
// invite per (day, recipient). Nothing is sent or written when the
// credentials, recipients, date or time are unusable. Individual send
// failures do not stop the remaining sends; the records are appended
// regardless and a *SendError is returned afterwards.
func (s *Scheduler) Schedule(ctx context.Context, req Request) (*Result, error) {
	if err := s.cfg.MailCredentials(); err != nil {
		return nil, err
	}
	if req.Days < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidDays, req.Days)
	}

	emails, unresolved := s.resolveRecipients(req.Recipients)
	res := &Result{Emails: emails, Unresolved: unresolved}

	if len(emails) == 0 {
		slog.Warn("no valid recipients", "recipients", req.Recipients)
		return res, ErrNoRecipients
	}
	if len(unresolved) > 0 {
		msg := "no email mapping for " + strings.Join(unresolved, ", ")
		slog.Warn(msg, "unresolved", unresolved)
		res.Warnings = append(res.Warnings, msg)
	}

	start, err := ParseDate(req.Date, s.now())
	if err != nil {
		return res, err
	}
	clock, err := NormalizeTime(req.Time)
	if err != nil {
		return res, err
	}
	days, err := expandDays(start, req.Days)
	if err != nil {
		return res, err
	}

	base := s.baseURL()
	records := make([]storage.MeetingRecord, 0, len(days))

	for _, day := range days {
		date := day.Format(dateLayout)

		for _, addr := range emails {
			accept, decline := RSVPLinks(base, addr)
			msg := email.Message{
				To:      addr,
				From:    s.cfg.SenderEmail,
				Subject: inviteSubject,
				Body:    inviteBody(addr, date, clock, accept, decline),
			}
			if _, err := s.mailer.Send(ctx, msg); err != nil {
				slog.Warn("failed to send invite", "to", addr, "date", date, "error", err)
				res.Failures = append(res.Failures, SendFailure{Email: addr, Date: date, Error: err.Error()})
				continue
			}
			res.Sent++
		}

		rec := storage.NewMeetingRecord(emails, date, clock)
		rec.MeetLink = req.MeetLink
		records = append(records, rec)
	}
	res.Records = records

	var errs []error
	if len(res.Failures) > 0 {
		errs = append(errs, &SendError{Failures: res.Failures})
	}
	if err := s.store.Append(ctx, records); err != nil {
		slog.Error("failed to append meeting log", "records", len(records), "error", err)
		errs = append(errs, fmt.Errorf("%w: %w", ErrSaveFailed, err))
	}

	slog.Info("meetings scheduled",
		"recipients", len(emails), "days", len(records), "sent", res.Sent, "failed", len(res.Failures))

	switch len(errs) {
	case 0:
		return res, nil
	case 1:
		return res, errs[0]
	default:
		return res, errors.Join(errs...)
	}
}

// resolveRecipients keeps tokens containing "@" as literal addresses and
// looks the rest up in the contact directory. Duplicates are dropped,
// first occurrence wins.
func (s *Scheduler) resolveRecipients(tokens []string) (emails, unresolved []string) {
	add := func(addr string) {
		if !slices.Contains(emails, addr) {
			emails = append(emails, addr)
		}
	}

	for _, tok := range tokens {
		target := strings.TrimSpace(tok)
		if target == "" {
			continue
		}
		if strings.Contains(target, "@") {
			add(target)
			continue
		}
		found := s.resolver.Resolve([]string{target})
		if len(found) == 0 {
			unresolved = append(unresolved, target)
			continue
		}
		for _, addr := range found {
			add(addr)
		}
	}
	return emails, unresolved
}
