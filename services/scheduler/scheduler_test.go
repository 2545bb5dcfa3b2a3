package scheduler_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"meeting-scheduler/api/pkg/clients/email"
	"meeting-scheduler/api/pkg/config"
	"meeting-scheduler/api/services/contacts"
	"meeting-scheduler/api/services/scheduler"
	"meeting-scheduler/api/services/storage"
	"meeting-scheduler/api/services/storage/storagemock"
)

// mockMailer fails for every address listed in failFor.
type mockMailer struct {
	failFor map[string]bool

	mu   sync.Mutex
	sent []email.Message
}

func (m *mockMailer) Send(_ context.Context, msg email.Message) (*email.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[msg.To] {
		return nil, errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, msg)
	return &email.Result{DeliveryStatus: "sent", Sent: true}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		SenderEmail:    "bot@x.com",
		SenderPassword: "secret",
		MailTransport:  config.TransportSMTP,
		Port:           5001,
		RSVPBaseURL:    "http://rsvp.test",
	}
}

var fixedNow = time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)

func newScheduler(t *testing.T, cfg *config.Config, store storage.Storage, mailer email.Client) *scheduler.Scheduler {
	t.Helper()
	dir := contacts.NewDirectory(map[string]string{"Alice": "alice@x.com", "Bob": "bob@x.com"})
	s, err := scheduler.New(cfg, store, mailer, dir)
	if err != nil {
		t.Fatalf("failed to create scheduler: %v", err)
	}
	s.SetClock(func() time.Time { return fixedNow })
	return s
}

func TestNew_NilDependencies(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	store := &storagemock.StorageMock{}
	mailer := &mockMailer{}
	dir := contacts.NewDirectory(nil)

	if _, err := scheduler.New(nil, store, mailer, dir); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := scheduler.New(cfg, nil, mailer, dir); err == nil {
		t.Error("expected error for nil store")
	}
	if _, err := scheduler.New(cfg, store, nil, dir); err == nil {
		t.Error("expected error for nil mailer")
	}
	if _, err := scheduler.New(cfg, store, mailer, nil); err == nil {
		t.Error("expected error for nil resolver")
	}
}

func TestSchedule_MultiDay(t *testing.T) {
	t.Parallel()
	store := &storagemock.StorageMock{}
	mailer := &mockMailer{}
	s := newScheduler(t, testConfig(), store, mailer)

	res, err := s.Schedule(context.Background(), scheduler.Request{
		Recipients: []string{"Alice", "bob@x.com"},
		Date:       "2024-03-18",
		Time:       "3 PM",
		Days:       3,
		MeetLink:   "https://meet.example.com/xyz",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mailer.sent) != 6 {
		t.Fatalf("expected 6 invites, got %d", len(mailer.sent))
	}
	if res.Sent != 6 {
		t.Errorf("expected Sent=6, got %d", res.Sent)
	}
	if store.AppendCalls != 1 {
		t.Fatalf("expected one append, got %d", store.AppendCalls)
	}

	wantDates := []string{"2024-03-18", "2024-03-19", "2024-03-20"}
	if len(store.Records) != len(wantDates) {
		t.Fatalf("expected %d records, got %d", len(wantDates), len(store.Records))
	}
	for i, rec := range store.Records {
		if rec.Date != wantDates[i] {
			t.Errorf("record %d: expected date %s, got %s", i, wantDates[i], rec.Date)
		}
		if rec.Time != "15:00" {
			t.Errorf("record %d: expected time 15:00, got %s", i, rec.Time)
		}
		if rec.MeetLink != "https://meet.example.com/xyz" {
			t.Errorf("record %d: expected meet link, got %q", i, rec.MeetLink)
		}
		if len(rec.Emails) != 2 || rec.Emails[0] != "alice@x.com" || rec.Emails[1] != "bob@x.com" {
			t.Errorf("record %d: unexpected emails %v", i, rec.Emails)
		}
		for _, addr := range rec.Emails {
			if state, ok := rec.RSVP[addr]; !ok || state != nil {
				t.Errorf("record %d: expected pending rsvp for %s, got %+v", i, addr, state)
			}
		}
	}

	first := mailer.sent[0]
	if first.To != "alice@x.com" || first.Subject != "Meeting Invite with RSVP" {
		t.Errorf("unexpected first invite: %+v", first)
	}
	for _, want := range []string{
		"2024-03-18 at 15:00",
		"Accept: http://rsvp.test/rsvp/accept/alice@x.com",
		"Decline: http://rsvp.test/rsvp/decline/alice@x.com",
	} {
		if !strings.Contains(first.Body, want) {
			t.Errorf("expected invite body to contain %q, got:\n%s", want, first.Body)
		}
	}
}

func TestSchedule_RelativeDate(t *testing.T) {
	t.Parallel()
	store := &storagemock.StorageMock{}
	s := newScheduler(t, testConfig(), store, &mockMailer{})

	_, err := s.Schedule(context.Background(), scheduler.Request{
		Recipients: []string{"alice@x.com"},
		Date:       "tomorrow",
		Time:       "10:30",
		Days:       1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.Records) != 1 || store.Records[0].Date != "2024-03-15" {
		t.Errorf("expected one record on 2024-03-15, got %+v", store.Records)
	}
}

func TestSchedule_UnresolvedNamesWarn(t *testing.T) {
	t.Parallel()
	store := &storagemock.StorageMock{}
	mailer := &mockMailer{}
	s := newScheduler(t, testConfig(), store, mailer)

	res, err := s.Schedule(context.Background(), scheduler.Request{
		Recipients: []string{"Zed", " bob ", "bob@x.com", ""},
		Date:       "2024-03-18",
		Time:       "09:00",
		Days:       1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Emails) != 1 || res.Emails[0] != "bob@x.com" {
		t.Errorf("expected duplicates collapsed to bob@x.com, got %v", res.Emails)
	}
	if len(res.Unresolved) != 1 || res.Unresolved[0] != "Zed" {
		t.Errorf("expected Zed unresolved, got %v", res.Unresolved)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", res.Warnings)
	}
	if len(mailer.sent) != 1 {
		t.Errorf("expected 1 invite, got %d", len(mailer.sent))
	}
}

func TestSchedule_NoSideEffectsOnInvalidInput(t *testing.T) {
	t.Parallel()

	noCreds := testConfig()
	noCreds.SenderPassword = ""

	tests := []struct {
		name    string
		cfg     *config.Config
		req     scheduler.Request
		wantErr error
	}{
		{
			name:    "missing credentials",
			cfg:     noCreds,
			req:     scheduler.Request{Recipients: []string{"a@x.com"}, Date: "2024-03-18", Time: "10:00", Days: 1},
			wantErr: config.ErrMissingCredentials,
		},
		{
			name:    "no resolvable recipients",
			cfg:     testConfig(),
			req:     scheduler.Request{Recipients: []string{"Nobody", "  "}, Date: "2024-03-18", Time: "10:00", Days: 1},
			wantErr: scheduler.ErrNoRecipients,
		},
		{
			name:    "unparseable date",
			cfg:     testConfig(),
			req:     scheduler.Request{Recipients: []string{"a@x.com"}, Date: "blurgh", Time: "10:00", Days: 1},
			wantErr: scheduler.ErrInvalidDate,
		},
		{
			name:    "unparseable time",
			cfg:     testConfig(),
			req:     scheduler.Request{Recipients: []string{"a@x.com"}, Date: "2024-03-18", Time: "teatime", Days: 1},
			wantErr: scheduler.ErrInvalidTime,
		},
		{
			name:    "zero days",
			cfg:     testConfig(),
			req:     scheduler.Request{Recipients: []string{"a@x.com"}, Date: "2024-03-18", Time: "10:00", Days: 0},
			wantErr: scheduler.ErrInvalidDays,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := &storagemock.StorageMock{}
			mailer := &mockMailer{}
			s := newScheduler(t, tt.cfg, store, mailer)

			_, err := s.Schedule(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(mailer.sent) != 0 {
				t.Errorf("expected no invites, got %d", len(mailer.sent))
			}
			if store.AppendCalls != 0 {
				t.Errorf("expected no append, got %d", store.AppendCalls)
			}
		})
	}
}

func TestSchedule_PartialSendFailure(t *testing.T) {
	t.Parallel()
	store := &storagemock.StorageMock{}
	mailer := &mockMailer{failFor: map[string]bool{"bob@x.com": true}}
	s := newScheduler(t, testConfig(), store, mailer)

	res, err := s.Schedule(context.Background(), scheduler.Request{
		Recipients: []string{"alice@x.com", "bob@x.com"},
		Date:       "2024-03-18",
		Time:       "10:00",
		Days:       2,
	})

	var sendErr *scheduler.SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected *SendError, got %v", err)
	}
	if len(sendErr.Failures) != 2 {
		t.Errorf("expected 2 failures (one per day), got %d", len(sendErr.Failures))
	}
	if !strings.Contains(err.Error(), "bob@x.com (mailbox unavailable)") {
		t.Errorf("expected failing address in error, got %q", err)
	}
	if res.Sent != 2 {
		t.Errorf("expected 2 successful sends, got %d", res.Sent)
	}
	if len(store.Records) != 2 {
		t.Errorf("expected records appended despite failures, got %d", len(store.Records))
	}
}

func TestSchedule_AppendFailure(t *testing.T) {
	t.Parallel()
	store := &storagemock.StorageMock{
		AppendMock: func(context.Context, []storage.MeetingRecord) error {
			return errors.New("read-only filesystem")
		},
	}
	s := newScheduler(t, testConfig(), store, &mockMailer{})

	_, err := s.Schedule(context.Background(), scheduler.Request{
		Recipients: []string{"alice@x.com"},
		Date:       "2024-03-18",
		Time:       "10:00",
		Days:       1,
	})
	if !errors.Is(err, scheduler.ErrSaveFailed) {
		t.Fatalf("expected ErrSaveFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "read-only filesystem") {
		t.Errorf("expected cause in error, got %q", err)
	}
}

func TestSchedule_StubTransportNeedsNoCredentials(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.SenderEmail, cfg.SenderPassword = "", ""
	cfg.MailTransport = config.TransportStub
	store := &storagemock.StorageMock{}
	s := newScheduler(t, cfg, store, email.NewStubClient("bot@x.com"))

	res, err := s.Schedule(context.Background(), scheduler.Request{
		Recipients: []string{"alice@x.com"},
		Date:       "2024-03-18",
		Time:       "10:00",
		Days:       1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Sent != 1 || len(store.Records) != 1 {
		t.Errorf("expected one logged invite and one record, got sent=%d records=%d", res.Sent, len(store.Records))
	}
}
