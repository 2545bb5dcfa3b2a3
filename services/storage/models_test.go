package storage_test

import (
	"encoding/json"
	"testing"

	"meeting-scheduler/api/services/storage"
)

func TestRSVPState_JSON(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		state *storage.RSVPState
		want  string
	}{
		{name: "pending", state: nil, want: `null`},
		{name: "accepted", state: storage.Accepted(), want: `"Accepted"`},
		{name: "declined with reason", state: storage.Declined("busy"), want: `{"status":"Declined","reason":"busy"}`},
		{name: "declined without reason", state: storage.Declined(""), want: `{"status":"Declined","reason":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := json.Marshal(map[string]*storage.RSVPState{"a": tt.state})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != `{"a":`+tt.want+`}` {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRSVPState_DecodeLegacyValues(t *testing.T) {
	t.Parallel()
	raw := `{"a@x.com":"Declined","b@x.com":{"status":"Declined","reason":"sick"},"c@x.com":null,"d@x.com":"Accepted"}`

	var rsvp map[string]*storage.RSVPState
	if err := json.Unmarshal([]byte(raw), &rsvp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := rsvp["a@x.com"].Label(); got != storage.StatusDeclined {
		t.Errorf("expected bare Declined to decode, got %q", got)
	}
	if got := rsvp["b@x.com"].ReasonText(); got != "sick" {
		t.Errorf("expected reason 'sick', got %q", got)
	}
	if rsvp["c@x.com"] != nil {
		t.Errorf("expected null to stay pending, got %+v", rsvp["c@x.com"])
	}
	if got := rsvp["c@x.com"].Label(); got != storage.StatusPending {
		t.Errorf("expected Pending label, got %q", got)
	}
	if got := rsvp["d@x.com"].Label(); got != storage.StatusAccepted {
		t.Errorf("expected Accepted, got %q", got)
	}

	if err := json.Unmarshal([]byte(`{"a":42}`), &rsvp); err == nil {
		t.Error("expected error for numeric rsvp value")
	}
}

func TestMeetingRecord_JSONFieldNames(t *testing.T) {
	t.Parallel()
	rec := storage.NewMeetingRecord([]string{"a@x.com"}, "2024-01-01", "10:00")

	got, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"emails":["a@x.com"],"date":"2024-01-01","time":"10:00","rsvp":{"a@x.com":null}}`
	if string(got) != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestPending(t *testing.T) {
	t.Parallel()
	rec := storage.NewMeetingRecord([]string{"a@x.com", "b@x.com"}, "2024-01-01", "10:00")
	rec.SetRSVP("b@x.com", storage.Accepted())

	pending := storage.Pending("a@x.com")
	if !pending(&rec) {
		t.Error("expected a@x.com to be pending")
	}
	if storage.Pending("b@x.com")(&rec) {
		t.Error("expected answered b@x.com not to be pending")
	}
	if storage.Pending("c@x.com")(&rec) {
		t.Error("expected uninvited c@x.com not to be pending")
	}

	var legacy storage.MeetingRecord
	legacy.Emails = []string{"a@x.com"}
	legacy.SetRSVP("a@x.com", storage.Accepted())
	if legacy.RSVP["a@x.com"].Label() != storage.StatusAccepted {
		t.Error("expected SetRSVP to allocate the map")
	}
}
