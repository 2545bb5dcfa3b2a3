package storage

import (
	"encoding/json"
	"fmt"
)

// recordRow is a MeetingRecord as stored in the SQL backends, with the
// set-valued fields kept as JSON text.
type recordRow struct {
	ID       int64
	Emails   []byte
	Date     string
	Time     string
	RSVP     []byte
	MeetLink string
}

func encodeRecord(rec MeetingRecord) (emails, rsvp string, err error) {
	emailsJSON, err := json.Marshal(nonNilEmails(rec.Emails))
	if err != nil {
		return "", "", fmt.Errorf("failed to encode emails: %w", err)
	}
	rsvpMap := rec.RSVP
	if rsvpMap == nil {
		rsvpMap = map[string]*RSVPState{}
	}
	rsvpJSON, err := json.Marshal(rsvpMap)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode rsvp: %w", err)
	}
	return string(emailsJSON), string(rsvpJSON), nil
}

func (r recordRow) decode() (MeetingRecord, error) {
	rec := MeetingRecord{
		Date:     r.Date,
		Time:     r.Time,
		MeetLink: r.MeetLink,
	}
	if err := json.Unmarshal(r.Emails, &rec.Emails); err != nil {
		return MeetingRecord{}, fmt.Errorf("record %d: invalid emails: %w", r.ID, err)
	}
	if err := json.Unmarshal(r.RSVP, &rec.RSVP); err != nil {
		return MeetingRecord{}, fmt.Errorf("record %d: invalid rsvp: %w", r.ID, err)
	}
	if rec.RSVP == nil {
		rec.RSVP = map[string]*RSVPState{}
	}
	return rec, nil
}

func nonNilEmails(emails []string) []string {
	if emails == nil {
		return []string{}
	}
	return emails
}
