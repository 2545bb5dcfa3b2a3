package storagemock

import (
	"context"

	"meeting-scheduler/api/services/storage"
)

// StorageMock implements storage.Storage. Each method defers to its func
// field when set; otherwise it operates on the in-memory Records slice
// with the same first-match rule as the real backends.
type StorageMock struct {
	LoadMock      func(ctx context.Context) ([]storage.MeetingRecord, error)
	AppendMock    func(ctx context.Context, records []storage.MeetingRecord) error
	UpdateOneMock func(ctx context.Context, match func(*storage.MeetingRecord) bool, mutate func(*storage.MeetingRecord)) (bool, error)

	// Records is the fallback log. Missing reports ErrLogNotFound from
	// UpdateOne, like an absent log file.
	Records []storage.MeetingRecord
	Missing bool

	AppendCalls int
}

func (m *StorageMock) Load(ctx context.Context) ([]storage.MeetingRecord, error) {
	if m.LoadMock != nil {
		return m.LoadMock(ctx)
	}
	out := make([]storage.MeetingRecord, len(m.Records))
	copy(out, m.Records)
	return out, nil
}

func (m *StorageMock) Append(ctx context.Context, records []storage.MeetingRecord) error {
	m.AppendCalls++
	if m.AppendMock != nil {
		return m.AppendMock(ctx, records)
	}
	m.Records = append(m.Records, records...)
	m.Missing = false
	return nil
}

func (m *StorageMock) UpdateOne(ctx context.Context, match func(*storage.MeetingRecord) bool, mutate func(*storage.MeetingRecord)) (bool, error) {
	if m.UpdateOneMock != nil {
		return m.UpdateOneMock(ctx, match, mutate)
	}
	if m.Missing {
		return false, storage.ErrLogNotFound
	}
	for i := range m.Records {
		if match(&m.Records[i]) {
			mutate(&m.Records[i])
			return true, nil
		}
	}
	return false, nil
}
