package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// FileStore keeps the whole Meeting Log as one pretty-printed JSON array.
type FileStore struct {
	fs   billy.Filesystem
	path string
}

// NewFileStore returns a store for the log at path on the local disk.
// Relative paths are resolved against the working directory.
func NewFileStore(path string) (*FileStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve log path %q: %w", path, err)
	}
	root := filepath.VolumeName(abs) + string(filepath.Separator)
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve log path %q: %w", path, err)
	}
	return NewFileStoreFS(osfs.New(root), rel)
}

// NewFileStoreFS returns a store for the log at path inside fs.
func NewFileStoreFS(fs billy.Filesystem, path string) (*FileStore, error) {
	if fs == nil {
		return nil, fmt.Errorf("storage: filesystem cannot be nil")
	}
	if path == "" {
		return nil, fmt.Errorf("storage: log path cannot be empty")
	}
	return &FileStore{fs: fs, path: path}, nil
}

func (s *FileStore) Load(_ context.Context) ([]MeetingRecord, error) {
	records, _, err := s.read()
	return records, err
}

func (s *FileStore) Append(_ context.Context, records []MeetingRecord) error {
	existing, _, err := s.read()
	if err != nil {
		return err
	}
	return s.write(append(existing, records...))
}

func (s *FileStore) UpdateOne(_ context.Context, match func(*MeetingRecord) bool, mutate func(*MeetingRecord)) (bool, error) {
	records, exists, err := s.read()
	if err != nil {
		return false, err
	}
	if !exists {
		return false, ErrLogNotFound
	}

	i := firstMatch(records, match)
	if i < 0 {
		return false, nil
	}
	mutate(&records[i])

	if err := s.write(records); err != nil {
		return false, err
	}
	return true, nil
}

// read loads the log and reports whether the file exists. A corrupt file
// reads as empty and is replaced by the next write.
func (s *FileStore) read() ([]MeetingRecord, bool, error) {
	f, err := s.fs.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []MeetingRecord{}, false, nil
		}
		return nil, false, fmt.Errorf("failed to open meeting log: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read meeting log: %w", err)
	}

	var records []MeetingRecord
	if err := json.Unmarshal(data, &records); err != nil {
		slog.Warn("meeting log is not valid JSON, treating as empty", "path", s.path, "error", err)
		return []MeetingRecord{}, true, nil
	}
	if records == nil {
		records = []MeetingRecord{}
	}
	return records, true, nil
}

func (s *FileStore) write(records []MeetingRecord) error {
	if dir := filepath.Dir(s.path); dir != "." && dir != "/" {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode meeting log: %w", err)
	}

	if err := util.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write meeting log: %w", err)
	}
	return nil
}
