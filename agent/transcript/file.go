package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	contractx "github.com/ziamuneeb097/Financial-Agent/agent/contract"
)

// FileStore writes one JSON file per session record. The write goes to a
// temp file first and is renamed into place, so a crash mid-write leaves no
// partially written transcript under the final key.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("transcript: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("transcript: create directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Put(_ context.Context, rec contractx.TranscriptRecord) error {
	payload, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	final := filepath.Join(s.dir, s.filename(rec))

	tmp, err := os.CreateTemp(s.dir, ".transcript-*.json")
	if err != nil {
		return fmt.Errorf("create temp transcript: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close transcript: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		return fmt.Errorf("publish transcript: %w", err)
	}
	return nil
}

// Path returns where the record for this key would live. Used by callers
// that need to verify presence or absence of a stored transcript.
func (s *FileStore) Path(rec contractx.TranscriptRecord) string {
	return filepath.Join(s.dir, s.filename(rec))
}

func (s *FileStore) filename(rec contractx.TranscriptRecord) string {
	return "transcript_" + strings.ReplaceAll(rec.Key(), ":", "_") + ".json"
}
