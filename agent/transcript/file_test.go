package transcript

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	contractx "github.com/ziamuneeb097/Financial-Agent/agent/contract"
)

func testTranscriptRecord() contractx.TranscriptRecord {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return contractx.TranscriptRecord{
		CustomerID:    "CUST-001",
		CustomerName:  "Sarah",
		SessionID:     "session-1",
		SessionStart:  start,
		RetentionDays: 30,
		Turns: []contractx.Turn{
			{Speaker: contractx.SpeakerAgent, Text: "hello", Timestamp: start},
			{Speaker: contractx.SpeakerCustomer, Text: "bye", Timestamp: start.Add(time.Second)},
		},
	}
}

func TestFileStorePutRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	rec := testTranscriptRecord()
	if err := store.Put(context.Background(), rec); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	path := store.Path(rec)
	if want := filepath.Join(dir, "transcript_CUST-001_20260310T090000Z.json"); path != want {
		t.Fatalf("Path() = %q, want %q", path, want)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read stored transcript: %v", err)
	}
	var got contractx.TranscriptRecord
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode stored transcript: %v", err)
	}
	if got.CustomerID != rec.CustomerID || len(got.Turns) != 2 {
		t.Fatalf("stored record = %+v", got)
	}
	if got.Turns[0].Text != "hello" || got.Turns[1].Text != "bye" {
		t.Fatalf("turn order lost: %+v", got.Turns)
	}
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := store.Put(context.Background(), testTranscriptRecord()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dir has %d entries, want 1", len(entries))
	}
	if strings.HasPrefix(entries[0].Name(), ".transcript-") {
		t.Fatalf("temp file left behind: %s", entries[0].Name())
	}
}

func TestNewFileStoreRequiresDirectory(t *testing.T) {
	t.Parallel()

	if _, err := NewFileStore("   "); err == nil {
		t.Fatal("expected error for empty directory")
	}
}
