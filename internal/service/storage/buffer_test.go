package storage

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"medaware/internal/config"
	"medaware/internal/logger"
)

func setupBuffer(t *testing.T) (*BufferService, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "evidence")
	cfg := &config.Config{EvidenceDirectory: dir, EvidenceFlushInterval: 1}
	return NewBufferService(cfg, logger.NewNop()), dir
}

func TestBufferService_Flush(t *testing.T) {
	buffer, dir := setupBuffer(t)
	day := time.Date(2026, 3, 14, 8, 30, 0, 0, time.UTC)

	buffer.AddEvidence([]byte("frame-one"), 1, 7, day)
	buffer.AddEvidence([]byte("frame-two"), 2, 9, day)

	if saved := buffer.Flush(); saved != 2 {
		t.Fatalf("Expected 2 saved frames, got %d", saved)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read evidence dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(entries))
	}

	pattern := regexp.MustCompile(`^2026-03-14_(1_7|2_9)_[0-9a-f-]{36}\.jpg$`)
	for _, entry := range entries {
		if !pattern.MatchString(entry.Name()) {
			t.Errorf("Unexpected evidence file name %q", entry.Name())
		}
	}

	if saved := buffer.Flush(); saved != 0 {
		t.Errorf("Second flush should write nothing, wrote %d", saved)
	}
}

func TestBufferService_Limit(t *testing.T) {
	buffer, dir := setupBuffer(t)

	for i := 0; i < EvidenceBufferLimit+5; i++ {
		buffer.AddEvidence([]byte("x"), 1, int64(i), time.Now())
	}

	if saved := buffer.Flush(); saved != EvidenceBufferLimit {
		t.Fatalf("Expected %d saved frames, got %d", EvidenceBufferLimit, saved)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != EvidenceBufferLimit {
		t.Errorf("Expected %d files, got %d", EvidenceBufferLimit, len(entries))
	}
}

func TestBufferService_RunFlushesOnStop(t *testing.T) {
	buffer, dir := setupBuffer(t)
	buffer.flushInterval = time.Hour

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		buffer.Run(stop)
		close(done)
	}()

	buffer.AddEvidence([]byte("frame"), 1, 7, time.Now())
	close(stop)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after stop")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected the final flush to write 1 file, got %d", len(entries))
	}
}

func TestFilename_Unique(t *testing.T) {
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	a := Filename(day, 1, 7)
	b := Filename(day, 1, 7)
	if a == b {
		t.Errorf("Expected unique names, got %q twice", a)
	}
}
