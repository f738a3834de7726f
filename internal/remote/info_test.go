package remote

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSessionInfoRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions", "current.json")

	want := SessionInfo{
		PID:       os.Getpid(),
		Socket:    "/tmp/pourover.sock",
		MethodID:  "light-roast-pourover",
		StartedAt: time.Date(2026, 3, 14, 7, 30, 0, 0, time.UTC),
	}
	if err := WriteInfo(path, want); err != nil {
		t.Fatalf("WriteInfo failed: %v", err)
	}

	got, err := ReadInfo(path)
	if err != nil {
		t.Fatalf("ReadInfo failed: %v", err)
	}
	if got.PID != want.PID || got.Socket != want.Socket || got.MethodID != want.MethodID {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if !got.StartedAt.Equal(want.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, want.StartedAt)
	}
}

func TestReadInfoMissing(t *testing.T) {
	if _, err := ReadInfo(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error reading missing info file")
	}
}

func TestRemoveInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "current.json")
	if err := WriteInfo(path, SessionInfo{PID: 1, Socket: "/tmp/x.sock", StartedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	if err := RemoveInfo(path); err != nil {
		t.Fatalf("RemoveInfo failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("info file still exists after remove")
	}

	// Removing a missing file is fine.
	if err := RemoveInfo(path); err != nil {
		t.Errorf("RemoveInfo on missing file: %v", err)
	}
}
