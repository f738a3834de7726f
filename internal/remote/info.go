package remote

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SessionInfo is the discovery file written next to the socket so other
// pourover invocations can find the live session.
type SessionInfo struct {
	PID       int       `json:"pid"`
	Socket    string    `json:"socket"`
	MethodID  string    `json:"method_id,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// WriteInfo writes the discovery file, creating parent directories.
func WriteInfo(path string, info SessionInfo) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session info: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write session info: %w", err)
	}
	return nil
}

// ReadInfo reads the discovery file.
func ReadInfo(path string) (SessionInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("read session info: %w", err)
	}

	var info SessionInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return SessionInfo{}, fmt.Errorf("parse session info: %w", err)
	}
	return info, nil
}

// RemoveInfo deletes the discovery file. A missing file is not an error.
func RemoveInfo(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session info: %w", err)
	}
	return nil
}
