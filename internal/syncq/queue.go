package syncq

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Command is a decision request that could not reach the API.
type Command struct {
	Method         string         `json:"method"`
	Path           string         `json:"path"`
	Body           map[string]any `json:"body,omitempty"`
	IdempotencyKey string         `json:"idempotency_key"`
	QueuedAt       time.Time      `json:"queued_at"`
}

// Path returns ~/.twin/name, creating the directory on first use. The CLI
// keeps all of its local files there.
func Path(name string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".twin")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func queuePath() (string, error) {
	return Path("queue.json")
}

func Load() ([]Command, error) {
	path, err := queuePath()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Command{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Command{}, nil
	}
	var out []Command
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func Save(commands []Command) error {
	path, err := queuePath()
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func Push(cmd Command) error {
	commands, err := Load()
	if err != nil {
		return err
	}
	if cmd.QueuedAt.IsZero() {
		cmd.QueuedAt = time.Now().UTC()
	}
	commands = append(commands, cmd)
	return Save(commands)
}

// Replay sends queued commands in order. Decisions for one session depend on
// each other, so replay stops at the first failure and keeps it and
// everything after it queued.
func Replay(send func(Command) error) (replayed int, remaining []Command, err error) {
	queue, err := Load()
	if err != nil {
		return 0, nil, err
	}
	for i, cmd := range queue {
		if sendErr := send(cmd); sendErr != nil {
			remaining = queue[i:]
			if err := Save(remaining); err != nil {
				return replayed, remaining, err
			}
			return replayed, remaining, sendErr
		}
		replayed++
	}
	return replayed, nil, Save([]Command{})
}
