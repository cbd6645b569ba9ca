package cli

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"fintwin/internal/syncq"
)

// ErrNoSession means no game has been started from this machine.
var ErrNoSession = errors.New("no game in progress")

// Session points at the game this terminal is playing on the API.
type Session struct {
	SessionID string `json:"session_id"`
	Player    string `json:"player"`
	Career    string `json:"career"`
}

const sessionFile = "session.json"

func SaveSession(s Session) error {
	path, err := syncq.Path(sessionFile)
	if err != nil {
		return err
	}
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o600)
}

func LoadSession() (Session, error) {
	var s Session
	path, err := syncq.Path(sessionFile)
	if err != nil {
		return s, err
	}
	body, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, ErrNoSession
	}
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(body, &s); err != nil {
		return s, err
	}
	if s.SessionID == "" {
		return s, ErrNoSession
	}
	return s, nil
}

func ClearSession() error {
	path, err := syncq.Path(sessionFile)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
