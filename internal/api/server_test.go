package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintwin/internal/config"
	"fintwin/internal/game"
	"fintwin/internal/store"
)

// quietRand never fires events and always picks the first scenario.
type quietRand struct{}

func (quietRand) Float64() float64 { return 0.99 }
func (quietRand) Intn(int) int     { return 0 }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := game.NewService(nil, store.NewMemory(), nil,
		game.WithRandFactory(func() game.Rand { return quietRand{} }))
	srv := httptest.NewServer(New(config.APIConfig{}, nil, svc).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}

func TestGameFlow(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/financial-game"

	var start struct {
		Content   string         `json:"content"`
		SessionID string         `json:"sessionId"`
		Stage     string         `json:"stage"`
		State     game.StateView `json:"state"`
		Metrics   game.MetricsView
	}
	status := doJSON(t, http.MethodPost, base+"/start", map[string]string{"playerName": "Ana", "careerChoice": "Student"}, nil, &start)
	if status != http.StatusOK {
		t.Fatalf("start status %d", status)
	}
	if start.SessionID == "" || start.Stage != "deciding" || start.State.Debt != 20000 || start.Content == "" {
		t.Fatalf("start %+v", start)
	}

	headers := map[string]string{"Idempotency-Key": "turn-1"}
	var turn game.TurnResult
	status = doJSON(t, http.MethodPost, base+"/"+start.SessionID+"/decision", map[string]string{"decision": "I will pay off my loan"}, headers, &turn)
	if status != http.StatusOK {
		t.Fatalf("decision status %d", status)
	}
	if turn.State.Debt != 18000 || turn.State.Savings != 0 || turn.Turn != 1 {
		t.Fatalf("turn %+v", turn)
	}

	var errBody map[string]string
	status = doJSON(t, http.MethodPost, base+"/"+start.SessionID+"/decision", map[string]string{"decision": "save"}, headers, &errBody)
	if status != http.StatusConflict || errBody["error"] == "" {
		t.Fatalf("duplicate status %d body %v", status, errBody)
	}

	var view game.SessionView
	if status := doJSON(t, http.MethodGet, base+"/"+start.SessionID, nil, nil, &view); status != http.StatusOK {
		t.Fatalf("session status %d", status)
	}
	if view.Turns != 1 || len(view.Transcript) != 3 {
		t.Fatalf("view %+v", view)
	}

	var end game.EndResult
	if status := doJSON(t, http.MethodPost, base+"/"+start.SessionID+"/end", nil, nil, &end); status != http.StatusOK {
		t.Fatalf("end status %d", status)
	}
	if end.Turns != 1 || len(end.Insights) == 0 {
		t.Fatalf("end %+v", end)
	}

	status = doJSON(t, http.MethodPost, base+"/"+start.SessionID+"/decision", map[string]string{"decision": "save"}, nil, nil)
	if status != http.StatusNotFound {
		t.Fatalf("decision after end status %d", status)
	}
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/financial-game"

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{name: "unknown career", path: "/start", body: map[string]string{"playerName": "Ana", "careerChoice": "astronaut"}, want: http.StatusBadRequest},
		{name: "missing career", path: "/start", body: map[string]string{"playerName": "Ana"}, want: http.StatusBadRequest},
		{name: "unknown field", path: "/start", body: map[string]string{"careerChoice": "student", "age": "20"}, want: http.StatusBadRequest},
		{name: "unknown session", path: "/nope/decision", body: map[string]string{"decision": "save"}, want: http.StatusNotFound},
		{name: "unknown session end", path: "/nope/end", want: http.StatusNotFound},
	}
	for _, tc := range tests {
		if got := doJSON(t, http.MethodPost, base+tc.path, tc.body, nil, nil); got != tc.want {
			t.Fatalf("%s: status %d want %d", tc.name, got, tc.want)
		}
	}

	var start game.StartResult
	if status := doJSON(t, http.MethodPost, base+"/start", map[string]string{"careerChoice": "artist"}, nil, &start); status != http.StatusOK {
		t.Fatalf("start status %d", status)
	}
	if got := doJSON(t, http.MethodPost, base+"/"+start.SessionID+"/decision", map[string]string{"kind": "gamble"}, nil, nil); got != http.StatusBadRequest {
		t.Fatalf("bad kind status %d", got)
	}
	if got := doJSON(t, http.MethodPost, base+"/"+start.SessionID+"/decision", map[string]string{}, nil, nil); got != http.StatusBadRequest {
		t.Fatalf("empty decision status %d", got)
	}
}

func TestCareersAndHealth(t *testing.T) {
	srv := newTestServer(t)
	var out struct {
		Careers []game.CareerView `json:"careers"`
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/api/financial-game/careers", nil, nil, &out); status != http.StatusOK {
		t.Fatalf("careers status %d", status)
	}
	if len(out.Careers) != 4 {
		t.Fatalf("careers %+v", out.Careers)
	}
	if status := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil, nil, nil); status != http.StatusOK {
		t.Fatalf("health status %d", status)
	}
}

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: game.ErrUnknownCareer, want: http.StatusBadRequest},
		{err: fmt.Errorf("wrap: %w", game.ErrUnknownDecision), want: http.StatusBadRequest},
		{err: game.ErrSessionNotFound, want: http.StatusNotFound},
		{err: game.ErrNotReady, want: http.StatusConflict},
		{err: game.ErrGameOver, want: http.StatusConflict},
		{err: game.ErrDuplicateDecision, want: http.StatusConflict},
		{err: fmt.Errorf("boom"), want: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		writeDomainError(rec, tc.err)
		if rec.Code != tc.want {
			t.Fatalf("%v: status %d want %d", tc.err, rec.Code, tc.want)
		}
	}
}
