package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hyperengineering/questboard/internal/auth"
	"github.com/hyperengineering/questboard/internal/types"
)

// Client satisfies the gate's verifier.
var _ auth.Verifier = (*Client)(nil)

func TestPostActivity(t *testing.T) {
	var got types.ActivityEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/functions/airtable" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte(`{"records":[]}`))
	}))
	defer srv.Close()

	done := true
	ev := types.ActivityEvent{Type: types.ActivityTask, TaskID: "morning-1", Completed: &done, Player: "Ana", DayOfWeek: "Lunes"}
	if err := New(srv.URL+"/", time.Second).PostActivity(context.Background(), ev); err != nil {
		t.Fatalf("PostActivity: %v", err)
	}
	if diff := cmp.Diff(ev, got); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestPostActivity_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Missing Airtable env vars", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := New(srv.URL, time.Second).PostActivity(context.Background(), types.ActivityEvent{})
	var be *Error
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if be.Status != http.StatusInternalServerError || be.Message != "Missing Airtable env vars" {
		t.Errorf("error = %+v", be)
	}
}

func TestListPlayers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/functions/players" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"players":[{"id":"rec1","name":"Ana","status":"Active"},{"id":"rec2","name":"Luis","status":"Inactive"}]}`))
	}))
	defer srv.Close()

	players, err := New(srv.URL, time.Second).ListPlayers(context.Background())
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	want := []types.Player{
		{ID: "rec1", Name: "Ana", Status: types.StatusActive},
		{ID: "rec2", Name: "Luis", Status: types.StatusInactive},
	}
	if diff := cmp.Diff(want, players); diff != "" {
		t.Errorf("players mismatch (-want +got):\n%s", diff)
	}
}

func TestListPlayers_BadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	if _, err := New(srv.URL, time.Second).ListPlayers(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestVerifyPlayer(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		message string
	}{
		{"ok", http.StatusOK, `{"ok":true}`, nil, ""},
		{"not ok", http.StatusOK, `{"ok":false}`, auth.ErrWrongPassword, ""},
		{"wrong password", http.StatusUnauthorized, `{"message":"Invalid password."}`, auth.ErrWrongPassword, "Invalid password."},
		{"no hash", http.StatusForbidden, `{"message":"Password hash missing."}`, auth.ErrMissingHash, "Password hash missing."},
		{"unknown player", http.StatusNotFound, `{"message":"Player not found."}`, ErrPlayerNotFound, "Player not found."},
		{"server error", http.StatusInternalServerError, `{"message":"Missing Airtable configuration."}`, nil, "Missing Airtable configuration."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req types.VerifyRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/functions/players-verify" {
					t.Errorf("path = %s", r.URL.Path)
				}
				json.NewDecoder(r.Body).Decode(&req)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := New(srv.URL, time.Second).VerifyPlayer(context.Background(), "rec1", "secret")
			if req.PlayerID != "rec1" || req.Password != "secret" {
				t.Errorf("request = %+v", req)
			}

			if tt.status == http.StatusOK && tt.wantErr == nil {
				if err != nil {
					t.Fatalf("VerifyPlayer: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.message != "" {
				var be *Error
				if !errors.As(err, &be) || be.Message != tt.message {
					t.Errorf("err = %v, want backend message %q", err, tt.message)
				}
			}
		})
	}
}

func TestUpdatePlayerStatus(t *testing.T) {
	var req types.UpdateStatusRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/functions/players-update" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&req)
		w.Write([]byte(`{"status":"Inactive"}`))
	}))
	defer srv.Close()

	status, err := New(srv.URL, time.Second).UpdatePlayerStatus(context.Background(), "rec1", types.StatusInactive, "secret")
	if err != nil {
		t.Fatalf("UpdatePlayerStatus: %v", err)
	}
	if status != types.StatusInactive {
		t.Errorf("status = %q", status)
	}
	want := types.UpdateStatusRequest{PlayerID: "rec1", DesiredStatus: types.StatusInactive, Password: "secret"}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdatePlayerStatus_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"wrong password", http.StatusUnauthorized, "Invalid password.", auth.ErrWrongPassword},
		{"rate limited", http.StatusTooManyRequests, "Too Many Requests", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, tt.body, tt.status)
			}))
			defer srv.Close()

			_, err := New(srv.URL, time.Second).UpdatePlayerStatus(context.Background(), "rec1", types.StatusActive, "x")
			var be *Error
			if !errors.As(err, &be) || be.Status != tt.status {
				t.Fatalf("err = %v, want status %d", err, tt.status)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	err := New(srv.URL, 50*time.Millisecond).PostActivity(context.Background(), types.ActivityEvent{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	var be *Error
	if errors.As(err, &be) {
		t.Errorf("timeout reported as upstream error: %v", err)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"message":"Invalid password."}`, "Invalid password."},
		{"Invalid JSON\n", "Invalid JSON"},
		{`{"other":1}`, `{"other":1}`},
		{strings.Repeat("x", 600), strings.Repeat("x", 512)},
	}
	for _, tt := range tests {
		if got := errorMessage([]byte(tt.body)); got != tt.want {
			t.Errorf("errorMessage(%.20q) = %.20q, want %.20q", tt.body, got, tt.want)
		}
	}
}

func TestNew_DefaultTimeout(t *testing.T) {
	c := New(" http://localhost:8080/ ", 0)
	if c.client.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v", c.client.Timeout)
	}
	if c.baseURL != "http://localhost:8080" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
}

