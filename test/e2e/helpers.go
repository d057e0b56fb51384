package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperengineering/questboard/internal/airtable"
	"github.com/hyperengineering/questboard/internal/api"
	"github.com/hyperengineering/questboard/internal/auth"
	"github.com/hyperengineering/questboard/internal/backend"
	"github.com/hyperengineering/questboard/internal/board"
	"github.com/hyperengineering/questboard/internal/catalog"
	"github.com/hyperengineering/questboard/internal/config"
	"github.com/hyperengineering/questboard/internal/state"
	"github.com/hyperengineering/questboard/internal/store"
	"github.com/hyperengineering/questboard/internal/worker"
)

const (
	testToken  = "patE2E"
	testBaseID = "appE2E"
)

// --- Fake Airtable ---

// fakeAirtable keeps tables in memory and speaks enough of the REST API for
// the proxy: list with offset paging, create, get and patch.
type fakeAirtable struct {
	mu       sync.Mutex
	tables   map[string][]airtable.Record
	nextID   int
	pageSize int
}

func newFakeAirtable(t *testing.T) (*fakeAirtable, *httptest.Server) {
	t.Helper()
	f := &fakeAirtable{tables: make(map[string][]airtable.Record)}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+testToken {
				http.Error(w, `{"error":"AUTHENTICATION_REQUIRED"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/{base}/{table}", f.list)
	r.Post("/{base}/{table}", f.create)
	r.Get("/{base}/{table}/{id}", f.get)
	r.Patch("/{base}/{table}/{id}", f.patch)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAirtable) addPlayer(name, status, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("recP%03d", f.nextID)
	fields := airtable.Fields{"Name": name, "Status": status}
	if password != "" {
		hash, err := auth.HashPassword(password)
		if err != nil {
			panic(err)
		}
		fields["PasswordHash"] = hash
	}
	f.tables["Players"] = append(f.tables["Players"], airtable.Record{ID: id, Fields: fields})
	return id
}

func (f *fakeAirtable) records(table string) []airtable.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]airtable.Record(nil), f.tables[table]...)
}

func (f *fakeAirtable) list(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	table := chi.URLParam(r, "table")
	all := f.tables[table]
	start, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	size := f.pageSize
	if size <= 0 {
		size, _ = strconv.Atoi(r.URL.Query().Get("pageSize"))
	}
	end := min(start+size, len(all))

	wanted := r.URL.Query()["fields[]"]
	page := make([]airtable.Record, 0, end-start)
	for _, rec := range all[start:end] {
		projected := airtable.Record{ID: rec.ID, Fields: airtable.Fields{}}
		for _, name := range wanted {
			if v, ok := rec.Fields[name]; ok {
				projected.Fields[name] = v
			}
		}
		page = append(page, projected)
	}

	resp := map[string]any{"records": page}
	if end < len(all) {
		resp["offset"] = strconv.Itoa(end)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *fakeAirtable) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Records []struct {
			Fields airtable.Fields `json:"fields"`
		} `json:"records"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "INVALID_REQUEST_BODY"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	table := chi.URLParam(r, "table")
	created := make([]airtable.Record, 0, len(body.Records))
	for _, nr := range body.Records {
		f.nextID++
		rec := airtable.Record{ID: fmt.Sprintf("recA%03d", f.nextID), Fields: nr.Fields}
		f.tables[table] = append(f.tables[table], rec)
		created = append(created, rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": created})
}

func (f *fakeAirtable) find(table, id string) (int, bool) {
	for i, rec := range f.tables[table] {
		if rec.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (f *fakeAirtable) get(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table := chi.URLParam(r, "table")
	i, ok := f.find(table, chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "NOT_FOUND"})
		return
	}
	writeJSON(w, http.StatusOK, f.tables[table][i])
}

func (f *fakeAirtable) patch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Fields airtable.Fields `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "INVALID_REQUEST_BODY"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	table := chi.URLParam(r, "table")
	i, ok := f.find(table, chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "NOT_FOUND"})
		return
	}
	for k, v := range body.Fields {
		f.tables[table][i].Fields[k] = v
	}
	writeJSON(w, http.StatusOK, f.tables[table][i])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// --- Stack ---

// stack is the proxy in front of the fake Airtable, plus a client pointed
// at it.
type stack struct {
	airtable *fakeAirtable
	proxy    *httptest.Server
	client   *backend.Client
}

func newStack(t *testing.T) *stack {
	t.Helper()
	fake, upstream := newFakeAirtable(t)

	cfg := config.AirtableConfig{
		Token:         testToken,
		BaseID:        testBaseID,
		APIURL:        upstream.URL,
		ActivityTable: "Activity",
		PlayersTable:  "Players",
		NameField:     "Name",
		StatusField:   "Status",
		PasswordField: "PasswordHash",
		Timeout:       config.Duration(5 * time.Second),
	}
	records := airtable.NewClient(airtable.Config{
		BaseURL: cfg.APIURL,
		Token:   cfg.Token,
		BaseID:  cfg.BaseID,
		Timeout: time.Duration(cfg.Timeout),
	})
	limiter := api.NewRateLimiter(5, 5*time.Minute)
	proxy := httptest.NewServer(api.NewRouter(api.NewHandler(records, cfg, limiter, "e2e")))
	t.Cleanup(proxy.Close)

	return &stack{
		airtable: fake,
		proxy:    proxy,
		client:   backend.New(proxy.URL, 5*time.Second),
	}
}

// session is a board wired like the CLI: SQLite state, backend roster and a
// running activity dispatcher.
type session struct {
	board      *board.Board
	dispatcher *worker.Dispatcher
	kv         *store.SQLiteStore
}

func (s *stack) open(t *testing.T, statePath string, allowRosterError bool) *session {
	t.Helper()
	ctx := context.Background()

	kv, err := store.NewSQLiteStore(statePath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	d := worker.NewDispatcher(s.client, 16, 5*time.Second)
	go d.Run(context.Background())

	b, err := board.Open(ctx, board.Deps{
		Catalog:  catalog.Default(),
		State:    state.NewAdapter(kv),
		Roster:   s.client,
		Notifier: d,
	})
	if err != nil {
		t.Fatalf("board.Open: %v", err)
	}
	if err := b.LoadRoster(ctx); err != nil && !allowRosterError {
		t.Fatalf("LoadRoster: %v", err)
	}
	return &session{board: b, dispatcher: d, kv: kv}
}

func (s *stack) openSession(t *testing.T, statePath string) *session {
	t.Helper()
	return s.open(t, statePath, false)
}

// openSessionAllowRosterError opens a session that tolerates a failed roster
// fetch.
func (s *stack) openSessionAllowRosterError(t *testing.T, statePath string) *session {
	t.Helper()
	return s.open(t, statePath, true)
}

// close drains queued activity and closes the store.
func (s *session) close(t *testing.T) {
	t.Helper()
	if !s.dispatcher.Drain(5 * time.Second) {
		t.Error("activity queue did not drain")
	}
	if err := s.kv.Close(); err != nil {
		t.Errorf("store close: %v", err)
	}
}

func tempStatePath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "state.db")
}
