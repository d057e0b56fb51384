package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/hyperengineering/questboard/internal/backend"
	"github.com/hyperengineering/questboard/internal/board"
	"github.com/hyperengineering/questboard/internal/catalog"
	"github.com/hyperengineering/questboard/internal/config"
	"github.com/hyperengineering/questboard/internal/state"
	"github.com/hyperengineering/questboard/internal/store"
	"github.com/hyperengineering/questboard/internal/worker"
	"github.com/spf13/cobra"
)

// Persistent flags shared by board and player.
var (
	statePathOverride  string
	backendURLOverride string
)

func addSessionFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&statePathOverride, "state", "",
		"Local state database path (overrides config and QUESTBOARD_STATE_PATH)")
	cmd.PersistentFlags().StringVar(&backendURLOverride, "backend", "",
		"Proxy base URL (overrides config and QUESTBOARD_BACKEND_URL)")
}

// session is one CLI invocation's board with its store, backend client and
// activity dispatcher.
type session struct {
	board      *board.Board
	kv         *store.SQLiteStore
	dispatcher *worker.Dispatcher
	cancel     context.CancelFunc
	timeout    time.Duration
}

// openSession loads config, opens local state and, when withRoster is set,
// loads the roster. A roster fetch failure falls back to the local player.
func openSession(ctx context.Context, cmd *cobra.Command, withRoster bool) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if statePathOverride != "" {
		cfg.Client.StatePath = statePathOverride
	}
	if backendURLOverride != "" {
		cfg.Client.BackendURL = backendURLOverride
	}
	slog.SetDefault(newLogger(cmd.ErrOrStderr(), cfg.Log))

	kv, err := store.NewSQLiteStore(cfg.Client.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}

	timeout := time.Duration(cfg.Client.Timeout)
	client := backend.New(cfg.Client.BackendURL, timeout)
	dispatcher := worker.NewDispatcher(client, cfg.Client.QueueSize, timeout)
	runCtx, cancel := context.WithCancel(context.Background())
	go dispatcher.Run(runCtx)

	s := &session{kv: kv, dispatcher: dispatcher, cancel: cancel, timeout: timeout}
	s.board, err = board.Open(ctx, board.Deps{
		Catalog:  catalog.Default(),
		State:    state.NewAdapter(kv),
		Roster:   client,
		Notifier: dispatcher,
	})
	if err != nil {
		s.close()
		return nil, err
	}

	if withRoster {
		if err := s.board.LoadRoster(ctx); err != nil {
			slog.Warn("roster unavailable, using local player", "error", err)
		}
	}
	return s, nil
}

// close waits for queued activity up to the client timeout, then releases
// the store.
func (s *session) close() {
	if !s.dispatcher.Drain(s.timeout) {
		slog.Debug("activity queue not drained before exit")
		s.cancel()
		<-s.dispatcher.Done()
	}
	s.cancel()
	if err := s.kv.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
