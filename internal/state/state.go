// Package state persists the board's completion state and session metadata
// as two JSON blobs in a key-value store.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hyperengineering/questboard/internal/store"
)

// Fixed storage keys.
const (
	CompletionKey = "quest-todo-state"
	MetaKey       = "quest-todo-meta"
)

// DefaultPlayer is the player name used before a roster is loaded.
const DefaultPlayer = "Jugador 1"

// Entry is the stored state of one task or subtask.
type Entry struct {
	Completed bool   `json:"completed"`
	Note      string `json:"note,omitempty"`
}

// Completion maps task and subtask ids to their entries. A missing key means
// not completed and no note.
type Completion map[string]Entry

// IsCompleted reports whether id is marked completed.
func (c Completion) IsCompleted(id string) bool {
	return c[id].Completed
}

// Note returns the note stored for id, if any.
func (c Completion) Note(id string) string {
	return c[id].Note
}

// Clone returns an independent copy.
func (c Completion) Clone() Completion {
	out := make(Completion, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// UnmarshalJSON decodes leniently: entries that are not objects, or fields of
// the wrong type, decode as their zero value instead of failing the blob.
func (c *Completion) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Completion, len(raw))
	for id, msg := range raw {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(msg, &fields); err != nil || fields == nil {
			continue
		}
		var e Entry
		if v, ok := fields["completed"]; ok {
			_ = json.Unmarshal(v, &e.Completed)
		}
		if v, ok := fields["note"]; ok {
			_ = json.Unmarshal(v, &e.Note)
		}
		out[id] = e
	}
	*c = out
	return nil
}

// Meta is per-device session metadata. It is stored apart from Completion so
// a board reset keeps identity and preferences.
type Meta struct {
	Player                string `json:"player"`
	AuthenticatedPlayerID string `json:"authenticatedPlayerId,omitempty"`
	AudioEnabled          bool   `json:"audioEnabled"`
}

// DefaultMeta returns the metadata of a fresh device.
func DefaultMeta() Meta {
	return Meta{Player: DefaultPlayer, AudioEnabled: true}
}

// UnmarshalJSON applies defaults for absent fields and ignores fields of the
// wrong type.
func (m *Meta) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := DefaultMeta()
	if v, ok := raw["player"]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil && s != "" {
			out.Player = s
		}
	}
	if v, ok := raw["authenticatedPlayerId"]; ok {
		_ = json.Unmarshal(v, &out.AuthenticatedPlayerID)
	}
	if v, ok := raw["audioEnabled"]; ok {
		var b bool
		if json.Unmarshal(v, &b) == nil {
			out.AudioEnabled = b
		}
	}
	*m = out
	return nil
}

// Adapter reads and writes the two blobs.
type Adapter struct {
	kv store.KV
}

// NewAdapter wraps kv.
func NewAdapter(kv store.KV) *Adapter {
	return &Adapter{kv: kv}
}

// LoadCompletion returns the stored completion state. A missing or corrupt
// blob yields an empty state; only storage failures are returned.
func (a *Adapter) LoadCompletion(ctx context.Context) (Completion, error) {
	data, err := a.read(ctx, CompletionKey)
	if err != nil || data == nil {
		return Completion{}, err
	}
	var c Completion
	if err := json.Unmarshal(data, &c); err != nil || c == nil {
		slog.Debug("discarding unreadable completion state", "key", CompletionKey, "error", err)
		return Completion{}, nil
	}
	return c, nil
}

// SaveCompletion overwrites the stored completion state.
func (a *Adapter) SaveCompletion(ctx context.Context, c Completion) error {
	if c == nil {
		c = Completion{}
	}
	return a.write(ctx, CompletionKey, c)
}

// ResetCompletion removes the completion blob. Meta is untouched.
func (a *Adapter) ResetCompletion(ctx context.Context) error {
	if err := a.kv.Remove(ctx, CompletionKey); err != nil {
		return fmt.Errorf("reset completion: %w", err)
	}
	return nil
}

// LoadMeta returns the stored metadata, or DefaultMeta when it is missing or
// corrupt.
func (a *Adapter) LoadMeta(ctx context.Context) (Meta, error) {
	data, err := a.read(ctx, MetaKey)
	if err != nil || data == nil {
		return DefaultMeta(), err
	}
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		slog.Debug("discarding unreadable session meta", "key", MetaKey, "error", err)
		return DefaultMeta(), nil
	}
	return m, nil
}

// SaveMeta overwrites the stored metadata.
func (a *Adapter) SaveMeta(ctx context.Context, m Meta) error {
	return a.write(ctx, MetaKey, m)
}

func (a *Adapter) read(ctx context.Context, key string) ([]byte, error) {
	data, err := a.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return data, nil
}

func (a *Adapter) write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := a.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
