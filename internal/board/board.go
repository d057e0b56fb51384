// Package board is the quest board session: it applies player actions to the
// completion state, enforces the password gate and the unlock order, and
// queues activity notifications.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperengineering/questboard/internal/auth"
	"github.com/hyperengineering/questboard/internal/catalog"
	"github.com/hyperengineering/questboard/internal/progress"
	"github.com/hyperengineering/questboard/internal/state"
	"github.com/hyperengineering/questboard/internal/types"
)

var (
	ErrUnknownID     = errors.New("unknown task or subtask id")
	ErrLocked        = errors.New("task is locked until the previous quest is completed")
	ErrNotNoteTask   = errors.New("task does not take notes")
	ErrUnknownPlayer = errors.New("unknown player")
)

// LocalPlayerID identifies the stand-in player used when no roster is
// available.
const LocalPlayerID = "local"

// Roster is the player backend. Implemented by backend.Client.
type Roster interface {
	auth.Verifier
	ListPlayers(ctx context.Context) ([]types.Player, error)
	UpdatePlayerStatus(ctx context.Context, playerID string, desired types.PlayerStatus, password string) (types.PlayerStatus, error)
}

// Notifier queues activity events without blocking. Implemented by
// worker.Dispatcher.
type Notifier interface {
	Enqueue(ev types.ActivityEvent) bool
}

// Deps wires a Board.
type Deps struct {
	Catalog catalog.Catalog
	State   *state.Adapter
	Roster  Roster
	// Notifier may be nil; events are then discarded.
	Notifier Notifier
	// Now defaults to time.Now.
	Now func() time.Time
}

// Board is one player's session. It is not safe for concurrent use.
type Board struct {
	catalog  catalog.Catalog
	flat     []catalog.Task
	state    *state.Adapter
	roster   Roster
	notifier Notifier
	now      func() time.Time

	completion state.Completion
	meta       state.Meta
	players    []types.Player
	gate       *auth.Gate
}

// Open loads the persisted completion state and session meta. The gate
// starts with no selected player until LoadRoster resolves one.
func Open(ctx context.Context, deps Deps) (*Board, error) {
	if err := deps.Catalog.Validate(); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	completion, err := deps.State.LoadCompletion(ctx)
	if err != nil {
		return nil, fmt.Errorf("load completion: %w", err)
	}
	meta, err := deps.State.LoadMeta(ctx)
	if err != nil {
		return nil, fmt.Errorf("load meta: %w", err)
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Board{
		catalog:    deps.Catalog,
		flat:       deps.Catalog.Flatten(),
		state:      deps.State,
		roster:     deps.Roster,
		notifier:   deps.Notifier,
		now:        now,
		completion: completion,
		meta:       meta,
		gate:       auth.NewGate("", ""),
	}, nil
}

// LocalPlayer is the stand-in roster entry.
func LocalPlayer() types.Player {
	return types.Player{ID: LocalPlayerID, Name: state.DefaultPlayer, Status: types.StatusActive}
}

// LoadRoster fetches the players. When the fetch fails or the roster is
// empty the local player stands in and the saved player is left alone;
// otherwise a saved player missing from the roster is replaced by the first
// roster entry. The fetch error, if any, is returned alongside the fallback.
func (b *Board) LoadRoster(ctx context.Context) error {
	players, fetchErr := b.roster.ListPlayers(ctx)
	if fetchErr != nil || len(players) == 0 {
		b.players = []types.Player{LocalPlayer()}
		b.restoreGate()
		return fetchErr
	}

	b.players = players
	if _, ok := b.playerByName(b.meta.Player); !ok {
		b.meta.Player = players[0].Name
		b.meta.AuthenticatedPlayerID = ""
		if err := b.state.SaveMeta(ctx, b.meta); err != nil {
			return fmt.Errorf("save meta: %w", err)
		}
	}
	b.restoreGate()
	return nil
}

// restoreGate points the gate at the saved player's roster id and restores
// persisted trust when it belongs to that player.
func (b *Board) restoreGate() {
	selected := b.players[0].ID
	if p, ok := b.playerByName(b.meta.Player); ok {
		selected = p.ID
	}
	b.gate = auth.NewGate(selected, b.meta.AuthenticatedPlayerID)
}

// Players returns the loaded roster.
func (b *Board) Players() []types.Player {
	return append([]types.Player(nil), b.players...)
}

// SelectedPlayer returns the roster entry of the selected player.
func (b *Board) SelectedPlayer() (types.Player, bool) {
	return b.playerByID(b.gate.Selected())
}

// SetCompleted marks a task or subtask completed or not. The selected player
// must be verified and the task (a subtask's parent) must be unlocked. Setting
// the value it already has saves and notifies nothing.
func (b *Board) SetCompleted(ctx context.Context, id string, completed bool) error {
	ref, ok := b.catalog.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	if err := b.gate.Authorize(); err != nil {
		return err
	}
	boundary := progress.LockBoundary(b.flat, b.completion)
	if progress.IsLocked(ref.TaskIndex, boundary) {
		return fmt.Errorf("%w: %s", ErrLocked, ref.Task.ID)
	}
	if b.completion.IsCompleted(id) == completed {
		return nil
	}

	next := b.completion.Clone()
	entry := next[id]
	entry.Completed = completed
	next[id] = entry
	if err := b.state.SaveCompletion(ctx, next); err != nil {
		return fmt.Errorf("save completion: %w", err)
	}
	b.completion = next

	ev := types.ActivityEvent{
		Type:      types.ActivityTask,
		TaskID:    ref.Task.ID,
		TaskTitle: ref.Task.Title,
		Completed: &completed,
	}
	if ref.IsSubtask() {
		ev.Type = types.ActivitySubtask
		ev.SubtaskID = ref.Subtask.ID
		ev.SubtaskTitle = ref.Subtask.Title
	}
	b.notify(ev)

	section := b.catalog.Sections[ref.SectionIndex]
	if progress.IsSectionComplete(section, b.completion) {
		done := true
		b.notify(types.ActivityEvent{
			Type:         types.ActivitySection,
			SectionTitle: section.Title,
			Completed:    &done,
		})
	}
	return nil
}

// SetNote replaces the note of a note task. Notes are not subject to the
// unlock order. An unchanged note is not saved again.
func (b *Board) SetNote(ctx context.Context, taskID, note string) error {
	ref, ok := b.catalog.Find(taskID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownID, taskID)
	}
	if ref.IsSubtask() || !ref.Task.IsNote() {
		return fmt.Errorf("%w: %s", ErrNotNoteTask, taskID)
	}
	if err := b.gate.Authorize(); err != nil {
		return err
	}
	if b.completion[taskID].Note == note {
		return nil
	}

	next := b.completion.Clone()
	entry := next[taskID]
	entry.Note = note
	next[taskID] = entry
	if err := b.state.SaveCompletion(ctx, next); err != nil {
		return fmt.Errorf("save completion: %w", err)
	}
	b.completion = next

	b.notify(types.ActivityEvent{
		Type:      types.ActivityNote,
		TaskID:    ref.Task.ID,
		TaskTitle: ref.Task.Title,
		Note:      &note,
	})
	return nil
}

// Reset clears all completion state. Session meta is kept.
func (b *Board) Reset(ctx context.Context) error {
	if err := b.state.ResetCompletion(ctx); err != nil {
		return fmt.Errorf("reset completion: %w", err)
	}
	b.completion = state.Completion{}
	return nil
}

// SelectPlayer switches to a roster player and drops any verification.
func (b *Board) SelectPlayer(ctx context.Context, playerID string) error {
	p, ok := b.playerByID(playerID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	b.gate.Select(p.ID)
	b.meta.Player = p.Name
	b.meta.AuthenticatedPlayerID = ""
	if err := b.state.SaveMeta(ctx, b.meta); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return nil
}

// Login verifies the selected player's password and persists the result. A
// failed attempt also drops any earlier verification.
func (b *Board) Login(ctx context.Context, password string) error {
	verifyErr := b.gate.Verify(ctx, b.roster, password)
	if errors.Is(verifyErr, auth.ErrNoPlayerSelected) || errors.Is(verifyErr, auth.ErrPasswordRequired) {
		return verifyErr
	}

	authenticated := b.gate.AuthenticatedID()
	if b.meta.AuthenticatedPlayerID != authenticated {
		b.meta.AuthenticatedPlayerID = authenticated
		if err := b.state.SaveMeta(ctx, b.meta); err != nil {
			return errors.Join(verifyErr, fmt.Errorf("save meta: %w", err))
		}
	}
	return verifyErr
}

// TogglePlayerStatus flips the selected player's Active/Inactive status.
// The backend re-checks password on every call; earlier verification is not
// reused.
func (b *Board) TogglePlayerStatus(ctx context.Context, password string) (types.PlayerStatus, error) {
	p, ok := b.SelectedPlayer()
	if !ok {
		return "", auth.ErrNoPlayerSelected
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return "", auth.ErrPasswordRequired
	}

	status, err := b.roster.UpdatePlayerStatus(ctx, p.ID, p.Status.Toggled(), password)
	if err != nil {
		return "", err
	}
	for i := range b.players {
		if b.players[i].ID == p.ID {
			b.players[i].Status = status
		}
	}
	return status, nil
}

// SetAudio saves the sound preference.
func (b *Board) SetAudio(ctx context.Context, enabled bool) error {
	b.meta.AudioEnabled = enabled
	if err := b.state.SaveMeta(ctx, b.meta); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return nil
}

func (b *Board) playerByID(id string) (types.Player, bool) {
	if id == "" {
		return types.Player{}, false
	}
	for _, p := range b.players {
		if p.ID == id {
			return p, true
		}
	}
	return types.Player{}, false
}

func (b *Board) playerByName(name string) (types.Player, bool) {
	for _, p := range b.players {
		if p.Name == name {
			return p, true
		}
	}
	return types.Player{}, false
}
