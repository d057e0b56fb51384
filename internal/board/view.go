package board

import (
	"github.com/hyperengineering/questboard/internal/catalog"
	"github.com/hyperengineering/questboard/internal/progress"
	"github.com/hyperengineering/questboard/internal/types"
)

// SubtaskView is a subtask as shown on the board.
type SubtaskView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// TaskView is a task as shown on the board.
type TaskView struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Type      catalog.TaskType `json:"type"`
	Monster   string           `json:"monster,omitempty"`
	Treasure  string           `json:"treasure,omitempty"`
	Weapon    catalog.Weapon   `json:"weapon"`
	Health    int              `json:"health"`
	Completed bool             `json:"completed"`
	Locked    bool             `json:"locked"`
	Note      string           `json:"note,omitempty"`
	Subtasks  []SubtaskView    `json:"subtasks,omitempty"`
}

// SectionView is a section as shown on the board.
type SectionView struct {
	Title    string     `json:"title"`
	Icon     string     `json:"icon,omitempty"`
	Complete bool       `json:"complete"`
	Tasks    []TaskView `json:"tasks"`
}

// View is a snapshot of the whole board.
type View struct {
	Sections      []SectionView      `json:"sections"`
	Total         int                `json:"total"`
	Completed     int                `json:"completed"`
	Percent       int                `json:"percent"`
	XP            int                `json:"xp"`
	Level         int                `json:"level"`
	LockBoundary  int                `json:"lockBoundary"`
	AllComplete   bool               `json:"allComplete"`
	Player        string             `json:"player"`
	PlayerID      string             `json:"playerId,omitempty"`
	PlayerStatus  types.PlayerStatus `json:"playerStatus,omitempty"`
	Authenticated bool               `json:"authenticated"`
	AudioEnabled  bool               `json:"audioEnabled"`
}

// View computes the board snapshot. Derived values are recomputed on every
// call and never stored.
func (b *Board) View() View {
	boundary := progress.LockBoundary(b.flat, b.completion)
	totals := progress.ComputeTotals(b.catalog, b.completion)
	xp := progress.ComputeExperience(totals.Completed)

	v := View{
		Sections:      make([]SectionView, 0, len(b.catalog.Sections)),
		Total:         totals.Total,
		Completed:     totals.Completed,
		Percent:       totals.Percent(),
		XP:            xp.XP,
		Level:         xp.Level,
		LockBoundary:  boundary,
		AllComplete:   totals.AllComplete(),
		Player:        b.meta.Player,
		Authenticated: b.gate.IsAuthenticated(),
		AudioEnabled:  b.meta.AudioEnabled,
	}
	if p, ok := b.SelectedPlayer(); ok {
		v.PlayerID = p.ID
		v.PlayerStatus = p.Status
	}

	index := 0
	for _, s := range b.catalog.Sections {
		sv := SectionView{
			Title:    s.Title,
			Icon:     s.Icon,
			Complete: progress.IsSectionComplete(s, b.completion),
			Tasks:    make([]TaskView, 0, len(s.Tasks)),
		}
		for _, t := range s.Tasks {
			typ := t.Type
			if typ == "" {
				typ = catalog.TypeAction
			}
			tv := TaskView{
				ID:        t.ID,
				Title:     t.Title,
				Type:      typ,
				Monster:   t.Monster,
				Treasure:  t.Treasure,
				Weapon:    t.WeaponOrDefault(),
				Health:    progress.Health(t, b.completion),
				Completed: b.completion.IsCompleted(t.ID),
				Locked:    progress.IsLocked(index, boundary),
				Note:      b.completion.Note(t.ID),
			}
			for _, sub := range t.Subtasks {
				tv.Subtasks = append(tv.Subtasks, SubtaskView{
					ID:        sub.ID,
					Title:     sub.Title,
					Completed: b.completion.IsCompleted(sub.ID),
				})
			}
			sv.Tasks = append(sv.Tasks, tv)
			index++
		}
		v.Sections = append(v.Sections, sv)
	}
	return v
}
