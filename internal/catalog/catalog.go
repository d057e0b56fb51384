// Package catalog holds the fixed, ordered checklist that makes up the quest
// board: sections, their tasks, and the tasks' subtasks.
package catalog

import (
	"errors"
	"fmt"
)

// TaskType distinguishes checkbox tasks from free-text note tasks.
type TaskType string

const (
	TypeAction TaskType = "action"
	TypeNote   TaskType = "note"
)

// Weapon names the attack animation played when a task is completed.
type Weapon string

const (
	WeaponCannon Weapon = "cannon"
	WeaponArrow  Weapon = "arrow"
	WeaponLaser  Weapon = "laser"
	WeaponRocket Weapon = "rocket"
	WeaponMagic  Weapon = "magic"
)

// Subtask is a checkable step scoped under a parent task.
type Subtask struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Task is a single quest. ID is stable across sessions.
type Task struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Type     TaskType  `json:"type,omitempty"`
	Monster  string    `json:"monster,omitempty"`
	Treasure string    `json:"treasure,omitempty"`
	Weapon   Weapon    `json:"weapon,omitempty"`
	Subtasks []Subtask `json:"subtasks,omitempty"`
}

// Section groups tasks under a heading.
type Section struct {
	Title string `json:"title"`
	Icon  string `json:"icon,omitempty"`
	Tasks []Task `json:"tasks"`
}

// Catalog is the ordered list of sections. Its flattened task order is the
// unlock sequence.
type Catalog struct {
	Sections []Section `json:"sections"`
}

var (
	ErrEmptyID     = errors.New("catalog entry has empty id")
	ErrDuplicateID = errors.New("duplicate catalog id")
	ErrUnknownType = errors.New("unknown task type")
)

// IsNote reports whether the task carries a note box instead of being a
// plain action.
func (t Task) IsNote() bool {
	return t.Type == TypeNote
}

// Units returns the number of hit units the task carries: itself plus one
// per subtask.
func (t Task) Units() int {
	return 1 + len(t.Subtasks)
}

// WeaponOrDefault returns the task weapon, falling back to the cannon for
// unknown or missing values.
func (t Task) WeaponOrDefault() Weapon {
	switch t.Weapon {
	case WeaponCannon, WeaponArrow, WeaponLaser, WeaponRocket, WeaponMagic:
		return t.Weapon
	default:
		return WeaponCannon
	}
}

// Flatten returns all tasks in global order: sections in order, tasks within
// a section in order.
func (c Catalog) Flatten() []Task {
	var tasks []Task
	for _, s := range c.Sections {
		tasks = append(tasks, s.Tasks...)
	}
	return tasks
}

// Ref locates a task or subtask inside the catalog.
type Ref struct {
	SectionIndex int
	// TaskIndex is the position of the task in the flattened sequence.
	TaskIndex int
	Task      Task
	// Subtask is nil when the ref points at a task.
	Subtask *Subtask
}

// IsSubtask reports whether the ref points at a subtask.
func (r Ref) IsSubtask() bool {
	return r.Subtask != nil
}

// Find resolves a task or subtask id.
func (c Catalog) Find(id string) (Ref, bool) {
	flat := 0
	for si, s := range c.Sections {
		for _, t := range s.Tasks {
			if t.ID == id {
				return Ref{SectionIndex: si, TaskIndex: flat, Task: t}, true
			}
			for i := range t.Subtasks {
				if t.Subtasks[i].ID == id {
					sub := t.Subtasks[i]
					return Ref{SectionIndex: si, TaskIndex: flat, Task: t, Subtask: &sub}, true
				}
			}
			flat++
		}
	}
	return Ref{}, false
}

// Units returns the total number of tasks plus subtasks.
func (c Catalog) Units() int {
	n := 0
	for _, t := range c.Flatten() {
		n += t.Units()
	}
	return n
}

// Validate checks id uniqueness across tasks and subtasks and task types.
func (c Catalog) Validate() error {
	seen := make(map[string]bool)
	check := func(id string) error {
		if id == "" {
			return ErrEmptyID
		}
		if seen[id] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		seen[id] = true
		return nil
	}

	for _, s := range c.Sections {
		for _, t := range s.Tasks {
			if err := check(t.ID); err != nil {
				return err
			}
			switch t.Type {
			case "", TypeAction, TypeNote:
			default:
				return fmt.Errorf("%w: %q on %s", ErrUnknownType, t.Type, t.ID)
			}
			for _, sub := range t.Subtasks {
				if err := check(sub.ID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
