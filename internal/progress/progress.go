// Package progress derives health, unlock position, totals and experience
// from the catalog and a completion snapshot. Every function is pure.
package progress

import (
	"math"

	"github.com/hyperengineering/questboard/internal/catalog"
)

// XP constants.
const (
	XPPerUnit   = 120
	XPPerLevel  = 500
	MaxHealth   = 100
	percentFull = 100
)

// Lookup answers whether a task or subtask id is completed.
type Lookup interface {
	IsCompleted(id string) bool
}

// Health returns the remaining hit points of a task, 0..100. The task and each
// subtask count as one unit.
func Health(task catalog.Task, state Lookup) int {
	total := task.Units()
	hits := 0
	if state.IsCompleted(task.ID) {
		hits++
	}
	for _, sub := range task.Subtasks {
		if state.IsCompleted(sub.ID) {
			hits++
		}
	}
	hp := MaxHealth - roundPercent(hits, total)
	if hp < 0 {
		return 0
	}
	return hp
}

// LockBoundary returns the index of the first task whose own completed flag
// is false, or len(tasks) when every task is completed.
func LockBoundary(tasks []catalog.Task, state Lookup) int {
	for i, t := range tasks {
		if !state.IsCompleted(t.ID) {
			return i
		}
	}
	return len(tasks)
}

// IsLocked reports whether the task at index is locked for the given
// boundary. The first incomplete task itself stays open.
func IsLocked(index, boundary int) bool {
	return index > boundary
}

// Totals counts units (tasks plus subtasks).
type Totals struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// Percent returns the rounded completion percentage, 0 for an empty catalog.
func (t Totals) Percent() int {
	if t.Total == 0 {
		return 0
	}
	return roundPercent(t.Completed, t.Total)
}

// AllComplete reports whether every unit of a non-empty catalog is done.
func (t Totals) AllComplete() bool {
	return t.Total > 0 && t.Completed == t.Total
}

// ComputeTotals counts all tasks and subtasks and how many are completed.
func ComputeTotals(c catalog.Catalog, state Lookup) Totals {
	var t Totals
	for _, section := range c.Sections {
		for _, task := range section.Tasks {
			t.Total++
			if state.IsCompleted(task.ID) {
				t.Completed++
			}
			for _, sub := range task.Subtasks {
				t.Total++
				if state.IsCompleted(sub.ID) {
					t.Completed++
				}
			}
		}
	}
	return t
}

// Experience is the derived score of a board.
type Experience struct {
	XP    int `json:"xp"`
	Level int `json:"level"`
}

// ComputeExperience converts completed units into experience and level.
func ComputeExperience(completed int) Experience {
	if completed < 0 {
		completed = 0
	}
	xp := completed * XPPerUnit
	level := xp/XPPerLevel + 1
	if level < 1 {
		level = 1
	}
	return Experience{XP: xp, Level: level}
}

// IsSectionComplete reports whether every task and subtask in the section is
// completed.
func IsSectionComplete(section catalog.Section, state Lookup) bool {
	for _, task := range section.Tasks {
		if !state.IsCompleted(task.ID) {
			return false
		}
		for _, sub := range task.Subtasks {
			if !state.IsCompleted(sub.ID) {
				return false
			}
		}
	}
	return true
}

// roundPercent returns round(100*n/d) with halves rounded up. d must be > 0.
func roundPercent(n, d int) int {
	return int(math.Floor(float64(n)*percentFull/float64(d) + 0.5))
}
