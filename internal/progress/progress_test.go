package progress

import (
	"testing"

	"github.com/hyperengineering/questboard/internal/catalog"
)

// set is a Lookup backed by a set of completed ids.
type set map[string]bool

func (s set) IsCompleted(id string) bool { return s[id] }

func done(ids ...string) set {
	s := set{}
	for _, id := range ids {
		s[id] = true
	}
	return s
}

var twoSubs = catalog.Task{
	ID: "t",
	Subtasks: []catalog.Subtask{
		{ID: "t-1"},
		{ID: "t-2"},
	},
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name  string
		task  catalog.Task
		state set
		want  int
	}{
		{"plain task untouched", catalog.Task{ID: "a"}, done(), 100},
		{"plain task completed", catalog.Task{ID: "a"}, done("a"), 0},
		{"subtasks untouched", twoSubs, done(), 100},
		{"one of three", twoSubs, done("t-1"), 67},
		{"two of three", twoSubs, done("t-1", "t-2"), 33},
		{"parent only", twoSubs, done("t"), 67},
		{"all three", twoSubs, done("t", "t-1", "t-2"), 0},
		{"one of two rounds half up", catalog.Task{ID: "a", Subtasks: []catalog.Subtask{{ID: "a-1"}}}, done("a-1"), 50},
		{"unrelated ids ignored", catalog.Task{ID: "a"}, done("b", "a-1"), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Health(tt.task, tt.state); got != tt.want {
				t.Errorf("Health() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHealth_BoundsOverDefaultCatalog(t *testing.T) {
	for _, task := range catalog.Default().Flatten() {
		ids := []string{task.ID}
		for _, sub := range task.Subtasks {
			ids = append(ids, sub.ID)
		}

		// Every subset of the task's units stays within [0,100]; only the
		// full set reaches 0 and only the empty set reaches 100.
		for mask := 0; mask < 1<<len(ids); mask++ {
			s := set{}
			for i, id := range ids {
				if mask&(1<<i) != 0 {
					s[id] = true
				}
			}
			hp := Health(task, s)
			if hp < 0 || hp > 100 {
				t.Fatalf("%s mask %b: Health() = %d out of range", task.ID, mask, hp)
			}
			full := mask == 1<<len(ids)-1
			if (hp == 0) != full {
				t.Errorf("%s mask %b: Health() = %d, full = %v", task.ID, mask, hp, full)
			}
			if (hp == 100) != (mask == 0) {
				t.Errorf("%s mask %b: Health() = %d, empty = %v", task.ID, mask, hp, mask == 0)
			}
		}
	}
}

func TestLockBoundary(t *testing.T) {
	tasks := []catalog.Task{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	tests := []struct {
		name  string
		state set
		want  int
	}{
		{"nothing done", done(), 0},
		{"first done", done("a"), 1},
		{"gap keeps boundary at gap", done("a", "c"), 1},
		{"all done", done("a", "b", "c"), 3},
		{"subtasks do not unlock", done("a-1", "a-2"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LockBoundary(tasks, tt.state); got != tt.want {
				t.Errorf("LockBoundary() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLockBoundary_UndoMovesBack(t *testing.T) {
	tasks := catalog.Default().Flatten()
	s := set{}
	for _, task := range tasks[:5] {
		s[task.ID] = true
	}
	if got := LockBoundary(tasks, s); got != 5 {
		t.Fatalf("LockBoundary() = %d, want 5", got)
	}

	// Undo the second task.
	delete(s, tasks[1].ID)

	boundary := LockBoundary(tasks, s)
	if boundary != 1 {
		t.Fatalf("LockBoundary() after undo = %d, want 1", boundary)
	}
	if IsLocked(1, boundary) {
		t.Error("undone task should stay interactive")
	}
	for i := 2; i < len(tasks); i++ {
		if !IsLocked(i, boundary) {
			t.Errorf("task %d (%s) should be locked after undo", i, tasks[i].ID)
		}
	}
}

func TestLockBoundary_Empty(t *testing.T) {
	if got := LockBoundary(nil, done()); got != 0 {
		t.Errorf("LockBoundary(nil) = %d, want 0", got)
	}
}

func TestComputeTotals(t *testing.T) {
	c := catalog.Default()

	empty := ComputeTotals(c, done())
	if empty.Total != 14 || empty.Completed != 0 {
		t.Fatalf("ComputeTotals(empty) = %+v, want {14 0}", empty)
	}
	if empty.Total != c.Units() {
		t.Errorf("Total = %d, catalog units = %d", empty.Total, c.Units())
	}

	some := ComputeTotals(c, done("morning-1", "morning-2-1", "not-a-task"))
	if some.Total != 14 || some.Completed != 2 {
		t.Errorf("ComputeTotals() = %+v, want {14 2}", some)
	}
}

func TestTotals_PercentAndAllComplete(t *testing.T) {
	tests := []struct {
		totals  Totals
		percent int
		all     bool
	}{
		{Totals{}, 0, false},
		{Totals{Total: 13}, 0, false},
		{Totals{Total: 13, Completed: 1}, 8, false},
		{Totals{Total: 8, Completed: 1}, 13, false},
		{Totals{Total: 2, Completed: 1}, 50, false},
		{Totals{Total: 13, Completed: 13}, 100, true},
	}
	for _, tt := range tests {
		if got := tt.totals.Percent(); got != tt.percent {
			t.Errorf("%+v.Percent() = %d, want %d", tt.totals, got, tt.percent)
		}
		if got := tt.totals.AllComplete(); got != tt.all {
			t.Errorf("%+v.AllComplete() = %v, want %v", tt.totals, got, tt.all)
		}
	}
}

func TestComputeExperience(t *testing.T) {
	tests := []struct {
		completed int
		want      Experience
	}{
		{0, Experience{XP: 0, Level: 1}},
		{1, Experience{XP: 120, Level: 1}},
		{4, Experience{XP: 480, Level: 1}},
		{5, Experience{XP: 600, Level: 2}},
		{9, Experience{XP: 1080, Level: 3}},
		{13, Experience{XP: 1560, Level: 4}},
		{-3, Experience{XP: 0, Level: 1}},
	}
	for _, tt := range tests {
		if got := ComputeExperience(tt.completed); got != tt.want {
			t.Errorf("ComputeExperience(%d) = %+v, want %+v", tt.completed, got, tt.want)
		}
	}
}

func TestComputeExperience_NonDecreasing(t *testing.T) {
	prev := ComputeExperience(0)
	for n := 1; n <= 100; n++ {
		cur := ComputeExperience(n)
		if cur.XP < prev.XP || cur.Level < prev.Level {
			t.Fatalf("ComputeExperience(%d) = %+v decreased from %+v", n, cur, prev)
		}
		prev = cur
	}
}

func TestIsSectionComplete(t *testing.T) {
	section := catalog.Section{Tasks: []catalog.Task{{ID: "a"}, twoSubs}}

	tests := []struct {
		name  string
		state set
		want  bool
	}{
		{"nothing", done(), false},
		{"tasks but not subtasks", done("a", "t"), false},
		{"subtasks but not parent", done("a", "t-1", "t-2"), false},
		{"everything", done("a", "t", "t-1", "t-2"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSectionComplete(section, tt.state); got != tt.want {
				t.Errorf("IsSectionComplete() = %v, want %v", got, tt.want)
			}
		})
	}

	if !IsSectionComplete(catalog.Section{}, done()) {
		t.Error("empty section should be complete")
	}
}
