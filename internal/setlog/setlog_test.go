package setlog

import (
	"errors"
	"testing"

	"github.com/claude/coachdesk/internal/api"
)

// TestAddFirstSetDefaults verifies exercise-derived defaults on an
// empty set list: reps from the target range lower bound, RIR 2,
// weight 0.
func TestAddFirstSetDefaults(t *testing.T) {
	sets, err := Add(nil, "8-12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("len = %d, want 1", len(sets))
	}
	got := sets[0]
	want := api.Set{SetNumber: 1, WeightKg: 0, Reps: 8, RIR: 2}
	if got != want {
		t.Errorf("first set = %+v, want %+v", got, want)
	}
}

// TestAddCopiesPreviousSet verifies a new set inherits the previous
// set's values.
func TestAddCopiesPreviousSet(t *testing.T) {
	sets := []api.Set{{SetNumber: 1, WeightKg: 50, Reps: 10, RIR: 2}}
	sets, err := Add(sets, "8-12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := sets[1]
	want := api.Set{SetNumber: 2, WeightKg: 50, Reps: 10, RIR: 2}
	if got != want {
		t.Errorf("second set = %+v, want %+v", got, want)
	}
}

// TestAddRejectsSixthSet verifies the cap: adding to a full list is
// rejected and the list is unchanged.
func TestAddRejectsSixthSet(t *testing.T) {
	var sets []api.Set
	var err error
	for i := 0; i < MaxSets; i++ {
		sets, err = Add(sets, "5")
		if err != nil {
			t.Fatalf("add %d: unexpected error: %v", i+1, err)
		}
	}

	before := make([]api.Set, len(sets))
	copy(before, sets)

	got, err := Add(sets, "5")
	if !errors.Is(err, ErrMaxSets) {
		t.Fatalf("err = %v, want ErrMaxSets", err)
	}
	if len(got) != MaxSets {
		t.Errorf("len = %d, want %d", len(got), MaxSets)
	}
	for i := range before {
		if got[i] != before[i] {
			t.Errorf("set %d changed: %+v, want %+v", i+1, got[i], before[i])
		}
	}
}

// TestRemoveRenumbers verifies removal keeps set numbers 1..N
// contiguous: removing set 2 of [1,2,3] yields [1,2].
func TestRemoveRenumbers(t *testing.T) {
	sets := []api.Set{
		{SetNumber: 1, WeightKg: 60, Reps: 8, RIR: 2},
		{SetNumber: 2, WeightKg: 62.5, Reps: 8, RIR: 1},
		{SetNumber: 3, WeightKg: 65, Reps: 6, RIR: 0},
	}
	sets, err := Remove(sets, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("len = %d, want 2", len(sets))
	}
	if sets[0].SetNumber != 1 || sets[1].SetNumber != 2 {
		t.Errorf("set numbers = [%d, %d], want [1, 2]", sets[0].SetNumber, sets[1].SetNumber)
	}
	// The third set's values survive under the new number.
	if sets[1].WeightKg != 65 {
		t.Errorf("set 2 weight = %v, want 65", sets[1].WeightKg)
	}
}

// TestSetNumbersContiguousAfterEditSequence runs a mixed add/remove
// sequence and checks numbering stays exactly 1..N throughout.
func TestSetNumbersContiguousAfterEditSequence(t *testing.T) {
	check := func(sets []api.Set) {
		t.Helper()
		for i, s := range sets {
			if s.SetNumber != i+1 {
				t.Fatalf("set at index %d has number %d, want %d", i, s.SetNumber, i+1)
			}
		}
	}

	var sets []api.Set
	var err error
	for i := 0; i < 4; i++ {
		sets, err = Add(sets, "8-12")
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		check(sets)
	}
	sets, err = Remove(sets, 0)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	check(sets)
	sets, err = Remove(sets, 2)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	check(sets)
	sets, err = Add(sets, "8-12")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	check(sets)
}

// TestRemoveOutOfRange verifies an invalid index errors and leaves the
// list alone.
func TestRemoveOutOfRange(t *testing.T) {
	sets := []api.Set{{SetNumber: 1}}
	got, err := Remove(sets, 3)
	if err == nil {
		t.Fatal("expected error for out-of-range index")
	}
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

// TestUpdateField covers numeric parsing and the coerce-to-zero rule
// for non-numeric input.
func TestUpdateField(t *testing.T) {
	tests := []struct {
		name  string
		field string
		raw   string
		check func(api.Set) bool
	}{
		{"weight", "weight_kg", "82.5", func(s api.Set) bool { return s.WeightKg == 82.5 }},
		{"reps", "reps", "12", func(s api.Set) bool { return s.Reps == 12 }},
		{"rir", "rir", "1", func(s api.Set) bool { return s.RIR == 1 }},
		{"non-numeric weight", "weight_kg", "abc", func(s api.Set) bool { return s.WeightKg == 0 }},
		{"non-numeric reps", "reps", "twelve", func(s api.Set) bool { return s.Reps == 0 }},
		{"empty rir", "rir", "", func(s api.Set) bool { return s.RIR == 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sets := []api.Set{{SetNumber: 1, WeightKg: 50, Reps: 10, RIR: 2}}
			if err := UpdateField(sets, 0, tt.field, tt.raw); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(sets[0]) {
				t.Errorf("after update %s=%q: set = %+v", tt.field, tt.raw, sets[0])
			}
		})
	}
}

// TestUpdateFieldErrors verifies unknown fields and bad indexes are
// rejected.
func TestUpdateFieldErrors(t *testing.T) {
	sets := []api.Set{{SetNumber: 1}}
	if err := UpdateField(sets, 0, "tempo", "3"); err == nil {
		t.Error("expected error for unknown field")
	}
	if err := UpdateField(sets, 2, "reps", "8"); err == nil {
		t.Error("expected error for out-of-range index")
	}
}

// TestLowerBoundReps covers rep range parsing.
func TestLowerBoundReps(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"8-12", 8},
		{"10", 10},
		{"6-8", 6},
		{" 12-15 ", 12},
		{"", 0},
		{"AMRAP", 0},
	}
	for _, tt := range tests {
		if got := LowerBoundReps(tt.in); got != tt.want {
			t.Errorf("LowerBoundReps(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
