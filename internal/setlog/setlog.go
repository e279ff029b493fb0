// Package setlog implements the set list edited during an active
// workout: a bounded, ordered list of sets per exercise. Set numbers
// are 1-based and stay contiguous through any sequence of edits.
package setlog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/claude/coachdesk/internal/api"
)

// MaxSets is the per-exercise set cap.
const MaxSets = 5

// ErrMaxSets is returned by Add once an exercise holds MaxSets sets.
var ErrMaxSets = errors.New("exercise already has the maximum number of sets")

// Add appends a new set and returns the extended list. The new set
// copies weight, reps and RIR from the previous set; the first set of
// an exercise defaults to weight 0, reps from the lower bound of the
// routine's target rep range, and RIR 2. The input list is unchanged
// when the cap is reached.
func Add(sets []api.Set, targetReps string) ([]api.Set, error) {
	if len(sets) >= MaxSets {
		return sets, ErrMaxSets
	}

	next := api.Set{
		SetNumber: len(sets) + 1,
		WeightKg:  0,
		Reps:      LowerBoundReps(targetReps),
		RIR:       2,
	}
	if len(sets) > 0 {
		prev := sets[len(sets)-1]
		next.WeightKg = prev.WeightKg
		next.Reps = prev.Reps
		next.RIR = prev.RIR
	}

	return append(sets, next), nil
}

// UpdateField sets a single numeric field on the set at index.
// Non-numeric input coerces to 0; no range validation beyond that.
func UpdateField(sets []api.Set, index int, field, raw string) error {
	if index < 0 || index >= len(sets) {
		return fmt.Errorf("set index %d out of range (have %d sets)", index, len(sets))
	}

	switch field {
	case "weight_kg":
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			v = 0
		}
		sets[index].WeightKg = v
	case "reps":
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			v = 0
		}
		sets[index].Reps = v
	case "rir":
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			v = 0
		}
		sets[index].RIR = v
	default:
		return fmt.Errorf("unknown set field %q", field)
	}
	return nil
}

// Remove deletes the set at index and renumbers the remaining sets so
// set_number runs 1..N again.
func Remove(sets []api.Set, index int) ([]api.Set, error) {
	if index < 0 || index >= len(sets) {
		return sets, fmt.Errorf("set index %d out of range (have %d sets)", index, len(sets))
	}

	out := append(sets[:index:index], sets[index+1:]...)
	for i := range out {
		out[i].SetNumber = i + 1
	}
	return out, nil
}

// LowerBoundReps parses the lower bound from a target rep range string
// like "8-12" or "10". Returns 0 when the string has no leading number.
func LowerBoundReps(targetReps string) int {
	s := strings.TrimSpace(targetReps)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
