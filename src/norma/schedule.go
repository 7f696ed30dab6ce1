package norma

import (
	"fmt"
)

// ReductionSchedule derives the per-level register placement for a SumR adder
// tree. The tree reduces dictionarySize-2 leaves (the two highest-index
// dictionary slots are reserved as the wD/wD1 spares and never enter the
// tree); each level pairs adjacent elements, carrying an odd leftover singly,
// so the level count is the number of halvings needed to reach one element.
//
// The register budget is activeStages-1: the final accumulator register
// supplies the last pipeline stage, so only activeStages-1 levels carry an
// extra register. Registers are spread evenly across the levels, biased
// toward the deeper (narrower) levels where the carried values are widest:
// level l is registered iff floor((l+1)*budget/levels) > floor(l*budget/levels).
//
// The derivation fails when the geometry cannot carry the requested pipeline
// depth (more registers than levels) or when the dictionary is too small to
// cover the spare window.
func ReductionSchedule(dictionarySize, activeStages int) ([]bool, error) {
	if activeStages < 1 {
		return nil, fmt.Errorf("norma: activeStages %d < 1", activeStages)
	}
	if dictionarySize <= activeStages+2 {
		return nil, fmt.Errorf("norma: dictionarySize %d must exceed activeStages+2 = %d",
			dictionarySize, activeStages+2)
	}

	levels := reductionLevels(dictionarySize - 2)
	budget := activeStages - 1
	if budget > levels {
		return nil, fmt.Errorf("norma: schedule needs %d registered levels but the tree only has %d",
			budget, levels)
	}

	schedule := make([]bool, levels)
	for l := 0; l < levels; l++ {
		schedule[l] = (l+1)*budget/levels > l*budget/levels
	}
	return schedule, nil
}

// ValidateSchedule checks a caller-supplied schedule against the derived one.
// An explicit schedule is accepted only when it is identical; anything else
// is a configuration error.
func ValidateSchedule(schedule []bool, dictionarySize, activeStages int) error {
	derived, err := ReductionSchedule(dictionarySize, activeStages)
	if err != nil {
		return err
	}
	if len(schedule) != len(derived) {
		return fmt.Errorf("norma: schedule has %d levels, tree needs %d", len(schedule), len(derived))
	}
	for l := range derived {
		if schedule[l] != derived[l] {
			return fmt.Errorf("norma: schedule level %d disagrees with the derived placement", l)
		}
	}
	return nil
}

// reductionLevels returns how many pairwise-reduction levels it takes to fold
// n leaves down to a single value.
func reductionLevels(n int) int {
	levels := 0
	for n > 1 {
		n = (n + 1) / 2
		levels++
	}
	return levels
}
