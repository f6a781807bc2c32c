package maintlog

import (
	"fmt"

	"github.com/rahul/maintbot/internal/schedule"
)

// maxBiAnnualSteps caps the bi-annual candidates, and is the guess used when
// the registry has no bi-annual task list.
const maxBiAnnualSteps = 3

// StepPlan is the step numbers a frequency should tick. Fallback is tried
// once, only when no header covers Primary.
type StepPlan struct {
	Primary       []int
	Fallback      []int
	LowConfidence bool
}

// ResolveSteps maps a frequency onto step numbers using the task counts the
// registry holds for the equipment. Sheets conventionally keep an "everyday"
// task in step 1 that the registry does not list, which is why monthly tries
// {2,3} before {1,2}. known is false when the registry has no entry at all.
func ResolveSteps(freq schedule.Frequency, counts map[schedule.Frequency]int, known bool) (StepPlan, error) {
	if !known {
		return fallbackPlan(freq)
	}

	monthly := counts[schedule.Monthly]
	biAnnual := counts[schedule.BiAnnual]

	var plan StepPlan
	switch freq {
	case schedule.Monthly:
		plan = StepPlan{Primary: []int{2, 3}, Fallback: []int{1, 2}}
	case schedule.BiAnnual:
		k, ok := counts[schedule.BiAnnual]
		if !ok || k > maxBiAnnualSteps {
			k = maxBiAnnualSteps
		}
		plan.Primary = stepRange(3+monthly, k)
	case schedule.Annual:
		plan.Primary = stepRange(1+monthly+biAnnual, counts[schedule.Annual])
	default:
		return StepPlan{}, fmt.Errorf("%w for frequency: %s", ErrFrequencyUnresolved, freq)
	}

	if len(plan.Primary) == 0 {
		return StepPlan{}, fmt.Errorf("%w for frequency: %s", ErrFrequencyUnresolved, freq)
	}
	return plan, nil
}

// fallbackPlan holds the last-resort guesses used without a registry entry.
func fallbackPlan(freq schedule.Frequency) (StepPlan, error) {
	switch freq {
	case schedule.Monthly:
		return StepPlan{Primary: []int{2, 3}, Fallback: []int{1, 2}, LowConfidence: true}, nil
	case schedule.BiAnnual:
		return StepPlan{Primary: []int{1, 2}, LowConfidence: true}, nil
	case schedule.Annual:
		return StepPlan{Primary: []int{3}, LowConfidence: true}, nil
	}
	return StepPlan{}, fmt.Errorf("%w for frequency: %s", ErrFrequencyUnresolved, freq)
}

func stepRange(start, n int) []int {
	if n <= 0 {
		return nil
	}
	steps := make([]int, n)
	for i := range steps {
		steps[i] = start + i
	}
	return steps
}
