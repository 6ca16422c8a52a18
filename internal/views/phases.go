package views

import (
	"sort"
	"time"

	"github.com/designcomb/influenter/client/internal/types"
)

// PhaseEndDate is the inclusive last day of a phase.
func PhaseEndDate(start types.Date, durationDays int) types.Date {
	return types.PhaseEnd(start, durationDays)
}

// SchedulePhases lays template phases back to back from start: each phase
// starts the day after the previous one ends. Phases are taken in template
// order and ids are produced by newID.
func SchedulePhases(caseID string, template []types.WorkflowPhase, start types.Date, now time.Time, newID func() string) []types.CasePhase {
	ordered := append([]types.WorkflowPhase(nil), template...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	out := make([]types.CasePhase, 0, len(ordered))
	cursor := start
	for i, wp := range ordered {
		end := types.PhaseEnd(cursor, wp.DurationDays)
		wpID := wp.ID
		out = append(out, types.CasePhase{
			ID:              newID(),
			CaseID:          caseID,
			Name:            wp.Name,
			StartDate:       cursor,
			EndDate:         end,
			DurationDays:    wp.DurationDays,
			Order:           i,
			WorkflowPhaseID: &wpID,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		cursor = end.AddDays(1)
	}
	return out
}
