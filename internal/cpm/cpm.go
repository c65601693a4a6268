// Package cpm computes Critical Path Method schedules over a project's
// activity network.
package cpm

import (
	"errors"
	"fmt"

	"github.com/yukikurage/construction-schedule-api/internal/constants"
	apierrors "github.com/yukikurage/construction-schedule-api/internal/errors"
	"github.com/yukikurage/construction-schedule-api/internal/network"
)

// NearCriticalThreshold is the largest float, in days, still reported as
// near-critical.
const NearCriticalThreshold = constants.NearCriticalFloatDays

// ErrCyclicNetwork is returned when Compute is handed a graph with a cycle.
// The graph guards make this unreachable, so callers treat it as an internal
// failure rather than bad input.
var ErrCyclicNetwork = errors.New("cpm: activity network is cyclic")

// Compute runs the forward and backward passes over g and returns the derived
// fields of every activity. It does not modify g.
func Compute(g *network.Graph) (*Result, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCyclicNetwork, err)
	}

	result := &Result{
		Activities: make(map[uint64]Times, len(order)),
		Order:      order,
	}

	// Forward pass: ES = max(EF of predecessors), 0 for roots.
	for _, id := range order {
		es := 0
		for _, p := range g.Predecessors(id) {
			if ef := result.Activities[p].EarlyFinish; ef > es {
				es = ef
			}
		}
		result.Activities[id] = Times{
			EarlyStart:  es,
			EarlyFinish: es + g.Duration(id),
		}
	}

	// Project finish is the latest early finish among sinks.
	for _, id := range order {
		if len(g.Successors(id)) > 0 {
			continue
		}
		if ef := result.Activities[id].EarlyFinish; ef > result.ProjectFinish {
			result.ProjectFinish = ef
		}
	}

	// Backward pass: LF = min(LS of successors), project finish for sinks.
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		ts := result.Activities[id]

		lf := result.ProjectFinish
		for _, s := range g.Successors(id) {
			if ls := result.Activities[s].LateStart; ls < lf {
				lf = ls
			}
		}
		ts.LateFinish = lf
		ts.LateStart = lf - g.Duration(id)
		ts.TotalFloat = ts.LateStart - ts.EarlyStart
		ts.IsCritical = ts.TotalFloat == 0
		result.Activities[id] = ts
	}

	for _, id := range order {
		ts := result.Activities[id]
		switch {
		case ts.IsCritical:
			result.CriticalPath = append(result.CriticalPath, id)
		case ts.TotalFloat <= NearCriticalThreshold:
			result.NearCritical = append(result.NearCritical, id)
		}
	}

	return result, nil
}

// DelayImpact reports how a delay of delayDays on activity id propagates to
// the project finish. Float absorbs the delay first; the remainder pushes the
// finish out. g must be the graph the result was computed from.
func (r *Result) DelayImpact(g *network.Graph, id uint64, delayDays int) (*DelayImpact, error) {
	ts, ok := r.Activities[id]
	if !ok {
		return nil, apierrors.NotFoundf("activity %d not found", id)
	}
	if delayDays < 0 {
		return nil, apierrors.Validationf("delay_days must be >= 0, got %d", delayDays)
	}

	absorbed := min(delayDays, ts.TotalFloat)
	projectDelay := max(0, delayDays-ts.TotalFloat)

	impact := &DelayImpact{
		ActivityID:       id,
		DelayDays:        delayDays,
		AvailableFloat:   ts.TotalFloat,
		AbsorbedByFloat:  absorbed,
		ProjectDelay:     projectDelay,
		IsCritical:       ts.IsCritical,
		OriginalDuration: r.ProjectFinish,
		NewDuration:      r.ProjectFinish + projectDelay,
	}
	if projectDelay > 0 {
		impact.AffectedActivities = g.Successors(id)
	}
	return impact, nil
}
