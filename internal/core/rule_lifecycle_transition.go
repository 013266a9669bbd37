package core

import (
	"context"
	"fmt"

	"github.com/felipi-hub/boxship-sistema/pkg/domain"
)

// LifecycleTransitionRule blocks reversed or skipped status transitions on
// products and boxes.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

// Ordinal positions of each lifecycle stage. A legal update moves forward
// by exactly one stage; creation may land on the first stage, or on the
// second for boxes closed directly at assembly time.
var productStageRank = map[ProductStatus]int{
	ProductStatusPending: 0,
	ProductStatusInBox:   1,
	ProductStatusShipped: 2,
}

var boxStageRank = map[BoxStatus]int{
	BoxStatusAssembling: 0,
	BoxStatusReady:      1,
	BoxStatusShipped:    2,
	BoxStatusDelivered:  3,
}

func (lifecycleTransitionRule) Name() string { return "lifecycle_transition" }

func (lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []Change) (Result, error) {
	res := Result{}
	for _, change := range changes {
		switch change.Entity {
		case EntityProduct:
			res.Merge(checkProductChange(change))
		case EntityBox:
			res.Merge(checkBoxChange(change))
		}
	}
	return res, nil
}

func blockViolation(entity EntityType, id, message string) Result {
	return Result{Violations: []Violation{{
		Rule:     "lifecycle_transition",
		Severity: SeverityBlock,
		Message:  message,
		Entity:   entity,
		EntityID: id,
	}}}
}

func checkProductChange(change Change) Result {
	after, ok := change.After.(Product)
	if !ok {
		return Result{}
	}
	afterRank, valid := productStageRank[after.Status]
	if !valid {
		return blockViolation(EntityProduct, after.ID, fmt.Sprintf("product %s is set to invalid status %s", after.ID, after.Status))
	}
	if change.Action == ActionCreate && after.Status != ProductStatusPending {
		return blockViolation(EntityProduct, after.ID, fmt.Sprintf("product %s must be created pending, got %s", after.ID, after.Status))
	}
	before, ok := change.Before.(Product)
	if !ok {
		return Result{}
	}
	beforeRank := productStageRank[before.Status]
	if afterRank != beforeRank && afterRank != beforeRank+1 {
		return blockViolation(EntityProduct, after.ID, fmt.Sprintf("product %s cannot move from %s to %s", after.ID, before.Status, after.Status))
	}
	return Result{}
}

func checkBoxChange(change Change) Result {
	after, ok := change.After.(Box)
	if !ok {
		return Result{}
	}
	afterRank, valid := boxStageRank[after.Status]
	if !valid {
		return blockViolation(EntityBox, after.ID, fmt.Sprintf("box %s is set to invalid status %s", after.ID, after.Status))
	}
	if change.Action == ActionCreate {
		// Boxes enter the lifecycle assembling, or ready when closed at
		// assembly time without a persisted draft.
		if after.Status != BoxStatusAssembling && after.Status != BoxStatusReady {
			return blockViolation(EntityBox, after.ID, fmt.Sprintf("box %s cannot be created in status %s", after.ID, after.Status))
		}
		return Result{}
	}
	before, ok := change.Before.(Box)
	if !ok {
		return Result{}
	}
	beforeRank := boxStageRank[before.Status]
	if afterRank != beforeRank && afterRank != beforeRank+1 {
		return blockViolation(EntityBox, after.ID, fmt.Sprintf("box %s cannot move from %s to %s", after.ID, before.Status, after.Status))
	}
	return Result{}
}
