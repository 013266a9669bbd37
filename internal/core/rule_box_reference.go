package core

import (
	"context"
	"fmt"

	"github.com/felipi-hub/boxship-sistema/pkg/domain"
)

// BoxReferenceRule enforces product/box consistency across the transaction
// outcome: a product carries a box reference exactly when its status is
// in_box or shipped, the referenced box must exist, and it must belong to
// the same client.
func BoxReferenceRule() domain.Rule {
	return boxReferenceRule{}
}

type boxReferenceRule struct{}

func (boxReferenceRule) Name() string { return "box_reference" }

func (boxReferenceRule) Evaluate(_ context.Context, view domain.RuleView, changes []Change) (Result, error) {
	res := Result{}
	for _, change := range changes {
		if change.Entity != EntityProduct || change.Action == ActionDelete {
			continue
		}
		product, ok := change.After.(Product)
		if !ok {
			continue
		}
		boxed := product.Status == ProductStatusInBox || product.Status == ProductStatusShipped
		if boxed != (product.BoxID != nil) {
			res.Violations = append(res.Violations, Violation{
				Rule:     "box_reference",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("product %s status %s is inconsistent with its box reference", product.ID, product.Status),
				Entity:   EntityProduct,
				EntityID: product.ID,
			})
			continue
		}
		if product.BoxID == nil {
			continue
		}
		box, found := view.FindBox(*product.BoxID)
		if !found {
			res.Violations = append(res.Violations, Violation{
				Rule:     "box_reference",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("product %s references missing box %s", product.ID, *product.BoxID),
				Entity:   EntityProduct,
				EntityID: product.ID,
			})
			continue
		}
		if box.ClientID != product.ClientID {
			res.Violations = append(res.Violations, Violation{
				Rule:     "box_reference",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("product %s and box %s belong to different clients", product.ID, box.ID),
				Entity:   EntityProduct,
				EntityID: product.ID,
			})
		}
	}
	return res, nil
}

// DefaultRules returns the engine with the fulfillment invariants registered.
func DefaultRules() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(LifecycleTransitionRule())
	engine.Register(BoxReferenceRule())
	return engine
}
