package domain

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestProductMarshalJSONShape(t *testing.T) {
	now := time.Now().UTC()
	boxID := "box-1"
	product := Product{
		Base:        Base{ID: "prod-1", CreatedAt: now, UpdatedAt: now},
		ClientID:    "client-1",
		Description: "Tenis",
		Weight:      2.5,
		Status:      ProductStatusInBox,
		BoxID:       &boxID,
		ReceivedAt:  now,
	}
	data, err := json.Marshal(product)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "clientId", "boxId", "receivedAt", "createdAt", "updatedAt"} {
		if _, ok := result[key]; !ok {
			t.Errorf("expected key %q in JSON output", key)
		}
	}
	if result["boxId"] != "box-1" {
		t.Errorf("expected boxId box-1, got %v", result["boxId"])
	}
	if result["status"] != "in_box" {
		t.Errorf("expected status in_box, got %v", result["status"])
	}
}

func TestBoxMarshalOmitsUnsetTimestamps(t *testing.T) {
	box := Box{Base: Base{ID: "box-1"}, ClientID: "client-1", BoxNumber: "CX-0001", Status: BoxStatusAssembling}
	data, err := json.Marshal(box)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"closedAt", "shippedAt", "deliveredAt"} {
		if _, ok := result[key]; ok {
			t.Errorf("unset %q should be omitted", key)
		}
	}
	if result["boxNumber"] != "CX-0001" {
		t.Errorf("expected boxNumber CX-0001, got %v", result["boxNumber"])
	}
}

func TestResultHasBlocking(t *testing.T) {
	var res Result
	if res.HasBlocking() {
		t.Fatalf("empty result should not block")
	}
	res.Merge(Result{Violations: []Violation{{Rule: "a", Severity: SeverityWarn}}})
	if res.HasBlocking() {
		t.Fatalf("warn-only result should not block")
	}
	res.Merge(Result{Violations: []Violation{{Rule: "b", Severity: SeverityBlock}}})
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result")
	}
	if len(res.Violations) != 2 {
		t.Fatalf("merge lost violations: %d", len(res.Violations))
	}
}

type stubRule struct {
	name string
	res  Result
	err  error
}

func (r stubRule) Name() string { return r.name }

func (r stubRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return r.res, r.err
}

func TestRulesEngineAggregates(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(stubRule{name: "warn", res: Result{Violations: []Violation{{Rule: "warn", Severity: SeverityWarn}}}})
	engine.Register(stubRule{name: "block", res: Result{Violations: []Violation{{Rule: "block", Severity: SeverityBlock}}}})

	res, err := engine.Evaluate(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 2 || !res.HasBlocking() {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRulesEngineStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	engine := NewRulesEngine()
	engine.Register(stubRule{name: "bad", err: boom})
	if _, err := engine.Evaluate(context.Background(), nil, nil); !errors.Is(err, boom) {
		t.Fatalf("expected rule error, got %v", err)
	}
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ConstraintViolationError{Entity: EntityClient, Index: "phone", Value: "119"}, `client with phone "119" already exists`},
		{InvalidTransitionError{Entity: EntityBox, ID: "b1", From: "ready", To: "delivered"}, "box b1 cannot move from ready to delivered"},
		{NotFoundError{Entity: EntityProduct, ID: "p1"}, "product p1 not found"},
		{ValidationError{Field: "weight", Reason: "must be positive"}, "invalid weight: must be positive"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("got %q, want %q", got, tc.want)
		}
	}
}
