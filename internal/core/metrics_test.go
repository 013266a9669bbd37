package core

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/felipi-hub/boxship-sistema/internal/infra/persistence/memory"
	"github.com/felipi-hub/boxship-sistema/internal/settings"
	"github.com/felipi-hub/boxship-sistema/pkg/domain"
)

func TestMetricsCountFulfillmentActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	store := memory.NewStore(DefaultRules())
	cfgStore := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"))
	svc := NewService(store, cfgStore, nil, WithMetrics(metrics))

	ana := createClient(t, svc, "Ana", "11999990000")
	product := receiveProduct(t, svc, ana.ID, "Tenis", 2)
	if got := testutil.ToFloat64(metrics.productsReceived); got != 1 {
		t.Fatalf("products_received_total = %v", got)
	}

	draft, err := svc.NewDraft(ana.ID)
	if err != nil {
		t.Fatalf("new draft: %v", err)
	}
	if err := draft.StageProduct(product.ID); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if _, _, err := draft.CommitAndClose(context.Background()); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got := testutil.ToFloat64(metrics.boxesCommitted); got != 1 {
		t.Fatalf("boxes_committed_total = %v", got)
	}
	if got := testutil.ToFloat64(metrics.boxesClosed); got != 1 {
		t.Fatalf("boxes_closed_total = %v", got)
	}
}

func TestMetricsCountRuleViolations(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	store := memory.NewStore(DefaultRules())
	cfgStore := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"))
	svc := NewService(store, cfgStore, nil, WithMetrics(metrics))
	ana := createClient(t, svc, "Ana", "11999990000")

	product := receiveProduct(t, svc, ana.ID, "Tenis", 2)

	// Skipping a lifecycle stage through an edit trips the transition
	// rule and the counter.
	_, _, err := svc.EditProduct(context.Background(), product.ID, func(p *Product) error {
		p.Status = ProductStatusShipped
		return nil
	})
	if _, ok := err.(domain.RuleViolationError); !ok {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if got := testutil.ToFloat64(metrics.ruleViolations); got != 1 {
		t.Fatalf("rule_violations_total = %v", got)
	}
	if _, ok := store.GetProduct(product.ID); !ok {
		t.Fatalf("product lost")
	}
	current, _ := store.GetProduct(product.ID)
	if current.Status != ProductStatusPending {
		t.Fatalf("blocked edit mutated product: %s", current.Status)
	}
}
