package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/felipi-hub/boxship-sistema/pkg/domain"
)

func mustCreateClient(t *testing.T, store *Store, name, phone string) Client {
	t.Helper()
	var created Client
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		c, err := tx.CreateClient(Client{Name: name, Phone: phone, Active: true})
		created = c
		return err
	}); err != nil {
		t.Fatalf("create client %s: %v", name, err)
	}
	return created
}

func mustCreateProduct(t *testing.T, store *Store, clientID, description string, weight float64) Product {
	t.Helper()
	var created Product
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		p, err := tx.CreateProduct(Product{ClientID: clientID, Description: description, Weight: weight})
		created = p
		return err
	}); err != nil {
		t.Fatalf("create product %s: %v", description, err)
	}
	return created
}

func TestStoreCreateClientAssignsIdentity(t *testing.T) {
	store := NewStore(nil)
	client := mustCreateClient(t, store, "Ana", "11999990000")
	if client.ID == "" {
		t.Fatalf("expected generated id")
	}
	if client.CreatedAt.IsZero() || client.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps, got %+v", client.Base)
	}
	got, ok := store.GetClient(client.ID)
	if !ok {
		t.Fatalf("client not committed")
	}
	if got.Phone != "11999990000" {
		t.Fatalf("unexpected phone %q", got.Phone)
	}
}

func TestStorePhoneUniqueIndex(t *testing.T) {
	store := NewStore(nil)
	mustCreateClient(t, store, "Ana", "11999990000")

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateClient(Client{Name: "Beto", Phone: "11999990000"})
		return err
	})
	var cv domain.ConstraintViolationError
	if !errors.As(err, &cv) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
	if cv.Index != "phone" {
		t.Fatalf("unexpected index %q", cv.Index)
	}
	if got := len(store.ListClients()); got != 1 {
		t.Fatalf("expected 1 client after rejected create, got %d", got)
	}

	second := mustCreateClient(t, store, "Beto", "11888880000")
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateClient(second.ID, func(c *Client) error {
			c.Phone = "11999990000"
			return nil
		})
		return err
	})
	if !errors.As(err, &cv) {
		t.Fatalf("expected constraint violation on update, got %v", err)
	}
	got, _ := store.GetClient(second.ID)
	if got.Phone != "11888880000" {
		t.Fatalf("update leaked despite violation: %q", got.Phone)
	}
}

func TestStoreBoxNumberUniqueIndex(t *testing.T) {
	store := NewStore(nil)
	client := mustCreateClient(t, store, "Ana", "11999990000")

	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateBox(Box{ClientID: client.ID, BoxNumber: "CX-0001", Status: domain.BoxStatusAssembling})
		return err
	}); err != nil {
		t.Fatalf("create box: %v", err)
	}
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateBox(Box{ClientID: client.ID, BoxNumber: "CX-0001", Status: domain.BoxStatusAssembling})
		return err
	})
	var cv domain.ConstraintViolationError
	if !errors.As(err, &cv) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
	if cv.Index != "boxNumber" {
		t.Fatalf("unexpected index %q", cv.Index)
	}
}

func TestStoreCreateProductRequiresClient(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateProduct(Product{ClientID: "missing", Description: "Tenis", Weight: 1})
		return err
	})
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
	if nf.Entity != domain.EntityClient {
		t.Fatalf("unexpected entity %s", nf.Entity)
	}
}

func TestStoreRollbackOnCallbackError(t *testing.T) {
	store := NewStore(nil)
	boom := errors.New("boom")
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateClient(Client{Name: "Ana", Phone: "11999990000"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if got := len(store.ListClients()); got != 0 {
		t.Fatalf("expected rollback, found %d clients", got)
	}
}

func TestStoreIndexScans(t *testing.T) {
	store := NewStore(nil)
	ana := mustCreateClient(t, store, "Ana", "11999990000")
	beto := mustCreateClient(t, store, "Beto", "11888880000")
	mustCreateProduct(t, store, ana.ID, "Tenis", 2)
	mustCreateProduct(t, store, ana.ID, "Camisa", 1)
	mustCreateProduct(t, store, beto.ID, "Livro", 0.5)

	if err := store.View(context.Background(), func(v domain.TransactionView) error {
		if got := len(v.ListProductsByClient(ana.ID)); got != 2 {
			return fmt.Errorf("expected 2 products for ana, got %d", got)
		}
		if got := len(v.ListProductsByStatus(domain.ProductStatusPending)); got != 3 {
			return fmt.Errorf("expected 3 pending products, got %d", got)
		}
		found, ok := v.FindClientByPhone("11888880000")
		if !ok || found.ID != beto.ID {
			return fmt.Errorf("phone lookup failed: %+v %t", found, ok)
		}
		if _, ok := v.FindClientByPhone("11777770000"); ok {
			return fmt.Errorf("unexpected phone hit")
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestStoreExportImportDeepCopies(t *testing.T) {
	store := NewStore(nil)
	ana := mustCreateClient(t, store, "Ana", "11999990000")
	product := mustCreateProduct(t, store, ana.ID, "Tenis", 2)

	snap := store.ExportState()
	mutated := snap.Products[product.ID]
	boxID := "intruso"
	mutated.BoxID = &boxID
	snap.Products[product.ID] = mutated

	stored, _ := store.GetProduct(product.ID)
	if stored.BoxID != nil {
		t.Fatalf("snapshot mutation leaked into store")
	}

	other := NewStore(nil)
	if err := other.ImportState(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	imported, ok := other.GetProduct(product.ID)
	if !ok || imported.BoxID == nil || *imported.BoxID != boxID {
		t.Fatalf("import did not round-trip mutation: %+v", imported)
	}
	*imported.BoxID = "outro"
	again, _ := other.GetProduct(product.ID)
	if *again.BoxID != boxID {
		t.Fatalf("imported state shares pointers with caller")
	}
}

func TestStoreBoxSequenceSurvivesDeletion(t *testing.T) {
	store := NewStore(nil)
	ana := mustCreateClient(t, store, "Ana", "11999990000")

	var box Box
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		box, err = tx.CreateBox(Box{ClientID: ana.ID, BoxNumber: "CX-0002"})
		return err
	}); err != nil {
		t.Fatalf("create box: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.DeleteBox(box.ID)
	}); err != nil {
		t.Fatalf("delete box: %v", err)
	}

	snap := store.ExportState()
	if snap.BoxSeq != 2 {
		t.Fatalf("expected sequence 2 after deletion, got %d", snap.BoxSeq)
	}

	other := NewStore(nil)
	if err := other.ImportState(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := other.View(context.Background(), func(v domain.TransactionView) error {
		if got := v.BoxSequence(); got != 2 {
			t.Fatalf("expected imported sequence 2, got %d", got)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestImportStateRebuildsSequenceFromBoxes(t *testing.T) {
	store := NewStore(nil)
	ana := mustCreateClient(t, store, "Ana", "11999990000")
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateBox(Box{ClientID: ana.ID, BoxNumber: "CX-0005"})
		return err
	}); err != nil {
		t.Fatalf("create box: %v", err)
	}

	// Snapshots written before sequence tracking carry no BoxSeq.
	snap := store.ExportState()
	snap.BoxSeq = 0

	other := NewStore(nil)
	if err := other.ImportState(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := other.View(context.Background(), func(v domain.TransactionView) error {
		if got := v.BoxSequence(); got != 5 {
			t.Fatalf("expected sequence 5 from imported boxes, got %d", got)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func TestStoreBlockingRuleAbortsCommit(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(rejectAll{})
	store := NewStore(engine)
	res, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateClient(Client{Name: "Ana", Phone: "11999990000"})
		return err
	})
	var rv domain.RuleViolationError
	if !errors.As(err, &rv) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result, got %+v", res)
	}
	if got := len(store.ListClients()); got != 0 {
		t.Fatalf("blocked transaction committed %d clients", got)
	}
}

type rejectAll struct{}

func (rejectAll) Name() string { return "reject_all" }

func (rejectAll) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for range changes {
		res.Violations = append(res.Violations, domain.Violation{Rule: "reject_all", Severity: domain.SeverityBlock, Message: "rejected"})
	}
	return res, nil
}
