package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felipi-hub/boxship-sistema/internal/blob"
	"github.com/felipi-hub/boxship-sistema/internal/infra/persistence/memory"
	"github.com/felipi-hub/boxship-sistema/internal/settings"
	"github.com/felipi-hub/boxship-sistema/pkg/domain"
)

func seedStore(t *testing.T) (*memory.Store, domain.Client, domain.Product, domain.Box) {
	t.Helper()
	store := memory.NewStore(nil)
	var client domain.Client
	var product domain.Product
	var box domain.Box
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		client, err = tx.CreateClient(domain.Client{Name: "Ana", Phone: "11999990000", Active: true})
		if err != nil {
			return err
		}
		box, err = tx.CreateBox(domain.Box{ClientID: client.ID, BoxNumber: "CX-0001", Status: domain.BoxStatusAssembling})
		if err != nil {
			return err
		}
		product, err = tx.CreateProduct(domain.Product{ClientID: client.ID, Description: "Tenis", Weight: 2})
		if err != nil {
			return err
		}
		product, err = tx.UpdateProduct(product.ID, func(p *domain.Product) error {
			p.Status = domain.ProductStatusInBox
			p.BoxID = &box.ID
			return nil
		})
		if err != nil {
			return err
		}
		_, err = tx.CreateNotification(domain.Notification{ClientID: client.ID, Type: domain.NotifyBoxReady, Message: "pronta"})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store, client, product, box
}

func TestExportImportRoundTrip(t *testing.T) {
	store, client, product, box := seedStore(t)
	cfgStore := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"))
	cfg := settings.Defaults()
	cfg.CompanyName = "BoxShip Importados"
	if err := cfgStore.Save(cfg); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	saved, err := cfgStore.Load()
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}

	var buf bytes.Buffer
	if err := Export(&buf, store, &saved); err != nil {
		t.Fatalf("export: %v", err)
	}

	target := memory.NewStore(nil)
	targetCfg := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"))
	report, err := Import(bytes.NewReader(buf.Bytes()), target, targetCfg)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Clients != 1 || report.Products != 1 || report.Boxes != 1 || report.Notifications != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if !report.SettingsRestored {
		t.Fatalf("settings not restored")
	}

	got, ok := target.GetProduct(product.ID)
	if !ok {
		t.Fatalf("product lost in round trip")
	}
	if got.ClientID != client.ID || got.BoxID == nil || *got.BoxID != box.ID {
		t.Fatalf("relational fields lost: %+v", got)
	}
	gotBox, _ := target.GetBox(box.ID)
	if gotBox.BoxNumber != "CX-0001" {
		t.Fatalf("box number lost: %q", gotBox.BoxNumber)
	}
	restored, err := targetCfg.Load()
	if err != nil {
		t.Fatalf("load restored settings: %v", err)
	}
	if restored.CompanyName != "BoxShip Importados" {
		t.Fatalf("settings content lost: %q", restored.CompanyName)
	}
}

func TestImportSkipsMissingCollections(t *testing.T) {
	store, client, _, _ := seedStore(t)

	// Only clients present: every other collection must survive untouched.
	payload := `{"version":1,"clients":[{"id":"novo","name":"Beto","phone":"11888880000","active":true}]}`
	report, err := Import(strings.NewReader(payload), store, nil)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Clients != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	for _, want := range []string{"products", "boxes", "notifications", "settings"} {
		found := false
		for _, s := range report.Skipped {
			if s == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected %s skipped, got %+v", want, report.Skipped)
		}
	}
	if _, ok := store.GetClient(client.ID); ok {
		t.Fatalf("client collection should have been replaced")
	}
	if _, ok := store.GetClient("novo"); !ok {
		t.Fatalf("imported client missing")
	}
	if got := len(store.ListProducts()); got != 1 {
		t.Fatalf("products clobbered by partial import: %d", got)
	}
	if got := len(store.ListBoxes()); got != 1 {
		t.Fatalf("boxes clobbered by partial import: %d", got)
	}
}

func TestImportReportsProgressOnFailure(t *testing.T) {
	store := memory.NewStore(nil)
	// Products entry without an id fails after clients restored.
	payload := `{
		"version": 1,
		"clients": [{"id":"c1","name":"Ana","phone":"11999990000"}],
		"products": [{"description":"sem id"}]
	}`
	_, err := Import(strings.NewReader(payload), store, nil)
	var impErr *ImportError
	if !errors.As(err, &impErr) {
		t.Fatalf("expected ImportError, got %v", err)
	}
	if impErr.Collection != "products" {
		t.Fatalf("unexpected failing collection %q", impErr.Collection)
	}
	if impErr.Report.Clients != 1 {
		t.Fatalf("report lost restored clients: %+v", impErr.Report)
	}
	if _, ok := store.GetClient("c1"); !ok {
		t.Fatalf("restored collection rolled back")
	}
}

// unwritableStore fails durable writes after a budget of successes, the
// way a snapshotting driver does when its disk write fails mid-restore.
type unwritableStore struct {
	*memory.Store
	writesLeft int
}

func (s *unwritableStore) ImportState(snap memory.Snapshot) error {
	if s.writesLeft == 0 {
		return errors.New("disk full")
	}
	s.writesLeft--
	return s.Store.ImportState(snap)
}

func TestImportSurfacesDurableWriteFailure(t *testing.T) {
	store := &unwritableStore{Store: memory.NewStore(nil), writesLeft: 1}
	payload := `{
		"version": 1,
		"clients": [{"id":"c1","name":"Ana","phone":"11999990000"}],
		"products": [{"id":"p1","clientId":"c1","description":"Tenis","weight":2}]
	}`
	_, err := Import(strings.NewReader(payload), store, nil)
	var impErr *ImportError
	if !errors.As(err, &impErr) {
		t.Fatalf("expected ImportError, got %v", err)
	}
	if impErr.Collection != "products" {
		t.Fatalf("unexpected failing collection %q", impErr.Collection)
	}
	if impErr.Report.Clients != 1 || impErr.Report.Products != 0 {
		t.Fatalf("report misstates restored state: %+v", impErr.Report)
	}
	if _, ok := store.GetClient("c1"); !ok {
		t.Fatalf("restored collection rolled back")
	}
}

func TestImportRejectsNewerVersion(t *testing.T) {
	store := memory.NewStore(nil)
	payload := `{"version": 99, "clients": []}`
	if _, err := Import(strings.NewReader(payload), store, nil); err == nil {
		t.Fatalf("expected version rejection")
	}
}

func TestImportRejectsDuplicateIDs(t *testing.T) {
	store := memory.NewStore(nil)
	payload := `{"clients":[{"id":"c1","name":"Ana","phone":"1"},{"id":"c1","name":"Clone","phone":"2"}]}`
	_, err := Import(strings.NewReader(payload), store, nil)
	if err == nil {
		t.Fatalf("expected duplicate id rejection")
	}
}

func TestExportEnvelopeShape(t *testing.T) {
	store, _, _, _ := seedStore(t)
	var buf bytes.Buffer
	if err := Export(&buf, store, nil); err != nil {
		t.Fatalf("export: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"exportDate", "version", "clients", "products", "boxes", "notifications"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("envelope missing %q", key)
		}
	}
}

func TestBackupWritesSnapshotBlob(t *testing.T) {
	store, _, _, _ := seedStore(t)
	dst := blob.NewMemory()
	info, err := Backup(context.Background(), dst, store, nil)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if !strings.HasPrefix(info.Key, "snapshots/boxship-") || !strings.HasSuffix(info.Key, ".json") {
		t.Fatalf("unexpected key %q", info.Key)
	}
	infos, err := dst.List(context.Background(), "snapshots/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 1 || infos[0].Size == 0 {
		t.Fatalf("unexpected listing %+v", infos)
	}
	_, rc, err := dst.Get(context.Background(), info.Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	var env Envelope
	if err := json.NewDecoder(rc).Decode(&env); err != nil {
		t.Fatalf("decode archived snapshot: %v", err)
	}
	if len(env.Clients) != 1 || env.Version != Version {
		t.Fatalf("unexpected archived envelope %+v", env)
	}
}
