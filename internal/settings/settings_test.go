package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felipi-hub/boxship-sistema/pkg/domain"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "settings.json"))
	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CompanyName != "Minha Empresa" {
		t.Fatalf("unexpected company name %q", cfg.CompanyName)
	}
	if cfg.MaxWeight != DefaultMaxWeight {
		t.Fatalf("unexpected max weight %v", cfg.MaxWeight)
	}
	for _, event := range []domain.NotificationType{
		domain.NotifyProductReceived,
		domain.NotifyBoxReady,
		domain.NotifyBoxShipped,
		domain.NotifyBoxDelivered,
	} {
		if cfg.Template(event) == "" {
			t.Fatalf("missing default template for %s", event)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "settings.json"))
	cfg := Defaults()
	cfg.CompanyName = "BoxShip Importados"
	cfg.CompanyPhone = "11988887777"
	cfg.MaxWeight = 30
	cfg.Templates[string(domain.NotifyBoxReady)] = "Caixa {caixa} pronta, {cliente}!"
	if err := store.Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.CompanyName != "BoxShip Importados" || loaded.MaxWeight != 30 {
		t.Fatalf("round trip lost fields: %+v", loaded)
	}
	if got := loaded.Template(domain.NotifyBoxReady); got != "Caixa {caixa} pronta, {cliente}!" {
		t.Fatalf("custom template lost: %q", got)
	}
	// Untouched templates keep their defaults.
	if got := loaded.Template(domain.NotifyBoxShipped); !strings.Contains(got, "{rastreio}") {
		t.Fatalf("default template clobbered: %q", got)
	}
}

func TestLoadMergesDefaultsOverMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"companyName":"Loja da Ana"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := NewStore(path).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CompanyName != "Loja da Ana" {
		t.Fatalf("explicit value overridden: %q", cfg.CompanyName)
	}
	if cfg.MaxWeight != DefaultMaxWeight {
		t.Fatalf("missing max weight not defaulted: %v", cfg.MaxWeight)
	}
	if cfg.Template(domain.NotifyProductReceived) == "" {
		t.Fatalf("missing templates not defaulted")
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewStore(path).Load(); err == nil {
		t.Fatalf("expected decode error")
	}
}
