// Package transfer implements versioned snapshot export/import for the
// whole store plus settings, and archival of export snapshots to a blob
// store.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/felipi-hub/boxship-sistema/internal/blob"
	"github.com/felipi-hub/boxship-sistema/internal/infra/persistence/memory"
	"github.com/felipi-hub/boxship-sistema/internal/settings"
	"github.com/felipi-hub/boxship-sistema/pkg/domain"
)

// Version identifies the snapshot envelope layout.
const Version = 1

// StateStore is the store surface transfer needs: whole-state snapshot
// in and out. All persistence drivers satisfy it; the sqlite and
// postgres drivers persist on ImportState and report a failed durable
// write through its error.
type StateStore interface {
	ExportState() memory.Snapshot
	ImportState(memory.Snapshot) error
}

// Envelope is the interchange shape. Collections are arrays sorted by
// ID so exports are deterministic and diffable.
type Envelope struct {
	ExportDate    time.Time             `json:"exportDate"`
	Version       int                   `json:"version"`
	Clients       []domain.Client       `json:"clients"`
	Products      []domain.Product      `json:"products"`
	Boxes         []domain.Box          `json:"boxes"`
	Notifications []domain.Notification `json:"notifications"`
	Settings      *settings.Settings    `json:"settings,omitempty"`
}

// Report records what an import restored, per collection.
type Report struct {
	Clients          int      `json:"clients"`
	Products         int      `json:"products"`
	Boxes            int      `json:"boxes"`
	Notifications    int      `json:"notifications"`
	SettingsRestored bool     `json:"settingsRestored"`
	Skipped          []string `json:"skipped,omitempty"`
}

// ImportError wraps an import failure with the collections already
// restored before it. Restored collections stay restored.
type ImportError struct {
	Collection string
	Report     Report
	Err        error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s: %v", e.Collection, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

func sortedValues[T any](m map[string]T) []T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// BuildEnvelope assembles an export envelope from store state and
// settings. cfg may be nil to omit settings.
func BuildEnvelope(store StateStore, cfg *settings.Settings) Envelope {
	snap := store.ExportState()
	return Envelope{
		ExportDate:    time.Now().UTC(),
		Version:       Version,
		Clients:       sortedValues(snap.Clients),
		Products:      sortedValues(snap.Products),
		Boxes:         sortedValues(snap.Boxes),
		Notifications: sortedValues(snap.Notifications),
		Settings:      cfg,
	}
}

// Export writes the snapshot envelope as indented JSON.
func Export(w io.Writer, store StateStore, cfg *settings.Settings) error {
	env := BuildEnvelope(store, cfg)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// rawEnvelope keeps collections as raw JSON so a missing key is
// distinguishable from an empty array.
type rawEnvelope struct {
	Version       *int               `json:"version"`
	Clients       json.RawMessage    `json:"clients"`
	Products      json.RawMessage    `json:"products"`
	Boxes         json.RawMessage    `json:"boxes"`
	Notifications json.RawMessage    `json:"notifications"`
	Settings      *settings.Settings `json:"settings"`
}

func importCollection[T any](raw json.RawMessage, name string, id func(T) string, apply func(map[string]T) error) (int, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return 0, fmt.Errorf("decode %s: %w", name, err)
	}
	m := make(map[string]T, len(items))
	for i, item := range items {
		key := id(item)
		if key == "" {
			return 0, fmt.Errorf("%s[%d]: missing id", name, i)
		}
		if _, dup := m[key]; dup {
			return 0, fmt.Errorf("%s[%d]: duplicate id %s", name, i, key)
		}
		m[key] = item
	}
	if err := apply(m); err != nil {
		return 0, fmt.Errorf("persist %s: %w", name, err)
	}
	return len(m), nil
}

// Import reads a snapshot envelope and repopulates each present
// collection, then settings. Missing top-level keys are skipped and
// leave the existing collection untouched. Each collection is applied
// and persisted independently so a failure reports what was already
// restored.
func Import(r io.Reader, store StateStore, cfgStore *settings.Store) (Report, error) {
	var env rawEnvelope
	dec := json.NewDecoder(r)
	if err := dec.Decode(&env); err != nil {
		return Report{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if env.Version != nil && *env.Version > Version {
		return Report{}, fmt.Errorf("snapshot version %d newer than supported %d", *env.Version, Version)
	}

	var report Report
	steps := []struct {
		name string
		raw  json.RawMessage
		run  func(json.RawMessage) (int, error)
	}{
		{"clients", env.Clients, func(raw json.RawMessage) (int, error) {
			return importCollection(raw, "clients", func(c domain.Client) string { return c.ID }, func(m map[string]domain.Client) error {
				snap := store.ExportState()
				snap.Clients = m
				return store.ImportState(snap)
			})
		}},
		{"products", env.Products, func(raw json.RawMessage) (int, error) {
			return importCollection(raw, "products", func(p domain.Product) string { return p.ID }, func(m map[string]domain.Product) error {
				snap := store.ExportState()
				snap.Products = m
				return store.ImportState(snap)
			})
		}},
		{"boxes", env.Boxes, func(raw json.RawMessage) (int, error) {
			return importCollection(raw, "boxes", func(b domain.Box) string { return b.ID }, func(m map[string]domain.Box) error {
				snap := store.ExportState()
				snap.Boxes = m
				return store.ImportState(snap)
			})
		}},
		{"notifications", env.Notifications, func(raw json.RawMessage) (int, error) {
			return importCollection(raw, "notifications", func(n domain.Notification) string { return n.ID }, func(m map[string]domain.Notification) error {
				snap := store.ExportState()
				snap.Notifications = m
				return store.ImportState(snap)
			})
		}},
	}
	for _, step := range steps {
		if step.raw == nil {
			report.Skipped = append(report.Skipped, step.name)
			continue
		}
		n, err := step.run(step.raw)
		if err != nil {
			return report, &ImportError{Collection: step.name, Report: report, Err: err}
		}
		switch step.name {
		case "clients":
			report.Clients = n
		case "products":
			report.Products = n
		case "boxes":
			report.Boxes = n
		case "notifications":
			report.Notifications = n
		}
	}

	if env.Settings != nil && cfgStore != nil {
		if err := cfgStore.Save(*env.Settings); err != nil {
			return report, &ImportError{Collection: "settings", Report: report, Err: err}
		}
		report.SettingsRestored = true
	} else if env.Settings == nil {
		report.Skipped = append(report.Skipped, "settings")
	}
	return report, nil
}

// Backup exports the current snapshot into the blob store under a
// timestamped key and returns its Info.
func Backup(ctx context.Context, dst blob.Store, store StateStore, cfg *settings.Settings) (blob.Info, error) {
	env := BuildEnvelope(store, cfg)
	payload, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return blob.Info{}, err
	}
	key := fmt.Sprintf("snapshots/boxship-%s.json", env.ExportDate.Format("20060102T150405Z"))
	return dst.Put(ctx, key, bytes.NewReader(payload), "application/json")
}
