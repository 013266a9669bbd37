package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/felipi-hub/boxship-sistema/internal/notify"
	"github.com/felipi-hub/boxship-sistema/pkg/domain"
)

// BoxNumberPrefix precedes the zero-padded sequence in every box number.
const BoxNumberPrefix = "CX-"

// ErrAlreadyStaged signals a staging no-op: the product is already part of
// the draft. Callers treat it as a warning.
var ErrAlreadyStaged = errors.New("product already staged")

// boxSeqMu serializes box-number allocation across concurrent commits.
var boxSeqMu sync.Mutex

// Draft is an in-memory staging area for one client's pending products.
// It is not durable; nothing is persisted until commit. Each draft is an
// explicit session owned by the caller.
type Draft struct {
	svc      *Service
	clientID string

	mu     sync.Mutex
	staged []Product
}

// NewDraft opens an assembly session for the client.
func (s *Service) NewDraft(clientID string) (*Draft, error) {
	if _, ok := s.store.GetClient(clientID); !ok {
		return nil, domain.NotFoundError{Entity: EntityClient, ID: clientID}
	}
	return &Draft{svc: s, clientID: clientID}, nil
}

// ClientID returns the owner of the draft.
func (d *Draft) ClientID() string { return d.clientID }

// Staged returns a copy of the staged product list in staging order.
func (d *Draft) Staged() []Product {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Product(nil), d.staged...)
}

// StagedWeight returns the cumulative weight of the staged products.
func (d *Draft) StagedWeight() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return stagedWeightLocked(d.staged)
}

func stagedWeightLocked(staged []Product) float64 {
	var total float64
	for _, p := range staged {
		total += p.Weight
	}
	return total
}

// StageProduct adds a pending product to the draft. Duplicates are
// rejected with ErrAlreadyStaged; a candidate that would push the draft
// past the configured weight budget is rejected with
// WeightBudgetExceededError and the staged set is left unchanged.
func (d *Draft) StageProduct(productID string) error {
	product, ok := d.svc.store.GetProduct(productID)
	if !ok {
		return domain.NotFoundError{Entity: EntityProduct, ID: productID}
	}
	if product.ClientID != d.clientID {
		return domain.ValidationError{Field: "clientId", Reason: "product belongs to another client"}
	}
	if product.Status != ProductStatusPending {
		return domain.ValidationError{Field: "status", Reason: "only pending products can be staged"}
	}
	cfg, err := d.svc.settings.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, staged := range d.staged {
		if staged.ID == productID {
			return ErrAlreadyStaged
		}
	}
	staged := stagedWeightLocked(d.staged)
	if staged+product.Weight > cfg.MaxWeight {
		return domain.WeightBudgetExceededError{
			Limit:     cfg.MaxWeight,
			Staged:    staged,
			Candidate: product.Weight,
		}
	}
	d.staged = append(d.staged, product)
	return nil
}

// UnstageProduct removes a product from the draft unconditionally. It
// reports whether the product was staged.
func (d *Draft) UnstageProduct(productID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, staged := range d.staged {
		if staged.ID == productID {
			d.staged = append(d.staged[:i], d.staged[i+1:]...)
			return true
		}
	}
	return false
}

// CommitDraft persists the staged set as an assembling box. No
// notification is sent; CloseBox performs that later.
func (d *Draft) CommitDraft(ctx context.Context) (Box, Result, error) {
	return d.commit(ctx, false)
}

// CommitAndClose persists the staged set as a box created directly in the
// ready status, stamps ClosedAt, and requests the box-ready notification.
func (d *Draft) CommitAndClose(ctx context.Context) (Box, Result, error) {
	return d.commit(ctx, true)
}

func (d *Draft) commit(ctx context.Context, closeNow bool) (Box, Result, error) {
	d.mu.Lock()
	staged := append([]Product(nil), d.staged...)
	d.mu.Unlock()
	if len(staged) == 0 {
		return Box{}, Result{}, domain.ValidationError{Field: "products", Reason: "draft is empty"}
	}

	now := d.svc.nowFn()
	status := BoxStatusAssembling
	var closedAt *time.Time
	if closeNow {
		status = BoxStatusReady
		closedAt = &now
	}

	// The box number is recomputed at commit time under a global lock so
	// concurrent commits never collide.
	boxSeqMu.Lock()
	defer boxSeqMu.Unlock()

	var created Box
	res, err := d.svc.runIn(ctx, func(tx Transaction) error {
		snap := tx.Snapshot()
		number := nextBoxNumber(snap.BoxSequence(), snap.ListBoxes())
		var err error
		created, err = tx.CreateBox(Box{
			ClientID:      d.clientID,
			BoxNumber:     number,
			Status:        status,
			TotalWeight:   stagedWeightLocked(staged),
			ProductsCount: len(staged),
			ClosedAt:      closedAt,
		})
		if err != nil {
			return err
		}
		for _, product := range staged {
			current, ok := tx.FindProduct(product.ID)
			if !ok {
				return domain.NotFoundError{Entity: EntityProduct, ID: product.ID}
			}
			if current.Status != ProductStatusPending {
				return domain.ValidationError{Field: "status", Reason: "staged product is no longer pending"}
			}
			if _, err := tx.UpdateProduct(product.ID, func(p *Product) error {
				p.Status = ProductStatusInBox
				p.BoxID = &created.ID
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Box{}, res, err
	}

	d.mu.Lock()
	d.staged = nil
	d.mu.Unlock()
	d.svc.metrics.incBoxesCommitted()

	if closeNow {
		d.svc.metrics.incBoxesClosed()
		client, _ := d.svc.store.GetClient(d.clientID)
		if nErr := d.svc.notify(ctx, notify.Event{
			Type:          domain.NotifyBoxReady,
			Client:        client,
			Box:           &created,
			ProductsCount: created.ProductsCount,
			TotalWeight:   created.TotalWeight,
		}); nErr != nil {
			return created, res, nErr
		}
	}
	return created, res, nil
}

// nextBoxNumber derives the next number from the store's sequence
// high-water mark and the existing boxes: the maximum of both plus one,
// zero-padded to four digits. The floor covers numbers whose boxes were
// deleted since issue, so numbers are never reused.
func nextBoxNumber(floor int, boxes []Box) string {
	highest := floor
	for _, box := range boxes {
		suffix := strings.TrimPrefix(box.BoxNumber, BoxNumberPrefix)
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%04d", BoxNumberPrefix, highest+1)
}
