package core

import (
	"context"
	"fmt"
	"time"

	"github.com/felipi-hub/boxship-sistema/internal/notify"
	"github.com/felipi-hub/boxship-sistema/internal/settings"
	"github.com/felipi-hub/boxship-sistema/pkg/domain"
)

// Service exposes the fulfillment state machine over the persistent store:
// client and product registration, box lifecycle transitions, and the
// cascading updates that accompany each transition.
type Service struct {
	store    PersistentStore
	settings *settings.Store
	notifier notify.Notifier
	metrics  *Metrics
	nowFn    func() time.Time
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithMetrics attaches fulfillment counters to the service.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService constructs a service backed by the supplied store. A nil
// notifier disables outbound messaging.
func NewService(store PersistentStore, cfg *settings.Store, notifier notify.Notifier, opts ...Option) *Service {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	s := &Service{
		store:    store,
		settings: cfg,
		notifier: notifier,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore { return s.store }

// Settings returns the configuration store.
func (s *Service) Settings() *settings.Store { return s.settings }

// NotificationError reports a notification hand-off failure for a state
// change that has already committed. The transition itself succeeded.
type NotificationError struct {
	Event NotificationType
	Err   error
}

func (e NotificationError) Error() string {
	return fmt.Sprintf("%s notification failed: %v", e.Event, e.Err)
}

func (e NotificationError) Unwrap() error { return e.Err }

func (s *Service) runIn(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	res, err := s.store.RunInTransaction(ctx, fn)
	if err != nil {
		if _, ok := err.(domain.RuleViolationError); ok {
			s.metrics.incRuleViolations()
		}
		return res, err
	}
	return res, nil
}

func (s *Service) notify(ctx context.Context, event notify.Event) error {
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.metrics.incNotifyFailures()
		return NotificationError{Event: event.Type, Err: err}
	}
	return nil
}

// CreateClient persists a new client. Phone numbers are unique across
// clients; a duplicate fails without applying.
func (s *Service) CreateClient(ctx context.Context, client Client) (Client, Result, error) {
	client.Active = true
	var created Client
	res, err := s.runIn(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.CreateClient(client)
		return err
	})
	return created, res, err
}

// UpdateClient mutates a client using the provided mutator.
func (s *Service) UpdateClient(ctx context.Context, id string, mutator func(*Client) error) (Client, Result, error) {
	var updated Client
	res, err := s.runIn(ctx, func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateClient(id, mutator)
		return err
	})
	return updated, res, err
}

// CascadeOutcome reports what a client cascade removed.
type CascadeOutcome struct {
	ProductsDeleted int
	BoxesDeleted    int
}

// DeleteClient removes a client together with every dependent product and
// box, in one atomic transaction: products first, then boxes, then the
// client itself.
func (s *Service) DeleteClient(ctx context.Context, clientID string) (CascadeOutcome, Result, error) {
	var outcome CascadeOutcome
	res, err := s.runIn(ctx, func(tx Transaction) error {
		if _, ok := tx.FindClient(clientID); !ok {
			return domain.NotFoundError{Entity: EntityClient, ID: clientID}
		}
		view := tx.Snapshot()
		for _, product := range view.ListProductsByClient(clientID) {
			if err := tx.DeleteProduct(product.ID); err != nil {
				return err
			}
			outcome.ProductsDeleted++
		}
		for _, box := range view.ListBoxesByClient(clientID) {
			if err := tx.DeleteBox(box.ID); err != nil {
				return err
			}
			outcome.BoxesDeleted++
		}
		return tx.DeleteClient(clientID)
	})
	if err != nil {
		return CascadeOutcome{}, res, err
	}
	return outcome, res, nil
}

// ReceiveProduct registers an item received for a client and optionally
// requests the product-received notification. The notification failure
// surfaces as a NotificationError after the product has been persisted.
func (s *Service) ReceiveProduct(ctx context.Context, product Product, notifyClient bool) (Product, Result, error) {
	product.Status = ProductStatusPending
	product.BoxID = nil
	var created Product
	res, err := s.runIn(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.CreateProduct(product)
		return err
	})
	if err != nil {
		return Product{}, res, err
	}
	s.metrics.incProductsReceived()
	if notifyClient {
		client, _ := s.store.GetClient(created.ClientID)
		if nErr := s.notify(ctx, notify.Event{
			Type:    domain.NotifyProductReceived,
			Client:  client,
			Product: &created,
		}); nErr != nil {
			return created, res, nErr
		}
	}
	return created, res, nil
}

// EditProduct mutates a product while it is still pending.
func (s *Service) EditProduct(ctx context.Context, id string, mutator func(*Product) error) (Product, Result, error) {
	var updated Product
	res, err := s.runIn(ctx, func(tx Transaction) error {
		current, ok := tx.FindProduct(id)
		if !ok {
			return domain.NotFoundError{Entity: EntityProduct, ID: id}
		}
		if current.Status != ProductStatusPending {
			return domain.ValidationError{Field: "status", Reason: "only pending products can be edited"}
		}
		var err error
		updated, err = tx.UpdateProduct(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteProduct removes a product while it is still pending.
func (s *Service) DeleteProduct(ctx context.Context, id string) (Result, error) {
	return s.runIn(ctx, func(tx Transaction) error {
		current, ok := tx.FindProduct(id)
		if !ok {
			return domain.NotFoundError{Entity: EntityProduct, ID: id}
		}
		if current.Status != ProductStatusPending {
			return domain.ValidationError{Field: "status", Reason: "only pending products can be deleted"}
		}
		return tx.DeleteProduct(id)
	})
}

// CloseBox moves an assembling box to ready and requests the box-ready
// notification. The products were already assigned at commit time and are
// left untouched.
func (s *Service) CloseBox(ctx context.Context, boxID string) (Box, Result, error) {
	now := s.nowFn()
	var closed Box
	res, err := s.runIn(ctx, func(tx Transaction) error {
		current, ok := tx.FindBox(boxID)
		if !ok {
			return domain.NotFoundError{Entity: EntityBox, ID: boxID}
		}
		if current.Status != BoxStatusAssembling {
			return domain.InvalidTransitionError{
				Entity: EntityBox, ID: boxID,
				From: string(current.Status), To: string(BoxStatusReady),
			}
		}
		var err error
		closed, err = tx.UpdateBox(boxID, func(b *Box) error {
			b.Status = BoxStatusReady
			b.ClosedAt = &now
			return nil
		})
		return err
	})
	if err != nil {
		return Box{}, res, err
	}
	s.metrics.incBoxesClosed()
	client, _ := s.store.GetClient(closed.ClientID)
	if nErr := s.notify(ctx, notify.Event{
		Type:          domain.NotifyBoxReady,
		Client:        client,
		Box:           &closed,
		ProductsCount: closed.ProductsCount,
		TotalWeight:   closed.TotalWeight,
	}); nErr != nil {
		return closed, res, nErr
	}
	return closed, res, nil
}

// RecordShipment moves a ready box to shipped, stores the shipment fields,
// and cascades every product in the box from in_box to shipped within the
// same transaction.
func (s *Service) RecordShipment(ctx context.Context, boxID, tracking, carrier, notes string, notifyClient bool) (Box, Result, error) {
	now := s.nowFn()
	var shipped Box
	res, err := s.runIn(ctx, func(tx Transaction) error {
		current, ok := tx.FindBox(boxID)
		if !ok {
			return domain.NotFoundError{Entity: EntityBox, ID: boxID}
		}
		if current.Status != BoxStatusReady {
			return domain.InvalidTransitionError{
				Entity: EntityBox, ID: boxID,
				From: string(current.Status), To: string(BoxStatusShipped),
			}
		}
		var err error
		shipped, err = tx.UpdateBox(boxID, func(b *Box) error {
			b.Status = BoxStatusShipped
			b.Tracking = tracking
			b.Carrier = carrier
			b.ShipmentNotes = notes
			b.ShippedAt = &now
			return nil
		})
		if err != nil {
			return err
		}
		for _, product := range tx.Snapshot().ListProductsByBox(boxID) {
			if product.Status != ProductStatusInBox {
				continue
			}
			if _, err := tx.UpdateProduct(product.ID, func(p *Product) error {
				p.Status = ProductStatusShipped
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
	s.metrics.incShipmentsRecorded()
	if notifyClient {
		client, _ := s.store.GetClient(shipped.ClientID)
		if nErr := s.notify(ctx, notify.Event{
			Type:     domain.NotifyBoxShipped,
			Client:   client,
			Box:      &shipped,
			Carrier:  carrier,
			Tracking: tracking,
		}); nErr != nil {
			return shipped, res, nErr
		}
	}
	return shipped, res, nil
}

// ConfirmDelivery moves a shipped box to delivered.
func (s *Service) ConfirmDelivery(ctx context.Context, boxID string, notifyClient bool) (Box, Result, error) {
	now := s.nowFn()
	var delivered Box
	res, err := s.runIn(ctx, func(tx Transaction) error {
		current, ok := tx.FindBox(boxID)
		if !ok {
			return domain.NotFoundError{Entity: EntityBox, ID: boxID}
		}
		if current.Status != BoxStatusShipped {
			return domain.InvalidTransitionError{
				Entity: EntityBox, ID: boxID,
				From: string(current.Status), To: string(BoxStatusDelivered),
			}
		}
		var err error
		delivered, err = tx.UpdateBox(boxID, func(b *Box) error {
			b.Status = BoxStatusDelivered
			b.DeliveredAt = &now
			return nil
		})
		return err
	})
	if err != nil {
		return Box{}, res, err
	}
	s.metrics.incDeliveriesConfirmed()
	if notifyClient {
		client, _ := s.store.GetClient(delivered.ClientID)
		if nErr := s.notify(ctx, notify.Event{
			Type:   domain.NotifyBoxDelivered,
			Client: client,
			Box:    &delivered,
		}); nErr != nil {
			return delivered, res, nErr
		}
	}
	return delivered, res, nil
}
