// Package notify delivers outbound client notifications for fulfillment
// lifecycle events. The core supplies event data only; message rendering,
// phone normalization, and the WhatsApp hand-off live here.
package notify

import (
	"context"

	"github.com/felipi-hub/boxship-sistema/pkg/domain"
)

// Event carries the data a lifecycle transition exposes to the messaging
// collaborator. Box and Product are set according to the event type.
type Event struct {
	Type          domain.NotificationType
	Client        domain.Client
	Product       *domain.Product
	Box           *domain.Box
	ProductsCount int
	TotalWeight   float64
	Carrier       string
	Tracking      string
}

// Notifier renders and hands off one outbound message per event. Failures
// are reported to the caller but never roll back the state change that
// produced the event.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Noop discards every event. Used when messaging is disabled.
type Noop struct{}

// Notify implements Notifier.
func (Noop) Notify(context.Context, Event) error { return nil }
