// Package domain defines the persistent entities, value types, error
// taxonomy, and rule evaluation primitives used by boxship.
package domain

import "time"

// EntityType identifies the type of record stored in a collection.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityClient identifies a client record.
	EntityClient EntityType = "client"
	// EntityProduct identifies a received product record.
	EntityProduct EntityType = "product"
	// EntityBox identifies a consolidation box record.
	EntityBox EntityType = "box"
	// EntityNotification identifies an append-only notification log record.
	EntityNotification EntityType = "notification"
)

// ProductStatus enumerates the product lifecycle states.
type ProductStatus string

// Canonical product statuses. Transitions are one-directional:
// pending -> in_box -> shipped.
const (
	ProductStatusPending ProductStatus = "pending"
	ProductStatusInBox   ProductStatus = "in_box"
	ProductStatusShipped ProductStatus = "shipped"
)

// BoxStatus enumerates the box lifecycle states.
type BoxStatus string

// Canonical box statuses. Transitions are strictly ordered:
// assembling -> ready -> shipped -> delivered. A box may also be created
// directly in ready when closed at assembly time.
const (
	BoxStatusAssembling BoxStatus = "assembling"
	BoxStatusReady      BoxStatus = "ready"
	BoxStatusShipped    BoxStatus = "shipped"
	BoxStatusDelivered  BoxStatus = "delivered"
)

// NotificationType names the lifecycle events that produce outbound messages.
type NotificationType string

// Notification event names, also the keys of the settings message templates.
const (
	NotifyProductReceived NotificationType = "productReceived"
	NotifyBoxReady        NotificationType = "boxReady"
	NotifyBoxShipped      NotificationType = "boxShipped"
	NotifyBoxDelivered    NotificationType = "boxDelivered"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
)

// Base carries the engine-assigned identifier and write timestamps shared
// by every persisted record.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Client is the owner of received products and assembled boxes.
type Client struct {
	Base
	Name    string `json:"name"`
	Phone   string `json:"phone"` // unique index
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
	Active  bool   `json:"active"`
}

// Product is an individual received item awaiting consolidation.
// BoxID is non-nil exactly when Status is in_box or shipped.
type Product struct {
	Base
	ClientID    string        `json:"clientId"`
	Description string        `json:"description"`
	Weight      float64       `json:"weight"` // kilograms, positive
	Tracking    string        `json:"tracking,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	Status      ProductStatus `json:"status"`
	BoxID       *string       `json:"boxId"`
	ReceivedAt  time.Time     `json:"receivedAt"`
}

// Box is a weight-bounded consolidation unit for one client.
// TotalWeight and ProductsCount are snapshots taken when the box is
// committed, not live aggregates.
type Box struct {
	Base
	ClientID      string     `json:"clientId"`
	BoxNumber     string     `json:"boxNumber"` // unique index, "CX-" + zero-padded sequence
	Status        BoxStatus  `json:"status"`
	TotalWeight   float64    `json:"totalWeight"`
	ProductsCount int        `json:"productsCount"`
	Tracking      string     `json:"tracking,omitempty"`
	Carrier       string     `json:"carrier,omitempty"`
	ShipmentNotes string     `json:"shipmentNotes,omitempty"`
	ClosedAt      *time.Time `json:"closedAt,omitempty"`
	ShippedAt     *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt   *time.Time `json:"deliveredAt,omitempty"`
}

// Notification is one row of the append-only outbound message audit trail.
// Rows are written once and never read back into business logic.
type Notification struct {
	Base
	ClientID string           `json:"clientId"`
	Type     NotificationType `json:"type"`
	Message  string           `json:"message"`
	Date     time.Time        `json:"date"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured for rule evaluation.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
