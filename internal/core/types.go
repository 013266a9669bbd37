package core

import "github.com/felipi-hub/boxship-sistema/pkg/domain"

type (
	EntityType       = domain.EntityType
	ProductStatus    = domain.ProductStatus
	BoxStatus        = domain.BoxStatus
	NotificationType = domain.NotificationType
	Severity         = domain.Severity
	Base             = domain.Base
	Client           = domain.Client
	Product          = domain.Product
	Box              = domain.Box
	Notification     = domain.Notification
	Change           = domain.Change
	Action           = domain.Action
	Violation        = domain.Violation
	Result           = domain.Result
	RulesEngine      = domain.RulesEngine
	Transaction      = domain.Transaction
	TransactionView  = domain.TransactionView
	PersistentStore  = domain.PersistentStore
)

const (
	EntityClient       = domain.EntityClient
	EntityProduct      = domain.EntityProduct
	EntityBox          = domain.EntityBox
	EntityNotification = domain.EntityNotification
)

const (
	ProductStatusPending = domain.ProductStatusPending
	ProductStatusInBox   = domain.ProductStatusInBox
	ProductStatusShipped = domain.ProductStatusShipped
)

const (
	BoxStatusAssembling = domain.BoxStatusAssembling
	BoxStatusReady      = domain.BoxStatusReady
	BoxStatusShipped    = domain.BoxStatusShipped
	BoxStatusDelivered  = domain.BoxStatusDelivered
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
