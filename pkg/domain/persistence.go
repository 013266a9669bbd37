package domain

import "context"

// Transaction exposes the collection operations that a persistence
// implementation must support within an atomic scope. Create assigns the
// identifier and stamps both timestamps; Update re-stamps UpdatedAt. Both
// fail with ConstraintViolationError when a unique index (client phone,
// box number) would be duplicated, leaving state unchanged.
type Transaction interface {
	Snapshot() TransactionView
	CreateClient(Client) (Client, error)
	UpdateClient(id string, mutator func(*Client) error) (Client, error)
	DeleteClient(id string) error
	CreateProduct(Product) (Product, error)
	UpdateProduct(id string, mutator func(*Product) error) (Product, error)
	DeleteProduct(id string) error
	CreateBox(Box) (Box, error)
	UpdateBox(id string, mutator func(*Box) error) (Box, error)
	DeleteBox(id string) error
	CreateNotification(Notification) (Notification, error)
	FindClient(id string) (Client, bool)
	FindProduct(id string) (Product, bool)
	FindBox(id string) (Box, bool)
}

// TransactionView provides read-only access to snapshot data. The List*By*
// methods are the secondary-index scans of the store contract: they return
// every record whose indexed field equals the given value, order
// unspecified.
type TransactionView interface {
	ListClients() []Client
	ListProducts() []Product
	ListBoxes() []Box
	ListNotifications() []Notification
	FindClient(id string) (Client, bool)
	FindProduct(id string) (Product, bool)
	FindBox(id string) (Box, bool)
	FindClientByPhone(phone string) (Client, bool)
	FindBoxByNumber(number string) (Box, bool)
	ListProductsByClient(clientID string) []Product
	ListProductsByStatus(status ProductStatus) []Product
	ListProductsByBox(boxID string) []Product
	ListBoxesByClient(clientID string) []Box
	ListBoxesByStatus(status BoxStatus) []Box
	ListNotificationsByClient(clientID string) []Notification
	// BoxSequence reports the highest numeric box-number suffix ever
	// committed, including boxes deleted since. Allocation starts above it.
	BoxSequence() int
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetClient(id string) (Client, bool)
	GetProduct(id string) (Product, bool)
	GetBox(id string) (Box, bool)
	ListClients() []Client
	ListProducts() []Product
	ListBoxes() []Box
	ListNotifications() []Notification
}
