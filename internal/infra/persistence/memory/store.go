// Package memory provides an in-memory implementation of the boxship
// persistence store used for tests and ephemeral environments. Each
// transaction runs against a clone of the full state and commits only on
// success, so every RunInTransaction is atomic across collections.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/felipi-hub/boxship-sistema/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Client aliases domain.Client for in-memory persistence operations.
	Client = domain.Client
	// Product aliases domain.Product.
	Product = domain.Product
	// Box aliases domain.Box.
	Box = domain.Box
	// Notification aliases domain.Notification.
	Notification = domain.Notification
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	clients       map[string]Client
	products      map[string]Product
	boxes         map[string]Box
	notifications map[string]Notification
	// boxSeq is the highest numeric box-number suffix ever committed. It
	// only grows, so deleted boxes never free their number for reuse.
	boxSeq int
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Clients       map[string]Client       `json:"clients"`
	Products      map[string]Product      `json:"products"`
	Boxes         map[string]Box          `json:"boxes"`
	Notifications map[string]Notification `json:"notifications"`
	BoxSeq        int                     `json:"boxSeq,omitempty"`
}

func newMemoryState() memoryState {
	return memoryState{
		clients:       make(map[string]Client),
		products:      make(map[string]Product),
		boxes:         make(map[string]Box),
		notifications: make(map[string]Notification),
	}
}

func cloneClient(c Client) Client { return c }

func cloneProduct(p Product) Product {
	cp := p
	if p.BoxID != nil {
		id := *p.BoxID
		cp.BoxID = &id
	}
	return cp
}

func cloneBox(b Box) Box {
	cp := b
	cp.ClosedAt = cloneTime(b.ClosedAt)
	cp.ShippedAt = cloneTime(b.ShippedAt)
	cp.DeliveredAt = cloneTime(b.DeliveredAt)
	return cp
}

func cloneNotification(n Notification) Notification { return n }

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.clients {
		cloned.clients[k] = cloneClient(v)
	}
	for k, v := range s.products {
		cloned.products[k] = cloneProduct(v)
	}
	for k, v := range s.boxes {
		cloned.boxes[k] = cloneBox(v)
	}
	for k, v := range s.notifications {
		cloned.notifications[k] = cloneNotification(v)
	}
	cloned.boxSeq = s.boxSeq
	return cloned
}

// boxNumberSuffix parses the trailing decimal digits of a box number.
// Numbers without a decimal suffix do not participate in sequencing.
func boxNumberSuffix(number string) (int, bool) {
	end := len(number)
	start := end
	for start > 0 && number[start-1] >= '0' && number[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, false
	}
	n, err := strconv.Atoi(number[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Store is the in-memory transactional store for the boxship collections.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState returns a deep-cloned snapshot of committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Clients:       make(map[string]Client, len(s.state.clients)),
		Products:      make(map[string]Product, len(s.state.products)),
		Boxes:         make(map[string]Box, len(s.state.boxes)),
		Notifications: make(map[string]Notification, len(s.state.notifications)),
	}
	for k, v := range s.state.clients {
		snap.Clients[k] = cloneClient(v)
	}
	for k, v := range s.state.products {
		snap.Products[k] = cloneProduct(v)
	}
	for k, v := range s.state.boxes {
		snap.Boxes[k] = cloneBox(v)
	}
	for k, v := range s.state.notifications {
		snap.Notifications[k] = cloneNotification(v)
	}
	snap.BoxSeq = s.state.boxSeq
	return snap
}

// ImportState replaces committed state with the snapshot contents. Nil
// collection maps are treated as empty. The box sequence resumes at the
// highest of the snapshot's recorded sequence and the imported box
// numbers, so snapshots written before sequence tracking still import.
func (s *Store) ImportState(snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := newMemoryState()
	for k, v := range snapshot.Clients {
		state.clients[k] = cloneClient(v)
	}
	for k, v := range snapshot.Products {
		state.products[k] = cloneProduct(v)
	}
	for k, v := range snapshot.Boxes {
		state.boxes[k] = cloneBox(v)
	}
	for k, v := range snapshot.Notifications {
		state.notifications[k] = cloneNotification(v)
	}
	state.boxSeq = snapshot.BoxSeq
	for _, b := range state.boxes {
		if n, ok := boxNumberSuffix(b.BoxNumber); ok && n > state.boxSeq {
			state.boxSeq = n
		}
	}
	s.state = state
	return nil
}

// transaction is a mutation set applied to a cloned state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

var _ Transaction = (*transaction)(nil)

type transactionView struct {
	state *memoryState
}

var _ TransactionView = transactionView{}

func newTransactionView(state *memoryState) transactionView {
	return transactionView{state: state}
}

// RunInTransaction executes fn within a transactional copy of the store
// state, evaluates registered rules against the outcome, and commits only
// when fn succeeds and no blocking violation is reported.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(newTransactionView(&snapshot))
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view of the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) phoneInUse(phone, excludeID string) bool {
	for id, c := range tx.state.clients {
		if id != excludeID && c.Phone == phone {
			return true
		}
	}
	return false
}

func (tx *transaction) boxNumberInUse(number, excludeID string) bool {
	for id, b := range tx.state.boxes {
		if id != excludeID && b.BoxNumber == number {
			return true
		}
	}
	return false
}

func validateClient(c Client) error {
	if c.Name == "" {
		return domain.ValidationError{Field: "name", Reason: "required"}
	}
	if c.Phone == "" {
		return domain.ValidationError{Field: "phone", Reason: "required"}
	}
	return nil
}

func validateProduct(p Product) error {
	if p.Description == "" {
		return domain.ValidationError{Field: "description", Reason: "required"}
	}
	if p.Weight <= 0 {
		return domain.ValidationError{Field: "weight", Reason: "must be positive"}
	}
	return nil
}

// CreateClient stores a new client, enforcing phone uniqueness.
func (tx *transaction) CreateClient(c Client) (Client, error) {
	if err := validateClient(c); err != nil {
		return Client{}, err
	}
	if tx.phoneInUse(c.Phone, "") {
		return Client{}, domain.ConstraintViolationError{Entity: domain.EntityClient, Index: "phone", Value: c.Phone}
	}
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.clients[c.ID] = cloneClient(c)
	tx.recordChange(Change{Entity: domain.EntityClient, Action: domain.ActionCreate, After: cloneClient(c)})
	return cloneClient(c), nil
}

// UpdateClient mutates a client using the provided mutator function.
func (tx *transaction) UpdateClient(id string, mutator func(*Client) error) (Client, error) {
	current, ok := tx.state.clients[id]
	if !ok {
		return Client{}, domain.NotFoundError{Entity: domain.EntityClient, ID: id}
	}
	before := cloneClient(current)
	if err := mutator(&current); err != nil {
		return Client{}, err
	}
	if err := validateClient(current); err != nil {
		return Client{}, err
	}
	if tx.phoneInUse(current.Phone, id) {
		return Client{}, domain.ConstraintViolationError{Entity: domain.EntityClient, Index: "phone", Value: current.Phone}
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.clients[id] = cloneClient(current)
	tx.recordChange(Change{Entity: domain.EntityClient, Action: domain.ActionUpdate, Before: before, After: cloneClient(current)})
	return cloneClient(current), nil
}

// DeleteClient removes a client from the transaction state.
func (tx *transaction) DeleteClient(id string) error {
	current, ok := tx.state.clients[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityClient, ID: id}
	}
	delete(tx.state.clients, id)
	tx.recordChange(Change{Entity: domain.EntityClient, Action: domain.ActionDelete, Before: cloneClient(current)})
	return nil
}

// CreateProduct stores a new product. The referenced client must exist.
func (tx *transaction) CreateProduct(p Product) (Product, error) {
	if err := validateProduct(p); err != nil {
		return Product{}, err
	}
	if _, ok := tx.state.clients[p.ClientID]; !ok {
		return Product{}, domain.NotFoundError{Entity: domain.EntityClient, ID: p.ClientID}
	}
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if p.Status == "" {
		p.Status = domain.ProductStatusPending
	}
	if p.ReceivedAt.IsZero() {
		p.ReceivedAt = tx.now
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.products[p.ID] = cloneProduct(p)
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionCreate, After: cloneProduct(p)})
	return cloneProduct(p), nil
}

// UpdateProduct mutates a product using the provided mutator function.
func (tx *transaction) UpdateProduct(id string, mutator func(*Product) error) (Product, error) {
	current, ok := tx.state.products[id]
	if !ok {
		return Product{}, domain.NotFoundError{Entity: domain.EntityProduct, ID: id}
	}
	before := cloneProduct(current)
	if err := mutator(&current); err != nil {
		return Product{}, err
	}
	if err := validateProduct(current); err != nil {
		return Product{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.products[id] = cloneProduct(current)
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionUpdate, Before: before, After: cloneProduct(current)})
	return cloneProduct(current), nil
}

// DeleteProduct removes a product from the transaction state.
func (tx *transaction) DeleteProduct(id string) error {
	current, ok := tx.state.products[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityProduct, ID: id}
	}
	delete(tx.state.products, id)
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionDelete, Before: cloneProduct(current)})
	return nil
}

// CreateBox stores a new box, enforcing box-number uniqueness.
func (tx *transaction) CreateBox(b Box) (Box, error) {
	if b.BoxNumber == "" {
		return Box{}, domain.ValidationError{Field: "boxNumber", Reason: "required"}
	}
	if _, ok := tx.state.clients[b.ClientID]; !ok {
		return Box{}, domain.NotFoundError{Entity: domain.EntityClient, ID: b.ClientID}
	}
	if tx.boxNumberInUse(b.BoxNumber, "") {
		return Box{}, domain.ConstraintViolationError{Entity: domain.EntityBox, Index: "boxNumber", Value: b.BoxNumber}
	}
	if b.ID == "" {
		b.ID = tx.store.newID()
	}
	if b.Status == "" {
		b.Status = domain.BoxStatusAssembling
	}
	b.CreatedAt = tx.now
	b.UpdatedAt = tx.now
	tx.state.boxes[b.ID] = cloneBox(b)
	if n, ok := boxNumberSuffix(b.BoxNumber); ok && n > tx.state.boxSeq {
		tx.state.boxSeq = n
	}
	tx.recordChange(Change{Entity: domain.EntityBox, Action: domain.ActionCreate, After: cloneBox(b)})
	return cloneBox(b), nil
}

// UpdateBox mutates a box using the provided mutator function.
func (tx *transaction) UpdateBox(id string, mutator func(*Box) error) (Box, error) {
	current, ok := tx.state.boxes[id]
	if !ok {
		return Box{}, domain.NotFoundError{Entity: domain.EntityBox, ID: id}
	}
	before := cloneBox(current)
	if err := mutator(&current); err != nil {
		return Box{}, err
	}
	if tx.boxNumberInUse(current.BoxNumber, id) {
		return Box{}, domain.ConstraintViolationError{Entity: domain.EntityBox, Index: "boxNumber", Value: current.BoxNumber}
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.boxes[id] = cloneBox(current)
	if n, ok := boxNumberSuffix(current.BoxNumber); ok && n > tx.state.boxSeq {
		tx.state.boxSeq = n
	}
	tx.recordChange(Change{Entity: domain.EntityBox, Action: domain.ActionUpdate, Before: before, After: cloneBox(current)})
	return cloneBox(current), nil
}

// DeleteBox removes a box from the transaction state.
func (tx *transaction) DeleteBox(id string) error {
	current, ok := tx.state.boxes[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityBox, ID: id}
	}
	delete(tx.state.boxes, id)
	tx.recordChange(Change{Entity: domain.EntityBox, Action: domain.ActionDelete, Before: cloneBox(current)})
	return nil
}

// CreateNotification appends a row to the notification log.
func (tx *transaction) CreateNotification(n Notification) (Notification, error) {
	if n.ID == "" {
		n.ID = tx.store.newID()
	}
	if n.Date.IsZero() {
		n.Date = tx.now
	}
	n.CreatedAt = tx.now
	n.UpdatedAt = tx.now
	tx.state.notifications[n.ID] = cloneNotification(n)
	tx.recordChange(Change{Entity: domain.EntityNotification, Action: domain.ActionCreate, After: cloneNotification(n)})
	return cloneNotification(n), nil
}

// FindClient retrieves a client by ID from the transactional state.
func (tx *transaction) FindClient(id string) (Client, bool) {
	c, ok := tx.state.clients[id]
	if !ok {
		return Client{}, false
	}
	return cloneClient(c), true
}

// FindProduct retrieves a product by ID from the transactional state.
func (tx *transaction) FindProduct(id string) (Product, bool) {
	p, ok := tx.state.products[id]
	if !ok {
		return Product{}, false
	}
	return cloneProduct(p), true
}

// FindBox retrieves a box by ID from the transactional state.
func (tx *transaction) FindBox(id string) (Box, bool) {
	b, ok := tx.state.boxes[id]
	if !ok {
		return Box{}, false
	}
	return cloneBox(b), true
}
