package memory

import (
	"sort"

	"github.com/felipi-hub/boxship-sistema/pkg/domain"
)

func sortedClients(in map[string]Client) []Client {
	out := make([]Client, 0, len(in))
	for _, c := range in {
		out = append(out, cloneClient(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedProducts(in map[string]Product) []Product {
	out := make([]Product, 0, len(in))
	for _, p := range in {
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedBoxes(in map[string]Box) []Box {
	out := make([]Box, 0, len(in))
	for _, b := range in {
		out = append(out, cloneBox(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedNotifications(in map[string]Notification) []Notification {
	out := make([]Notification, 0, len(in))
	for _, n := range in {
		out = append(out, cloneNotification(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListClients returns all clients within the snapshot.
func (v transactionView) ListClients() []Client {
	return sortedClients(v.state.clients)
}

// ListProducts returns all products within the snapshot.
func (v transactionView) ListProducts() []Product {
	return sortedProducts(v.state.products)
}

// ListBoxes returns all boxes within the snapshot.
func (v transactionView) ListBoxes() []Box {
	return sortedBoxes(v.state.boxes)
}

// ListNotifications returns all notification rows within the snapshot.
func (v transactionView) ListNotifications() []Notification {
	return sortedNotifications(v.state.notifications)
}

// FindClient retrieves a client by ID from the snapshot.
func (v transactionView) FindClient(id string) (Client, bool) {
	c, ok := v.state.clients[id]
	if !ok {
		return Client{}, false
	}
	return cloneClient(c), true
}

// FindProduct retrieves a product by ID from the snapshot.
func (v transactionView) FindProduct(id string) (Product, bool) {
	p, ok := v.state.products[id]
	if !ok {
		return Product{}, false
	}
	return cloneProduct(p), true
}

// FindBox retrieves a box by ID from the snapshot.
func (v transactionView) FindBox(id string) (Box, bool) {
	b, ok := v.state.boxes[id]
	if !ok {
		return Box{}, false
	}
	return cloneBox(b), true
}

// FindClientByPhone scans the unique phone index.
func (v transactionView) FindClientByPhone(phone string) (Client, bool) {
	for _, c := range v.state.clients {
		if c.Phone == phone {
			return cloneClient(c), true
		}
	}
	return Client{}, false
}

// FindBoxByNumber scans the unique box-number index.
func (v transactionView) FindBoxByNumber(number string) (Box, bool) {
	for _, b := range v.state.boxes {
		if b.BoxNumber == number {
			return cloneBox(b), true
		}
	}
	return Box{}, false
}

// ListProductsByClient returns every product owned by the client.
func (v transactionView) ListProductsByClient(clientID string) []Product {
	var out []Product
	for _, p := range v.state.products {
		if p.ClientID == clientID {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListProductsByStatus returns every product in the given status.
func (v transactionView) ListProductsByStatus(status domain.ProductStatus) []Product {
	var out []Product
	for _, p := range v.state.products {
		if p.Status == status {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListProductsByBox returns every product assigned to the box.
func (v transactionView) ListProductsByBox(boxID string) []Product {
	var out []Product
	for _, p := range v.state.products {
		if p.BoxID != nil && *p.BoxID == boxID {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListBoxesByClient returns every box owned by the client.
func (v transactionView) ListBoxesByClient(clientID string) []Box {
	var out []Box
	for _, b := range v.state.boxes {
		if b.ClientID == clientID {
			out = append(out, cloneBox(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListBoxesByStatus returns every box in the given status.
func (v transactionView) ListBoxesByStatus(status domain.BoxStatus) []Box {
	var out []Box
	for _, b := range v.state.boxes {
		if b.Status == status {
			out = append(out, cloneBox(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListNotificationsByClient returns the notification rows logged for the client.
func (v transactionView) ListNotificationsByClient(clientID string) []Notification {
	var out []Notification
	for _, n := range v.state.notifications {
		if n.ClientID == clientID {
			out = append(out, cloneNotification(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BoxSequence reports the box-number high-water mark within the snapshot.
func (v transactionView) BoxSequence() int {
	return v.state.boxSeq
}

// Read helpers over committed state -----------------------------------------

// GetClient retrieves a client by ID from committed state.
func (s *Store) GetClient(id string) (Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.clients[id]
	if !ok {
		return Client{}, false
	}
	return cloneClient(c), true
}

// GetProduct retrieves a product by ID from committed state.
func (s *Store) GetProduct(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.products[id]
	if !ok {
		return Product{}, false
	}
	return cloneProduct(p), true
}

// GetBox retrieves a box by ID from committed state.
func (s *Store) GetBox(id string) (Box, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.state.boxes[id]
	if !ok {
		return Box{}, false
	}
	return cloneBox(b), true
}

// ListClients returns all clients from committed state.
func (s *Store) ListClients() []Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedClients(s.state.clients)
}

// ListProducts returns all products from committed state.
func (s *Store) ListProducts() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedProducts(s.state.products)
}

// ListBoxes returns all boxes from committed state.
func (s *Store) ListBoxes() []Box {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedBoxes(s.state.boxes)
}

// ListNotifications returns all notification rows from committed state.
func (s *Store) ListNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedNotifications(s.state.notifications)
}
