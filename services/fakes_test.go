package services_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"marketplace-service/models"
	"marketplace-service/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- In-memory catalog ---

type memCatalog struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*models.FoodItem
	sellers map[string]*models.Seller
	err     error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		items:   make(map[uuid.UUID]*models.FoodItem),
		sellers: make(map[string]*models.Seller),
	}
}

func (m *memCatalog) addSeller(id string) *models.Seller {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &models.Seller{ID: id, Name: id}
	m.sellers[id] = s
	return s
}

func (m *memCatalog) addFood(sellerID string, price int64, available bool) *models.FoodItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := &models.FoodItem{ID: uuid.New(), SellerID: sellerID, Name: "dish-" + sellerID, Price: price, IsAvailable: available}
	m.items[f.ID] = f
	return f
}

func (m *memCatalog) setPrice(id uuid.UUID, price int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id].Price = price
}

func (m *memCatalog) seller(id string) models.Seller {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.sellers[id]
}

func (m *memCatalog) food(id uuid.UUID) models.FoodItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.items[id]
}

func (m *memCatalog) Snapshot(_ context.Context, ids []uuid.UUID) (models.CatalogSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	snap := make(models.CatalogSnapshot)
	for _, id := range ids {
		if f, ok := m.items[id]; ok {
			snap[id] = models.CatalogEntry{FoodItemID: id, SellerID: f.SellerID, Name: f.Name, Price: f.Price, Available: f.IsAvailable}
		}
	}
	return snap, nil
}

func (m *memCatalog) FindSeller(_ context.Context, id string) (*models.Seller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sellers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memCatalog) FindFoodItem(_ context.Context, id uuid.UUID) (*models.FoodItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f
	return &cp, nil
}

// --- In-memory cart ---

type memCart struct {
	mu    sync.Mutex
	items []models.CartItem
}

func (m *memCart) add(customerID string, food *models.FoodItem, qty int) models.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	price := food.Price
	it := models.CartItem{ID: uuid.New(), CustomerID: customerID, FoodItemID: food.ID, SellerID: food.SellerID, Quantity: qty, UnitPrice: &price}
	m.items = append(m.items, it)
	return it
}

func (m *memCart) count(customerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, it := range m.items {
		if it.CustomerID == customerID {
			n++
		}
	}
	return n
}

func (m *memCart) LinesForCustomer(_ context.Context, customerID string, sellerIDs []string) ([]models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	filter := make(map[string]bool)
	for _, s := range sellerIDs {
		filter[s] = true
	}
	var out []models.CartItem
	for _, it := range m.items {
		if it.CustomerID != customerID {
			continue
		}
		if len(filter) > 0 && !filter[it.SellerID] {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (m *memCart) AddItem(_ context.Context, item *models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].CustomerID == item.CustomerID && m.items[i].FoodItemID == item.FoodItemID {
			m.items[i].Quantity += item.Quantity
			m.items[i].UnitPrice = item.UnitPrice
			return nil
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	m.items = append(m.items, *item)
	return nil
}

func (m *memCart) Remove(_ context.Context, customerID string, foodItemIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[uuid.UUID]bool)
	for _, id := range foodItemIDs {
		drop[id] = true
	}
	kept := m.items[:0]
	for _, it := range m.items {
		if it.CustomerID == customerID && drop[it.FoodItemID] {
			continue
		}
		kept = append(kept, it)
	}
	m.items = kept
	return nil
}

func (m *memCart) UpdateQuantity(_ context.Context, customerID string, foodItemID uuid.UUID, quantity int, unitPrice int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].CustomerID == customerID && m.items[i].FoodItemID == foodItemID {
			price := unitPrice
			m.items[i].Quantity = quantity
			m.items[i].UnitPrice = &price
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (m *memCart) Clear(_ context.Context, customerID, sellerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	kept := m.items[:0]
	for _, it := range m.items {
		if it.CustomerID == customerID && (sellerID == "" || it.SellerID == sellerID) {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	m.items = kept
	return removed, nil
}

// removeIDs deletes the given lines only if all of them exist.
func (m *memCart) removeIDs(ids []uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[uuid.UUID]bool)
	for _, id := range ids {
		want[id] = true
	}
	found := 0
	for _, it := range m.items {
		if want[it.ID] {
			found++
		}
	}
	if found != len(ids) {
		return false
	}
	kept := m.items[:0]
	for _, it := range m.items {
		if !want[it.ID] {
			kept = append(kept, it)
		}
	}
	m.items = kept
	return true
}

// --- In-memory orders ---

type memOrders struct {
	mu         sync.Mutex
	cart       *memCart
	orders     map[uuid.UUID]*models.Order
	failSeller map[string]error
}

func newMemOrders(cart *memCart) *memOrders {
	return &memOrders{cart: cart, orders: make(map[uuid.UUID]*models.Order), failSeller: make(map[string]error)}
}

func (m *memOrders) put(o *models.Order) *models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	cp := *o
	m.orders[o.ID] = &cp
	return o
}

func (m *memOrders) all() []models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out
}

func (m *memOrders) CreateFromCart(ctx context.Context, order *models.Order, cartItemIDs []uuid.UUID) error {
	m.mu.Lock()
	err := m.failSeller[order.SellerID]
	m.mu.Unlock()
	if err != nil {
		return err
	}
	if !m.cart.removeIDs(cartItemIDs) {
		return repository.ErrCartChanged
	}
	m.put(order)
	return nil
}

func (m *memOrders) Create(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	err := m.failSeller[order.SellerID]
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.put(order)
	return nil
}

func (m *memOrders) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) list(match func(*models.Order) bool, page, limit int) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if match(o) {
			out = append(out, *o)
		}
	}
	total := int64(len(out))
	start := (page - 1) * limit
	if start >= len(out) {
		return []models.Order{}, total, nil
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (m *memOrders) FindByCustomerID(_ context.Context, customerID string, page, limit int) ([]models.Order, int64, error) {
	return m.list(func(o *models.Order) bool { return o.CustomerID == customerID }, page, limit)
}

func (m *memOrders) FindBySellerID(_ context.Context, sellerID string, page, limit int) ([]models.Order, int64, error) {
	return m.list(func(o *models.Order) bool { return o.SellerID == sellerID }, page, limit)
}

func (m *memOrders) UpdateStatus(_ context.Context, id uuid.UUID, from, to models.OrderStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != from {
		return repository.ErrStaleState
	}
	o.Status = to
	o.UpdatedAt = at
	return nil
}

func (m *memOrders) SoftDelete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.orders, id)
	return nil
}

// --- In-memory reviews ---

type memReviews struct {
	mu      sync.Mutex
	catalog *memCatalog
	reviews map[uuid.UUID]models.Review
}

func newMemReviews(catalog *memCatalog) *memReviews {
	return &memReviews{catalog: catalog, reviews: make(map[uuid.UUID]models.Review)}
}

func (m *memReviews) CreateWithRatings(_ context.Context, r *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[r.OrderID]; ok {
		return repository.ErrAlreadyReviewed
	}

	m.catalog.mu.Lock()
	defer m.catalog.mu.Unlock()
	seller, ok := m.catalog.sellers[r.SellerID]
	if !ok {
		return repository.ErrSellerNotFound
	}
	var food *models.FoodItem
	if r.FoodItemID != nil {
		if food, ok = m.catalog.items[*r.FoodItemID]; !ok {
			return repository.ErrFoodItemNotFound
		}
	}

	seller.Rating = (seller.Rating*float64(seller.TotalRatings) + float64(r.Rating)) / float64(seller.TotalRatings+1)
	seller.TotalRatings++
	if food != nil {
		food.Rating = (food.Rating*float64(food.TotalRatings) + float64(r.Rating)) / float64(food.TotalRatings+1)
		food.TotalRatings++
	}
	m.reviews[r.OrderID] = *r
	return nil
}

func (m *memReviews) ExistsForOrder(_ context.Context, orderID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.reviews[orderID]
	return ok, nil
}

func (m *memReviews) FindBySellerID(_ context.Context, sellerID string, filter models.ReviewFilter, _, _ int) ([]models.Review, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Review
	for _, r := range m.reviews {
		if r.SellerID != sellerID {
			continue
		}
		if filter.Rating != nil && r.Rating != *filter.Rating {
			continue
		}
		if filter.MaxRating != nil && r.Rating > *filter.MaxRating {
			continue
		}
		if filter.FoodItemID != nil && (r.FoodItemID == nil || *r.FoodItemID != *filter.FoodItemID) {
			continue
		}
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

// --- In-memory idempotency store ---

type memIdem struct {
	mu     sync.Mutex
	values map[string]string
	err    error
	// expireOnGet drops the key on the next Get, as if its TTL ran out
	// right after a failed Reserve.
	expireOnGet map[string]bool
}

func newMemIdem() *memIdem {
	return &memIdem{values: make(map[string]string), expireOnGet: make(map[string]bool)}
}

func (m *memIdem) Reserve(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = repository.PendingMarker
	return true, nil
}

func (m *memIdem) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expireOnGet[key] {
		delete(m.expireOnGet, key)
		delete(m.values, key)
	}
	return m.values[key], nil
}

func (m *memIdem) Complete(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memIdem) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// --- Statistics ---

type stubStats struct {
	stats *models.SellerStatistics
	top   []models.TopItem
	err   error

	lastSeller string
	lastLimit  int
	lastNow    time.Time
}

func (s *stubStats) SellerStatistics(_ context.Context, sellerID string) (*models.SellerStatistics, error) {
	if s.err != nil {
		return nil, s.err
	}
	cp := *s.stats
	cp.SellerID = sellerID
	return &cp, nil
}

func (s *stubStats) TopItems(_ context.Context, sellerID string, limit int) ([]models.TopItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastSeller, s.lastLimit = sellerID, limit
	return s.top, nil
}

func (s *stubStats) Dashboard(_ context.Context, sellerID string, now time.Time) (*models.SellerDashboard, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastSeller, s.lastNow = sellerID, now
	return &models.SellerDashboard{SellerID: sellerID}, nil
}

// --- Event recorder ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recordingPublisher) Publish(_ context.Context, evt models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

var errStorage = errors.New("connection reset by peer")

func customer(id string) models.Principal {
	return models.Principal{UserID: id, Roles: []models.Role{models.RoleCustomer}}
}

func seller(id string) models.Principal {
	return models.Principal{UserID: id, Roles: []models.Role{models.RoleSeller}}
}

func admin(id string) models.Principal {
	return models.Principal{UserID: id, Roles: []models.Role{models.RoleAdmin}}
}
