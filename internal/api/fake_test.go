package api

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jogardn/partsdepot/internal/events"
	"github.com/jogardn/partsdepot/internal/store"
	"github.com/jogardn/partsdepot/pkg/models"
)

// fakeStore is an in-memory stand-in for *store.Store that enforces the same
// uniqueness and reference rules.
type fakeStore struct {
	mu         sync.Mutex
	nextID     int64
	parts      map[int64]models.Part
	customers  map[string]models.Customer
	employees  map[int64]models.Employee
	orders     map[int64]models.Order
	items      map[int64]models.OrderItem
	payments   []models.Payment
	deliveries map[int64]models.DeliveryUpdate
	pingErr    error
	failWith   error
	writeErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		parts:      map[int64]models.Part{},
		customers:  map[string]models.Customer{},
		employees:  map[int64]models.Employee{},
		orders:     map[int64]models.Order{},
		items:      map[int64]models.OrderItem{},
		deliveries: map[int64]models.DeliveryUpdate{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) sortedParts(keep func(models.Part) bool) []models.Part {
	out := []models.Part{}
	for _, p := range f.parts {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PartNumber < out[j].PartNumber })
	return out
}

func (f *fakeStore) ListParts(ctx context.Context) ([]models.Part, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.sortedParts(func(models.Part) bool { return true }), nil
}

func (f *fakeStore) SearchParts(ctx context.Context, term string) ([]models.Part, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	needle := strings.ToLower(strings.TrimSpace(term))
	number, numErr := strconv.ParseInt(needle, 10, 64)
	return f.sortedParts(func(p models.Part) bool {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			return true
		}
		return numErr == nil && p.PartNumber == number
	}), nil
}

func (f *fakeStore) GetPart(ctx context.Context, id int64) (*models.Part, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.parts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (f *fakeStore) numberTaken(number, except int64) bool {
	for _, p := range f.parts {
		if p.PartNumber == number && p.ID != except {
			return true
		}
	}
	return false
}

func (f *fakeStore) CreatePart(ctx context.Context, p *models.Part) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	if f.numberTaken(p.PartNumber, 0) {
		return fmt.Errorf("create part: %w", store.ErrDuplicate)
	}
	p.ID = f.id()
	f.parts[p.ID] = *p
	return nil
}

func (f *fakeStore) UpdatePart(ctx context.Context, p *models.Part) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.parts[p.ID]; !ok {
		return store.ErrNotFound
	}
	if f.numberTaken(p.PartNumber, p.ID) {
		return fmt.Errorf("update part: %w", store.ErrDuplicate)
	}
	f.parts[p.ID] = *p
	return nil
}

func (f *fakeStore) DeletePart(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.parts[id]; !ok {
		return store.ErrNotFound
	}
	for _, item := range f.items {
		if item.PartID == id {
			return fmt.Errorf("delete part: %w", store.ErrReferenced)
		}
	}
	delete(f.parts, id)
	return nil
}

func (f *fakeStore) CreateCustomer(ctx context.Context, c *models.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.customers[c.Username]; ok {
		return fmt.Errorf("create customer: %w", store.ErrDuplicate)
	}
	c.ID = f.id()
	f.customers[c.Username] = *c
	return nil
}

func (f *fakeStore) CustomerByUsername(ctx context.Context, username string) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (f *fakeStore) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Employee{}
	for _, e := range f.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.employees[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

func (f *fakeStore) EmployeeByUsername(ctx context.Context, username string) (*models.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.employees {
		if e.Username == username {
			return &e, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) usernameTaken(username string, except int64) bool {
	for _, e := range f.employees {
		if e.Username == username && e.ID != except {
			return true
		}
	}
	return false
}

func (f *fakeStore) CreateEmployee(ctx context.Context, e *models.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usernameTaken(e.Username, 0) {
		return fmt.Errorf("create employee: %w", store.ErrDuplicate)
	}
	e.ID = f.id()
	f.employees[e.ID] = *e
	return nil
}

func (f *fakeStore) UpdateEmployee(ctx context.Context, e *models.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.employees[e.ID]
	if !ok {
		return store.ErrNotFound
	}
	if f.usernameTaken(e.Username, e.ID) {
		return fmt.Errorf("update employee: %w", store.ErrDuplicate)
	}
	if e.PasswordHash == "" {
		e.PasswordHash = current.PasswordHash
	}
	f.employees[e.ID] = *e
	return nil
}

func (f *fakeStore) DeleteEmployee(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.employees[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.employees, id)
	return nil
}

func (f *fakeStore) lines(keep func(models.Order) bool) []models.OrderLine {
	out := []models.OrderLine{}
	for _, item := range f.items {
		order := f.orders[item.OrderID]
		if !keep(order) {
			continue
		}
		part := f.parts[item.PartID]
		out = append(out, models.OrderLine{
			OrderID:      order.ID,
			CustomerName: order.CustomerName,
			OrderDate:    order.OrderDate,
			OrderItemID:  item.ID,
			Quantity:     item.Quantity,
			PartID:       part.ID,
			PartNumber:   part.PartNumber,
			PartName:     part.Name,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderItemID < out[j].OrderItemID })
	return out
}

func (f *fakeStore) ListOrders(ctx context.Context) ([]models.OrderLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lines(func(models.Order) bool { return true }), nil
}

func (f *fakeStore) GetOrder(ctx context.Context, id int64) ([]models.OrderLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[id]; !ok {
		return nil, store.ErrNotFound
	}
	return f.lines(func(o models.Order) bool { return o.ID == id }), nil
}

func (f *fakeStore) CreateOrder(ctx context.Context, customerName string, partNumber int64, quantity int) (*models.Order, *models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if quantity <= 0 {
		return nil, nil, store.ErrInvalidInput
	}
	var partID int64
	for _, p := range f.parts {
		if p.PartNumber == partNumber {
			partID = p.ID
		}
	}
	if partID == 0 {
		return nil, nil, store.ErrUnknownPart
	}

	order := models.Order{ID: f.id(), CustomerName: customerName, OrderDate: time.Now().UTC()}
	item := models.OrderItem{ID: f.id(), OrderID: order.ID, PartID: partID, Quantity: quantity}
	f.orders[order.ID] = order
	f.items[item.ID] = item
	return &order, &item, nil
}

func (f *fakeStore) DeleteOrder(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.orders, id)
	delete(f.deliveries, id)
	for itemID, item := range f.items {
		if item.OrderID == id {
			delete(f.items, itemID)
		}
	}
	return nil
}

func (f *fakeStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	p.ID = f.id()
	p.Date = time.Now().UTC()
	f.payments = append(f.payments, *p)
	return nil
}

func (f *fakeStore) ListDeliveries(ctx context.Context) ([]models.DeliveryStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.DeliveryStatus{}
	for _, o := range f.orders {
		status := models.DeliveryStatus{OrderID: o.ID, CustomerName: o.CustomerName, OrderDate: o.OrderDate}
		if d, ok := f.deliveries[o.ID]; ok {
			status.PaymentMethod = d.PaymentMethod
			status.IsCancelled = d.IsCancelled
			if d.DeliveryDate != nil {
				date := d.DeliveryDate.Format(models.DateLayout)
				status.DeliveryDate = &date
			}
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

func (f *fakeStore) UpsertDelivery(ctx context.Context, u models.DeliveryUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[u.OrderID]; !ok {
		return store.ErrNotFound
	}
	f.deliveries[u.OrderID] = u
	return nil
}

func (f *fakeStore) Summary(ctx context.Context, period string) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch period {
	case "daily", "weekly", "monthly":
	default:
		return nil, fmt.Errorf("%w: unknown report period %q", store.ErrInvalidInput, period)
	}
	report := &models.Report{Period: period, TotalOrders: int64(len(f.orders))}
	if len(f.items) > 0 {
		var total int64
		for _, item := range f.items {
			total += int64(item.Quantity)
		}
		report.TotalItems = &total
	}
	return report, nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return f.pingErr
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

var errBoom = errors.New("connection refused")
