package api

import (
	"context"

	"github.com/jogardn/partsdepot/internal/circuitbreaker"
	"github.com/jogardn/partsdepot/pkg/models"
)

// The interfaces below are satisfied by *store.Store; the catalog may also be
// served through the Redis cache.

type PartStore interface {
	ListParts(ctx context.Context) ([]models.Part, error)
	SearchParts(ctx context.Context, term string) ([]models.Part, error)
	GetPart(ctx context.Context, id int64) (*models.Part, error)
	CreatePart(ctx context.Context, p *models.Part) error
	UpdatePart(ctx context.Context, p *models.Part) error
	DeletePart(ctx context.Context, id int64) error
}

type AccountStore interface {
	CreateCustomer(ctx context.Context, c *models.Customer) error
	CustomerByUsername(ctx context.Context, username string) (*models.Customer, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	GetEmployee(ctx context.Context, id int64) (*models.Employee, error)
	EmployeeByUsername(ctx context.Context, username string) (*models.Employee, error)
	CreateEmployee(ctx context.Context, e *models.Employee) error
	UpdateEmployee(ctx context.Context, e *models.Employee) error
	DeleteEmployee(ctx context.Context, id int64) error
}

type OrderStore interface {
	ListOrders(ctx context.Context) ([]models.OrderLine, error)
	GetOrder(ctx context.Context, id int64) ([]models.OrderLine, error)
	CreateOrder(ctx context.Context, customerName string, partNumber int64, quantity int) (*models.Order, *models.OrderItem, error)
	DeleteOrder(ctx context.Context, id int64) error
	CreatePayment(ctx context.Context, p *models.Payment) error
}

type DeliveryStore interface {
	ListDeliveries(ctx context.Context) ([]models.DeliveryStatus, error)
	UpsertDelivery(ctx context.Context, u models.DeliveryUpdate) error
}

type ReportStore interface {
	Summary(ctx context.Context, period string) (*models.Report, error)
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type BreakerReporter interface {
	BreakerMetrics() circuitbreaker.Metrics
}
