package repository

import (
	"context"

	"github.com/ManuelReschke/ShopFox/app/models"
	"gorm.io/gorm"
)

// PendingOrderRepository defines the operations on not-yet-paid orders
type PendingOrderRepository interface {
	Create(ctx context.Context, order *models.PendingOrder) error
	GetByRef(ctx context.Context, orderRef string) (*models.PendingOrder, error)
	UpdatePaymentStatus(ctx context.Context, orderRef, status string) error
	Delete(ctx context.Context, orderRef string) error
}

// OrderRepository defines the operations on confirmed orders
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetByProviderTransaction(ctx context.Context, provider, transactionID string) (*models.Order, error)
	GetByRef(ctx context.Context, provider, orderRef string) (*models.Order, error)
	Count(ctx context.Context) (int64, error)
	CountItems(ctx context.Context, orderID uint) (int64, error)
}

// CustomerRepository defines the operations on customer records
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) error
	Update(ctx context.Context, customer *models.Customer) error
}

// DiscountRepository defines the operations on discount codes and their usage ledger
type DiscountRepository interface {
	Create(ctx context.Context, code *models.DiscountCode) error
	GetByID(ctx context.Context, id string) (*models.DiscountCode, error)
	GetByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	HasUsage(ctx context.Context, discountCodeID, userID string) (bool, error)
	CountUsages(ctx context.Context, discountCodeID string) (int64, error)
	RegisterUsage(ctx context.Context, usage *models.DiscountUsage) error
}

// WebhookEventRepository defines the operations on the gateway delivery log
type WebhookEventRepository interface {
	CreateIfNotExists(ctx context.Context, event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkProcessed(ctx context.Context, id uint, processingError string) error
}

// Repositories struct holds all repository instances bound to one *gorm.DB
// (either the pool or an open transaction)
type Repositories struct {
	db *gorm.DB

	PendingOrder PendingOrderRepository
	Order        OrderRepository
	Customer     CustomerRepository
	Discount     DiscountRepository
	WebhookEvent WebhookEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:           db,
		PendingOrder: NewPendingOrderRepository(db),
		Order:        NewOrderRepository(db),
		Customer:     NewCustomerRepository(db),
		Discount:     NewDiscountRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single database
// transaction. Returning an error from fn rolls everything back.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
