package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ManuelReschke/ShopFox/app/models"
	"github.com/ManuelReschke/ShopFox/app/repository"
	"github.com/ManuelReschke/ShopFox/internal/pkg/discounts"
	"github.com/ManuelReschke/ShopFox/internal/pkg/notify"
	"github.com/ManuelReschke/ShopFox/internal/pkg/payments"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
)

// Locker serializes concurrent deliveries of one gateway transaction.
type Locker interface {
	Acquire(ctx context.Context, provider, transactionID string) (token string, ok bool, err error)
	Release(ctx context.Context, provider, transactionID, token string) error
}

// Notifier fans a confirmed order out to the side channels.
type Notifier interface {
	Dispatch(ctx context.Context, o *notify.OrderNotification) []notify.Delivery
}

// Config holds the pricing and verification settings of the finalizer.
type Config struct {
	Surcharge decimal.Decimal
	// IntegritySecrets maps a provider to its integrity secret. Providers
	// without a secret are checked by comparing amounts directly.
	IntegritySecrets map[string]string
}

// Finalizer turns verified gateway events into confirmed orders.
type Finalizer struct {
	repos    *repository.Repositories
	guard    *Guard
	ledger   *discounts.Ledger
	notifier Notifier
	lock     Locker
	cfg      Config
}

// NewFinalizer wires the finalizer. notifier and lock may be nil.
func NewFinalizer(repos *repository.Repositories, notifier Notifier, lock Locker, cfg Config) *Finalizer {
	if cfg.Surcharge.IsZero() {
		cfg.Surcharge = payments.DefaultSurcharge
	}
	return &Finalizer{
		repos:    repos,
		guard:    NewGuard(repos.Order),
		ledger:   discounts.NewLedger(repos.Discount),
		notifier: notifier,
		lock:     lock,
		cfg:      cfg,
	}
}

// Handle routes a verified event by its status.
func (f *Finalizer) Handle(ctx context.Context, ev *payments.PaymentEvent) (*Result, error) {
	if !models.IsKnownPaymentProvider(ev.Provider) {
		return nil, fmt.Errorf("%w: unknown provider %q", payments.ErrMalformedPayload, ev.Provider)
	}
	if ev.Status == payments.EventApproved {
		return f.Finalize(ctx, ev)
	}
	if !ev.Actionable() {
		log.Infow("[Finalizer] ignoring event", "provider", ev.Provider, "event_type", ev.EventType, "order_ref", ev.OrderRef, "transaction_id", ev.TransactionID)
		return &Result{State: StateIgnored, OrderRef: ev.OrderRef}, nil
	}
	return f.Reject(ctx, ev)
}

// Finalize runs the approval flow for one event.
func (f *Finalizer) Finalize(ctx context.Context, ev *payments.PaymentEvent) (*Result, error) {
	state := StateVerifying
	if existing, err := f.guard.Seen(ctx, ev.Provider, ev.TransactionID); err != nil {
		return nil, err
	} else if existing != nil {
		log.Infow("[Finalizer] duplicate delivery", "provider", ev.Provider, "transaction_id", ev.TransactionID, "order_id", existing.ID)
		return &Result{State: StateDuplicate, OrderRef: existing.OrderRef, Order: existing}, nil
	}

	if ev.OrderRef == "" {
		log.Errorw("[Finalizer] approved payment without order reference", "provider", ev.Provider, "transaction_id", ev.TransactionID, "event_type", ev.EventType)
		return nil, fmt.Errorf("%w: %s transaction %s carries no reference", ErrReferenceNotFound, ev.Provider, ev.TransactionID)
	}

	if f.lock != nil {
		token, ok, err := f.lock.Acquire(ctx, ev.Provider, ev.TransactionID)
		if err != nil {
			// Without the lock the unique index still prevents duplicates.
			log.Warnw("[Finalizer] delivery lock unavailable", "error", err)
		} else if !ok {
			return nil, fmt.Errorf("%w: %s/%s", ErrDeliveryInFlight, ev.Provider, ev.TransactionID)
		} else {
			defer func() {
				if err := f.lock.Release(context.WithoutCancel(ctx), ev.Provider, ev.TransactionID, token); err != nil {
					log.Warnw("[Finalizer] release delivery lock", "error", err)
				}
			}()
		}
	}

	pending, err := f.repos.PendingOrder.GetByRef(ctx, ev.OrderRef)
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, fmt.Errorf("load pending order: %w", err)
		}
		return f.missingPending(ctx, ev)
	}

	if err := f.verifyAmount(pending, ev); err != nil {
		log.Errorw("[Finalizer] amount verification failed",
			"order_ref", ev.OrderRef,
			"provider", ev.Provider,
			"reported_amount_minor", ev.AmountMinor,
			"reported_currency", ev.Currency,
			"expected_amount_minor", pending.AmountMinor,
			"expected_currency", pending.Currency,
		)
		return nil, err
	}

	state = StateFinalizing
	order, err := f.persist(ctx, pending, ev)
	if err != nil {
		if errors.Is(err, ErrDuplicateDelivery) {
			log.Infow("[Finalizer] concurrent duplicate delivery", "provider", ev.Provider, "order_ref", ev.OrderRef, "transaction_id", ev.TransactionID)
			existing, _ := f.guard.Seen(ctx, ev.Provider, ev.TransactionID)
			if existing == nil {
				existing, _ = f.repos.Order.GetByRef(ctx, ev.Provider, ev.OrderRef)
			}
			return &Result{State: StateDuplicate, OrderRef: ev.OrderRef, Order: existing}, nil
		}
		log.Errorw("[Finalizer] finalization failed", "order_ref", ev.OrderRef, "state", state, "error", err)
		return nil, err
	}

	state = StateConfirmed
	res := &Result{State: state, OrderRef: ev.OrderRef, Order: order}
	if pending.HasDiscount() {
		res.SideEffects = append(res.SideEffects, f.registerDiscount(ctx, pending, order))
	}
	res.SideEffects = append(res.SideEffects, f.notify(ctx, order)...)

	for _, o := range res.SideEffects {
		if o.OK() {
			log.Infow("[Finalizer] side effect done", "order_id", order.ID, "step", o.Step, "message", o.Message)
		} else {
			log.Errorw("[Finalizer] side effect failed", "order_id", order.ID, "step", o.Step, "message", o.Message, "error", o.Err)
		}
	}
	log.Infow("[Finalizer] order confirmed",
		"order_id", order.ID,
		"order_ref", order.OrderRef,
		"provider", order.PaymentProvider,
		"transaction_id", order.ProviderTransactionID,
		"total", order.Total.String(),
		"currency", order.Currency,
	)
	return res, nil
}

// missingPending separates a redelivery for an already finalized reference
// (for example a second event flavor of the same payment) from a real loss.
func (f *Finalizer) missingPending(ctx context.Context, ev *payments.PaymentEvent) (*Result, error) {
	order, err := f.repos.Order.GetByRef(ctx, ev.Provider, ev.OrderRef)
	if err == nil {
		log.Warnw("[Finalizer] reference already finalized under another transaction",
			"order_ref", ev.OrderRef,
			"provider", ev.Provider,
			"transaction_id", ev.TransactionID,
			"existing_transaction_id", order.ProviderTransactionID,
		)
		return &Result{State: StateDuplicate, OrderRef: ev.OrderRef, Order: order}, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("load order by reference: %w", err)
	}
	log.Errorw("[Finalizer] pending order not found", "order_ref", ev.OrderRef, "provider", ev.Provider, "transaction_id", ev.TransactionID)
	return nil, fmt.Errorf("%w: %s", ErrReferenceNotFound, ev.OrderRef)
}

func (f *Finalizer) verifyAmount(p *models.PendingOrder, ev *payments.PaymentEvent) error {
	if p.PaymentProvider != ev.Provider {
		return fmt.Errorf("%w: pending order %s belongs to %s", payments.ErrAmountMismatch, p.OrderRef, p.PaymentProvider)
	}
	if !strings.EqualFold(p.Currency, ev.Currency) {
		return fmt.Errorf("%w: currency %s, expected %s", payments.ErrAmountMismatch, ev.Currency, p.Currency)
	}

	secret := f.cfg.IntegritySecrets[p.PaymentProvider]
	if p.IntegritySignature != "" && secret != "" {
		if !payments.VerifyIntegrity(p.OrderRef, ev.AmountMinor, strings.ToUpper(ev.Currency), secret, p.IntegritySignature) {
			return fmt.Errorf("%w: integrity signature does not match reported amount %d", payments.ErrAmountMismatch, ev.AmountMinor)
		}
		return nil
	}
	if ev.AmountMinor != p.AmountMinor {
		return fmt.Errorf("%w: reported %d, expected %d", payments.ErrAmountMismatch, ev.AmountMinor, p.AmountMinor)
	}
	return nil
}

// persist writes customer, order, items and the pending delete in one
// transaction.
func (f *Finalizer) persist(ctx context.Context, p *models.PendingOrder, ev *payments.PaymentEvent) (*models.Order, error) {
	details := p.Details()
	customerID := models.GuestCustomerID(p.OrderRef)
	if p.UserID != nil && *p.UserID != "" {
		customerID = *p.UserID
	}

	order := &models.Order{
		OrderRef:              p.OrderRef,
		UserID:                p.UserID,
		CustomerID:            customerID,
		PaymentProvider:       ev.Provider,
		ProviderTransactionID: ev.TransactionID,
		Total:                 ev.Amount,
		Currency:              strings.ToUpper(ev.Currency),
		PaymentMethod:         ev.PaymentMethod,
		Status:                models.OrderStatusCompleted,
		DiscountCodeID:        p.DiscountCodeID,
		DiscountAmount:        p.DiscountAmount,
		OrderDetails:          p.OrderDetails,
		Items:                 BuildOrderItems(details.Items, f.cfg.Surcharge),
	}

	err := f.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := upsertCustomer(ctx, tx.Customer, customerID, details.Customer); err != nil {
			return err
		}
		if err := tx.Order.Create(ctx, order); err != nil {
			if repository.IsDuplicateKey(err) {
				return ErrDuplicateDelivery
			}
			return fmt.Errorf("create order: %w", err)
		}
		if err := tx.PendingOrder.Delete(ctx, p.OrderRef); err != nil {
			if repository.IsNotFound(err) {
				// another transaction already consumed this reference
				return ErrDuplicateDelivery
			}
			return fmt.Errorf("delete pending order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func upsertCustomer(ctx context.Context, customers repository.CustomerRepository, id string, info models.CustomerInfo) error {
	existing, err := customers.GetByID(ctx, id)
	if err != nil {
		if !repository.IsNotFound(err) {
			return fmt.Errorf("load customer: %w", err)
		}
		c := &models.Customer{ID: id}
		c.Merge(info)
		if err := customers.Create(ctx, c); err != nil {
			return fmt.Errorf("create customer: %w", err)
		}
		return nil
	}
	if existing.Merge(info) {
		if err := customers.Update(ctx, existing); err != nil {
			return fmt.Errorf("update customer: %w", err)
		}
	}
	return nil
}

// BuildOrderItems snapshots the cart into order items. Customized items
// carry the flat surcharge in their unit price.
func BuildOrderItems(items []models.LineItem, surcharge decimal.Decimal) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, models.OrderItem{
			ProductID:    it.ProductID,
			ProductName:  it.Name,
			ProductSlug:  it.Slug,
			ImageURL:     it.ImageURL,
			Category:     it.Category,
			Size:         it.Size,
			Quantity:     it.Quantity,
			BasePrice:    it.Price,
			UnitPrice:    payments.UnitPrice(it, surcharge),
			CustomName:   it.CustomName,
			CustomNumber: it.CustomNumber,
		})
	}
	return out
}

func (f *Finalizer) registerDiscount(ctx context.Context, p *models.PendingOrder, order *models.Order) Outcome {
	msg, err := f.ledger.RegisterUsage(ctx, *p.DiscountCodeID, p.UserID, order.ID, p.DiscountAmount)
	return Outcome{Step: StepDiscountLedger, Err: err, Message: msg}
}

func (f *Finalizer) notify(ctx context.Context, order *models.Order) []Outcome {
	if f.notifier == nil {
		return nil
	}
	deliveries := f.notifier.Dispatch(ctx, notify.NewOrderNotification(order))
	out := make([]Outcome, 0, len(deliveries))
	for _, d := range deliveries {
		msg := "sent"
		if d.Err != nil {
			msg = "not sent"
		}
		out = append(out, Outcome{Step: StepNotifyPrefix + d.Channel, Err: d.Err, Message: msg})
	}
	return out
}

// Reject annotates the pending order with a non-approval status. No order
// is created and nobody is notified.
func (f *Finalizer) Reject(ctx context.Context, ev *payments.PaymentEvent) (*Result, error) {
	status := ev.Status.PaymentStatus()
	if status == "" {
		return &Result{State: StateIgnored, OrderRef: ev.OrderRef}, nil
	}

	err := f.repos.PendingOrder.UpdatePaymentStatus(ctx, ev.OrderRef, status)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Warnw("[Finalizer] status update for unknown or finalized reference",
				"order_ref", ev.OrderRef, "provider", ev.Provider, "status", status)
			return &Result{State: StateIgnored, OrderRef: ev.OrderRef}, nil
		}
		return nil, fmt.Errorf("annotate pending order: %w", err)
	}

	log.Infow("[Finalizer] pending order annotated", "order_ref", ev.OrderRef, "provider", ev.Provider, "status", status)
	state := StateRejected
	if ev.Status == payments.EventPending {
		state = StatePending
	}
	return &Result{State: state, OrderRef: ev.OrderRef}, nil
}
