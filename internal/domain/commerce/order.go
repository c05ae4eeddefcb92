package commerce

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopalytics/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a webhook payload carries no currency
const DefaultCurrency = "USD"

// Order represents a storefront order mirrored from Shopify. Replaying
// the same order webhook replaces the order's fields and line items
// wholesale, so the row always reflects the latest payload.
type Order struct {
	shared.TenantAggregateRoot
	ShopifyOrderID    string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_orders_tenant_shopify_id"`
	CustomerID        *uuid.UUID      `gorm:"type:uuid;index"`
	Email             string          `gorm:"type:varchar(255)"`
	OrderNumber       int64           `gorm:"not null;default:0"`
	TotalPrice        decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	SubtotalPrice     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	TotalTax          decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	Currency          string          `gorm:"type:varchar(10);not null;default:'USD'"`
	FinancialStatus   string          `gorm:"type:varchar(50)"`
	FulfillmentStatus string          `gorm:"type:varchar(50)"`
	OrderDate         time.Time       `gorm:"not null;index"`
	Items             []OrderItem     `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a line item belonging to an order. ProductID is nil when
// the line item could not be matched to a known product.
type OrderItem struct {
	shared.BaseEntity
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID *uuid.UUID      `gorm:"type:uuid;index"`
	Title     string          `gorm:"type:varchar(500);not null"`
	Quantity  int             `gorm:"not null;default:1"`
	Price     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// OrderSnapshot carries the mutable order fields of a webhook payload.
// Replayed deliveries overwrite all of them, last write wins.
type OrderSnapshot struct {
	Email             string
	OrderNumber       int64
	TotalPrice        decimal.Decimal
	SubtotalPrice     decimal.Decimal
	TotalTax          decimal.Decimal
	Currency          string
	FinancialStatus   string
	FulfillmentStatus string
	OrderDate         time.Time
}

// NewOrder creates an order from webhook payload fields
func NewOrder(tenantID uuid.UUID, shopifyOrderID string, snapshot OrderSnapshot) (*Order, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT_ID", "Tenant ID is required")
	}
	if err := validateExternalID(shopifyOrderID); err != nil {
		return nil, err
	}

	order := &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ShopifyOrderID:      shopifyOrderID,
	}
	if err := order.applySnapshot(snapshot); err != nil {
		return nil, err
	}

	return order, nil
}

// AttachCustomer links the order to a customer row
func (o *Order) AttachCustomer(customerID uuid.UUID) {
	if customerID == uuid.Nil {
		o.CustomerID = nil
		return
	}
	id := customerID
	o.CustomerID = &id
}

// ReplaceItems swaps out the full set of line items. Used on webhook
// replay so stale line items never survive an update.
func (o *Order) ReplaceItems(items []OrderItem) error {
	for i := range items {
		if strings.TrimSpace(items[i].Title) == "" {
			return shared.NewDomainError("INVALID_ITEM_TITLE", "Line item title cannot be empty")
		}
		if items[i].Quantity <= 0 {
			items[i].Quantity = 1
		}
		if items[i].Price.IsNegative() {
			return shared.NewDomainError("INVALID_ITEM_PRICE", "Line item price cannot be negative")
		}
		items[i].OrderID = o.ID
	}

	o.Items = items
	o.UpdatedAt = time.Now()

	return nil
}

// ApplyOrderFields overwrites mutable order fields from a newer payload
func (o *Order) ApplyOrderFields(snapshot OrderSnapshot) error {
	if err := o.applySnapshot(snapshot); err != nil {
		return err
	}
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return nil
}

func (o *Order) applySnapshot(snapshot OrderSnapshot) error {
	if snapshot.TotalPrice.IsNegative() {
		return shared.NewDomainError("INVALID_TOTAL_PRICE", "Order total cannot be negative")
	}
	if snapshot.SubtotalPrice.IsNegative() || snapshot.TotalTax.IsNegative() {
		return shared.NewDomainError("INVALID_ORDER_AMOUNT", "Order amounts cannot be negative")
	}
	if snapshot.OrderDate.IsZero() {
		snapshot.OrderDate = time.Now()
	}

	o.Email = strings.TrimSpace(snapshot.Email)
	o.OrderNumber = snapshot.OrderNumber
	o.TotalPrice = snapshot.TotalPrice
	o.SubtotalPrice = snapshot.SubtotalPrice
	o.TotalTax = snapshot.TotalTax
	o.Currency = NormalizeCurrency(snapshot.Currency)
	o.FinancialStatus = strings.TrimSpace(snapshot.FinancialStatus)
	o.FulfillmentStatus = strings.TrimSpace(snapshot.FulfillmentStatus)
	o.OrderDate = snapshot.OrderDate

	return nil
}

// NewOrderItem creates a line item
func NewOrderItem(title string, quantity int, price decimal.Decimal, productID *uuid.UUID) (*OrderItem, error) {
	if strings.TrimSpace(title) == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_TITLE", "Line item title cannot be empty")
	}
	if quantity <= 0 {
		quantity = 1
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_ITEM_PRICE", "Line item price cannot be negative")
	}

	return &OrderItem{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		Title:      strings.TrimSpace(title),
		Quantity:   quantity,
		Price:      price,
	}, nil
}

// NormalizeCurrency uppercases a currency code, falling back to the
// default when the payload omits it
func NormalizeCurrency(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return DefaultCurrency
	}
	if len(currency) > 10 {
		return DefaultCurrency
	}
	return currency
}
