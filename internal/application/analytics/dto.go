package analytics

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopalytics/backend/internal/domain/analytics"
)

// DashboardInput identifies the tenant and the optional date range of a
// dashboard request. Dates use the YYYY-MM-DD form.
type DashboardInput struct {
	TenantID  uuid.UUID
	StartDate string
	EndDate   string
}

// Dashboard is the aggregated dashboard payload. The struct is
// marshalled as-is into the response cache.
type Dashboard struct {
	TotalCustomers    int64                      `json:"totalCustomers"`
	TotalProducts     int64                      `json:"totalProducts"`
	TotalOrders       int64                      `json:"totalOrders"`
	TotalRevenue      decimal.Decimal            `json:"totalRevenue"`
	AverageOrderValue decimal.Decimal            `json:"averageOrderValue"`
	OrdersByDate      []DateBucket               `json:"ordersByDate"`
	RecentOrders      []OrderSummary             `json:"recentOrders"`
	TopCustomers      []CustomerSummary          `json:"topCustomers"`
	RecentEvents      []EventSummary             `json:"recentEvents"`
	EventStats        []analytics.EventTypeCount `json:"eventStats"`
}

// DateBucket is one calendar day of the order sample
type DateBucket struct {
	Date    string          `json:"date"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// OrderSummary is the dashboard view of an order
type OrderSummary struct {
	ID             uuid.UUID       `json:"id"`
	ShopifyOrderID string          `json:"shopifyOrderId"`
	OrderNumber    int64           `json:"orderNumber"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	Currency       string          `json:"currency"`
	OrderDate      time.Time       `json:"orderDate"`
	ItemCount      int             `json:"itemCount"`
}

// CustomerSummary is the dashboard view of a customer
type CustomerSummary struct {
	ID                uuid.UUID       `json:"id"`
	ShopifyCustomerID string          `json:"shopifyCustomerId"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	TotalSpent        decimal.Decimal `json:"totalSpent"`
	OrdersCount       int             `json:"ordersCount"`
}

// EventSummary is the dashboard view of a custom event
type EventSummary struct {
	ID         uuid.UUID      `json:"id"`
	EventType  string         `json:"eventType"`
	CustomerID *uuid.UUID     `json:"customerId,omitempty"`
	Customer   *EventCustomer `json:"customer,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// EventCustomer is the linked customer carried with a recent event
type EventCustomer struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}
