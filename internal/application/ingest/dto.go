package ingest

import (
	"encoding/json"
)

// Delivery is one inbound webhook request, captured before any parsing.
// Body is the raw byte stream as received, which is what the signature
// covers.
type Delivery struct {
	// Topic is the webhook topic, e.g. "orders/create". The entity is
	// derived from its first path segment.
	Topic string
	// ShopDomain is the X-Shopify-Shop-Domain header value
	ShopDomain string
	// Signature is the X-Shopify-Hmac-SHA256 header value
	Signature string
	// DeliveryID is the X-Shopify-Webhook-Id header value, used for
	// dedupe when present
	DeliveryID string
	Body       []byte
}

// ProcessResult reports what happened to a delivery
type ProcessResult struct {
	// Duplicate is true when the delivery ID was already processed and
	// the webhook was acknowledged without reprocessing
	Duplicate bool
}

// customerPayload mirrors the Shopify customer webhook body
type customerPayload struct {
	ID          FlexID      `json:"id"`
	Email       string      `json:"email"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Phone       string      `json:"phone"`
	TotalSpent  FlexDecimal `json:"total_spent"`
	OrdersCount FlexInt     `json:"orders_count"`
}

// variantPayload mirrors one entry of a product's variants array
type variantPayload struct {
	Price             FlexDecimal `json:"price"`
	InventoryQuantity FlexInt     `json:"inventory_quantity"`
}

// productPayload mirrors the Shopify product webhook body
type productPayload struct {
	ID          FlexID           `json:"id"`
	Title       string           `json:"title"`
	BodyHTML    string           `json:"body_html"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"product_type"`
	Variants    []variantPayload `json:"variants"`
}

// lineItemPayload mirrors one entry of an order's line_items array.
// Title falls back to Name when absent.
type lineItemPayload struct {
	ProductID FlexID      `json:"product_id"`
	Title     string      `json:"title"`
	Name      string      `json:"name"`
	Quantity  FlexInt     `json:"quantity"`
	Price     FlexDecimal `json:"price"`
}

// orderPayload mirrors the Shopify order webhook body
type orderPayload struct {
	ID                FlexID            `json:"id"`
	Email             string            `json:"email"`
	OrderNumber       FlexInt           `json:"order_number"`
	TotalPrice        FlexDecimal       `json:"total_price"`
	SubtotalPrice     FlexDecimal       `json:"subtotal_price"`
	TotalTax          FlexDecimal       `json:"total_tax"`
	Currency          string            `json:"currency"`
	FinancialStatus   string            `json:"financial_status"`
	FulfillmentStatus string            `json:"fulfillment_status"`
	CreatedAt         string            `json:"created_at"`
	Customer          *customerPayload  `json:"customer"`
	LineItems         []lineItemPayload `json:"line_items"`
}

// eventPayload mirrors the custom behavioral event body posted by the
// storefront pixel
type eventPayload struct {
	EventType  string          `json:"event_type"`
	CustomerID FlexID          `json:"customer_id"`
	Data       json.RawMessage `json:"data"`
}

// BackfillResult reports the outcome of a product backfill run
type BackfillResult struct {
	ProductsCreated int
	ItemsLinked     int64
}
