package ingest

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shopalytics/backend/internal/domain/analytics"
	"github.com/shopalytics/backend/internal/domain/commerce"
	"github.com/shopalytics/backend/internal/domain/identity"
	"github.com/shopalytics/backend/internal/domain/shared"
	"github.com/shopalytics/backend/internal/infrastructure/cache"
	"github.com/shopalytics/backend/internal/infrastructure/logger"
	"github.com/shopalytics/backend/internal/infrastructure/shopify"
	"github.com/shopalytics/backend/internal/infrastructure/storage"
)

// WebhookConfig holds the ingestion pipeline policy
type WebhookConfig struct {
	// Secret is the shared secret webhook signatures are verified
	// against
	Secret string
	// AllowUnsigned accepts deliveries that fail signature verification.
	// With no secret configured the pipeline fails closed unless this is
	// set.
	AllowUnsigned bool
	// LenientNumbers treats malformed numeric payload fields as zero
	// instead of rejecting the delivery
	LenientNumbers bool
	// DedupeEnabled skips deliveries whose ID was already processed
	DedupeEnabled bool
	// DedupeTTL is how long a processed delivery ID is remembered
	DedupeTTL time.Duration
}

// DefaultWebhookConfig returns the default ingestion policy
func DefaultWebhookConfig() WebhookConfig {
	return WebhookConfig{
		AllowUnsigned:  false,
		LenientNumbers: false,
		DedupeEnabled:  true,
		DedupeTTL:      24 * time.Hour,
	}
}

// WebhookService runs the webhook ingestion pipeline: signature
// verification, dedupe, tenant resolution, entity upsert, payload
// archival.
type WebhookService struct {
	tenantRepo   identity.TenantRepository
	customerRepo commerce.CustomerRepository
	productRepo  commerce.ProductRepository
	orderRepo    commerce.OrderRepository
	eventRepo    analytics.EventRepository
	dedupe       shared.IdempotencyStore
	archiver     storage.Archiver
	dashCache    cache.DashboardCache
	config       WebhookConfig
	logger       *zap.Logger
}

// NewWebhookService creates a new webhook ingestion service
func NewWebhookService(
	tenantRepo identity.TenantRepository,
	customerRepo commerce.CustomerRepository,
	productRepo commerce.ProductRepository,
	orderRepo commerce.OrderRepository,
	eventRepo analytics.EventRepository,
	dedupe shared.IdempotencyStore,
	archiver storage.Archiver,
	dashCache cache.DashboardCache,
	config WebhookConfig,
	log *zap.Logger,
) *WebhookService {
	if archiver == nil {
		archiver = storage.NewNoopArchiver()
	}
	if dashCache == nil {
		dashCache = cache.NewNoopDashboardCache()
	}
	return &WebhookService{
		tenantRepo:   tenantRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		orderRepo:    orderRepo,
		eventRepo:    eventRepo,
		dedupe:       dedupe,
		archiver:     archiver,
		dashCache:    dashCache,
		config:       config,
		logger:       log,
	}
}

// Process runs one delivery through the full pipeline
func (s *WebhookService) Process(ctx context.Context, delivery Delivery) (*ProcessResult, error) {
	if !s.signatureAccepted(delivery) {
		s.logger.Warn("Webhook signature rejected",
			zap.String("shop_domain", delivery.ShopDomain),
			zap.String("topic", delivery.Topic))
		return nil, shared.ErrInvalidSignature
	}

	if duplicate, err := s.alreadyProcessed(ctx, delivery.DeliveryID); err != nil {
		// A broken dedupe store should not drop webhooks, upserts are
		// idempotent anyway
		s.logger.Warn("Dedupe check failed", zap.Error(err))
	} else if duplicate {
		s.logger.Info("Duplicate webhook delivery skipped",
			zap.String("delivery_id", delivery.DeliveryID),
			zap.String("topic", delivery.Topic))
		return &ProcessResult{Duplicate: true}, nil
	}

	tenant, err := s.tenantRepo.FindByShopifyDomain(ctx, delivery.ShopDomain)
	if err != nil {
		if err == shared.ErrNotFound {
			s.logger.Warn("Webhook for unknown shop domain",
				zap.String("shop_domain", delivery.ShopDomain))
			return nil, shared.ErrUnknownTenant
		}
		return nil, err
	}

	ctx, log := logger.WithTenantID(ctx, s.logger, tenant.ID.String())

	if err := s.dispatch(ctx, tenant.ID, delivery); err != nil {
		return nil, err
	}

	s.markProcessed(ctx, log, delivery.DeliveryID)
	s.archive(ctx, log, tenant.ID, delivery)

	if err := s.dashCache.Invalidate(ctx, tenant.ID); err != nil {
		log.Warn("Dashboard cache invalidation failed", zap.Error(err))
	}

	log.Info("Webhook processed",
		zap.String("topic", delivery.Topic),
		zap.String("delivery_id", delivery.DeliveryID))

	return &ProcessResult{}, nil
}

func (s *WebhookService) signatureAccepted(delivery Delivery) bool {
	if shopify.VerifySignature(s.config.Secret, delivery.Body, delivery.Signature) {
		return true
	}
	return s.config.AllowUnsigned
}

func (s *WebhookService) alreadyProcessed(ctx context.Context, deliveryID string) (bool, error) {
	if !s.config.DedupeEnabled || s.dedupe == nil || deliveryID == "" {
		return false, nil
	}
	return s.dedupe.IsProcessed(ctx, deliveryID)
}

func (s *WebhookService) markProcessed(ctx context.Context, log *zap.Logger, deliveryID string) {
	if !s.config.DedupeEnabled || s.dedupe == nil || deliveryID == "" {
		return
	}
	if _, err := s.dedupe.MarkProcessed(ctx, deliveryID, s.config.DedupeTTL); err != nil {
		log.Warn("Failed to mark delivery as processed", zap.Error(err))
	}
}

func (s *WebhookService) archive(ctx context.Context, log *zap.Logger, tenantID uuid.UUID, delivery Delivery) {
	if err := s.archiver.Archive(ctx, tenantID, delivery.Topic, delivery.DeliveryID, delivery.Body); err != nil {
		// Archival is best effort and never fails the webhook
		log.Warn("Webhook payload archival failed",
			zap.String("topic", delivery.Topic),
			zap.Error(err))
	}
}

func (s *WebhookService) dispatch(ctx context.Context, tenantID uuid.UUID, delivery Delivery) error {
	entity := delivery.Topic
	if idx := strings.Index(entity, "/"); idx >= 0 {
		entity = entity[:idx]
	}

	switch entity {
	case "customers":
		return s.ingestCustomer(ctx, tenantID, delivery.Body)
	case "products":
		return s.ingestProduct(ctx, tenantID, delivery.Body)
	case "orders":
		return s.ingestOrder(ctx, tenantID, delivery.Body)
	case "events":
		return s.ingestEvent(ctx, tenantID, delivery.Body)
	default:
		return shared.NewDomainError("UNKNOWN_TOPIC", "Unsupported webhook topic")
	}
}

// checkNumbers enforces the numeric policy: in strict mode any
// malformed numeric field rejects the delivery, in lenient mode the
// fields already decoded to zero
func (s *WebhookService) checkNumbers(malformed ...bool) error {
	if s.config.LenientNumbers {
		return nil
	}
	for _, m := range malformed {
		if m {
			return shared.NewDomainError("INVALID_NUMBER", "Numeric payload field could not be parsed")
		}
	}
	return nil
}

func (s *WebhookService) ingestCustomer(ctx context.Context, tenantID uuid.UUID, body []byte) error {
	var payload customerPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return shared.ErrMalformedPayload
	}

	customer, err := s.customerFromPayload(ctx, tenantID, &payload)
	if err != nil {
		return err
	}

	return s.customerRepo.Save(ctx, customer)
}

// customerFromPayload builds the upserted customer entity without
// persisting it, so order ingestion can save it inside the order
// transaction
func (s *WebhookService) customerFromPayload(ctx context.Context, tenantID uuid.UUID, payload *customerPayload) (*commerce.Customer, error) {
	shopifyID := payload.ID.String()
	if shopifyID == "" {
		return nil, shared.ErrMalformedPayload
	}
	if err := s.checkNumbers(payload.TotalSpent.Malformed, payload.OrdersCount.Malformed); err != nil {
		return nil, err
	}

	customer, err := s.customerRepo.FindByShopifyID(ctx, tenantID, shopifyID)
	if err != nil {
		if err != shared.ErrNotFound {
			return nil, err
		}
		customer, err = commerce.NewCustomer(tenantID, shopifyID, payload.Email, payload.FirstName, payload.LastName, payload.Phone)
		if err != nil {
			return nil, err
		}
	} else {
		customer.ApplyProfile(payload.Email, payload.FirstName, payload.LastName, payload.Phone)
	}

	if err := customer.ApplyOrderStats(payload.TotalSpent.Value, int(payload.OrdersCount.Value)); err != nil {
		return nil, err
	}

	return customer, nil
}

func (s *WebhookService) ingestProduct(ctx context.Context, tenantID uuid.UUID, body []byte) error {
	var payload productPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return shared.ErrMalformedPayload
	}

	shopifyID := payload.ID.String()
	if shopifyID == "" {
		return shared.ErrMalformedPayload
	}

	malformed := make([]bool, 0, len(payload.Variants)*2)
	for _, v := range payload.Variants {
		malformed = append(malformed, v.Price.Malformed, v.InventoryQuantity.Malformed)
	}
	if err := s.checkNumbers(malformed...); err != nil {
		return err
	}

	// Price comes from the first variant, inventory is summed across
	// all of them
	price := decimal.Zero
	if len(payload.Variants) > 0 {
		price = payload.Variants[0].Price.Value
	}
	inventory := 0
	for _, v := range payload.Variants {
		inventory += int(v.InventoryQuantity.Value)
	}

	product, err := s.productRepo.FindByShopifyID(ctx, tenantID, shopifyID)
	if err != nil {
		if err != shared.ErrNotFound {
			return err
		}
		product, err = commerce.NewProduct(tenantID, shopifyID, payload.Title, price, inventory)
		if err != nil {
			return err
		}
	}
	if err := product.ApplyCatalogFields(payload.Title, payload.BodyHTML, payload.Vendor, payload.ProductType, price, inventory); err != nil {
		return err
	}

	return s.productRepo.Save(ctx, product)
}

func (s *WebhookService) ingestOrder(ctx context.Context, tenantID uuid.UUID, body []byte) error {
	var payload orderPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return shared.ErrMalformedPayload
	}

	shopifyID := payload.ID.String()
	if shopifyID == "" {
		return shared.ErrMalformedPayload
	}

	malformed := []bool{
		payload.OrderNumber.Malformed,
		payload.TotalPrice.Malformed,
		payload.SubtotalPrice.Malformed,
		payload.TotalTax.Malformed,
	}
	for _, item := range payload.LineItems {
		malformed = append(malformed, item.Quantity.Malformed, item.Price.Malformed)
	}
	if err := s.checkNumbers(malformed...); err != nil {
		return err
	}

	// Orders may embed their customer; upsert it in the same
	// transaction as the order below
	var customer *commerce.Customer
	if payload.Customer != nil && payload.Customer.ID.String() != "" {
		var err error
		customer, err = s.customerFromPayload(ctx, tenantID, payload.Customer)
		if err != nil {
			return err
		}
	}

	snapshot := commerce.OrderSnapshot{
		Email:             payload.Email,
		OrderNumber:       payload.OrderNumber.Value,
		TotalPrice:        payload.TotalPrice.Value,
		SubtotalPrice:     payload.SubtotalPrice.Value,
		TotalTax:          payload.TotalTax.Value,
		Currency:          payload.Currency,
		FinancialStatus:   payload.FinancialStatus,
		FulfillmentStatus: payload.FulfillmentStatus,
		OrderDate:         parseOrderDate(payload.CreatedAt),
	}

	order, err := s.orderRepo.FindByShopifyID(ctx, tenantID, shopifyID)
	if err != nil {
		if err != shared.ErrNotFound {
			return err
		}
		order, err = commerce.NewOrder(tenantID, shopifyID, snapshot)
		if err != nil {
			return err
		}
	} else if err := order.ApplyOrderFields(snapshot); err != nil {
		return err
	}

	// A payload without an embedded customer leaves any existing link
	// untouched; replays often omit the customer block.
	if customer != nil {
		order.AttachCustomer(customer.ID)
	}

	items, err := s.buildOrderItems(ctx, tenantID, payload.LineItems)
	if err != nil {
		return err
	}
	if err := order.ReplaceItems(items); err != nil {
		return err
	}

	return s.orderRepo.SaveWithCustomer(ctx, order, customer)
}

func (s *WebhookService) buildOrderItems(ctx context.Context, tenantID uuid.UUID, lineItems []lineItemPayload) ([]commerce.OrderItem, error) {
	items := make([]commerce.OrderItem, 0, len(lineItems))
	for _, li := range lineItems {
		title := strings.TrimSpace(li.Title)
		if title == "" {
			title = strings.TrimSpace(li.Name)
		}
		if title == "" {
			return nil, shared.NewDomainError("INVALID_ITEM_TITLE", "Line item has neither title nor name")
		}

		var productID *uuid.UUID
		if external := li.ProductID.String(); external != "" {
			product, err := s.productRepo.FindByShopifyID(ctx, tenantID, external)
			if err == nil {
				id := product.ID
				productID = &id
			} else if err != shared.ErrNotFound {
				return nil, err
			}
			// An unknown product leaves the item unlinked, backfill can
			// pick it up later
		}

		item, err := commerce.NewOrderItem(title, int(li.Quantity.Value), li.Price.Value, productID)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func (s *WebhookService) ingestEvent(ctx context.Context, tenantID uuid.UUID, body []byte) error {
	var payload eventPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return shared.ErrMalformedPayload
	}

	var customerID *uuid.UUID
	if external := payload.CustomerID.String(); external != "" {
		customer, err := s.customerRepo.FindByShopifyID(ctx, tenantID, external)
		if err == nil {
			id := customer.ID
			customerID = &id
		} else if err != shared.ErrNotFound {
			return err
		}
	}

	event, err := analytics.NewCustomEvent(tenantID, payload.EventType, payload.Data, customerID)
	if err != nil {
		return err
	}

	return s.eventRepo.Save(ctx, event)
}

func parseOrderDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts
	}
	return time.Time{}
}
