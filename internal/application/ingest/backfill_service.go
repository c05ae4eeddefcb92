package ingest

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shopalytics/backend/internal/domain/commerce"
	"github.com/shopalytics/backend/internal/domain/shared"
)

// manualProductPrefix marks products created from line item titles
// rather than product webhooks
const manualProductPrefix = "manual-"

// BackfillService creates placeholder products for order line items
// that never matched a product webhook, and links those items to them.
type BackfillService struct {
	orderRepo   commerce.OrderRepository
	productRepo commerce.ProductRepository
	logger      *zap.Logger
}

// NewBackfillService creates a new product backfill service
func NewBackfillService(orderRepo commerce.OrderRepository, productRepo commerce.ProductRepository, log *zap.Logger) *BackfillService {
	return &BackfillService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		logger:      log,
	}
}

// Backfill scans a tenant's unmatched line item titles, creating a
// placeholder product per distinct title and relinking the items.
// Placeholder keys are stable slugs, so the run is idempotent.
func (s *BackfillService) Backfill(ctx context.Context, tenantID uuid.UUID) (*BackfillResult, error) {
	titles, err := s.orderRepo.UnmatchedItemTitles(ctx, tenantID)
	if err != nil {
		s.logger.Error("Failed to list unmatched item titles", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to run product backfill")
	}

	result := &BackfillResult{}
	for _, title := range titles {
		key := manualProductPrefix + slugify(title)

		product, err := s.productRepo.FindByShopifyID(ctx, tenantID, key)
		if err == shared.ErrNotFound {
			product, err = commerce.NewProduct(tenantID, key, title, decimal.Zero, 0)
			if err != nil {
				s.logger.Warn("Skipping unmappable item title",
					zap.String("title", title),
					zap.Error(err))
				continue
			}
			if err := s.productRepo.Save(ctx, product); err != nil {
				s.logger.Error("Failed to save placeholder product", zap.Error(err))
				return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to run product backfill")
			}
			result.ProductsCreated++
		} else if err != nil {
			s.logger.Error("Failed to look up placeholder product", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to run product backfill")
		}

		linked, err := s.orderRepo.LinkItemsByTitle(ctx, tenantID, title, product.ID)
		if err != nil {
			s.logger.Error("Failed to link items to placeholder product", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to run product backfill")
		}
		result.ItemsLinked += linked
	}

	s.logger.Info("Product backfill completed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("products_created", result.ProductsCreated),
		zap.Int64("items_linked", result.ItemsLinked))

	return result, nil
}

// slugify lowercases a title and collapses every non-alphanumeric run
// into a single hyphen, capped to fit the external ID column
func slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 57 {
		cut := slug[:57]
		for !utf8.ValidString(cut) {
			cut = cut[:len(cut)-1]
		}
		slug = strings.Trim(cut, "-")
	}
	return slug
}
