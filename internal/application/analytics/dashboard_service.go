package analytics

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shopalytics/backend/internal/domain/analytics"
	"github.com/shopalytics/backend/internal/domain/commerce"
	"github.com/shopalytics/backend/internal/domain/shared"
	"github.com/shopalytics/backend/internal/infrastructure/cache"
)

const dateLayout = "2006-01-02"

// DashboardConfig holds dashboard query settings
type DashboardConfig struct {
	// RecentOrdersLimit bounds the order sample the revenue figures are
	// folded from
	RecentOrdersLimit int
	TopCustomersLimit int
	RecentEventsLimit int
	// CacheTTL is how long a composed dashboard is served from the
	// response cache. Zero disables caching.
	CacheTTL time.Duration
}

// DefaultDashboardConfig returns the default dashboard settings
func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{
		RecentOrdersLimit: 100,
		TopCustomersLimit: 5,
		RecentEventsLimit: 10,
		CacheTTL:          time.Minute,
	}
}

// DashboardService composes the tenant dashboard from concurrent reads
// over customers, products, orders and events.
type DashboardService struct {
	customerRepo commerce.CustomerRepository
	productRepo  commerce.ProductRepository
	orderRepo    commerce.OrderRepository
	eventRepo    analytics.EventRepository
	cache        cache.DashboardCache
	config       DashboardConfig
	logger       *zap.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	customerRepo commerce.CustomerRepository,
	productRepo commerce.ProductRepository,
	orderRepo commerce.OrderRepository,
	eventRepo analytics.EventRepository,
	dashCache cache.DashboardCache,
	config DashboardConfig,
	log *zap.Logger,
) *DashboardService {
	if dashCache == nil {
		dashCache = cache.NewNoopDashboardCache()
	}
	return &DashboardService{
		customerRepo: customerRepo,
		productRepo:  productRepo,
		orderRepo:    orderRepo,
		eventRepo:    eventRepo,
		cache:        dashCache,
		config:       config,
		logger:       log,
	}
}

// GetDashboard composes the dashboard for a tenant and date range. All
// reads run concurrently and any failure fails the whole request, the
// dashboard never returns partial results.
func (s *DashboardService) GetDashboard(ctx context.Context, input DashboardInput) (*Dashboard, error) {
	from, to, err := parseRange(input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}

	if payload, hit, cacheErr := s.cache.Get(ctx, input.TenantID, from, to); cacheErr != nil {
		s.logger.Warn("Dashboard cache read failed", zap.Error(cacheErr))
	} else if hit {
		var cached Dashboard
		if unmarshalErr := json.Unmarshal(payload, &cached); unmarshalErr == nil {
			return &cached, nil
		}
		s.logger.Warn("Discarding unreadable dashboard cache entry", zap.String("tenant_id", input.TenantID.String()))
	}

	var (
		customerCount int64
		productCount  int64
		orderCount    int64
		recentOrders  []commerce.Order
		topCustomers  []commerce.Customer
		recentEvents  []analytics.CustomEvent
		eventStats    []analytics.EventTypeCount
	)

	var wg sync.WaitGroup
	errs := make([]error, 7)
	run := func(slot int, query func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[slot] = query()
		}()
	}

	run(0, func() (err error) {
		customerCount, err = s.customerRepo.CountByTenant(ctx, input.TenantID)
		return
	})
	run(1, func() (err error) {
		productCount, err = s.productRepo.CountByTenant(ctx, input.TenantID)
		return
	})
	run(2, func() (err error) {
		orderCount, err = s.orderRepo.CountInRange(ctx, input.TenantID, from, to)
		return
	})
	run(3, func() (err error) {
		recentOrders, err = s.orderRepo.RecentInRange(ctx, input.TenantID, from, to, s.config.RecentOrdersLimit)
		return
	})
	run(4, func() (err error) {
		topCustomers, err = s.customerRepo.TopBySpend(ctx, input.TenantID, s.config.TopCustomersLimit)
		return
	})
	run(5, func() (err error) {
		recentEvents, err = s.eventRepo.Recent(ctx, input.TenantID, s.config.RecentEventsLimit)
		return
	})
	run(6, func() (err error) {
		// The histogram is tenant-wide on purpose, it ignores the date
		// filter
		eventStats, err = s.eventRepo.CountsByType(ctx, input.TenantID)
		return
	})
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			s.logger.Error("Dashboard query failed",
				zap.String("tenant_id", input.TenantID.String()),
				zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load dashboard")
		}
	}

	dashboard := &Dashboard{
		TotalCustomers: customerCount,
		TotalProducts:  productCount,
		TotalOrders:    orderCount,
		RecentOrders:   orderSummaries(recentOrders),
		TopCustomers:   customerSummaries(topCustomers),
		RecentEvents:   eventSummaries(recentEvents),
		EventStats:     eventStats,
	}

	// Revenue figures are folded from the bounded order sample, so for
	// tenants with more orders in range than the sample limit they
	// understate the true totals.
	dashboard.TotalRevenue, dashboard.OrdersByDate = foldOrders(recentOrders)
	if orderCount > 0 {
		dashboard.AverageOrderValue = dashboard.TotalRevenue.DivRound(decimal.NewFromInt(orderCount), 2)
	} else {
		dashboard.AverageOrderValue = decimal.Zero
	}

	s.store(ctx, input.TenantID, from, to, dashboard)

	return dashboard, nil
}

func (s *DashboardService) store(ctx context.Context, tenantID uuid.UUID, from, to time.Time, dashboard *Dashboard) {
	if s.config.CacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(dashboard)
	if err != nil {
		s.logger.Warn("Failed to marshal dashboard for caching", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, tenantID, from, to, payload, s.config.CacheTTL); err != nil {
		s.logger.Warn("Dashboard cache write failed", zap.Error(err))
	}
}

// parseRange turns the optional YYYY-MM-DD query params into an
// inclusive [from, to] range. The start is normalized to the first
// instant of its day and the end to the last millisecond of its day,
// both in local time.
func parseRange(startDate, endDate string) (time.Time, time.Time, error) {
	from := time.Unix(0, 0)
	to := endOfDay(time.Now())

	if startDate != "" {
		parsed, err := time.ParseInLocation(dateLayout, startDate, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, shared.NewDomainError("INVALID_DATE", "startDate must be YYYY-MM-DD")
		}
		from = parsed
	}
	if endDate != "" {
		parsed, err := time.ParseInLocation(dateLayout, endDate, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, shared.NewDomainError("INVALID_DATE", "endDate must be YYYY-MM-DD")
		}
		to = endOfDay(parsed)
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, shared.NewDomainError("INVALID_DATE", "endDate cannot be before startDate")
	}

	return from, to, nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// foldOrders computes the sample revenue total and the per-day buckets,
// oldest day first
func foldOrders(orders []commerce.Order) (decimal.Decimal, []DateBucket) {
	total := decimal.Zero
	buckets := make(map[string]*DateBucket)

	for i := range orders {
		total = total.Add(orders[i].TotalPrice)

		day := orders[i].OrderDate.In(time.Local).Format(dateLayout)
		bucket, ok := buckets[day]
		if !ok {
			bucket = &DateBucket{Date: day, Revenue: decimal.Zero}
			buckets[day] = bucket
		}
		bucket.Orders++
		bucket.Revenue = bucket.Revenue.Add(orders[i].TotalPrice)
	}

	days := make([]string, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Strings(days)

	result := make([]DateBucket, 0, len(days))
	for _, day := range days {
		result = append(result, *buckets[day])
	}
	return total, result
}

func orderSummaries(orders []commerce.Order) []OrderSummary {
	summaries := make([]OrderSummary, 0, len(orders))
	for i := range orders {
		summaries = append(summaries, OrderSummary{
			ID:             orders[i].ID,
			ShopifyOrderID: orders[i].ShopifyOrderID,
			OrderNumber:    orders[i].OrderNumber,
			TotalPrice:     orders[i].TotalPrice,
			Currency:       orders[i].Currency,
			OrderDate:      orders[i].OrderDate,
			ItemCount:      len(orders[i].Items),
		})
	}
	return summaries
}

func customerSummaries(customers []commerce.Customer) []CustomerSummary {
	summaries := make([]CustomerSummary, 0, len(customers))
	for i := range customers {
		summaries = append(summaries, CustomerSummary{
			ID:                customers[i].ID,
			ShopifyCustomerID: customers[i].ShopifyCustomerID,
			Name:              customers[i].DisplayName(),
			Email:             customers[i].Email,
			TotalSpent:        customers[i].TotalSpent,
			OrdersCount:       customers[i].OrdersCount,
		})
	}
	return summaries
}

func eventSummaries(events []analytics.CustomEvent) []EventSummary {
	summaries := make([]EventSummary, 0, len(events))
	for i := range events {
		summary := EventSummary{
			ID:         events[i].ID,
			EventType:  events[i].EventType,
			CustomerID: events[i].CustomerID,
			CreatedAt:  events[i].CreatedAt,
		}
		if c := events[i].Customer; c != nil {
			summary.Customer = &EventCustomer{
				ID:    c.ID,
				Name:  c.DisplayName(),
				Email: c.Email,
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
