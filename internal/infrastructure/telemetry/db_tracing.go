// Package telemetry provides OpenTelemetry integration for distributed tracing.
package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled          bool          // Enable database tracing
	LogFullSQL       bool          // Include full SQL statements in spans, dev only
	SlowQueryThresh  time.Duration // Threshold for marking queries as slow
	DBSystem         string        // Database system name
	WithoutVariables bool          // Exclude query variables from the SQL statement
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:          false,
		LogFullSQL:       false,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "postgresql",
		WithoutVariables: true,
	}
}

// queryStartTimeKey is the context key for storing query start time.
type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// WithQueryStartTime returns a context with the query start time set.
// The slow query callback reads it to calculate elapsed time.
func WithQueryStartTime(ctx context.Context) context.Context {
	return context.WithValue(ctx, queryStartTimeKey, time.Now())
}

// registerGormCallbacks attaches before/after hooks to every GORM
// operation type. Either hook may be nil.
func registerGormCallbacks(db *gorm.DB, prefix string, before, after func(*gorm.DB)) error {
	if before != nil {
		if err := db.Callback().Create().Before("gorm:create").Register(prefix+":before_create", before); err != nil {
			return err
		}
		if err := db.Callback().Query().Before("gorm:query").Register(prefix+":before_query", before); err != nil {
			return err
		}
		if err := db.Callback().Update().Before("gorm:update").Register(prefix+":before_update", before); err != nil {
			return err
		}
		if err := db.Callback().Delete().Before("gorm:delete").Register(prefix+":before_delete", before); err != nil {
			return err
		}
		if err := db.Callback().Row().Before("gorm:row").Register(prefix+":before_row", before); err != nil {
			return err
		}
		if err := db.Callback().Raw().Before("gorm:raw").Register(prefix+":before_raw", before); err != nil {
			return err
		}
	}

	if after != nil {
		if err := db.Callback().Create().After("gorm:create").Register(prefix+":after_create", after); err != nil {
			return err
		}
		if err := db.Callback().Query().After("gorm:query").Register(prefix+":after_query", after); err != nil {
			return err
		}
		if err := db.Callback().Update().After("gorm:update").Register(prefix+":after_update", after); err != nil {
			return err
		}
		if err := db.Callback().Delete().After("gorm:delete").Register(prefix+":after_delete", after); err != nil {
			return err
		}
		if err := db.Callback().Row().After("gorm:row").Register(prefix+":after_row", after); err != nil {
			return err
		}
		if err := db.Callback().Raw().After("gorm:raw").Register(prefix+":after_raw", after); err != nil {
			return err
		}
	}

	return nil
}

// annotateSpan enriches the current span with rows affected, table name,
// errors, and slow query events.
func annotateSpan(db *gorm.DB, slowQueryThresh time.Duration) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}

	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	// ErrRecordNotFound is an expected outcome, not a span error
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if startTime, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		elapsed := time.Since(startTime)
		if elapsed > slowQueryThresh {
			span.SetAttributes(attribute.Bool("db.slow_query", true))
			span.SetAttributes(attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()))
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", slowQueryThresh.Milliseconds()),
			))
		}
	}
}

func setQueryStartTime(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

// DBTracingPlugin wraps the otelgorm plugin with slow query detection.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin with the given configuration.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{
		config: cfg,
		logger: logger,
	}
}

// RegisterOtelGorm registers the otelgorm plugin with the given GORM DB
// instance, along with callbacks for slow query detection and error marking.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(p.config.DBSystem),
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}

	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if err := registerGormCallbacks(db, "otel_timing", setQueryStartTime, nil); err != nil {
		return err
	}
	if err := registerGormCallbacks(db, "otel_slow_query", nil, p.slowQueryCallback); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)

	return nil
}

// slowQueryCallback runs after each database operation
func (p *DBTracingPlugin) slowQueryCallback(db *gorm.DB) {
	annotateSpan(db, p.config.SlowQueryThresh)
}

// DBTracingCallback provides standalone GORM callbacks that track query
// timing for slow query detection, without the otelgorm plugin.
type DBTracingCallback struct {
	slowQueryThresh time.Duration
}

// NewDBTracingCallback creates a new callback for tracking query timing.
func NewDBTracingCallback(slowQueryThresh time.Duration) *DBTracingCallback {
	return &DBTracingCallback{
		slowQueryThresh: slowQueryThresh,
	}
}

// BeforeCallback sets the query start time in context.
func (c *DBTracingCallback) BeforeCallback(db *gorm.DB) {
	setQueryStartTime(db)
}

// AfterCallback checks for slow queries and adds attributes to the span.
func (c *DBTracingCallback) AfterCallback(db *gorm.DB) {
	annotateSpan(db, c.slowQueryThresh)
}

// RegisterCallbacks registers the before and after callbacks on the GORM DB instance.
func (c *DBTracingCallback) RegisterCallbacks(db *gorm.DB) error {
	return registerGormCallbacks(db, "otel_timing", c.BeforeCallback, c.AfterCallback)
}
