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

// DBTracingConfig controls gorm query tracing. Counter allocations run
// short transactions under row locks, so slow queries there directly
// translate into numbering latency and are worth flagging on the span.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bind variables in spans, dev only
	SlowQueryThresh time.Duration
}

// DBTracingPlugin registers otelgorm plus a slow-query callback on a
// gorm instance.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// RegisterOtelGorm installs the otelgorm plugin and the timing
// callbacks. A disabled config registers nothing.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.registerTimingCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

// registerTimingCallbacks hooks every gorm operation with a start-time
// marker and an after callback that annotates the active span.
func (p *DBTracingPlugin) registerTimingCallbacks(db *gorm.DB) error {
	before := func(db *gorm.DB) {
		if db.Statement.Context != nil {
			db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
		}
	}

	cb := db.Callback()
	for _, err := range []error{
		cb.Create().Before("gorm:create").Register("numbering_trace:before_create", before),
		cb.Query().Before("gorm:query").Register("numbering_trace:before_query", before),
		cb.Update().Before("gorm:update").Register("numbering_trace:before_update", before),
		cb.Delete().Before("gorm:delete").Register("numbering_trace:before_delete", before),
		cb.Row().Before("gorm:row").Register("numbering_trace:before_row", before),
		cb.Raw().Before("gorm:raw").Register("numbering_trace:before_raw", before),
		cb.Create().After("gorm:create").Register("numbering_trace:after_create", p.annotateSpan),
		cb.Query().After("gorm:query").Register("numbering_trace:after_query", p.annotateSpan),
		cb.Update().After("gorm:update").Register("numbering_trace:after_update", p.annotateSpan),
		cb.Delete().After("gorm:delete").Register("numbering_trace:after_delete", p.annotateSpan),
		cb.Row().After("gorm:row").Register("numbering_trace:after_row", p.annotateSpan),
		cb.Raw().After("gorm:raw").Register("numbering_trace:after_raw", p.annotateSpan),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// annotateSpan runs after each gorm operation and records row counts,
// errors, and slow-query events on the surrounding span.
func (p *DBTracingPlugin) annotateSpan(db *gorm.DB) {
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

	// Not-found is an expected outcome for counter lookups, not an error.
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if startTime, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		elapsed := time.Since(startTime)
		if elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
			))
		}
	}
}

type contextKey string

const queryStartTimeKey contextKey = "query_start_time"
