package observability

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

const dbStartKey = "observability:query_start"

var dbInstrumentationOnce sync.Once

// InstrumentGormDB registers query callbacks that export statement counts,
// latency and connection pool utilization. Installed once per process.
func InstrumentGormDB(db *gorm.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	dbInstrumentationOnce.Do(func() {
		hook, err := newDBMetricsHook(db)
		if err != nil {
			logger.Warn("database observability instrumentation disabled", "error", err)
			return
		}
		if err := hook.register(db); err != nil {
			logger.Warn("database observability callbacks not registered", "error", err)
			return
		}
		logger.Info("database observability instrumentation enabled")
	})
}

type dbMetricsHook struct {
	queryTotal   metric.Int64Counter
	queryErrors  metric.Int64Counter
	queryLatency metric.Float64Histogram

	queryTotalAtomic atomic.Int64
	queryErrorAtomic atomic.Int64
	poolStatsReader  func() (inUse, maxOpen int)
}

func newDBMetricsHook(db *gorm.DB) (*dbMetricsHook, error) {
	meter := otel.Meter(meterName)

	queryTotal, err := meter.Int64Counter(
		"db.query.total",
		metric.WithDescription("Total number of SQL statements executed through gorm"),
	)
	if err != nil {
		return nil, err
	}
	queryErrors, err := meter.Int64Counter(
		"db.query.errors",
		metric.WithDescription("SQL statements that failed, excluding record-not-found"),
	)
	if err != nil {
		return nil, err
	}
	queryLatency, err := meter.Float64Histogram(
		"db.query.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of SQL statements in seconds"),
	)
	if err != nil {
		return nil, err
	}
	poolUtilization, err := meter.Float64ObservableGauge(
		"db.pool.utilization",
		metric.WithDescription("In-use connections divided by the pool limit"),
	)
	if err != nil {
		return nil, err
	}
	errorRate, err := meter.Float64ObservableGauge(
		"db.query.error_rate",
		metric.WithDescription("Failed statements divided by total statements"),
	)
	if err != nil {
		return nil, err
	}

	h := &dbMetricsHook{
		queryTotal:   queryTotal,
		queryErrors:  queryErrors,
		queryLatency: queryLatency,
		poolStatsReader: func() (int, int) {
			sqlDB, err := db.DB()
			if err != nil {
				return 0, 0
			}
			stats := sqlDB.Stats()
			return stats.InUse, stats.MaxOpenConnections
		},
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, observer metric.Observer) error {
		inUse, maxOpen := h.poolStatsReader()
		if maxOpen > 0 {
			observer.ObserveFloat64(poolUtilization, clampRatio(float64(inUse)/float64(maxOpen)))
		}
		total := h.queryTotalAtomic.Load()
		if total > 0 {
			observer.ObserveFloat64(errorRate, clampRatio(float64(h.queryErrorAtomic.Load())/float64(total)))
		}
		return nil
	}, poolUtilization, errorRate)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (h *dbMetricsHook) register(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("observability:before_create", h.before),
		cb.Create().After("gorm:create").Register("observability:after_create", h.after("create")),
		cb.Query().Before("gorm:query").Register("observability:before_query", h.before),
		cb.Query().After("gorm:query").Register("observability:after_query", h.after("query")),
		cb.Update().Before("gorm:update").Register("observability:before_update", h.before),
		cb.Update().After("gorm:update").Register("observability:after_update", h.after("update")),
		cb.Delete().Before("gorm:delete").Register("observability:before_delete", h.before),
		cb.Delete().After("gorm:delete").Register("observability:after_delete", h.after("delete")),
		cb.Row().Before("gorm:row").Register("observability:before_row", h.before),
		cb.Row().After("gorm:row").Register("observability:after_row", h.after("row")),
		cb.Raw().Before("gorm:raw").Register("observability:before_raw", h.before),
		cb.Raw().After("gorm:raw").Register("observability:after_raw", h.after("raw")),
	)
}

func (h *dbMetricsHook) before(tx *gorm.DB) {
	tx.InstanceSet(dbStartKey, time.Now())
}

func (h *dbMetricsHook) after(op string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		status := dbStatementStatus(tx.Error)
		attrs := metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("table", tx.Statement.Table),
			attribute.String("status", status),
		)

		h.queryTotalAtomic.Add(1)
		h.queryTotal.Add(ctx, 1, attrs)
		if status == "error" {
			h.queryErrorAtomic.Add(1)
			h.queryErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
		}
		if v, ok := tx.InstanceGet(dbStartKey); ok {
			if start, ok := v.(time.Time); ok {
				h.queryLatency.Record(ctx, time.Since(start).Seconds(), attrs)
			}
		}
	}
}

func dbStatementStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func clampRatio(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
