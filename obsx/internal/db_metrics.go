package internal

import (
	"context"
	"database/sql"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"go.eggybyte.com/bindx/core/errors"
)

// SourceMeterName scopes the instruments of configuration source pools.
const SourceMeterName = "go.eggybyte.com/bindx/source"

// RegisterSourceDB observes the pool statistics of a database backing a SQL
// configuration loader. Values are read from sql.DBStats on every collection.
func RegisterSourceDB(name string, db *sql.DB, mp metric.MeterProvider) error {
	if db == nil {
		return errors.New(errors.CodeInvalidArgument, "database is nil")
	}

	meter := mp.Meter(SourceMeterName)
	attrs := metric.WithAttributes(attribute.String("source", name))

	open, err := meter.Int64ObservableGauge("bindx_source_db_open_connections",
		metric.WithDescription("Established connections of a SQL configuration source, in use and idle."))
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "obsx.RegisterSourceDB", err)
	}
	inUse, err := meter.Int64ObservableGauge("bindx_source_db_in_use",
		metric.WithDescription("Connections of a SQL configuration source currently in use."))
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "obsx.RegisterSourceDB", err)
	}
	waits, err := meter.Int64ObservableCounter("bindx_source_db_wait_count_total",
		metric.WithDescription("Connections a SQL configuration source waited for."))
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "obsx.RegisterSourceDB", err)
	}
	waited, err := meter.Float64ObservableCounter("bindx_source_db_wait_seconds_total",
		metric.WithDescription("Time a SQL configuration source blocked waiting for connections."),
		metric.WithUnit("s"))
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "obsx.RegisterSourceDB", err)
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := db.Stats()
		o.ObserveInt64(open, int64(stats.OpenConnections), attrs)
		o.ObserveInt64(inUse, int64(stats.InUse), attrs)
		o.ObserveInt64(waits, stats.WaitCount, attrs)
		o.ObserveFloat64(waited, stats.WaitDuration.Seconds(), attrs)
		return nil
	}, open, inUse, waits, waited)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "obsx.RegisterSourceDB", err)
	}
	return nil
}
