// Package observability traces database work and reports it in the Server-Timing header.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	TracerName = "it-inventory"

	gormSpanKey      = "inventory:gorm:span"
	gormStartTimeKey = "inventory:gorm:start"
	callbackPrefix   = "inventory"
)

// RegisterGORMCallbacks starts a span around every statement and adds its duration to the
// request's database timer, when the request has one.
func RegisterGORMCallbacks(db *gorm.DB, tp trace.TracerProvider) error {
	tracer := tp.Tracer(TracerName)

	cb := db.Callback()

	if err := cb.Query().Before("gorm:query").Register(callbackPrefix+":before_query", startSpan(tracer, "db.query")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register(callbackPrefix+":after_query", endSpan("SELECT")); err != nil {
		return err
	}

	if err := cb.Create().Before("gorm:create").Register(callbackPrefix+":before_create", startSpan(tracer, "db.create")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register(callbackPrefix+":after_create", endSpan("INSERT")); err != nil {
		return err
	}

	if err := cb.Update().Before("gorm:update").Register(callbackPrefix+":before_update", startSpan(tracer, "db.update")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register(callbackPrefix+":after_update", endSpan("UPDATE")); err != nil {
		return err
	}

	if err := cb.Delete().Before("gorm:delete").Register(callbackPrefix+":before_delete", startSpan(tracer, "db.delete")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register(callbackPrefix+":after_delete", endSpan("DELETE")); err != nil {
		return err
	}

	if err := cb.Row().Before("gorm:row").Register(callbackPrefix+":before_row", startSpan(tracer, "db.row")); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register(callbackPrefix+":after_row", endSpan("ROW")); err != nil {
		return err
	}

	if err := cb.Raw().Before("gorm:raw").Register(callbackPrefix+":before_raw", startSpan(tracer, "db.raw")); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register(callbackPrefix+":after_raw", endSpan("RAW"))
}

func startSpan(tracer trace.Tracer, name string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attribute.String("db.system", db.Dialector.Name())))
		db.Statement.Context = ctx
		db.InstanceSet(gormSpanKey, span)
		db.InstanceSet(gormStartTimeKey, time.Now())
	}
}

func endSpan(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if v, ok := db.InstanceGet(gormStartTimeKey); ok {
			if start, ok := v.(time.Time); ok {
				AddDBTime(db.Statement.Context, time.Since(start))
			}
		}

		v, ok := db.InstanceGet(gormSpanKey)
		if !ok {
			return
		}
		span, ok := v.(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(
			attribute.String("db.operation", operation),
			attribute.String("db.sql.table", db.Statement.Table),
			attribute.Int64("db.rows_affected", db.RowsAffected),
		)
		if db.Error != nil {
			span.RecordError(db.Error)
			span.SetStatus(codes.Error, db.Error.Error())
		}
	}
}
