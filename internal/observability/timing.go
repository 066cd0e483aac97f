package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	servertiming "github.com/mitchellh/go-server-timing"
)

type dbTimerKey struct{}

// dbTimer sums the time spent in the database during one request. The sum is
// published as the "db" Server-Timing metric.
type dbTimer struct {
	header *servertiming.Header
	metric *servertiming.Metric
}

// Handler adds the Server-Timing header to every response written by next.
func Handler(next http.Handler) http.Handler {
	return servertiming.Middleware(next, nil)
}

// WithDBTimer attaches a database timer to ctx. It is a no-op outside Handler.
func WithDBTimer(ctx context.Context) context.Context {
	h := servertiming.FromContext(ctx)
	if h == nil {
		return ctx
	}
	m := h.NewMetric("db").WithDesc("database")
	return context.WithValue(ctx, dbTimerKey{}, &dbTimer{header: h, metric: m})
}

// AddDBTime adds d to the request's database metric, if ctx carries one.
func AddDBTime(ctx context.Context, d time.Duration) {
	if ctx == nil {
		return
	}
	t, ok := ctx.Value(dbTimerKey{}).(*dbTimer)
	if !ok {
		return
	}
	t.header.Lock()
	t.metric.Duration += d
	t.header.Unlock()
}

// DBTime reports the database time accumulated on ctx so far.
func DBTime(ctx context.Context) time.Duration {
	t, ok := ctx.Value(dbTimerKey{}).(*dbTimer)
	if !ok {
		return 0
	}
	t.header.Lock()
	defer t.header.Unlock()
	return t.metric.Duration
}

// DBTiming starts a database timer for each request.
func DBTiming() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithDBTimer(c.Request.Context()))
		c.Next()
	}
}
