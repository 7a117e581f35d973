package memodex

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation outcomes used as the "status" label.
const (
	statusOK          = "ok"
	statusInvalid     = "invalid"
	statusNotFound    = "not_found"
	statusUnavailable = "unavailable"
	statusRejected    = "rejected"
	statusError       = "error"
)

// statusOf maps an operation error onto a bounded label value.
func statusOf(err error) string {
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, ErrInvalidRequest):
		return statusInvalid
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrScrollExpired):
		return statusNotFound
	case errors.Is(err, ErrEngineUnavailable):
		return statusUnavailable
	case errors.Is(err, ErrBulkRejected):
		return statusRejected
	default:
		return statusError
	}
}

type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	bulkItems  *prometheus.CounterVec
	searchHits *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memodex",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "SDK operations by operation and outcome.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "memodex",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation latency in seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
		bulkItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memodex",
			Subsystem: "sdk",
			Name:      "bulk_items_total",
			Help:      "Memos submitted through BulkUpsert by item outcome.",
		}, []string{"result"}), // "ok" / "error"
		searchHits: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "memodex",
			Subsystem: "sdk",
			Name:      "search_total_hits",
			Help:      "Total matching memos reported per search.",
			Buckets:   []float64{0, 1, 10, 100, 1000, 10000},
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.bulkItems); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.searchHits); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers c, or swaps in the collector a second client
// already registered under the same name.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	var are prometheus.AlreadyRegisteredError
	switch {
	case err == nil:
		return nil
	case !errors.As(err, &are):
		return fmt.Errorf("memodex: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("memodex: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer records SDK operations to slog and prometheus. A nil observer
// and nil fields are no-ops.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// observe records one operation. attrs are extra slog key/value pairs.
func (o *observer) observe(op string, start time.Time, err error, attrs ...any) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	status := statusOf(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}

	args := append([]any{"op", op, "status", status, "duration", dur}, attrs...)
	switch status {
	case statusOK, statusNotFound, statusInvalid:
		// Outcomes caused by the caller, not the engine.
		if err != nil {
			args = append(args, "error", err)
		}
		o.logger.Debug("memodex operation", args...)
	default:
		o.logger.Warn("memodex operation failed", append(args, "error", err)...)
	}
}

// observeSearch records a search and the total it reported.
func (o *observer) observeSearch(op string, start time.Time, total int, err error) {
	if o == nil {
		return
	}
	if err == nil && o.metrics != nil {
		o.metrics.searchHits.WithLabelValues(op).Observe(float64(total))
	}
	if err != nil {
		o.observe(op, start, err)
		return
	}
	o.observe(op, start, nil, "total", total)
}

// observeBulk records a lenient bulk upsert. The operation counts as failed
// when any memo was rejected; item counters split the outcome per memo.
func (o *observer) observeBulk(op string, start time.Time, res BulkResult) {
	if o == nil {
		return
	}
	if o.metrics != nil {
		o.metrics.bulkItems.WithLabelValues("ok").Add(float64(res.Succeeded))
		o.metrics.bulkItems.WithLabelValues("error").Add(float64(res.Failed()))
	}

	var err error
	if res.Failed() > 0 {
		first := res.Errors[0]
		err = fmt.Errorf("%w: %d of %d memos, first at position %d (%s): %v",
			ErrBulkRejected, res.Failed(), res.Succeeded+res.Failed(), first.Position, first.ID, first.Err)
	}
	o.observe(op, start, err, "succeeded", res.Succeeded, "failed", res.Failed())
}
