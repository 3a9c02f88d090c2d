package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	loads      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	items      *prometheus.CounterVec
	probeCache *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geocatalog",
			Subsystem: "sdk",
			Name:      "loads_total",
			Help:      "Total SDK loads by group kind and status.",
		}, []string{"kind", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "geocatalog",
			Subsystem: "sdk",
			Name:      "load_duration_seconds",
			Help:      "SDK load duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"kind"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geocatalog",
			Subsystem: "sdk",
			Name:      "items_total",
			Help:      "Total items materialized by SDK loads.",
		}, []string{"kind"}),
		probeCache: newProbeCacheCounter(),
	}
	if err := registerOrReuse(reg, &m.loads); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.items); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.probeCache); err != nil {
		return nil, err
	}
	return m, nil
}

func newProbeCacheCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geocatalog",
		Subsystem: "sdk",
		Name:      "probe_cache_total",
		Help:      "SDK probe cache lookups by result.",
	}, []string{"result"})
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("geocatalog: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("geocatalog: register metric: %w", err)
	}
	return nil
}

// observer provides logging and metrics for SDK loads.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

// probeCacheCounter returns the registered counter, or an unregistered one when metrics are off.
func (o *observer) probeCacheCounter() *prometheus.CounterVec {
	if o.metrics != nil {
		return o.metrics.probeCache
	}
	return newProbeCacheCounter()
}

func (o *observer) observe(sum *Summary, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		o.metrics.loads.WithLabelValues(sum.Kind, sum.Status).Inc()
		o.metrics.duration.WithLabelValues(sum.Kind).Observe(dur.Seconds())
		o.metrics.items.WithLabelValues(sum.Kind).Add(float64(sum.Items))
	}

	if o.logger != nil {
		attrs := []any{
			"group", sum.Group,
			"load_id", sum.LoadID,
			"status", sum.Status,
			"records", sum.Records,
			"items", sum.Items,
			"duration", dur,
		}
		if err != nil {
			o.logger.Warn("load failed", append(attrs, "error", err)...)
		} else {
			o.logger.Debug("load completed", attrs...)
		}
	}
}
