package ledger

import (
	"errors"

	"github.com/iulianpascalau/crosschain-analytics/services/analytics/common"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "crosschain"
	metricsSubsystem = "ledger"
)

// instrumentation counts ledger activity. A nil *instrumentation is valid and records nothing
type instrumentation struct {
	appended *prometheus.CounterVec
	rejected prometheus.Counter
	evicted  prometheus.Counter
	clears   prometheus.Counter
	size     prometheus.Gauge
}

func newInstrumentation(registerer prometheus.Registerer, backend string) (*instrumentation, error) {
	if registerer == nil {
		return nil, nil
	}

	constLabels := prometheus.Labels{"backend": backend}
	inst := &instrumentation{
		appended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Subsystem:   metricsSubsystem,
			Name:        "appended_total",
			Help:        "Number of records appended to the ledger",
			ConstLabels: constLabels,
		}, []string{"method"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Subsystem:   metricsSubsystem,
			Name:        "rejected_total",
			Help:        "Number of records rejected by validation",
			ConstLabels: constLabels,
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Subsystem:   metricsSubsystem,
			Name:        "evicted_total",
			Help:        "Number of records evicted to keep the ledger within capacity",
			ConstLabels: constLabels,
		}),
		clears: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Subsystem:   metricsSubsystem,
			Name:        "clears_total",
			Help:        "Number of clear operations",
			ConstLabels: constLabels,
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Subsystem:   metricsSubsystem,
			Name:        "size",
			Help:        "Current number of records held by the ledger",
			ConstLabels: constLabels,
		}),
	}

	collectors := []prometheus.Collector{inst.appended, inst.rejected, inst.evicted, inst.clears, inst.size}
	for _, collector := range collectors {
		err := registerer.Register(collector)
		if err == nil {
			continue
		}

		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		log.Debug("ledger collector already registered, reusing it", "backend", backend)
		inst.reuse(collector, already.ExistingCollector)
	}

	return inst, nil
}

func (inst *instrumentation) reuse(collector prometheus.Collector, existing prometheus.Collector) {
	switch collector {
	case inst.appended:
		inst.appended = existing.(*prometheus.CounterVec)
	case inst.rejected:
		inst.rejected = existing.(prometheus.Counter)
	case inst.evicted:
		inst.evicted = existing.(prometheus.Counter)
	case inst.clears:
		inst.clears = existing.(prometheus.Counter)
	case inst.size:
		inst.size = existing.(prometheus.Gauge)
	}
}

func (inst *instrumentation) recordAppend(method common.Method, evicted int, size int) {
	if inst == nil {
		return
	}

	inst.appended.WithLabelValues(string(method)).Inc()
	inst.evicted.Add(float64(evicted))
	inst.size.Set(float64(size))
}

func (inst *instrumentation) recordRejected() {
	if inst == nil {
		return
	}

	inst.rejected.Inc()
}

func (inst *instrumentation) recordClear() {
	if inst == nil {
		return
	}

	inst.clears.Inc()
	inst.size.Set(0)
}
