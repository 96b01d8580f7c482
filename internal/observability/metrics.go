package observability

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// prometheusMetrics implements Metrics on a shared registry. Metric families
// are created lazily on first use, keyed by name plus the sorted label set.
type prometheusMetrics struct {
	registry  *prometheus.Registry
	namespace string
	component string

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

func newPrometheusMetrics(registry *prometheus.Registry, serviceName, component string) Metrics {
	return &prometheusMetrics{
		registry:   registry,
		namespace:  sanitizeMetricName(serviceName),
		component:  component,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

func (m *prometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	keys, values := splitTags(tags)

	m.mu.Lock()
	vec, ok := m.counters[m.familyKey(name, keys)]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      m.metricName(name) + "_total",
			Help:      fmt.Sprintf("Total %s events in %s", name, m.component),
		}, keys)
		m.registry.MustRegister(vec)
		m.counters[m.familyKey(name, keys)] = vec
	}
	m.mu.Unlock()

	vec.WithLabelValues(values...).Inc()
}

func (m *prometheusMetrics) RecordHistogram(name string, value float64, tags map[string]string) {
	keys, values := splitTags(tags)

	m.mu.Lock()
	vec, ok := m.histograms[m.familyKey(name, keys)]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.namespace,
			Name:      m.metricName(name),
			Help:      fmt.Sprintf("Distribution of %s in %s", name, m.component),
			Buckets:   prometheus.DefBuckets,
		}, keys)
		m.registry.MustRegister(vec)
		m.histograms[m.familyKey(name, keys)] = vec
	}
	m.mu.Unlock()

	vec.WithLabelValues(values...).Observe(value)
}

func (m *prometheusMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	keys, values := splitTags(tags)

	m.mu.Lock()
	vec, ok := m.gauges[m.familyKey(name, keys)]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: m.namespace,
			Name:      m.metricName(name),
			Help:      fmt.Sprintf("Current %s in %s", name, m.component),
		}, keys)
		m.registry.MustRegister(vec)
		m.gauges[m.familyKey(name, keys)] = vec
	}
	m.mu.Unlock()

	vec.WithLabelValues(values...).Set(value)
}

func (m *prometheusMetrics) metricName(name string) string {
	return sanitizeMetricName(m.component + "_" + name)
}

func (m *prometheusMetrics) familyKey(name string, keys []string) string {
	return name + "|" + strings.Join(keys, ",")
}

func splitTags(tags map[string]string) (keys []string, values []string) {
	keys = make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values = make([]string, len(keys))
	for i, k := range keys {
		values[i] = tags[k]
	}
	return keys, values
}

func sanitizeMetricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(name)
}
