// Package metrics implements types.Metrics on top of Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/krisalay/cachemanager/types"
)

var _ types.Metrics = (*Prometheus)(nil)

// Prometheus counts cache events. All counters live under one
// namespace and carry a constant "cache" label so several caches can share a
// registry.
type Prometheus struct {
	hits         prometheus.Counter
	misses       prometheus.Counter
	evictions    prometheus.Counter
	expirations  prometheus.Counter
	refreshes    prometheus.Counter
	loadFailures prometheus.Counter
}

// NewPrometheus creates the counters and registers them on reg.
// Registering the same cache name twice on one registry fails.
func NewPrometheus(reg prometheus.Registerer, namespace, cacheName string) (*Prometheus, error) {
	labels := prometheus.Labels{"cache": cacheName}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "cache",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	p := &Prometheus{
		hits:         counter("hits_total", "Reads served from memory."),
		misses:       counter("misses_total", "Reads that found no live entry."),
		evictions:    counter("evictions_total", "Entries removed to make room."),
		expirations:  counter("expirations_total", "Entries removed after their TTL."),
		refreshes:    counter("refreshes_total", "Entries reloaded before expiry."),
		loadFailures: counter("load_failures_total", "Backend loads that returned an error."),
	}

	for _, c := range p.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) collectors() []prometheus.Collector {
	return []prometheus.Collector{p.hits, p.misses, p.evictions, p.expirations, p.refreshes, p.loadFailures}
}

func (p *Prometheus) Hit()         { p.hits.Inc() }
func (p *Prometheus) Miss()        { p.misses.Inc() }
func (p *Prometheus) Eviction()    { p.evictions.Inc() }
func (p *Prometheus) Expire()      { p.expirations.Inc() }
func (p *Prometheus) Refresh()     { p.refreshes.Inc() }
func (p *Prometheus) LoadFailure() { p.loadFailures.Inc() }
