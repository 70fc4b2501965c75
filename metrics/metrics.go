// Package metrics exports search statistics to Prometheus.
//
// A Collector implements wcsp.Observer, so it can be plugged into a solver:
//
//	s := wcsp.New(pb)
//	s.Observer = metrics.New(prometheus.DefaultRegisterer, pb.Name)
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/crillab/gowcsp/wcsp"
)

const (
	metricsNamespace = "gowcsp"
	searchSubsystem  = "search"
)

// Collector counts search events.
type Collector struct {
	// NodesTotal counts the branches explored by the search.
	NodesTotal prometheus.Counter

	// BacktracksTotal counts the branches that led to a contradiction.
	BacktracksTotal prometheus.Counter

	// SolutionsTotal counts the improvements of the upper bound.
	SolutionsTotal prometheus.Counter

	// UpperBound is the cost of the best solution found so far.
	UpperBound prometheus.Gauge

	// Depth is the depth of the current search node.
	Depth prometheus.Gauge
}

// New registers the search metrics of the given problem on reg.
// It panics if metrics with the same problem label are already registered.
func New(reg prometheus.Registerer, problem string) *Collector {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"problem": problem}
	return &Collector{
		NodesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Subsystem:   searchSubsystem,
			Name:        "nodes_total",
			Help:        "Total number of search nodes",
			ConstLabels: labels,
		}),
		BacktracksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Subsystem:   searchSubsystem,
			Name:        "backtracks_total",
			Help:        "Total number of backtracks",
			ConstLabels: labels,
		}),
		SolutionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Subsystem:   searchSubsystem,
			Name:        "solutions_total",
			Help:        "Total number of improving solutions",
			ConstLabels: labels,
		}),
		UpperBound: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Subsystem:   searchSubsystem,
			Name:        "upper_bound",
			Help:        "Cost of the best solution found so far",
			ConstLabels: labels,
		}),
		Depth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Subsystem:   searchSubsystem,
			Name:        "depth",
			Help:        "Depth of the current search node",
			ConstLabels: labels,
		}),
	}
}

// Node implements wcsp.Observer.
func (c *Collector) Node(depth int) {
	c.NodesTotal.Inc()
	c.Depth.Set(float64(depth))
}

// Backtrack implements wcsp.Observer.
func (c *Collector) Backtrack() {
	c.BacktracksTotal.Inc()
}

// Solution implements wcsp.Observer.
func (c *Collector) Solution(cost wcsp.Cost) {
	c.SolutionsTotal.Inc()
	c.UpperBound.Set(float64(cost))
}

var _ wcsp.Observer = (*Collector)(nil)
