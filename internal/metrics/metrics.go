// Package metrics exposes index and placement activity as Prometheus metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/nvandessel/cellgrid/internal/grid"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cellgrid"

// Observer implements grid.Observer and layout.Observer on top of
// Prometheus counters and histograms.
type Observer struct {
	registered   prometheus.Counter
	unregistered *prometheus.CounterVec
	snapshotTake *prometheus.CounterVec
	drainRuns    prometheus.Counter
	drained      prometheus.Counter
	drainedSum   prometheus.Counter
	placements   *prometheus.CounterVec
	placeLatency prometheus.Histogram
}

// NewObserver creates an Observer and registers its collectors with reg.
func NewObserver(reg prometheus.Registerer) *Observer {
	o := &Observer{
		registered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cells_registered_total",
			Help:      "Total cell registrations.",
		}),
		unregistered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cells_unregistered_total",
			Help:      "Total unregister calls, by whether a cell was removed.",
		}, []string{"removed"}),
		snapshotTake: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_takes_total",
			Help:      "Total snapshot takes, by whether a snapshot was found.",
		}, []string{"found"}),
		drainRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_drains_total",
			Help:      "Total pending drain runs.",
		}),
		drained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_drained_entries_total",
			Help:      "Total pending entries drained above threshold.",
		}),
		drainedSum: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_drained_amount_total",
			Help:      "Sum of drained pending amounts.",
		}),
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placements_total",
			Help:      "Total placements, by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		placeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "placement_duration_seconds",
			Help:      "Time spent computing a placement.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
	}

	reg.MustRegister(
		o.registered,
		o.unregistered,
		o.snapshotTake,
		o.drainRuns,
		o.drained,
		o.drainedSum,
		o.placements,
		o.placeLatency,
	)
	return o
}

func (o *Observer) OnRegister(grid.Coord) {
	o.registered.Inc()
}

func (o *Observer) OnUnregister(_ grid.Coord, removed bool) {
	o.unregistered.WithLabelValues(strconv.FormatBool(removed)).Inc()
}

func (o *Observer) OnSnapshotTaken(_ grid.Coord, found bool) {
	o.snapshotTake.WithLabelValues(strconv.FormatBool(found)).Inc()
}

func (o *Observer) OnDrain(_ float64, drained int, total float64) {
	o.drainRuns.Inc()
	o.drained.Add(float64(drained))
	// Counters reject negative increments; negative amounts are accepted by
	// the index but not summed here.
	if total > 0 {
		o.drainedSum.Add(total)
	}
}

func (o *Observer) OnPlace(strategy, outcome string, d time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	o.placements.WithLabelValues(strategy, outcome).Inc()
	o.placeLatency.Observe(d.Seconds())
}

// IndexCollector reports the current size and bounds of an Index at scrape
// time.
type IndexCollector struct {
	index *grid.Index

	cells     *prometheus.Desc
	snapshots *prometheus.Desc
	pending   *prometheus.Desc
	bounds    *prometheus.Desc
}

// NewIndexCollector creates a collector for ix. Register it with a
// prometheus.Registerer to expose it.
func NewIndexCollector(ix *grid.Index) *IndexCollector {
	return &IndexCollector{
		index: ix,
		cells: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "cells"),
			"Number of registered cells.", nil, nil),
		snapshots: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "snapshots"),
			"Number of dormant snapshots.", nil, nil),
		pending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "pending_entries"),
			"Number of coordinates with pending input.", nil, nil),
		bounds: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "bounds"),
			"Bounding box edge of registered cells. Absent when no cell is registered.",
			[]string{"edge"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *IndexCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cells
	ch <- c.snapshots
	ch <- c.pending
	ch <- c.bounds
}

// Collect implements prometheus.Collector.
func (c *IndexCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.index.Stats()
	ch <- prometheus.MustNewConstMetric(c.cells, prometheus.GaugeValue, float64(s.Cells))
	ch <- prometheus.MustNewConstMetric(c.snapshots, prometheus.GaugeValue, float64(s.Snapshots))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(s.Pending))

	if b := s.Bounds; b != nil {
		ch <- prometheus.MustNewConstMetric(c.bounds, prometheus.GaugeValue, float64(b.MinX), "min_x")
		ch <- prometheus.MustNewConstMetric(c.bounds, prometheus.GaugeValue, float64(b.MaxX), "max_x")
		ch <- prometheus.MustNewConstMetric(c.bounds, prometheus.GaugeValue, float64(b.MinY), "min_y")
		ch <- prometheus.MustNewConstMetric(c.bounds, prometheus.GaugeValue, float64(b.MaxY), "max_y")
	}
}
