package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/demoplan/demoplan/pkg/logger"
)

// poolMetrics exports pgxpool statistics as prometheus gauges. Collection
// reads pool.Stat() on scrape instead of sampling on a timer.
type poolMetrics struct {
	pool *pgxpool.Pool

	acquiredConns *prometheus.Desc
	idleConns     *prometheus.Desc
	totalConns    *prometheus.Desc
	maxConns      *prometheus.Desc
	acquireCount  *prometheus.Desc
	emptyAcquires *prometheus.Desc
}

func newPoolMetrics(ctx context.Context, pool *pgxpool.Pool) *poolMetrics {
	m := &poolMetrics{
		pool: pool,
		acquiredConns: prometheus.NewDesc(
			"demoplan_db_pool_acquired_conns", "Connections currently checked out of the pool.", nil, nil),
		idleConns: prometheus.NewDesc(
			"demoplan_db_pool_idle_conns", "Idle connections in the pool.", nil, nil),
		totalConns: prometheus.NewDesc(
			"demoplan_db_pool_total_conns", "Total connections held by the pool.", nil, nil),
		maxConns: prometheus.NewDesc(
			"demoplan_db_pool_max_conns", "Configured pool ceiling.", nil, nil),
		acquireCount: prometheus.NewDesc(
			"demoplan_db_pool_acquires_total", "Cumulative successful acquires.", nil, nil),
		emptyAcquires: prometheus.NewDesc(
			"demoplan_db_pool_empty_acquires_total", "Cumulative acquires that had to wait for a connection.", nil, nil),
	}
	if err := prometheus.Register(m); err != nil {
		logger.FromContext(ctx).Warn("Postgres pool metrics not registered", "error", err)
		return nil
	}
	return m
}

func (m *poolMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.acquiredConns
	ch <- m.idleConns
	ch <- m.totalConns
	ch <- m.maxConns
	ch <- m.acquireCount
	ch <- m.emptyAcquires
}

func (m *poolMetrics) Collect(ch chan<- prometheus.Metric) {
	stat := m.pool.Stat()
	ch <- prometheus.MustNewConstMetric(m.acquiredConns, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(m.idleConns, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(m.totalConns, prometheus.GaugeValue, float64(stat.TotalConns()))
	ch <- prometheus.MustNewConstMetric(m.maxConns, prometheus.GaugeValue, float64(stat.MaxConns()))
	ch <- prometheus.MustNewConstMetric(m.acquireCount, prometheus.CounterValue, float64(stat.AcquireCount()))
	ch <- prometheus.MustNewConstMetric(m.emptyAcquires, prometheus.CounterValue, float64(stat.EmptyAcquireCount()))
}

func (m *poolMetrics) unregister() {
	prometheus.Unregister(m)
}
