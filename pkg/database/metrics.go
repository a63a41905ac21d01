package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStatsCollector exports pgxpool statistics as Prometheus metrics.
type PoolStatsCollector struct {
	stat    func() *pgxpool.Stat
	service string

	acquiredConns    *prometheus.Desc
	idleConns        *prometheus.Desc
	totalConns       *prometheus.Desc
	maxConns         *prometheus.Desc
	acquireCount     *prometheus.Desc
	acquireDuration  *prometheus.Desc
	canceledAcquires *prometheus.Desc
	emptyAcquires    *prometheus.Desc
}

// NewPoolStatsCollector returns a collector reading stats from pool.
func NewPoolStatsCollector(pool *pgxpool.Pool, service string) *PoolStatsCollector {
	c := newPoolStatsCollector(nil, service)
	if pool != nil {
		c.stat = pool.Stat
	}
	return c
}

func newPoolStatsCollector(stat func() *pgxpool.Stat, service string) *PoolStatsCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("db_pool_"+name, help, []string{"service"}, nil)
	}
	return &PoolStatsCollector{
		stat:             stat,
		service:          service,
		acquiredConns:    desc("acquired_connections", "Number of currently acquired connections"),
		idleConns:        desc("idle_connections", "Number of currently idle connections"),
		totalConns:       desc("total_connections", "Total number of connections in the pool"),
		maxConns:         desc("max_connections", "Maximum number of connections allowed"),
		acquireCount:     desc("acquire_count_total", "Total number of connection acquires"),
		acquireDuration:  desc("acquire_duration_seconds_total", "Total time spent acquiring connections in seconds"),
		canceledAcquires: desc("canceled_acquire_count_total", "Total number of canceled connection acquires"),
		emptyAcquires:    desc("empty_acquire_count_total", "Total number of acquires that had to wait for a connection"),
	}
}

func (c *PoolStatsCollector) descs() []*prometheus.Desc {
	return []*prometheus.Desc{
		c.acquiredConns, c.idleConns, c.totalConns, c.maxConns,
		c.acquireCount, c.acquireDuration, c.canceledAcquires, c.emptyAcquires,
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs() {
		ch <- d
	}
}

// Collect implements prometheus.Collector. It emits nothing when the
// collector has no pool attached.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	if c.stat == nil {
		return
	}
	s := c.stat()

	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, c.service)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, c.service)
	}

	gauge(c.acquiredConns, float64(s.AcquiredConns()))
	gauge(c.idleConns, float64(s.IdleConns()))
	gauge(c.totalConns, float64(s.TotalConns()))
	gauge(c.maxConns, float64(s.MaxConns()))
	counter(c.acquireCount, float64(s.AcquireCount()))
	counter(c.acquireDuration, s.AcquireDuration().Seconds())
	counter(c.canceledAcquires, float64(s.CanceledAcquireCount()))
	counter(c.emptyAcquires, float64(s.EmptyAcquireCount()))
}

// RegisterPoolMetrics registers a pool collector with reg.
func RegisterPoolMetrics(reg prometheus.Registerer, pool *pgxpool.Pool, service string) error {
	return reg.Register(NewPoolStatsCollector(pool, service))
}
