package kafka

import "github.com/prometheus/client_golang/prometheus"

// ProducerMetrics counts publish outcomes per topic.
type ProducerMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewProducerMetrics creates the producer counters and registers them with reg.
func NewProducerMetrics(reg prometheus.Registerer) *ProducerMetrics {
	m := &ProducerMetrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_producer_messages_published_total",
			Help: "Total number of Kafka messages written successfully",
		}, []string{"topic", "event_type"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_producer_messages_failed_total",
			Help: "Total number of Kafka messages that could not be written",
		}, []string{"topic", "event_type"}),
	}
	reg.MustRegister(m.published, m.failed)
	return m
}

func (m *ProducerMetrics) observe(topic, eventType string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.failed.WithLabelValues(topic, eventType).Inc()
		return
	}
	m.published.WithLabelValues(topic, eventType).Inc()
}
