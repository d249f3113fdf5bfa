package main

import (
	"github.com/Aleph-Alpha/orderqueue/v1/logger"
	"github.com/Aleph-Alpha/orderqueue/v1/metrics"
	"github.com/Aleph-Alpha/orderqueue/v1/rabbit"
	"github.com/prometheus/client_golang/prometheus"
)

// brokerMetrics records every successful RabbitMQ connect and logs the
// reconnects.
type brokerMetrics struct {
	connects    *prometheus.CounterVec
	lastConnect *prometheus.GaugeVec
	log         logger.Logger
	count       func() int64
}

func newBrokerMetrics(m metrics.MetricsCollector, log logger.Logger, count func() int64) *brokerMetrics {
	return &brokerMetrics{
		connects:    m.CreateCounter("rabbitmq_connects_total", "Successful RabbitMQ connects, the first one included", nil),
		lastConnect: m.CreateGauge("rabbitmq_last_connect_timestamp_seconds", "Unix time of the last successful RabbitMQ connect", nil),
		log:         log,
		count:       count,
	}
}

func (b *brokerMetrics) connected() {
	b.connects.WithLabelValues().Inc()
	b.lastConnect.WithLabelValues().SetToCurrentTime()

	if n := b.count(); n > 1 {
		b.log.Warn("Reconnected to RabbitMQ", nil, map[string]interface{}{"connects": n})
	}
}

func registerBrokerMetrics(manager *rabbit.ConnectionManager, m metrics.MetricsCollector, log logger.Logger) {
	manager.OnConnected(newBrokerMetrics(m, log, manager.Connects).connected)
}
