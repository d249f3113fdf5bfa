// Package metrics exposes a Prometheus registry and /metrics server, and turns
// observability.Observer events from the queue engine into counters and histograms.
//
//	m := metrics.NewMetrics(metrics.Config{Address: ":9090", ServiceName: "order-worker"})
//	go m.Server.ListenAndServe()
//
//	publisher := rabbit.NewPublisher(manager, cfg.Publisher).WithObserver(m)
package metrics
