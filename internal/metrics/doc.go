/*
Package metrics exposes Prometheus metrics for actuatorprobe.

The Collector keeps its own registry, so several adapters in one process do
not collide on metric registration. The following series are recorded, all
prefixed with the configured namespace:

	actuator_requests_total{endpoint,outcome}
	actuator_request_duration_seconds{endpoint}
	actuator_retries_total{endpoint}
	dumps_total{kind,outcome}
	dump_bytes_total{kind}
	bus_messages_total{kind}

Every recording method is safe to call on a nil or disabled Collector:

	var collector *metrics.Collector // metrics off
	collector.RecordDump("heapdump", time.Second, 1024, true) // no-op

To serve the registry alongside a health endpoint:

	collector, err := metrics.NewCollector(&metrics.Config{
		Enabled:   true,
		Address:   ":9090",
		Path:      "/metrics",
		Namespace: "actuatorprobe",
	})
	if err != nil {
		return err
	}
	if err := collector.Start(ctx); err != nil {
		return err
	}
	defer collector.Stop(ctx)
*/
package metrics
