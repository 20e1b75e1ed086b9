/*
Package event contains the lifecycle adapter that attaches actuatorprobe to a
load test run.

The host drives an Adapter through four callbacks, always one at a time:

	BeforeTest   publish the test-run config and the "Go!" sentinel
	KeepAlive    periodic, logged only
	CustomEvent  heapdump or threaddump
	AfterTest    logged only

BeforeTest sends, in this order: the context metadata entries sorted by key,
the requested actuator env properties (JVM option variables expanded), the
build version when /info has one, and the sentinel. Each entry is a
test-run-config message published under "SpringBootEvent-<name>" with the
combined tags.

A failing actuator never stops the test run. CustomEvent only returns an
error when the dump directory is missing, not a directory, or not writable.
*/
package event
