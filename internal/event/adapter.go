package event

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/actuatorprobe/actuatorprobe/internal/actuator"
	"github.com/actuatorprobe/actuatorprobe/internal/bus"
	"github.com/actuatorprobe/actuatorprobe/internal/circuit"
	"github.com/actuatorprobe/actuatorprobe/internal/download"
	"github.com/actuatorprobe/actuatorprobe/internal/metrics"
	"github.com/actuatorprobe/actuatorprobe/internal/settings"
	"github.com/actuatorprobe/actuatorprobe/internal/transport"
	"github.com/actuatorprobe/actuatorprobe/pkg/errors"
	"github.com/actuatorprobe/actuatorprobe/pkg/utils"
)

// Custom event names handled by the adapter.
const (
	EventHeapDump   = "heapdump"
	EventThreadDump = "threaddump"
)

// DumpMirror copies a written dump file somewhere else.
type DumpMirror interface {
	Upload(ctx context.Context, path string) error
}

// Adapter translates test-run lifecycle callbacks into actuator calls and
// bus messages. The host calls its methods one at a time.
type Adapter struct {
	eventCtx Context
	bus      bus.Bus
	logger   utils.Logger
	metrics  *metrics.Collector
	mirror   DumpMirror
	// guards mirror; nil lets every upload through
	mirrorBreaker *circuit.Breaker

	getter        download.Getter
	clientOptions []actuator.Option

	// nil when no actuator base URL is configured
	client *actuator.Client

	resolveDumpDir func(string) (string, error)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger of the adapter and its actuator client.
func WithLogger(logger utils.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics records bus traffic and actuator calls on collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(a *Adapter) {
		a.metrics = collector
	}
}

// WithMirror uploads every successfully written dump through mirror.
func WithMirror(mirror DumpMirror) Option {
	return func(a *Adapter) {
		a.mirror = mirror
	}
}

// WithMirrorBreaker skips mirroring while breaker is open.
func WithMirrorBreaker(breaker *circuit.Breaker) Option {
	return func(a *Adapter) {
		a.mirrorBreaker = breaker
	}
}

// WithTransport replaces the default HTTP transport.
func WithTransport(getter download.Getter) Option {
	return func(a *Adapter) {
		a.getter = getter
	}
}

// WithClientOptions passes extra options to the actuator client.
func WithClientOptions(opts ...actuator.Option) Option {
	return func(a *Adapter) {
		a.clientOptions = append(a.clientOptions, opts...)
	}
}

// New creates an adapter for eventCtx publishing on b. The actuator client
// is created here when the context has a base URL.
func New(eventCtx Context, b bus.Bus, opts ...Option) *Adapter {
	a := &Adapter{
		eventCtx:       eventCtx.clone(),
		bus:            b,
		logger:         utils.NewNopLogger(),
		resolveDumpDir: utils.ResolveDumpDir,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.eventCtx.ActuatorBaseURL != "" {
		if a.getter == nil {
			a.getter = transport.New(transport.DefaultConfig())
		}
		clientOpts := append([]actuator.Option{
			actuator.WithLogger(a.logger),
			actuator.WithMetrics(a.metrics),
		}, a.clientOptions...)
		a.client = actuator.NewClient(a.eventCtx.ActuatorBaseURL, a.getter, clientOpts...)
	}

	logger := a.logger
	b.AddReceiver(func(m bus.Message) {
		logger.Debugf("Received message: %s", m)
	})

	return a
}

// Context returns a copy of the adapter's context.
func (a *Adapter) Context() Context {
	return a.eventCtx.clone()
}

// AllowedCustomEvents returns the custom event names the adapter acts on.
func (a *Adapter) AllowedCustomEvents() []string {
	return []string{EventHeapDump, EventThreadDump}
}

// BeforeTest publishes the test-run config: the context metadata, the
// selected actuator env properties with JVM options expanded, the build
// version, and finally the "Go!" sentinel.
func (a *Adapter) BeforeTest(ctx context.Context) {
	if !a.eventCtx.Enabled {
		a.logger.Debugf("Adapter %s is disabled, skipping before test", a.eventCtx.Name)
		return
	}

	a.logger.Infof("Fetching actuator values for [%s]", a.eventCtx.TestRunID)
	a.metrics.ResetMetrics()

	pluginName := a.eventCtx.PluginName()
	tags := a.eventCtx.CombinedTags()

	metadata := a.eventCtx.metadata()
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a.send(bus.NewTestRunConfig(pluginName, k, metadata[k], tags))
	}

	for _, v := range a.actuatorVariables(ctx) {
		a.send(bus.NewTestRunConfig(pluginName, v.Name, v.Value, tags))
	}

	a.send(bus.NewSentinel(pluginName))
}

func (a *Adapter) actuatorVariables(ctx context.Context) []actuator.Variable {
	if a.client == nil {
		return nil
	}

	a.logger.Debugf("Requested actuatorEnvProperties: %v", a.eventCtx.ActuatorEnvProperties)
	found := a.client.QueryEnv(ctx, a.eventCtx.ActuatorEnvProperties)
	a.logger.Debugf("Found actuator values: %v", found)

	variables := actuator.ExpandJavaArgs(found)

	info := a.client.QueryInfo(ctx)
	a.logger.Debugf("Application info: %s", info)

	version, ok, err := actuator.BuildVersion(info)
	if err != nil {
		a.logger.Warnf("cannot retrieve version from info object: %s (%v)", info, err)
	} else if ok {
		variables = append(variables, actuator.Variable{Name: "version", Value: version})
	}

	a.logger.Debugf("All processed actuator values: %v", variables)
	return variables
}

// KeepAlive is called periodically by the host while the test runs.
func (a *Adapter) KeepAlive(ctx context.Context) {
	a.logger.Debugf("Keep alive for %s", a.eventCtx.Name)
}

// CustomEvent runs a heap or thread dump. Unknown names are ignored with a
// warning. Failures are logged and not returned, except for an unusable
// dump directory, which is returned after logging so the host can stop
// scheduling dumps.
func (a *Adapter) CustomEvent(ctx context.Context, e CustomEvent) error {
	if !a.eventCtx.Enabled {
		a.logger.Debugf("Adapter %s is disabled, skipping %s", a.eventCtx.Name, e.Name)
		return nil
	}

	var err error
	switch e.Name {
	case EventHeapDump, EventThreadDump:
		err = a.dumpEvent(ctx, e)
	default:
		a.logger.Warnf("ignoring unknown event [%s]", e.Name)
		return nil
	}

	if err == nil {
		return nil
	}
	a.logger.Error(fmt.Sprintf("Failed to run custom event: %s", e.Name), map[string]interface{}{
		"error": err,
	})
	if isDumpPathError(err) {
		return err
	}
	return nil
}

// AfterTest is called once the test has finished.
func (a *Adapter) AfterTest(ctx context.Context) {
	a.logger.Infof("After test for [%s]", a.eventCtx.TestRunID)
}

func (a *Adapter) dumpEvent(ctx context.Context, e CustomEvent) error {
	a.logger.Infof("Start %s", e)

	eventSettings := settings.Parse(e.Settings)
	if len(eventSettings) > 0 {
		a.logger.Debugf("Settings for %s: %v", e.Name, eventSettings)
	}

	dir, err := a.resolveDumpDir(a.eventCtx.DumpPath)
	if err != nil {
		return err
	}

	fileID := actuator.UniqueFileID(a.eventCtx.TestRunID, a.eventCtx.Tags)

	if a.client == nil {
		return errors.NewError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("no actuatorBaseUrl configured, cannot run %s", e.Name))
	}

	var result *actuator.DumpResult
	if e.Name == EventHeapDump {
		a.logger.Infof("Heap dump for %s", fileID)
		result, err = a.client.HeapDump(ctx, dir, fileID, eventSettings)
	} else {
		a.logger.Infof("Thread dump for %s", fileID)
		result, err = a.client.ThreadDump(ctx, dir, fileID)
	}
	if err != nil {
		return err
	}

	if a.mirror != nil {
		a.mirrorDump(ctx, result.Path)
	}
	return nil
}

func (a *Adapter) mirrorDump(ctx context.Context, path string) {
	err := a.mirrorBreaker.Execute(ctx, func(ctx context.Context) error {
		return a.mirror.Upload(ctx, path)
	})
	switch {
	case stderrors.Is(err, circuit.ErrOpenState):
		a.logger.Warnf("Mirroring suspended after repeated failures, %s is only kept locally", path)
	case err != nil:
		a.logger.Warnf("Mirroring %s failed: %v", path, err)
	}
}

func (a *Adapter) send(msg bus.Message) {
	kind := "sentinel"
	if _, ok := msg.Key(); ok {
		kind = bus.MessageTypeTestRunConfig
	}
	a.metrics.RecordMessage(kind)
	a.bus.Send(msg)
}

func isDumpPathError(err error) bool {
	var probeErr *errors.ProbeError
	for err != nil && stderrors.As(err, &probeErr) {
		if errors.IsFatal(probeErr.Code) {
			return true
		}
		err = probeErr.Cause
	}
	return false
}
