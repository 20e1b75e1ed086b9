package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/actuatorprobe/actuatorprobe/internal/actuator"
	"github.com/actuatorprobe/actuatorprobe/internal/bus"
	"github.com/actuatorprobe/actuatorprobe/internal/circuit"
	"github.com/actuatorprobe/actuatorprobe/internal/config"
	"github.com/actuatorprobe/actuatorprobe/internal/event"
	"github.com/actuatorprobe/actuatorprobe/internal/metrics"
	"github.com/actuatorprobe/actuatorprobe/internal/storage/s3"
	"github.com/actuatorprobe/actuatorprobe/internal/transport"
)

type runOptions struct {
	configFile  string
	testRunID   string
	events      []string
	metricsAddr string
	quiet       bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one test-run lifecycle against an actuator",
		Long: `Run loads the configuration, publishes the test-run config gathered
from the actuator, then fires the given events one after another, each after
its delay. Events have the form delay|name|settings, for example

  actuatorprobe run --config probe.yaml \
    --event 'PT30S|heapdump|live=true' \
    --event 'PT1M|threaddump'

The delay of an event counts from the end of the previous one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runProbe(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "YAML configuration file")
	cmd.Flags().StringVar(&opts.testRunID, "test-run-id", "", "test run id (default: event.test_run_id or a generated UUID)")
	cmd.Flags().StringArrayVarP(&opts.events, "event", "e", nil, "custom event delay|name|settings (repeatable)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print the emitted messages")

	return cmd
}

func loadConfig(opts *runOptions) (*config.Configuration, []event.CustomEvent, error) {
	cfg := config.NewDefault()
	if opts.configFile != "" {
		if err := cfg.LoadFromFile(opts.configFile); err != nil {
			return nil, nil, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, nil, err
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = opts.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	events := make([]event.CustomEvent, 0, len(opts.events))
	for _, line := range opts.events {
		e, err := event.ParseCustomEventLine(line)
		if err != nil {
			return nil, nil, err
		}
		events = append(events, e)
	}
	return cfg, events, nil
}

func runProbe(ctx context.Context, out, logOut io.Writer, opts *runOptions) error {
	cfg, events, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := cfg.NewLogger(logOut)
	if err != nil {
		return err
	}

	collector, err := metrics.NewCollector(&cfg.Metrics)
	if err != nil {
		return err
	}
	if err := collector.Start(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = collector.Stop(shutdownCtx)
	}()

	adapterOpts := []event.Option{
		event.WithLogger(logger),
		event.WithMetrics(collector),
		event.WithTransport(transport.New(cfg.Transport)),
		event.WithClientOptions(actuator.WithRetryConfig(cfg.RetryPolicy())),
	}
	if cfg.Mirror.Enabled {
		cm, err := s3.NewClientManager(ctx, &cfg.Mirror, logger.WithComponent("mirror"))
		if err != nil {
			return fmt.Errorf("cannot set up dump mirror: %w", err)
		}
		breakerCfg := cfg.Mirror.Breaker
		breakerCfg.OnStateChange = func(name string, from, to circuit.State) {
			logger.Infof("Circuit breaker %s changed from %s to %s", name, from, to)
		}
		adapterOpts = append(adapterOpts,
			event.WithMirror(s3.NewMirror(cm)),
			event.WithMirrorBreaker(circuit.New("mirror", breakerCfg)))
	}

	b := bus.NewSimpleBus()
	adapter := event.New(cfg.ToContext(opts.testRunID), b, adapterOpts...)

	runErr := runLifecycle(ctx, adapter, events)

	if !opts.quiet {
		renderMessages(out, b.History())
		renderOperations(out, collector.GetMetrics())
	}
	return runErr
}

// runLifecycle drives the adapter through one test run. A failing custom
// event stops the remaining ones; AfterTest is called in any case.
func runLifecycle(ctx context.Context, adapter *event.Adapter, events []event.CustomEvent) error {
	defer adapter.AfterTest(ctx)

	adapter.BeforeTest(ctx)

	for _, e := range events {
		if err := wait(ctx, e.Delay); err != nil {
			return fmt.Errorf("test run interrupted before %s: %w", e.Name, err)
		}
		if err := adapter.CustomEvent(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
