package actuator

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"

	"github.com/actuatorprobe/actuatorprobe/internal/download"
	"github.com/actuatorprobe/actuatorprobe/internal/metrics"
	"github.com/actuatorprobe/actuatorprobe/pkg/errors"
	"github.com/actuatorprobe/actuatorprobe/pkg/retry"
	"github.com/actuatorprobe/actuatorprobe/pkg/utils"
)

// EmptyInfo is returned by QueryInfo when /info cannot be read.
const EmptyInfo = "{}"

// Client queries the actuator endpoints below one base URL.
type Client struct {
	baseURL    string
	getter     download.Getter
	downloader *download.Downloader
	retryer    *retry.Retryer
	logger     utils.Logger
	metrics    *metrics.Collector
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithRetryConfig replaces the default retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) {
		c.retryer = retry.New(cfg)
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger utils.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records requests, retries and dumps on collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithClock sets the time source used for dump file names.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a client for baseURL, e.g. http://host:8080/actuator.
// A trailing slash on baseURL is ignored.
func NewClient(baseURL string, getter download.Getter, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		getter:     getter,
		downloader: download.New(getter),
		retryer:    retry.New(retry.DefaultConfig()),
		logger:     utils.NewNopLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// QueryEnv returns, per property source in response order, a variable
// "<source>:<key>" for every property whose key is in envKeys. Any failure
// is logged and yields no variables.
func (c *Client) QueryEnv(ctx context.Context, envKeys []string) []Variable {
	body, err := c.fetch(ctx, "env")
	if err != nil {
		c.logger.Warnf("Cannot get actuator env: %v", err)
		return []Variable{}
	}

	vars, err := parseEnv(body, envKeys, c.logger)
	if err != nil {
		c.logger.Warnf("Cannot parse actuator env: %v", err)
		return []Variable{}
	}
	return vars
}

// QueryInfo returns the /info body verbatim, or "{}" on failure.
func (c *Client) QueryInfo(ctx context.Context) string {
	body, err := c.fetch(ctx, "info")
	if err != nil {
		c.logger.Warnf("Cannot get actuator info: %v", err)
		return EmptyInfo
	}
	return string(body)
}

// DumpResult describes a written dump file.
type DumpResult struct {
	Kind  DumpKind
	Path  string
	Bytes int64
}

// HeapDump streams /heapdump into dir/heapdump-<fileID>-<timestamp>.hprof.
// A "live" setting of true or false is passed on as query parameter; other
// settings are ignored.
func (c *Client) HeapDump(ctx context.Context, dir, fileID string, settings map[string]string) (*DumpResult, error) {
	endpoint := c.baseURL + "/heapdump"
	if live, ok := settings["live"]; ok {
		switch strings.ToLower(live) {
		case "true", "false":
			endpoint += "?" + url.Values{"live": []string{strings.ToLower(live)}}.Encode()
		default:
			c.logger.Warnf("Ignoring invalid heapdump setting live=%q", live)
		}
	}
	return c.dump(ctx, HeapDump, endpoint, nil, dir, fileID)
}

// ThreadDump streams /threaddump as plain text into
// dir/threaddump-<fileID>-<timestamp>.txt.
func (c *Client) ThreadDump(ctx context.Context, dir, fileID string) (*DumpResult, error) {
	headers := map[string]string{"Accept": "text/plain"}
	return c.dump(ctx, ThreadDump, c.baseURL+"/threaddump", headers, dir, fileID)
}

func (c *Client) dump(ctx context.Context, kind DumpKind, endpoint string, headers map[string]string, dir, fileID string) (*DumpResult, error) {
	path := filepath.Join(dir, DumpFileName(kind, fileID, c.now()))
	if err := utils.ValidatePathWithinBase(dir, path); err != nil {
		return nil, errors.NewError(errors.ErrCodeDumpPathInvalid,
			fmt.Sprintf("%s file name for id %q leaves dump dir %s", kind, fileID, dir)).
			WithCause(err).WithComponent("actuator").WithOperation(string(kind))
	}
	start := time.Now()

	w, err := download.CreateFile(path)
	if err != nil {
		c.metrics.RecordDump(string(kind), time.Since(start), 0, false)
		return nil, errors.NewActuatorClientFailure(fmt.Sprintf("cannot create %s file %s", kind, path), err).
			WithComponent("actuator").WithOperation(string(kind))
	}

	n, err := c.downloader.Download(ctx, endpoint, headers, w)
	c.metrics.RecordDump(string(kind), time.Since(start), n, err == nil)
	if err != nil {
		return nil, errors.NewActuatorClientFailure(fmt.Sprintf("%s to %s failed", kind, path), err).
			WithComponent("actuator").WithOperation(string(kind))
	}

	c.logger.Infof("Wrote %s to %s (%s)", kind, path, utils.FormatBytes(n))
	return &DumpResult{Kind: kind, Path: path, Bytes: n}, nil
}

// fetch GETs baseURL/endpoint with retries and returns the body of the
// first 200 response.
func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	target := c.baseURL + "/" + endpoint
	start := time.Now()

	retryer := c.retryer.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		c.metrics.RecordRetry(endpoint)
		c.logger.Warnf("Attempt %d of %d for %s failed, retrying in %v: %v",
			attempt, c.retryer.MaxAttempts(), target, delay, err)
	})

	var body []byte
	err := retryer.DoWithContext(ctx, func(ctx context.Context) error {
		resp, err := c.getter.Get(ctx, target, nil)
		if err != nil {
			return err
		}
		defer resp.Close()

		if resp.StatusCode != http.StatusOK {
			return errors.NewUnexpectedStatus(resp.StatusCode, resp.Status).WithDetail("url", target)
		}
		if resp.Body == nil {
			body = nil
			return nil
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.NewTransportFailure(fmt.Sprintf("reading body of %s failed", target), err)
		}
		body = data
		return nil
	})

	c.metrics.RecordRequest(endpoint, time.Since(start), err == nil)
	if err != nil {
		return nil, errors.NewActuatorClientFailure(fmt.Sprintf("GET %s failed", target), err).
			WithComponent("actuator").WithOperation(endpoint)
	}
	return body, nil
}

// parseEnv walks the propertySources of an /env response in document order.
// parseEnv collects the requested keys from every property source. Only an
// unreadable document fails as a whole; a source or property that cannot be
// read is logged and skipped.
func parseEnv(body []byte, envKeys []string, logger utils.Logger) ([]Variable, error) {
	wanted := make(map[string]struct{}, len(envKeys))
	for _, k := range envKeys {
		wanted[k] = struct{}{}
	}

	root, err := sonic.Get(body)
	if err == nil {
		err = root.LoadAll()
	}
	if err != nil {
		return nil, errors.NewError(errors.ErrCodeParseFailure, "invalid env json").WithCause(err)
	}

	sources := root.Get("propertySources")
	if !sources.Exists() {
		return nil, errors.NewError(errors.ErrCodeParseFailure, "env json has no propertySources")
	}
	iter, err := sources.Values()
	if err != nil {
		return nil, errors.NewError(errors.ErrCodeParseFailure, "propertySources is not an array").WithCause(err)
	}

	vars := []Variable{}
	var source ast.Node
	for iter.Next(&source) {
		name, err := stringField(&source, "name")
		if err != nil {
			logger.Warnf("Skipping property source without name: %v", err)
			continue
		}
		props := source.Get("properties")
		if !props.Exists() {
			continue
		}
		propIter, err := props.Properties()
		if err != nil {
			logger.Warnf("Skipping property source %s, properties is not an object: %v", name, err)
			continue
		}

		var pair ast.Pair
		for propIter.Next(&pair) {
			if _, ok := wanted[pair.Key]; !ok {
				continue
			}
			value, err := stringField(&pair.Value, "value")
			if err != nil {
				logger.Warnf("Cannot read value of %s:%s: %v", name, pair.Key, err)
				continue
			}
			vars = append(vars, Variable{Name: name + ":" + pair.Key, Value: value})
		}
	}
	return vars, nil
}

// stringField reads key of an object node as string. Numbers and booleans
// are rendered as in the document.
func stringField(node *ast.Node, key string) (string, error) {
	field := node.Get(key)
	if !field.Exists() {
		return "", fmt.Errorf("missing field %q", key)
	}
	return field.String()
}

// BuildVersion extracts build.version from an /info body. It reports false
// when build or build.version is absent; no other path is consulted.
func BuildVersion(info string) (string, bool, error) {
	if !strings.Contains(info, "version") {
		return "", false, nil
	}

	node, err := sonic.GetFromString(info, "build", "version")
	if stderrors.Is(err, ast.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewError(errors.ErrCodeParseFailure, "cannot retrieve version from info object").
			WithCause(err)
	}
	raw, err := node.Interface()
	if err != nil {
		return "", false, errors.NewError(errors.ErrCodeParseFailure, "cannot retrieve version from info object").
			WithCause(err)
	}
	version, ok := raw.(string)
	if !ok {
		return "", false, errors.NewError(errors.ErrCodeParseFailure,
			fmt.Sprintf("build.version is %T, not a string", raw))
	}
	return version, true, nil
}
