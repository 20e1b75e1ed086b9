package actuator

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actuatorprobe/actuatorprobe/internal/metrics"
	"github.com/actuatorprobe/actuatorprobe/internal/transport"
	"github.com/actuatorprobe/actuatorprobe/pkg/errors"
	"github.com/actuatorprobe/actuatorprobe/pkg/retry"
)

const envBody = `{
  "activeProfiles": [],
  "propertySources": [
    {"name": "server.ports", "properties": {"local.server.port": {"value": 8080}}},
    {"name": "systemProperties", "properties": {
      "java.vendor": {"value": "Eclipse Adoptium"},
      "java.runtime.version": {"value": "17.0.3+7-LTS"}
    }},
    {"name": "systemEnvironment", "properties": {
      "USER": {"value": "pp", "origin": "System Environment Property \"USER\""}
    }}
  ]
}`

const infoBody = `{"build":{"version":"2.2.0-SNAPSHOT","artifact":"afterburner-java"}}`

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+msg)
}

func (l *recordingLogger) Debugf(format string, args ...interface{}) { l.add("DEBUG", fmt.Sprintf(format, args...)) }
func (l *recordingLogger) Infof(format string, args ...interface{})  { l.add("INFO", fmt.Sprintf(format, args...)) }
func (l *recordingLogger) Warnf(format string, args ...interface{})  { l.add("WARN", fmt.Sprintf(format, args...)) }
func (l *recordingLogger) Errorf(format string, args ...interface{}) { l.add("ERROR", fmt.Sprintf(format, args...)) }
func (l *recordingLogger) Error(message string, fields ...map[string]interface{}) {
	l.add("ERROR", message)
}

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.lines {
		if strings.HasPrefix(line, level+" ") {
			n++
		}
	}
	return n
}

// countingGetter fails every call with a transport error.
type countingGetter struct {
	calls atomic.Int32
}

func (g *countingGetter) Get(ctx context.Context, url string, headers map[string]string) (*transport.Response, error) {
	g.calls.Add(1)
	return nil, errors.NewTransportFailure("read timeout", context.DeadlineExceeded)
}

func fastRetry() Option {
	return WithRetryConfig(retry.Config{MaxAttempts: 3, Delay: time.Millisecond})
}

func newActuatorServer(t *testing.T, handlers map[string]http.HandlerFunc) (*httptest.Server, *sync.Map) {
	t.Helper()
	hits := &sync.Map{}
	mux := http.NewServeMux()
	for path, h := range handlers {
		path, h := path, h
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			n, _ := hits.LoadOrStore(path, new(atomic.Int32))
			n.(*atomic.Int32).Add(1)
			h(w, r)
		})
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, hits
}

func hitCount(hits *sync.Map, path string) int32 {
	n, ok := hits.Load(path)
	if !ok {
		return 0
	}
	return n.(*atomic.Int32).Load()
}

func TestQueryEnv_SelectsRequestedKeys(t *testing.T) {
	server, _ := newActuatorServer(t, map[string]http.HandlerFunc{
		"/actuator/env": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(envBody))
		},
	})

	client := NewClient(server.URL+"/actuator", transport.New(transport.DefaultConfig()), fastRetry())
	vars := client.QueryEnv(context.Background(), []string{"java.runtime.version", "USER", "doesNotExist"})

	assert.Equal(t, []Variable{
		{Name: "systemProperties:java.runtime.version", Value: "17.0.3+7-LTS"},
		{Name: "systemEnvironment:USER", Value: "pp"},
	}, vars)
}

func TestQueryEnv_KeepsDocumentOrder(t *testing.T) {
	server, _ := newActuatorServer(t, map[string]http.HandlerFunc{
		"/env": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(envBody))
		},
	})

	client := NewClient(server.URL+"/", transport.New(transport.DefaultConfig()), fastRetry())
	vars := client.QueryEnv(context.Background(), []string{"java.runtime.version", "local.server.port", "java.vendor"})

	assert.Equal(t, []Variable{
		{Name: "server.ports:local.server.port", Value: "8080"},
		{Name: "systemProperties:java.vendor", Value: "Eclipse Adoptium"},
		{Name: "systemProperties:java.runtime.version", Value: "17.0.3+7-LTS"},
	}, vars)
}

func TestQueryEnv_RetryableStatusExhausts(t *testing.T) {
	server, hits := newActuatorServer(t, map[string]http.HandlerFunc{
		"/env": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
	})

	logger := &recordingLogger{}
	client := NewClient(server.URL, transport.New(transport.DefaultConfig()), fastRetry(), WithLogger(logger))
	vars := client.QueryEnv(context.Background(), []string{"USER"})

	assert.Empty(t, vars)
	assert.NotNil(t, vars)
	assert.Equal(t, int32(3), hitCount(hits, "/env"))
	assert.Equal(t, 3, logger.count("WARN"), "two retry warnings and one final warning")
	assert.True(t, strings.HasPrefix(logger.lines[1], "WARN Attempt 2 of 3 for "+server.URL+"/env failed"), logger.lines[1])
}

func TestQueryEnv_NonRetryableStatus(t *testing.T) {
	server, hits := newActuatorServer(t, map[string]http.HandlerFunc{
		"/env": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
	})

	client := NewClient(server.URL, transport.New(transport.DefaultConfig()), fastRetry())
	vars := client.QueryEnv(context.Background(), []string{"USER"})

	assert.Empty(t, vars)
	assert.Equal(t, int32(1), hitCount(hits, "/env"))
}

func TestQueryEnv_RecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server, _ := newActuatorServer(t, map[string]http.HandlerFunc{
		"/env": func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(envBody))
		},
	})

	client := NewClient(server.URL, transport.New(transport.DefaultConfig()), fastRetry())
	vars := client.QueryEnv(context.Background(), []string{"USER"})

	assert.Equal(t, []Variable{{Name: "systemEnvironment:USER", Value: "pp"}}, vars)
	assert.Equal(t, int32(2), calls.Load())
}

func TestQueryEnv_MalformedJSON(t *testing.T) {
	tests := map[string]string{
		"not json":             `{"propertySources": [`,
		"no property sources":  `{"activeProfiles": []}`,
		"sources not an array": `{"propertySources": {"name": "x"}}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			server, hits := newActuatorServer(t, map[string]http.HandlerFunc{
				"/env": func(w http.ResponseWriter, r *http.Request) {
					_, _ = w.Write([]byte(body))
				},
			})

			logger := &recordingLogger{}
			client := NewClient(server.URL, transport.New(transport.DefaultConfig()), fastRetry(), WithLogger(logger))

			assert.Empty(t, client.QueryEnv(context.Background(), []string{"USER"}))
			assert.Equal(t, int32(1), hitCount(hits, "/env"), "parse failures are not retried")
			assert.Equal(t, 1, logger.count("WARN"))
		})
	}
}

func TestQueryEnv_SkipsUnreadableProperties(t *testing.T) {
	body := `{"propertySources": [
    {"name": "systemEnvironment", "properties": {
      "USER": {"value": "pp"},
      "JAVA_OPTS": {"value": {"nested": 1}}
    }},
    {"name": "applicationConfig", "properties": {"server.port": {"origin": "x"}}},
    {"properties": {"USER": {"value": "nameless"}}},
    {"name": "broken", "properties": ["USER"]},
    {"name": "commandLineArgs", "properties": {"USER": {"value": "cli"}}}
  ]}`
	server, hits := newActuatorServer(t, map[string]http.HandlerFunc{
		"/env": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		},
	})

	logger := &recordingLogger{}
	client := NewClient(server.URL, transport.New(transport.DefaultConfig()), fastRetry(), WithLogger(logger))

	vars := client.QueryEnv(context.Background(), []string{"USER", "JAVA_OPTS", "server.port"})

	assert.Equal(t, []Variable{
		{Name: "systemEnvironment:USER", Value: "pp"},
		{Name: "commandLineArgs:USER", Value: "cli"},
	}, vars)
	assert.Equal(t, int32(1), hitCount(hits, "/env"))
	assert.Equal(t, 4, logger.count("WARN"), "one warning per skipped property or source")
}

func TestTransportFailure_ThreeAttempts(t *testing.T) {
	getter := &countingGetter{}
	client := NewClient("http://localhost:1", getter, fastRetry())

	assert.Empty(t, client.QueryEnv(context.Background(), []string{"USER"}))
	assert.Equal(t, int32(3), getter.calls.Load())

	assert.Equal(t, "{}", client.QueryInfo(context.Background()))
	assert.Equal(t, int32(6), getter.calls.Load())
}

func TestQuery_CanceledDuringWait(t *testing.T) {
	getter := &countingGetter{}
	client := NewClient("http://localhost:1", getter,
		WithRetryConfig(retry.Config{MaxAttempts: 3, Delay: time.Minute}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	assert.Equal(t, EmptyInfo, client.QueryInfo(ctx))
	assert.Equal(t, int32(1), getter.calls.Load())
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestQueryInfo_ReturnsBodyVerbatim(t *testing.T) {
	server, _ := newActuatorServer(t, map[string]http.HandlerFunc{
		"/info": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(infoBody))
		},
	})

	client := NewClient(server.URL, transport.New(transport.DefaultConfig()), fastRetry())
	assert.Equal(t, infoBody, client.QueryInfo(context.Background()))
}

func TestQueryInfo_FailureReturnsEmptyObject(t *testing.T) {
	server, hits := newActuatorServer(t, map[string]http.HandlerFunc{
		"/info": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
	})

	client := NewClient(server.URL, transport.New(transport.DefaultConfig()), fastRetry())
	assert.Equal(t, "{}", client.QueryInfo(context.Background()))
	assert.Equal(t, int32(3), hitCount(hits, "/info"))
}

func TestBuildVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		info    string
		want    string
		found   bool
		wantErr bool
	}{
		{"build version", infoBody, "2.2.0-SNAPSHOT", true, false},
		{"no version mentioned", `{"app":{"name":"demo"}}`, "", false, false},
		{"empty object", "{}", "", false, false},
		{"version elsewhere", `{"app":{"version":"1.0"}}`, "", false, false},
		{"build without version", `{"build":{"name":"demo"},"app":{"version":"1.0"}}`, "", false, false},
		{"numeric version", `{"build":{"version":2}}`, "", false, true},
		{"malformed", `{"build":{"version":`, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := BuildVersion(tt.info)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.found, found)
			if tt.wantErr {
				assert.True(t, errors.HasCode(err, errors.ErrCodeParseFailure), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHeapDump_WritesNamedFile(t *testing.T) {
	var query string
	server, _ := newActuatorServer(t, map[string]http.HandlerFunc{
		"/heapdump": func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.RawQuery
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte("JAVA PROFILE 1.0.2"))
		},
	})

	dir := t.TempDir()
	clock := func() time.Time { return time.Date(2024, 5, 1, 12, 30, 45, 123000000, time.Local) }
	client := NewClient(server.URL, transport.New(transport.DefaultConfig()), WithClock(clock))

	result, err := client.HeapDump(context.Background(), dir, "run_7-after_burner-beta", nil)
	require.NoError(t, err)

	assert.Equal(t, HeapDump, result.Kind)
	assert.Equal(t, filepath.Join(dir, "heapdump-run_7-after_burner-beta-20240501T123045123.hprof"), result.Path)
	assert.Equal(t, int64(18), result.Bytes)
	assert.Empty(t, query)

	content, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, "JAVA PROFILE 1.0.2", string(content))
}

func TestHeapDump_LiveSetting(t *testing.T) {
	tests := []struct {
		live      string
		wantQuery string
	}{
		{"true", "live=true"},
		{"FALSE", "live=false"},
		{"maybe", ""},
	}

	for _, tt := range tests {
		t.Run(tt.live, func(t *testing.T) {
			var query string
			server, _ := newActuatorServer(t, map[string]http.HandlerFunc{
				"/heapdump": func(w http.ResponseWriter, r *http.Request) {
					query = r.URL.RawQuery
					_, _ = w.Write([]byte("x"))
				},
			})

			client := NewClient(server.URL, transport.New(transport.DefaultConfig()))
			_, err := client.HeapDump(context.Background(), t.TempDir(), "run", map[string]string{"live": tt.live})
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, query)
		})
	}
}

func TestThreadDump_AcceptsPlainText(t *testing.T) {
	var accept string
	server, _ := newActuatorServer(t, map[string]http.HandlerFunc{
		"/threaddump": func(w http.ResponseWriter, r *http.Request) {
			accept = r.Header.Get("Accept")
			_, _ = w.Write([]byte("\"main\" #1 prio=5 os_prio=0\n"))
		},
	})

	dir := t.TempDir()
	client := NewClient(server.URL, transport.New(transport.DefaultConfig()))
	result, err := client.ThreadDump(context.Background(), dir, "run1")
	require.NoError(t, err)

	assert.Equal(t, "text/plain", accept)
	assert.Regexp(t, `threaddump-run1-\d{8}T\d{9}\.txt$`, result.Path)

	content, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, "\"main\" #1 prio=5 os_prio=0\n", string(content))
}

func TestDump_FailureIsNotRetried(t *testing.T) {
	server, hits := newActuatorServer(t, map[string]http.HandlerFunc{
		"/heapdump": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
	})

	dir := t.TempDir()
	client := NewClient(server.URL, transport.New(transport.DefaultConfig()), fastRetry())
	_, err := client.HeapDump(context.Background(), dir, "run", nil)

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeActuatorClientFailure))
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnexpectedStatus))
	assert.Equal(t, int32(1), hitCount(hits, "/heapdump"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "the dump file is left behind empty")
	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestDump_MissingDirectory(t *testing.T) {
	client := NewClient("http://localhost:1", &countingGetter{})
	_, err := client.ThreadDump(context.Background(), filepath.Join(t.TempDir(), "missing"), "run")

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeActuatorClientFailure))
}

func TestDump_FileIDCannotLeaveDumpDir(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "a", "dumps")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	getter := &countingGetter{}
	client := NewClient("http://localhost:1", getter)
	_, err := client.ThreadDump(context.Background(), dir, "run/../../../escaped")

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeDumpPathInvalid), "got %v", err)
	assert.Zero(t, getter.calls.Load())

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Name())
}

func TestClient_RecordsMetrics(t *testing.T) {
	var calls atomic.Int32
	server, _ := newActuatorServer(t, map[string]http.HandlerFunc{
		"/env": func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusGatewayTimeout)
				return
			}
			_, _ = w.Write([]byte(envBody))
		},
		"/heapdump": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("0123456789"))
		},
	})

	collector, err := metrics.NewCollector(nil)
	require.NoError(t, err)

	client := NewClient(server.URL, transport.New(transport.DefaultConfig()), fastRetry(), WithMetrics(collector))
	client.QueryEnv(context.Background(), []string{"USER"})
	_, err = client.HeapDump(context.Background(), t.TempDir(), "run", nil)
	require.NoError(t, err)

	ops := collector.GetMetrics()
	require.Contains(t, ops, "env")
	assert.Equal(t, int64(1), ops["env"].Count)
	assert.Equal(t, int64(0), ops["env"].Errors)
	require.Contains(t, ops, "heapdump")
	assert.Equal(t, int64(10), ops["heapdump"].TotalBytes)
}
