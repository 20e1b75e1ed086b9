package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/actuatorprobe/actuatorprobe/pkg/errors"
)

const (
	DefaultConnectTimeout = 2000 * time.Millisecond
	DefaultReadTimeout    = 5000 * time.Millisecond
	DefaultWriteTimeout   = 5000 * time.Millisecond
)

// Config holds the timeouts of the shared client.
type Config struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// DefaultConfig returns the default timeouts (2s connect, 5s read, 5s write).
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
		WriteTimeout:   DefaultWriteTimeout,
	}
}

// Doer executes a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is the result of a GET. Body is nil when the response carried no
// body; otherwise the caller must close it.
type Response struct {
	StatusCode int
	Status     string
	Body       io.ReadCloser
}

// Transport performs GET requests against absolute URLs.
type Transport struct {
	client Doer
}

// New creates a Transport backed by a pooled http.Client.
func New(cfg Config) *Transport {
	return NewWithDoer(NewHTTPClient(cfg))
}

// NewWithDoer creates a Transport that delegates to the given Doer.
func NewWithDoer(client Doer) *Transport {
	return &Transport{client: client}
}

// NewHTTPClient builds an http.Client whose connections enforce the
// configured connect, read and write timeouts.
func NewHTTPClient(cfg Config) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &deadlineConn{
				Conn:         conn,
				readTimeout:  cfg.ReadTimeout,
				writeTimeout: cfg.WriteTimeout,
			}, nil
		},
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: cfg.ReadTimeout,
	}

	return &http.Client{Transport: transport}
}

// Get issues a GET request with the given headers. The headers map is only
// read. A failure to reach the server or read the response head is reported
// as TRANSPORT_FAILURE.
func (t *Transport) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid request url: %s", url)).WithCause(err).WithComponent("transport")
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errors.NewTransportFailure(fmt.Sprintf("GET %s failed", url), err).
			WithComponent("transport")
	}

	var body io.ReadCloser
	if resp.Body != nil && resp.Body != http.NoBody {
		body = resp.Body
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}, nil
}

// Close releases the body, if any.
func (r *Response) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// deadlineConn refreshes the read or write deadline before every operation.
type deadlineConn struct {
	net.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if c.readTimeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	if c.writeTimeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(b)
}
