// Package download streams HTTP response bodies to writers.
package download

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/actuatorprobe/actuatorprobe/internal/transport"
	"github.com/actuatorprobe/actuatorprobe/pkg/errors"
)

// Getter performs a GET request. *transport.Transport satisfies it.
type Getter interface {
	Get(ctx context.Context, url string, headers map[string]string) (*transport.Response, error)
}

// Downloader copies one response body into a writer. It never retries: a
// partially written file must not be appended to by a second attempt.
type Downloader struct {
	getter Getter
}

// New creates a Downloader on top of getter.
func New(getter Getter) *Downloader {
	return &Downloader{getter: getter}
}

// Download issues a single GET for url and copies the body into w. Both the
// response body and w are closed on every return path. It returns the
// number of bytes copied.
//
// A non-200 response is reported as UNEXPECTED_STATUS and a response
// without a body as EMPTY_BODY; in both cases w is closed untouched.
func (d *Downloader) Download(ctx context.Context, url string, headers map[string]string, w io.WriteCloser) (n int64, err error) {
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = errors.NewError(errors.ErrCodeTransportFailure,
				fmt.Sprintf("closing output of %s failed", url)).WithCause(closeErr).WithComponent("download")
		}
	}()

	resp, err := d.getter.Get(ctx, url, headers)
	if err != nil {
		return 0, err
	}
	defer resp.Close()

	if resp.StatusCode != 200 {
		return 0, errors.NewUnexpectedStatus(resp.StatusCode, resp.Status).
			WithComponent("download").WithDetail("url", url)
	}
	if resp.Body == nil {
		return 0, errors.NewError(errors.ErrCodeEmptyBody,
			fmt.Sprintf("no body in response from %s", url)).WithComponent("download")
	}

	n, err = io.Copy(w, resp.Body)
	if err != nil {
		return n, errors.NewTransportFailure(fmt.Sprintf("copying body of %s failed after %d bytes", url, n), err).
			WithComponent("download")
	}
	return n, nil
}

// FileWriter is a buffered file writer whose Close flushes the buffer and
// syncs the file before closing it.
type FileWriter struct {
	file   *os.File
	buf    *bufio.Writer
	closed bool
}

// CreateFile creates (or truncates) the file at path.
func CreateFile(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: f, buf: bufio.NewWriterSize(f, 64*1024)}, nil
}

// Name returns the path of the underlying file.
func (fw *FileWriter) Name() string {
	return fw.file.Name()
}

func (fw *FileWriter) Write(p []byte) (int, error) {
	return fw.buf.Write(p)
}

// Close is idempotent. The file is closed even if flushing fails.
func (fw *FileWriter) Close() error {
	if fw.closed {
		return nil
	}
	fw.closed = true

	flushErr := fw.buf.Flush()
	syncErr := fw.file.Sync()
	closeErr := fw.file.Close()

	switch {
	case flushErr != nil:
		return flushErr
	case syncErr != nil:
		return syncErr
	default:
		return closeErr
	}
}
