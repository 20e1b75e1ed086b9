package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/actuatorprobe/actuatorprobe/pkg/errors"
)

// tempDir is swapped in tests to simulate a host without a temp directory.
var tempDir = os.TempDir

// ResolveDumpDir returns the directory dump files are written to.
//
// A blank dumpPath falls back to the OS temporary directory; if that is
// unavailable too, a DUMP_PATH_UNAVAILABLE error is returned. Otherwise the
// path must exist, be a directory and be writable, or a DUMP_PATH_INVALID
// error names the violated condition.
//
// The check is meant to run per dump, so a directory created after start-up
// is accepted.
func ResolveDumpDir(dumpPath string) (string, error) {
	dir := dumpPath
	if strings.TrimSpace(dir) == "" {
		dir = tempDir()
		if strings.TrimSpace(dir) == "" {
			return "", errors.NewError(errors.ErrCodeDumpPathUnavailable,
				"no temporary directory found, define an explicit dumpPath in config")
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewError(errors.ErrCodeDumpPathInvalid,
				fmt.Sprintf("dir does not exist: %s", dir)).WithDetail("path", dir)
		}
		return "", errors.NewError(errors.ErrCodeDumpPathInvalid,
			fmt.Sprintf("cannot stat dir: %s", dir)).WithCause(err).WithDetail("path", dir)
	}
	if !info.IsDir() {
		return "", errors.NewError(errors.ErrCodeDumpPathInvalid,
			fmt.Sprintf("dir is not a directory: %s", dir)).WithDetail("path", dir)
	}
	if err := checkWritable(dir); err != nil {
		return "", errors.NewError(errors.ErrCodeDumpPathInvalid,
			fmt.Sprintf("dir is not writeable: %s", dir)).WithCause(err).WithDetail("path", dir)
	}

	return filepath.Clean(dir), nil
}

// checkWritable probes dir by creating and removing a scratch file.
func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".actuatorprobe-write-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	closeErr := f.Close()
	removeErr := os.Remove(name)
	if closeErr != nil {
		return closeErr
	}
	return removeErr
}

// ValidatePathWithinBase checks that path, absolute or relative to base,
// stays inside base once cleaned.
func ValidatePathWithinBase(base, path string) error {
	if base == "" {
		return fmt.Errorf("base path cannot be empty")
	}
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	cleanBase := filepath.Clean(base)
	full := filepath.Clean(path)
	if !filepath.IsAbs(full) {
		full = filepath.Join(cleanBase, full)
	}

	if full != cleanBase && !strings.HasPrefix(full, cleanBase+string(filepath.Separator)) {
		return fmt.Errorf("path %s is outside base directory %s", path, base)
	}
	return nil
}
