package actuator

import (
	"fmt"
	"strings"
	"time"
)

// DumpKind identifies one of the dump endpoints.
type DumpKind string

const (
	HeapDump   DumpKind = "heapdump"
	ThreadDump DumpKind = "threaddump"
)

// Extension returns the file extension used for the dump kind.
func (k DumpKind) Extension() string {
	if k == HeapDump {
		return "hprof"
	}
	return "txt"
}

// FileTimestamp formats t as yyyyMMddTHHmmssSSS in t's location.
func FileTimestamp(t time.Time) string {
	return fmt.Sprintf("%s%03d", t.Format("20060102T150405"), t.Nanosecond()/int(time.Millisecond))
}

// DumpFileName returns "<kind>-<fileID>-<timestamp>.<ext>".
func DumpFileName(kind DumpKind, fileID string, t time.Time) string {
	return string(kind) + "-" + fileID + "-" + FileTimestamp(t) + "." + kind.Extension()
}

var fileNameReplacer = strings.NewReplacer(
	":", "_",
	"\\", "_",
	"/", "_",
	"*", "_",
	"?", "_",
	"|", "_",
	"<", "_",
	">", "_",
)

// SanitizeFileName replaces the characters :\/*?|<> with an underscore.
func SanitizeFileName(name string) string {
	return fileNameReplacer.Replace(name)
}

// UniqueFileID combines the test run id and the comma separated tags into an
// id usable in a file name. Without tags the test run id is returned as is.
func UniqueFileID(testRunID, tags string) string {
	if tags == "" {
		return testRunID
	}
	return SanitizeFileName(testRunID + "-" + strings.ReplaceAll(tags, ",", "-"))
}
