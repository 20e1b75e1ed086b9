package event

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CustomEvent is a scheduled action delivered by the host.
type CustomEvent struct {
	Delay       time.Duration
	Name        string
	Description string
	Settings    string
}

func (e CustomEvent) String() string {
	return fmt.Sprintf("CustomEvent{delay=%v, name=%s, description=%q, settings=%q}", e.Delay, e.Name, e.Description, e.Settings)
}

var isoDuration = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?$`)

// ParseCustomEventLine parses "delay|name|settings", for instance
// "PT3S|heapdump|live=true". The name may carry a description in
// parentheses, "heapdump(after warmup)", and the settings part is optional.
// The delay is an ISO-8601 duration limited to hours, minutes and seconds.
func ParseCustomEventLine(line string) (CustomEvent, error) {
	parts := strings.SplitN(strings.TrimSpace(line), "|", 3)
	if len(parts) < 2 {
		return CustomEvent{}, fmt.Errorf("invalid event %q: expected delay|name[|settings]", line)
	}

	delay, err := ParseISODuration(strings.TrimSpace(parts[0]))
	if err != nil {
		return CustomEvent{}, fmt.Errorf("invalid event %q: %w", line, err)
	}

	name := strings.TrimSpace(parts[1])
	var description string
	if open := strings.Index(name, "("); open >= 0 && strings.HasSuffix(name, ")") {
		description = name[open+1 : len(name)-1]
		name = strings.TrimSpace(name[:open])
	}
	if name == "" {
		return CustomEvent{}, fmt.Errorf("invalid event %q: empty name", line)
	}

	event := CustomEvent{Delay: delay, Name: name, Description: description}
	if len(parts) == 3 {
		event.Settings = strings.TrimSpace(parts[2])
	}
	return event, nil
}

// ParseISODuration parses durations such as PT1H30M, PT45S or PT0.5S.
func ParseISODuration(s string) (time.Duration, error) {
	m := isoDuration.FindStringSubmatch(strings.ToUpper(s))
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "") {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", s)
	}

	var d time.Duration
	if m[1] != "" {
		h, _ := strconv.Atoi(m[1])
		d += time.Duration(h) * time.Hour
	}
	if m[2] != "" {
		minutes, _ := strconv.Atoi(m[2])
		d += time.Duration(minutes) * time.Minute
	}
	if m[3] != "" {
		sec, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid seconds in %q: %w", s, err)
		}
		d += time.Duration(sec * float64(time.Second))
	}
	return d, nil
}
