package event

import "strings"

// ActuatorTag is always part of the tags sent with test-run config.
const ActuatorTag = "actuator"

// Context is the per-test-run configuration the adapter consults. The
// adapter keeps its own copy, so changing a Context after New has no effect.
type Context struct {
	// Name identifies the adapter instance.
	Name    string
	Enabled bool
	// Tags is a comma separated list.
	Tags string
	// ActuatorBaseURL disables all HTTP activity when empty.
	ActuatorBaseURL       string
	ActuatorEnvProperties []string
	// DumpPath falls back to the OS temp directory when empty.
	DumpPath string
	// Deprecated: ActuatorPropPrefix is only added to the tags.
	ActuatorPropPrefix string
	TestRunID          string
}

func (c Context) clone() Context {
	c.ActuatorEnvProperties = append([]string(nil), c.ActuatorEnvProperties...)
	return c
}

// PluginName returns the name messages are published under.
func (c Context) PluginName() string {
	return "SpringBootEvent-" + c.Name
}

// CombinedTags returns the non-empty tags of the context, followed by the
// deprecated prefix and the actuator tag when not present yet.
func (c Context) CombinedTags() string {
	var tags []string
	for _, tag := range strings.Split(c.Tags, ",") {
		if tag != "" {
			tags = append(tags, tag)
		}
	}

	if c.ActuatorPropPrefix != "" && !contains(tags, c.ActuatorPropPrefix) {
		tags = append(tags, c.ActuatorPropPrefix)
	}
	if !contains(tags, ActuatorTag) {
		tags = append(tags, ActuatorTag)
	}
	return strings.Join(tags, ",")
}

// metadata returns the test-run config entries describing this context.
func (c Context) metadata() map[string]string {
	prefix := "event." + c.Name + "."
	return map[string]string{
		prefix + "dumpPath":              c.DumpPath,
		prefix + "actuatorEnvProperties": strings.Join(c.ActuatorEnvProperties, ","),
		prefix + "actuatorBaseUrl":       c.ActuatorBaseURL,
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
