package actuator

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestExpandJavaArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []Variable
		want []Variable
	}{
		{
			name: "heap options replace the original",
			in: []Variable{
				{Name: "JAVA_OPTS", Value: "-Xms1g -Xmx2g"},
				{Name: "anything", Value: "is-it-present"},
			},
			want: []Variable{
				{Name: "JAVA_OPTS.jvmArg.Xms", Value: "1g"},
				{Name: "JAVA_OPTS.jvmArg.Xmx", Value: "2g"},
				{Name: "anything", Value: "is-it-present"},
			},
		},
		{
			name: "expansion stays in place",
			in: []Variable{
				{Name: "systemProperties:java.version", Value: "17"},
				{Name: "systemEnvironment:JAVA_TOOL_OPTIONS", Value: "-Dfile.encoding=UTF-8 -XX:+UseG1GC --enable-preview"},
				{Name: "systemEnvironment:USER", Value: "pp"},
			},
			want: []Variable{
				{Name: "systemProperties:java.version", Value: "17"},
				{Name: "systemEnvironment:JAVA_TOOL_OPTIONS.jvmArg.Dfile.encoding", Value: "UTF-8"},
				{Name: "systemEnvironment:JAVA_TOOL_OPTIONS.jvmArg.XX:UseG1GC", Value: "+"},
				{Name: "systemEnvironment:JAVA_TOOL_OPTIONS.jvmArg.enable-preview", Value: ""},
				{Name: "systemEnvironment:USER", Value: "pp"},
			},
		},
		{
			name: "empty options drop the variable",
			in:   []Variable{{Name: "JAVA_OPTS", Value: "  "}},
			want: []Variable{},
		},
		{
			name: "no variables",
			in:   nil,
			want: []Variable{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandJavaArgs(tt.in))
		})
	}
}

func TestVariableString(t *testing.T) {
	assert.Equal(t, "version=2.2.0", Variable{Name: "version", Value: "2.2.0"}.String())
}

// TestExpandJavaArgsIdempotent verifies expanding twice equals expanding once.
// Property: Expand(Expand(vars)) == Expand(vars)
func TestExpandJavaArgsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	names := gen.OneConstOf("JAVA_OPTS", "systemEnvironment:JAVA_OPTS", "CATALINA_OPTS", "USER", "java.version")

	properties.Property("expansion is idempotent", prop.ForAll(
		func(keys []string, values []string, name string) bool {
			var opts string
			for i := 0; i < len(keys) && i < len(values); i++ {
				opts += " -D" + keys[i] + "=" + values[i] + " -DJAVA_OPTS=" + values[i]
			}
			vars := []Variable{{Name: name, Value: opts}, {Name: "other", Value: opts}}

			once := ExpandJavaArgs(vars)
			twice := ExpandJavaArgs(once)
			if !reflect.DeepEqual(once, twice) {
				return false
			}
			for _, v := range once {
				if v.Name == "JAVA_OPTS" || v.Name == "CATALINA_OPTS" || v.Name == "systemEnvironment:JAVA_OPTS" {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
		names,
	))

	properties.TestingRun(t)
}
