package actuator

import (
	"fmt"

	"github.com/actuatorprobe/actuatorprobe/internal/jvmargs"
)

// Variable is a named value harvested from the target service.
type Variable struct {
	Name  string
	Value string
}

func (v Variable) String() string {
	return fmt.Sprintf("%s=%s", v.Name, v.Value)
}

// ExpandJavaArgs replaces every variable holding JVM options (JAVA_OPTS and
// friends) with one variable per option, named "<name>.jvmArg.<key>". The
// expansion takes the place of the original; other variables keep their
// position. Expanding an already expanded list returns it unchanged.
func ExpandJavaArgs(vars []Variable) []Variable {
	out := make([]Variable, 0, len(vars))
	for _, v := range vars {
		if !jvmargs.IsJavaArgsName(v.Name) {
			out = append(out, v)
			continue
		}
		for _, opt := range jvmargs.Parse(v.Value) {
			out = append(out, Variable{Name: jvmargs.ExpandedName(v.Name, opt.Key), Value: opt.Value})
		}
	}
	return out
}
