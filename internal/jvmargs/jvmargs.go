// Package jvmargs parses JVM command line style option strings such as the
// value of JAVA_OPTS.
package jvmargs

import (
	"strings"
	"unicode"
)

// expandedMarker separates the original name from the option key in
// expanded variable names.
const expandedMarker = ".jvmArg."

// javaArgsSuffixes are the variable name endings that hold JVM options.
var javaArgsSuffixes = []string{
	"JAVA_OPTS",
	"JAVA_TOOL_OPTIONS",
	"_JAVA_OPTIONS",
	"JDK_JAVA_OPTIONS",
	"CATALINA_OPTS",
}

// Option is one parsed command line option.
type Option struct {
	Key   string
	Value string
}

// IsJavaArgsName reports whether a variable with this name holds JVM command
// line options. Names produced by ExpandedName never match.
func IsJavaArgsName(name string) bool {
	if strings.Contains(name, expandedMarker) {
		return false
	}
	for _, suffix := range javaArgsSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// ExpandedName returns the variable name for one option of name.
func ExpandedName(name, key string) string {
	return name + expandedMarker + key
}

// Parse splits args into options. When a key occurs more than once the last
// value wins and the key keeps its first position.
func Parse(args string) []Option {
	tokens := Tokenize(args)

	var options []Option
	index := make(map[string]int)

	for i := 0; i < len(tokens); i++ {
		opt, ok := ParseToken(tokens[i])
		if !ok {
			continue
		}
		// "--flag value" takes the next token as value
		if strings.HasPrefix(tokens[i], "--") && !strings.Contains(tokens[i], "=") &&
			i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") {
			opt.Value = tokens[i+1]
			i++
		}

		if pos, seen := index[opt.Key]; seen {
			options[pos].Value = opt.Value
			continue
		}
		index[opt.Key] = len(options)
		options = append(options, opt)
	}
	return options
}

// ParseToken parses a single token. Tokens that do not start with a dash,
// or consist of dashes only, are rejected.
func ParseToken(token string) (Option, bool) {
	switch {
	case strings.HasPrefix(token, "--"):
		key, value := splitOnce(token[2:], "=")
		return Option{Key: key, Value: value}, key != ""

	case strings.HasPrefix(token, "-XX:"):
		rest := token[4:]
		if rest != "" && (rest[0] == '+' || rest[0] == '-') {
			return Option{Key: "XX:" + rest[1:], Value: rest[:1]}, len(rest) > 1
		}
		key, value := splitOnce(rest, "=")
		return Option{Key: "XX:" + key, Value: value}, key != ""

	case strings.HasPrefix(token, "-X"):
		rest := token[1:]
		end := strings.IndexFunc(rest, func(r rune) bool { return !unicode.IsLetter(r) })
		if end < 0 {
			return Option{Key: rest}, true
		}
		return Option{Key: rest[:end], Value: rest[end:]}, true

	case strings.HasPrefix(token, "-D"):
		key, value := splitOnce(token[1:], "=")
		return Option{Key: key, Value: value}, len(key) > 1

	case strings.HasPrefix(token, "-"):
		body := token[1:]
		sep := strings.IndexAny(body, ":=")
		if sep < 0 {
			return Option{Key: body}, body != ""
		}
		return Option{Key: body[:sep], Value: body[sep+1:]}, sep > 0
	}
	return Option{}, false
}

// Tokenize splits s on whitespace outside single or double quotes. Quote
// characters are removed from the tokens.
func Tokenize(s string) []string {
	var tokens []string
	var current strings.Builder
	var quote rune
	inToken := false

	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inToken = true
		case unicode.IsSpace(r):
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func splitOnce(s, sep string) (string, string) {
	key, value, _ := strings.Cut(s, sep)
	return key, value
}
