// Package envbind finds ARN placeholders embedded in configuration
// environment variables and substitutes resolved secret values back in.
//
// Two embedding syntaxes are recognized inside variables that carry the
// configured name prefix:
//
//	${arn:...}          substring substitution, any number per value
//	secret://arn:...    whole-value replacement, exact match only
//
// The binder works on an explicit environment snapshot and returns a diff;
// it never reads or mutates the process environment itself.
package envbind

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultPrefix selects which variables are scanned when no prefix is
// configured.
const DefaultPrefix = "ARNSUB_"

const secretScheme = "secret://"

var arnPattern = regexp.MustCompile(`\$\{(arn:[^}]+)}`)

// Binder scans and rewrites environment snapshots.
type Binder struct {
	prefix string
}

// New creates a binder for variables carrying the given name prefix. An
// empty prefix falls back to DefaultPrefix.
func New(prefix string) *Binder {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Binder{prefix: prefix}
}

// Extract returns the distinct ARN strings embedded in prefix-matching
// variables, sorted for stable processing order.
func (b *Binder) Extract(env map[string]string) []string {
	seen := make(map[string]struct{})
	for name, value := range env {
		if !strings.HasPrefix(name, b.prefix) {
			continue
		}
		for _, match := range arnPattern.FindAllStringSubmatch(value, -1) {
			seen[match[1]] = struct{}{}
		}
		if a, ok := wholeValueARN(value); ok {
			seen[a] = struct{}{}
		}
	}

	arns := make([]string, 0, len(seen))
	for a := range seen {
		arns = append(arns, a)
	}
	sort.Strings(arns)
	return arns
}

// Apply substitutes resolved values into prefix-matching variables and
// returns only the variables whose value changed. ARNs absent from the
// resolved map substitute the empty string.
func (b *Binder) Apply(env map[string]string, resolved map[string]string) map[string]string {
	updates := make(map[string]string)
	for name, value := range env {
		if !strings.HasPrefix(name, b.prefix) {
			continue
		}

		var next string
		if a, ok := wholeValueARN(value); ok {
			next = resolved[a]
		} else {
			next = arnPattern.ReplaceAllStringFunc(value, func(match string) string {
				// match is "${arn:...}"; strip the delimiters.
				return resolved[match[2:len(match)-1]]
			})
		}

		if next != value {
			updates[name] = next
		}
	}
	return updates
}

// wholeValueARN reports whether the value is exactly a secret://arn:...
// reference and returns the embedded ARN.
func wholeValueARN(value string) (string, bool) {
	rest, ok := strings.CutPrefix(value, secretScheme)
	if !ok || !strings.HasPrefix(rest, "arn:") {
		return "", false
	}
	return rest, true
}
