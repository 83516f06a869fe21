// Package arn models Amazon Resource Names as immutable value types.
//
// An ARN addresses a single secret or parameter. The resource id may carry an
// optional "#field" suffix that selects one key out of a JSON-structured
// secret value; the suffix is part of the identifier, not of the AWS wire
// format, and is stripped before talking to AWS.
package arn

import (
	"fmt"
	"strings"
)

// ARN is a parsed Amazon Resource Name. The zero value is not a valid ARN;
// construct one with Parse. Values are comparable and safe to use as map
// keys.
type ARN struct {
	Partition     string
	Service       string
	Region        string
	AccountID     string
	ResourceType  string // empty when the ARN has no resource-type segment
	ResourceID    string
	ResourceField string // optional "#field" selector, without the '#'
}

// ParseError reports an ARN that does not match the grammar.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid ARN: %s", e.Input)
}

// Parse parses an ARN of the form
//
//	arn:partition:service:region:account-id[:resource-type]:resource-id[#field]
//
// Splitting on ':' must yield exactly 6 or 7 fields and none of them may be
// empty. When a '#' is present in the resource id, both the id and the field
// must be non-empty.
func Parse(s string) (ARN, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 6 && len(parts) != 7 {
		return ARN{}, &ParseError{Input: s}
	}
	for _, part := range parts {
		if part == "" {
			return ARN{}, &ParseError{Input: s}
		}
	}
	if parts[0] != "arn" {
		return ARN{}, &ParseError{Input: s}
	}

	a := ARN{
		Partition: parts[1],
		Service:   parts[2],
		Region:    parts[3],
		AccountID: parts[4],
	}

	resource := parts[len(parts)-1]
	if len(parts) == 7 {
		a.ResourceType = parts[5]
	}

	if idx := strings.Index(resource, "#"); idx >= 0 {
		a.ResourceID = resource[:idx]
		a.ResourceField = resource[idx+1:]
		if a.ResourceID == "" || a.ResourceField == "" {
			return ARN{}, &ParseError{Input: s}
		}
	} else {
		a.ResourceID = resource
	}

	return a, nil
}

// String renders the ARN back to its canonical form. For any ARN returned by
// Parse, Parse(a.String()) yields an identical value.
func (a ARN) String() string {
	var b strings.Builder
	b.WriteString("arn:")
	b.WriteString(a.Partition)
	b.WriteByte(':')
	b.WriteString(a.Service)
	b.WriteByte(':')
	b.WriteString(a.Region)
	b.WriteByte(':')
	b.WriteString(a.AccountID)
	b.WriteByte(':')
	if a.ResourceType != "" {
		b.WriteString(a.ResourceType)
		b.WriteByte(':')
	}
	b.WriteString(a.ResourceID)
	if a.ResourceField != "" {
		b.WriteByte('#')
		b.WriteString(a.ResourceField)
	}
	return b.String()
}

// Endpoint derives the regional HTTPS endpoint for the ARN's service. Regions
// in the China partition use the amazonaws.com.cn domain.
func (a ARN) Endpoint() string {
	domain := "amazonaws.com"
	if strings.HasPrefix(a.Region, "cn-") {
		domain = "amazonaws.com.cn"
	}
	return fmt.Sprintf("https://%s.%s.%s/", a.Service, a.Region, domain)
}

// WithoutField returns a copy of the ARN with the field selector cleared.
// Multiple field-selected ARNs share a single base identity, which is the
// key used to deduplicate network lookups.
func (a ARN) WithoutField() ARN {
	a.ResourceField = ""
	return a
}
