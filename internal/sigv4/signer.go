// Package sigv4 implements AWS Signature Version 4 request signing from
// scratch. No AWS SDK is involved: the canonical request, string to sign and
// signing-key derivation follow the published algorithm, with one deliberate
// simplification: query strings are sorted but never percent-re-encoded, so
// callers must pass already-encoded URLs.
//
// The signer takes its notion of time from an injected Clock, which makes
// signatures reproducible under test.
package sigv4

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const algorithm = "AWS4-HMAC-SHA256"

// Clock supplies the current time to the signer.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Credentials carries an AWS access key pair and an optional STS session
// token.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// SignatureError reports an input that cannot be turned into a signed
// request, typically a header value carrying characters that are illegal in
// HTTP headers. It indicates bad input, not an environmental failure, and is
// never worth retrying.
type SignatureError struct {
	Reason string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("aws signature error: %s", e.Reason)
}

// Signer produces SigV4-signed requests for one service in one region.
type Signer struct {
	service string
	region  string
	creds   Credentials
	clock   Clock
}

// New creates a signer. A nil clock defaults to SystemClock.
func New(service, region string, creds Credentials, clock Clock) *Signer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Signer{
		service: service,
		region:  region,
		creds:   creds,
		clock:   clock,
	}
}

// Sign builds an *http.Request for the given method, URL, headers and
// payload with Host, X-Amz-Date, X-Amz-Security-Token (when a session token
// is configured) and Authorization headers set. The input header map is not
// modified. The result is deterministic for a fixed clock.
func (s *Signer) Sign(method, rawURL string, headers http.Header, payload []byte) (*http.Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing request URL: %w", err)
	}

	now := s.clock.Now().UTC()
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")

	hdrs := headers.Clone()
	if hdrs == nil {
		hdrs = http.Header{}
	}

	// Host carries the port only when the URL does.
	if hdrs.Get("Host") == "" {
		if !validHeaderValue(u.Host) {
			return nil, &SignatureError{Reason: "invalid host header"}
		}
		hdrs.Set("Host", u.Host)
	}

	if s.creds.SessionToken != "" {
		if !validHeaderValue(s.creds.SessionToken) {
			return nil, &SignatureError{Reason: "invalid session token"}
		}
		hdrs.Set("X-Amz-Security-Token", s.creds.SessionToken)
	}

	hdrs.Set("X-Amz-Date", amzDate)

	canonicalHeaders, signedHeaders := canonicalizeHeaders(hdrs)

	payloadHash := hexSHA256(payload)

	canonicalRequest := strings.Join([]string{
		method,
		canonicalPath(u),
		canonicalQuery(u.RawQuery),
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	credentialScope := dateStamp + "/" + s.region + "/" + s.service + "/aws4_request"

	stringToSign := strings.Join([]string{
		algorithm,
		amzDate,
		credentialScope,
		hexSHA256([]byte(canonicalRequest)),
	}, "\n")

	signature := s.signature(dateStamp, stringToSign)

	authorization := fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm, s.creds.AccessKeyID, credentialScope, signedHeaders, signature)
	if !validHeaderValue(authorization) {
		return nil, &SignatureError{Reason: "invalid authorization header"}
	}

	req, err := http.NewRequest(method, rawURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header = hdrs
	req.Header.Set("Authorization", authorization)
	req.Host = hdrs.Get("Host")

	return req, nil
}

// canonicalPath returns the URL path verbatim; no re-encoding is applied.
func canonicalPath(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return path
}

// canonicalQuery sorts the raw query pairs lexicographically. Pairs are split
// on the first '=' (a missing '=' yields an empty value) and rejoined with
// no re-encoding applied.
func canonicalQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	pairs := strings.Split(rawQuery, "&")
	type kv struct{ key, value string }
	params := make([]kv, 0, len(pairs))
	for _, pair := range pairs {
		key, value, _ := strings.Cut(pair, "=")
		params = append(params, kv{key: key, value: value})
	}
	sort.Slice(params, func(i, j int) bool {
		if params[i].key != params[j].key {
			return params[i].key < params[j].key
		}
		return params[i].value < params[j].value
	})

	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.key + "=" + p.value
	}
	return strings.Join(parts, "&")
}

// canonicalizeHeaders lower-cases names, trims values and sorts by name.
// The canonical block ends with a trailing newline, per the AWS algorithm.
func canonicalizeHeaders(hdrs http.Header) (canonical string, signed string) {
	names := make([]string, 0, len(hdrs))
	values := make(map[string]string, len(hdrs))
	for name, vs := range hdrs {
		lower := strings.ToLower(name)
		trimmed := make([]string, len(vs))
		for i, v := range vs {
			trimmed[i] = strings.TrimSpace(v)
		}
		names = append(names, lower)
		values[lower] = strings.Join(trimmed, ",")
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(values[name])
		b.WriteByte('\n')
	}
	return b.String(), strings.Join(names, ";")
}

// signature derives the signing key ladder and signs the string to sign.
func (s *Signer) signature(dateStamp, stringToSign string) string {
	kDate := hmacSHA256([]byte("AWS4"+s.creds.SecretAccessKey), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(s.region))
	kService := hmacSHA256(kRegion, []byte(s.service))
	kSigning := hmacSHA256(kService, []byte("aws4_request"))
	return hex.EncodeToString(hmacSHA256(kSigning, []byte(stringToSign)))
}

func hmacSHA256(key, message []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}

func hexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// validHeaderValue rejects values that cannot be carried in an HTTP header.
func validHeaderValue(v string) bool {
	for i := 0; i < len(v); i++ {
		if v[i] < 0x20 || v[i] == 0x7f {
			return false
		}
	}
	return true
}
