// Package awsclient speaks the AWS JSON 1.1 wire protocol directly over
// HTTPS: a pooled client that dispatches SigV4-signed requests and translates
// AWS error bodies, plus the batch retrieval protocols for Secrets Manager
// and SSM Parameter Store. No AWS SDK is used anywhere in this package.
package awsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// MaxBatchSize is the ceiling for a single batch call. It is the minimum of
// what Secrets Manager and Parameter Store support, which keeps one chunking
// code path for both services.
const MaxBatchSize = 10

// AWS service identifiers as they appear in ARNs.
const (
	SecretsManagerService = "secretsmanager"
	ParameterStoreService = "ssm"
)

// Client executes signed requests against AWS endpoints. The underlying
// transport pools connections; pool sizing is a resource detail, not part of
// the contract.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a client with a TLS connection pool.
func NewClient() *Client {
	transport := &http.Transport{
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	return &Client{
		httpClient: &http.Client{Transport: transport},
	}
}

// Do sends the request and returns the response body. Non-2xx responses are
// translated into *AWSError; transport failures surface as wrapped errors
// that are not *AWSError.
func (c *Client) Do(ctx context.Context, req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("aws request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading aws response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeErrorBody(resp.StatusCode, body)
	}

	return body, nil
}

// decodeErrorBody is a two-stage parse: first the structured AWS JSON error
// shape, then a raw-text fallback keyed by HTTP status.
func decodeErrorBody(status int, body []byte) *AWSError {
	var shape struct {
		Type    string `json:"__type"`
		Message string `json:"Message"`
	}
	if err := json.Unmarshal(body, &shape); err == nil && shape.Type != "" {
		return &AWSError{Code: shape.Type, Message: shape.Message}
	}
	return &AWSError{Code: strconv.Itoa(status), Message: string(body)}
}
