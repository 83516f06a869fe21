package awsclient

import (
	"fmt"
	"strings"
)

// AWSError is an error response from an AWS service, surfaced with the
// AWS-provided code and message without reinterpretation. When the response
// body does not carry the AWS JSON error shape, Code holds the HTTP status
// and Message the raw body text.
type AWSError struct {
	Code    string
	Message string
}

func (e *AWSError) Error() string {
	return fmt.Sprintf("aws error [%s]: %s", e.Code, e.Message)
}

// InvalidServiceError reports an ARN handed to the wrong service client.
// This is a caller bug, never retried.
type InvalidServiceError struct {
	ARN  string
	Want string
}

func (e *InvalidServiceError) Error() string {
	return fmt.Sprintf("ARN %s does not address service %q", e.ARN, e.Want)
}

// InvalidSecretsError reports identifiers that failed at the batch level.
// The whole batch is treated as failed: no sibling results from the same
// call are kept.
type InvalidSecretsError struct {
	IDs []string
}

func (e *InvalidSecretsError) Error() string {
	return fmt.Sprintf("unable to look up secret values: [%s]", strings.Join(e.IDs, ", "))
}
