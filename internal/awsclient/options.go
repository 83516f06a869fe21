package awsclient

import "github.com/systmms/arnsub/internal/sigv4"

type serviceOptions struct {
	clock        sigv4.Clock
	baseEndpoint string
}

// ServiceOption configures a service client.
type ServiceOption func(*serviceOptions)

// WithClock sets the clock used for request signing (for deterministic
// tests).
func WithClock(clock sigv4.Clock) ServiceOption {
	return func(o *serviceOptions) {
		o.clock = clock
	}
}

// WithBaseEndpoint overrides the ARN-derived endpoint for every request,
// e.g. to point at LocalStack or a test server.
func WithBaseEndpoint(endpoint string) ServiceOption {
	return func(o *serviceOptions) {
		o.baseEndpoint = endpoint
	}
}

func applyOptions(opts []ServiceOption) serviceOptions {
	options := serviceOptions{clock: sigv4.SystemClock{}}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
