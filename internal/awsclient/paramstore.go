package awsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/systmms/arnsub/internal/arn"
	"github.com/systmms/arnsub/internal/logging"
	"github.com/systmms/arnsub/internal/sigv4"
)

const parameterStoreTarget = "AmazonSSM.GetParameters"

// Parameter is one entry of a GetParameters response.
type Parameter struct {
	ARN              string  `json:"ARN"`
	LastModifiedDate float64 `json:"LastModifiedDate"`
	Name             string  `json:"Name"`
	Type             string  `json:"Type"`
	Value            string  `json:"Value"`
	Version          int64   `json:"Version"`
}

type getParametersRequest struct {
	Names          []string `json:"Names"`
	WithDecryption bool     `json:"WithDecryption"`
}

type getParametersResponse struct {
	InvalidParameters []struct {
		Name string `json:"Name"`
	} `json:"InvalidParameters"`
	Parameters []Parameter `json:"Parameters"`
}

// ParameterStore retrieves SSM parameters in batches via GetParameters,
// always with decryption so SecureString values come back in plaintext.
type ParameterStore struct {
	client  *Client
	creds   sigv4.Credentials
	logger  *logging.Logger
	options serviceOptions
}

// NewParameterStore creates a Parameter Store service client.
func NewParameterStore(client *Client, creds sigv4.Credentials, logger *logging.Logger, opts ...ServiceOption) *ParameterStore {
	return &ParameterStore{
		client:  client,
		creds:   creds,
		logger:  logger,
		options: applyOptions(opts),
	}
}

// GetParameters fetches the given parameter ARNs and returns them keyed by
// the ARN string the service reported. Same batching and all-or-nothing
// semantics as SecretsManager.BatchGetSecret.
func (p *ParameterStore) GetParameters(ctx context.Context, arns []arn.ARN) (map[string]Parameter, error) {
	byEndpoint := make(map[string][]arn.ARN)
	for _, a := range arns {
		if a.Service != ParameterStoreService {
			return nil, &InvalidServiceError{ARN: a.String(), Want: ParameterStoreService}
		}
		endpoint := a.Endpoint()
		if p.options.baseEndpoint != "" {
			endpoint = p.options.baseEndpoint
		}
		byEndpoint[endpoint] = append(byEndpoint[endpoint], a)
	}

	res := make(map[string]Parameter)
	for endpoint, group := range byEndpoint {
		names := make([]string, len(group))
		for i, a := range group {
			names[i] = a.String()
		}

		payload, err := json.Marshal(getParametersRequest{Names: names, WithDecryption: true})
		if err != nil {
			return nil, fmt.Errorf("encoding GetParameters request: %w", err)
		}

		headers := http.Header{}
		headers.Set("X-Amz-Target", parameterStoreTarget)
		headers.Set("Content-Type", amzJSONContentType)

		signer := sigv4.New(ParameterStoreService, group[0].Region, p.creds, p.options.clock)
		req, err := signer.Sign(http.MethodPost, endpoint, headers, payload)
		if err != nil {
			return nil, err
		}

		body, err := p.client.Do(ctx, req)
		if err != nil {
			return nil, err
		}

		var result getParametersResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("decoding GetParameters response: %w", err)
		}

		if len(result.InvalidParameters) > 0 {
			failed := make([]string, len(result.InvalidParameters))
			for i, item := range result.InvalidParameters {
				failed[i] = item.Name
			}
			p.logger.Error("Unable to look up parameters: %v", failed)
			return nil, &InvalidSecretsError{IDs: failed}
		}

		for _, param := range result.Parameters {
			if param.ARN == "" {
				p.logger.Error("Parameter %q was missing its ARN", param.Name)
				return nil, &InvalidSecretsError{IDs: names}
			}
			res[param.ARN] = param
		}
	}

	return res, nil
}
