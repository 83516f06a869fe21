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

const (
	secretsManagerTarget = "secretsmanager.BatchGetSecretValue"
	amzJSONContentType   = "application/x-amz-json-1.1"
)

// Secret is one entry of a BatchGetSecretValue response.
type Secret struct {
	ARN          string  `json:"ARN"`
	CreatedDate  float64 `json:"CreatedDate"`
	Name         string  `json:"Name"`
	SecretString string  `json:"SecretString"`
	VersionID    string  `json:"VersionId"`
}

type batchGetSecretValueRequest struct {
	SecretIDList []string `json:"SecretIdList"`
}

type batchGetSecretValueResponse struct {
	Errors []struct {
		Message  string `json:"Message"`
		SecretID string `json:"SecretId"`
	} `json:"Errors"`
	SecretValues []Secret `json:"SecretValues"`
}

// SecretsManager retrieves secrets in batches via BatchGetSecretValue.
type SecretsManager struct {
	client  *Client
	creds   sigv4.Credentials
	logger  *logging.Logger
	options serviceOptions
}

// NewSecretsManager creates a Secrets Manager service client.
func NewSecretsManager(client *Client, creds sigv4.Credentials, logger *logging.Logger, opts ...ServiceOption) *SecretsManager {
	return &SecretsManager{
		client:  client,
		creds:   creds,
		logger:  logger,
		options: applyOptions(opts),
	}
}

// BatchGetSecret fetches the given secret ARNs and returns them keyed by the
// ARN string the service reported. Input ARNs are grouped by endpoint, so a
// single call may span regions. The call is all-or-nothing per endpoint
// group: any per-item error fails the whole call with *InvalidSecretsError.
func (s *SecretsManager) BatchGetSecret(ctx context.Context, arns []arn.ARN) (map[string]Secret, error) {
	byEndpoint := make(map[string][]arn.ARN)
	for _, a := range arns {
		if a.Service != SecretsManagerService {
			return nil, &InvalidServiceError{ARN: a.String(), Want: SecretsManagerService}
		}
		endpoint := a.Endpoint()
		if s.options.baseEndpoint != "" {
			endpoint = s.options.baseEndpoint
		}
		byEndpoint[endpoint] = append(byEndpoint[endpoint], a)
	}

	res := make(map[string]Secret)
	for endpoint, group := range byEndpoint {
		ids := make([]string, len(group))
		for i, a := range group {
			ids[i] = a.String()
		}

		payload, err := json.Marshal(batchGetSecretValueRequest{SecretIDList: ids})
		if err != nil {
			return nil, fmt.Errorf("encoding BatchGetSecretValue request: %w", err)
		}

		headers := http.Header{}
		headers.Set("X-Amz-Target", secretsManagerTarget)
		headers.Set("Content-Type", amzJSONContentType)

		signer := sigv4.New(SecretsManagerService, group[0].Region, s.creds, s.options.clock)
		req, err := signer.Sign(http.MethodPost, endpoint, headers, payload)
		if err != nil {
			return nil, err
		}

		body, err := s.client.Do(ctx, req)
		if err != nil {
			return nil, err
		}

		var result batchGetSecretValueResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("decoding BatchGetSecretValue response: %w", err)
		}

		if len(result.Errors) > 0 {
			failed := make([]string, len(result.Errors))
			for i, item := range result.Errors {
				failed[i] = item.SecretID
			}
			s.logger.Error("Unable to look up secrets: %v", failed)
			return nil, &InvalidSecretsError{IDs: failed}
		}

		for _, secret := range result.SecretValues {
			// Every record must carry its ARN; without it the result
			// cannot be routed back to a request.
			if secret.ARN == "" {
				s.logger.Error("Secret %q was missing its ARN", secret.Name)
				return nil, &InvalidSecretsError{IDs: ids}
			}
			res[secret.ARN] = secret
		}
	}

	return res, nil
}
