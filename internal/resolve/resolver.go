// Package resolve orchestrates secret resolution: it routes requested ARNs
// to the right AWS service, deduplicates lookups that share a base identity,
// issues chunked batch calls, and demultiplexes results back to the exact
// identifiers that were requested, including extraction of JSON sub-fields
// selected with a '#field' suffix.
//
// Resolution is fail-fast. The first unrecoverable error aborts the run and
// no partial result is returned: the workload must not start with a
// half-resolved configuration.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/systmms/arnsub/internal/arn"
	"github.com/systmms/arnsub/internal/awsclient"
	"github.com/systmms/arnsub/internal/logging"
)

// SecretFetcher is the slice of the Secrets Manager client the resolver
// needs. Tests inject fakes.
type SecretFetcher interface {
	BatchGetSecret(ctx context.Context, arns []arn.ARN) (map[string]awsclient.Secret, error)
}

// ParameterFetcher is the slice of the Parameter Store client the resolver
// needs.
type ParameterFetcher interface {
	GetParameters(ctx context.Context, arns []arn.ARN) (map[string]awsclient.Parameter, error)
}

// Resolver maps requested ARN strings to resolved plaintext values.
type Resolver struct {
	secrets SecretFetcher
	params  ParameterFetcher
	logger  *logging.Logger
}

// New creates a resolver over the two service clients.
func New(secrets SecretFetcher, params ParameterFetcher, logger *logging.Logger) *Resolver {
	return &Resolver{
		secrets: secrets,
		params:  params,
		logger:  logger,
	}
}

// lookupGroup collects every requested ARN that shares one base identity, so
// field-selector variants of the same secret cost a single network lookup.
type lookupGroup struct {
	base      arn.ARN
	requested []arn.ARN
}

// Resolve resolves every requested ARN string and returns a map from the
// original strings to their plaintext values. Any error aborts the whole
// run; no partial map is ever returned.
func (r *Resolver) Resolve(ctx context.Context, arns []string) (map[string]string, error) {
	byService := map[string]map[string]*lookupGroup{
		awsclient.SecretsManagerService: {},
		awsclient.ParameterStoreService: {},
	}

	for _, s := range arns {
		a, err := arn.Parse(s)
		if err != nil {
			return nil, err
		}

		switch a.Service {
		case awsclient.SecretsManagerService:
		case awsclient.ParameterStoreService:
			if a.ResourceField != "" {
				return nil, &UnsupportedSelectorError{ARN: s}
			}
		default:
			return nil, &UnknownServiceError{Service: a.Service}
		}

		// This should never happen, but a parse that does not round-trip
		// would silently resolve the wrong identifier later.
		if a.String() != s {
			return nil, fmt.Errorf("ARN does not round-trip: %q != %q", a.String(), s)
		}

		base := a.WithoutField()
		groups := byService[a.Service]
		g, ok := groups[base.String()]
		if !ok {
			g = &lookupGroup{base: base}
			groups[base.String()] = g
		}
		g.requested = append(g.requested, a)
	}

	resolved := make(map[string]string)

	if err := r.resolveSecrets(ctx, byService[awsclient.SecretsManagerService], resolved); err != nil {
		return nil, err
	}
	if err := r.resolveParameters(ctx, byService[awsclient.ParameterStoreService], resolved); err != nil {
		return nil, err
	}

	r.logger.Debug("Resolved %d of %d requested ARNs", len(resolved), len(arns))
	return resolved, nil
}

func (r *Resolver) resolveSecrets(ctx context.Context, groups map[string]*lookupGroup, resolved map[string]string) error {
	if len(groups) == 0 {
		return nil
	}

	got := make(map[string]awsclient.Secret)
	for _, chunk := range chunkBases(groups) {
		res, err := r.secrets.BatchGetSecret(ctx, chunk)
		if err != nil {
			r.logger.Warn("Unable to resolve ARNs from Secrets Manager: %v", err)
			return err
		}
		for k, v := range res {
			got[k] = v
		}
	}

	for baseStr, g := range groups {
		secret, ok := got[baseStr]
		if !ok {
			// Missing without a reported error; the placeholder stays
			// unresolved and substitutes empty downstream.
			r.logger.Warn("No secret returned for %s", baseStr)
			continue
		}
		for _, requested := range g.requested {
			if requested.ResourceField == "" {
				resolved[requested.String()] = secret.SecretString
				continue
			}
			value, err := extractField(secret.SecretString, requested)
			if err != nil {
				return err
			}
			resolved[requested.String()] = value
		}
	}
	return nil
}

func (r *Resolver) resolveParameters(ctx context.Context, groups map[string]*lookupGroup, resolved map[string]string) error {
	if len(groups) == 0 {
		return nil
	}

	got := make(map[string]awsclient.Parameter)
	for _, chunk := range chunkBases(groups) {
		res, err := r.params.GetParameters(ctx, chunk)
		if err != nil {
			r.logger.Warn("Unable to resolve ARNs from Parameter Store: %v", err)
			return err
		}
		for k, v := range res {
			got[k] = v
		}
	}

	for baseStr := range groups {
		param, ok := got[baseStr]
		if !ok {
			r.logger.Warn("No parameter returned for %s", baseStr)
			continue
		}
		resolved[baseStr] = param.Value
	}
	return nil
}

// chunkBases returns the distinct base ARNs in stable order, split into
// batches the services accept.
func chunkBases(groups map[string]*lookupGroup) [][]arn.ARN {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var chunks [][]arn.ARN
	for start := 0; start < len(keys); start += awsclient.MaxBatchSize {
		end := start + awsclient.MaxBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		chunk := make([]arn.ARN, 0, end-start)
		for _, k := range keys[start:end] {
			chunk = append(chunk, groups[k].base)
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// extractField parses a secret string as a JSON object and pulls out the
// requested field. String values come back as-is; anything else is
// re-marshaled so booleans and numbers stay usable.
func extractField(secretString string, requested arn.ARN) (string, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(secretString), &obj); err != nil {
		return "", &FieldExtractionError{
			ARN:    requested.String(),
			Reason: "secret string is not a JSON object",
		}
	}

	value, ok := obj[requested.ResourceField]
	if !ok {
		return "", &FieldExtractionError{
			ARN:    requested.String(),
			Reason: fmt.Sprintf("field %q not present in secret", requested.ResourceField),
		}
	}

	switch v := value.(type) {
	case string:
		return v, nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return "", &FieldExtractionError{ARN: requested.String(), Reason: err.Error()}
		}
		return string(raw), nil
	}
}
