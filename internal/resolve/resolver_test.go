package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/arnsub/internal/arn"
	"github.com/systmms/arnsub/internal/awsclient"
	"github.com/systmms/arnsub/internal/logging"
)

// fakeSecretFetcher serves canned secrets and records every batch it is
// asked for.
type fakeSecretFetcher struct {
	secrets map[string]awsclient.Secret
	err     error
	calls   [][]arn.ARN
}

func (f *fakeSecretFetcher) BatchGetSecret(_ context.Context, arns []arn.ARN) (map[string]awsclient.Secret, error) {
	f.calls = append(f.calls, arns)
	if f.err != nil {
		return nil, f.err
	}
	res := make(map[string]awsclient.Secret)
	for _, a := range arns {
		if s, ok := f.secrets[a.String()]; ok {
			res[a.String()] = s
		}
	}
	return res, nil
}

type fakeParameterFetcher struct {
	params map[string]awsclient.Parameter
	err    error
	calls  [][]arn.ARN
}

func (f *fakeParameterFetcher) GetParameters(_ context.Context, arns []arn.ARN) (map[string]awsclient.Parameter, error) {
	f.calls = append(f.calls, arns)
	if f.err != nil {
		return nil, f.err
	}
	res := make(map[string]awsclient.Parameter)
	for _, a := range arns {
		if p, ok := f.params[a.String()]; ok {
			res[a.String()] = p
		}
	}
	return res, nil
}

func newTestResolver(secrets *fakeSecretFetcher, params *fakeParameterFetcher) *Resolver {
	if secrets == nil {
		secrets = &fakeSecretFetcher{}
	}
	if params == nil {
		params = &fakeParameterFetcher{}
	}
	return New(secrets, params, logging.New(false, true))
}

const (
	secretARN = "arn:aws:secretsmanager:us-east-1:123456789012:secret:db-creds-AbCdEf"
	paramARN  = "arn:aws:ssm:us-east-1:123456789012:parameter/app/db-host"
)

func TestResolveSecretAndParameter(t *testing.T) {
	t.Parallel()

	secrets := &fakeSecretFetcher{secrets: map[string]awsclient.Secret{
		secretARN: {ARN: secretARN, SecretString: "s3cret"},
	}}
	params := &fakeParameterFetcher{params: map[string]awsclient.Parameter{
		paramARN: {ARN: paramARN, Value: "db.internal"},
	}}

	resolved, err := newTestResolver(secrets, params).Resolve(context.Background(),
		[]string{secretARN, paramARN})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		secretARN: "s3cret",
		paramARN:  "db.internal",
	}, resolved)
}

func TestResolveFieldSelectorSharesOneLookup(t *testing.T) {
	t.Parallel()

	secrets := &fakeSecretFetcher{secrets: map[string]awsclient.Secret{
		secretARN: {ARN: secretARN, SecretString: `{"username":"app","password":"hunter2"}`},
	}}

	resolver := newTestResolver(secrets, nil)
	resolved, err := resolver.Resolve(context.Background(), []string{
		secretARN,
		secretARN + "#username",
		secretARN + "#password",
	})
	require.NoError(t, err)

	// One base identity, one network call.
	require.Len(t, secrets.calls, 1)
	assert.Len(t, secrets.calls[0], 1)

	assert.Equal(t, `{"username":"app","password":"hunter2"}`, resolved[secretARN])
	assert.Equal(t, "app", resolved[secretARN+"#username"])
	assert.Equal(t, "hunter2", resolved[secretARN+"#password"])
}

func TestResolveNonStringFieldIsRemarshaled(t *testing.T) {
	t.Parallel()

	secrets := &fakeSecretFetcher{secrets: map[string]awsclient.Secret{
		secretARN: {ARN: secretARN, SecretString: `{"port":5432,"tls":true}`},
	}}

	resolved, err := newTestResolver(secrets, nil).Resolve(context.Background(),
		[]string{secretARN + "#port", secretARN + "#tls"})
	require.NoError(t, err)

	assert.Equal(t, "5432", resolved[secretARN+"#port"])
	assert.Equal(t, "true", resolved[secretARN+"#tls"])
}

func TestResolveMissingFieldFails(t *testing.T) {
	t.Parallel()

	secrets := &fakeSecretFetcher{secrets: map[string]awsclient.Secret{
		secretARN: {ARN: secretARN, SecretString: `{"username":"app"}`},
	}}

	_, err := newTestResolver(secrets, nil).Resolve(context.Background(),
		[]string{secretARN + "#password"})
	require.Error(t, err)

	var ferr *FieldExtractionError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, secretARN+"#password", ferr.ARN)
}

func TestResolveNonJSONSecretWithSelectorFails(t *testing.T) {
	t.Parallel()

	secrets := &fakeSecretFetcher{secrets: map[string]awsclient.Secret{
		secretARN: {ARN: secretARN, SecretString: "just-a-plain-string"},
	}}

	_, err := newTestResolver(secrets, nil).Resolve(context.Background(),
		[]string{secretARN + "#field"})
	require.Error(t, err)

	var ferr *FieldExtractionError
	assert.ErrorAs(t, err, &ferr)
}

func TestResolveUnknownService(t *testing.T) {
	t.Parallel()

	_, err := newTestResolver(nil, nil).Resolve(context.Background(),
		[]string{"arn:aws:s3:us-east-1:123456789012:bucket:my-bucket"})
	require.Error(t, err)

	var uerr *UnknownServiceError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "s3", uerr.Service)
}

func TestResolveParameterSelectorRejected(t *testing.T) {
	t.Parallel()

	_, err := newTestResolver(nil, nil).Resolve(context.Background(),
		[]string{paramARN + "#field"})
	require.Error(t, err)

	var serr *UnsupportedSelectorError
	assert.ErrorAs(t, err, &serr)
}

func TestResolveMalformedARN(t *testing.T) {
	t.Parallel()

	_, err := newTestResolver(nil, nil).Resolve(context.Background(),
		[]string{"arn:aws:secretsmanager:us-east-1"})
	require.Error(t, err)

	var perr *arn.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestResolveChunksLargeRequests(t *testing.T) {
	t.Parallel()

	secrets := &fakeSecretFetcher{secrets: map[string]awsclient.Secret{}}
	var arns []string
	for i := 0; i < 23; i++ {
		s := secretChunkARN(i)
		arns = append(arns, s)
		secrets.secrets[s] = awsclient.Secret{ARN: s, SecretString: "v"}
	}

	resolved, err := newTestResolver(secrets, nil).Resolve(context.Background(), arns)
	require.NoError(t, err)
	assert.Len(t, resolved, 23)

	require.Len(t, secrets.calls, 3)
	assert.Len(t, secrets.calls[0], 10)
	assert.Len(t, secrets.calls[1], 10)
	assert.Len(t, secrets.calls[2], 3)
}

func secretChunkARN(i int) string {
	return "arn:aws:secretsmanager:us-east-1:123456789012:secret:chunk-" + string(rune('a'+i/10)) + string(rune('a'+i%10))
}

func TestResolveBatchFailureAborts(t *testing.T) {
	t.Parallel()

	secrets := &fakeSecretFetcher{err: &awsclient.InvalidSecretsError{IDs: []string{secretARN}}}
	params := &fakeParameterFetcher{params: map[string]awsclient.Parameter{
		paramARN: {ARN: paramARN, Value: "db.internal"},
	}}

	resolved, err := newTestResolver(secrets, params).Resolve(context.Background(),
		[]string{secretARN, paramARN})
	require.Error(t, err)

	// Fail-fast: nothing is merged from any service.
	assert.Nil(t, resolved)
	assert.Empty(t, params.calls)

	var invErr *awsclient.InvalidSecretsError
	assert.ErrorAs(t, err, &invErr)
}

func TestResolveMissingResultIsSilentlyDropped(t *testing.T) {
	t.Parallel()

	// Service reported neither a value nor an error for the ARN.
	secrets := &fakeSecretFetcher{secrets: map[string]awsclient.Secret{}}

	resolved, err := newTestResolver(secrets, nil).Resolve(context.Background(),
		[]string{secretARN})
	require.NoError(t, err)
	assert.Empty(t, resolved)
}
