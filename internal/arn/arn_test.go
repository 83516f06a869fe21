package arn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSecretsManagerARN(t *testing.T) {
	t.Parallel()

	a, err := Parse("arn:aws:secretsmanager:us-east-2:891477334659:secret:test-ohio-secret-L86lpn")
	require.NoError(t, err)

	assert.Equal(t, "aws", a.Partition)
	assert.Equal(t, "secretsmanager", a.Service)
	assert.Equal(t, "us-east-2", a.Region)
	assert.Equal(t, "891477334659", a.AccountID)
	assert.Equal(t, "secret", a.ResourceType)
	assert.Equal(t, "test-ohio-secret-L86lpn", a.ResourceID)
	assert.Equal(t, "", a.ResourceField)
}

func TestParseFieldSelector(t *testing.T) {
	t.Parallel()

	a, err := Parse("arn:aws:secretsmanager:us-east-2:891477334659:secret:test-ohio-secret-L86lpn#key-name")
	require.NoError(t, err)

	assert.Equal(t, "test-ohio-secret-L86lpn", a.ResourceID)
	assert.Equal(t, "key-name", a.ResourceField)
}

func TestParseParameterStoreARN(t *testing.T) {
	t.Parallel()

	a, err := Parse("arn:aws:ssm:us-east-1:123377354456:parameter/ci-test-value")
	require.NoError(t, err)

	assert.Equal(t, "ssm", a.Service)
	assert.Equal(t, "", a.ResourceType)
	assert.Equal(t, "parameter/ci-test-value", a.ResourceID)
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"not an arn", "foo:aws:secretsmanager:us-east-1:123:secret:name"},
		{"trailing extra segment", "arn:aws:secretsmanager:us-east-1:123:secret:name:extra"},
		{"empty region", "arn:aws:secretsmanager::123:secret:name"},
		{"missing colon after service", "arn:aws:ssm"},
		{"too few fields", "arn:aws:ssm:us-east-1:123"},
		{"trailing hash with empty field", "arn:aws:secretsmanager:us-east-1:123:secret:name#"},
		{"hash with empty id", "arn:aws:secretsmanager:us-east-1:123:secret:#field"},
		{"resource solely a hash", "arn:aws:secretsmanager:us-east-1:123:secret:#"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.input)
			require.Error(t, err)

			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"arn:aws:secretsmanager:us-east-2:891477334659:secret:test-ohio-secret-L86lpn",
		"arn:aws:secretsmanager:us-east-2:891477334659:secret:test-ohio-secret-L86lpn#key-name",
		"arn:aws:ssm:us-east-1:123377354456:parameter/ci-test-value",
		"arn:aws-cn:secretsmanager:cn-north-1:000000000000:secret:cn-secret",
	}

	for _, input := range inputs {
		a, err := Parse(input)
		require.NoError(t, err)
		assert.Equal(t, input, a.String())

		again, err := Parse(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, again)
	}
}

func TestEndpoint(t *testing.T) {
	t.Parallel()

	a, err := Parse("arn:aws:secretsmanager:us-east-2:891477334659:secret:test")
	require.NoError(t, err)
	assert.Equal(t, "https://secretsmanager.us-east-2.amazonaws.com/", a.Endpoint())

	cn, err := Parse("arn:aws-cn:ssm:cn-north-1:123377354456:parameter/value")
	require.NoError(t, err)
	assert.Equal(t, "https://ssm.cn-north-1.amazonaws.com.cn/", cn.Endpoint())
}

func TestWithoutField(t *testing.T) {
	t.Parallel()

	withField, err := Parse("arn:aws:secretsmanager:us-east-1:123456789012:secret:db#password")
	require.NoError(t, err)
	bare, err := Parse("arn:aws:secretsmanager:us-east-1:123456789012:secret:db")
	require.NoError(t, err)

	assert.Equal(t, bare, withField.WithoutField())
	// Base identities collapse into one map key.
	group := map[ARN]int{}
	group[withField.WithoutField()]++
	group[bare.WithoutField()]++
	assert.Len(t, group, 1)
}
