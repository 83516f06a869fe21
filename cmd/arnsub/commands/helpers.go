package commands

import (
	"os"
	"strings"

	"github.com/systmms/arnsub/internal/awsclient"
	"github.com/systmms/arnsub/internal/config"
	"github.com/systmms/arnsub/internal/envbind"
	"github.com/systmms/arnsub/internal/resolve"
)

// snapshotEnv captures the process environment once. Every stage of the
// pipeline works on this snapshot, so a variable changing mid-run cannot
// produce a half-substituted result.
func snapshotEnv() map[string]string {
	env := make(map[string]string)
	for _, entry := range os.Environ() {
		if key, value, ok := strings.Cut(entry, "="); ok {
			env[key] = value
		}
	}
	return env
}

// newBinder builds the ARN binder for the loaded configuration.
func newBinder(cfg *config.Config) *envbind.Binder {
	return envbind.New(cfg.Definition.GetEnvPrefix())
}

// buildResolver wires the HTTP client and both service clients from the
// loaded configuration. Credentials come from the standard AWS environment
// variables.
func buildResolver(cfg *config.Config) (*resolve.Resolver, error) {
	creds, err := config.CredentialsFromEnv()
	if err != nil {
		return nil, err
	}

	client := awsclient.NewClient()

	var smOpts, ssmOpts []awsclient.ServiceOption
	if ep := cfg.Definition.Endpoints.SecretsManager; ep != "" {
		smOpts = append(smOpts, awsclient.WithBaseEndpoint(ep))
	}
	if ep := cfg.Definition.Endpoints.SSM; ep != "" {
		ssmOpts = append(ssmOpts, awsclient.WithBaseEndpoint(ep))
	}

	secrets := awsclient.NewSecretsManager(client, creds, cfg.Logger, smOpts...)
	params := awsclient.NewParameterStore(client, creds, cfg.Logger, ssmOpts...)

	return resolve.New(secrets, params, cfg.Logger), nil
}
