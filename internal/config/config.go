// Package config loads the arnsub.yaml runtime configuration and reads AWS
// credentials from the environment. Everything in the file is optional; the
// zero-value definition gives the stock behavior (ARNSUB_ prefix, real AWS
// endpoints, 30 second timeout).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	aserrors "github.com/systmms/arnsub/internal/errors"
	"github.com/systmms/arnsub/internal/envbind"
	"github.com/systmms/arnsub/internal/logging"
	"github.com/systmms/arnsub/internal/sigv4"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = "arnsub.yaml"

const defaultTimeoutMs = 30000

// schema validates the parsed definition before it is trusted. Keeping it
// embedded means a broken install cannot lose the schema file.
const schema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer", "enum": [0]},
    "env_prefix": {"type": "string", "pattern": "^[A-Za-z_][A-Za-z0-9_]*$"},
    "timeout_ms": {"type": "integer", "minimum": 0},
    "endpoints": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "secretsmanager": {"type": "string", "format": "uri"},
        "ssm": {"type": "string", "format": "uri"}
      }
    }
  }
}`

// Config holds the runtime configuration.
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the arnsub.yaml structure.
type Definition struct {
	Version   int       `yaml:"version" json:"version"`
	EnvPrefix string    `yaml:"env_prefix,omitempty" json:"env_prefix,omitempty"`
	TimeoutMs int       `yaml:"timeout_ms,omitempty" json:"timeout_ms,omitempty"`
	Endpoints Endpoints `yaml:"endpoints,omitempty" json:"endpoints,omitempty"`
}

// Endpoints overrides the derived AWS endpoints, mainly for pointing at a
// LocalStack or test server.
type Endpoints struct {
	SecretsManager string `yaml:"secretsmanager,omitempty" json:"secretsmanager,omitempty"`
	SSM            string `yaml:"ssm,omitempty" json:"ssm,omitempty"`
}

// Load reads and validates the configuration file. A missing file at the
// default path is fine and yields the zero-value definition; a missing file
// at an explicitly requested path is an error.
func (c *Config) Load() error {
	path := c.Path
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if !explicit {
				c.Definition = &Definition{}
				return nil
			}
			return aserrors.ConfigError{
				Field:      "path",
				Value:      path,
				Message:    "configuration file not found",
				Suggestion: "Check the --config path, or omit it to run with defaults",
			}
		}
		return aserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return aserrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	if err := validateDefinition(&def); err != nil {
		return err
	}

	c.Definition = &def
	return nil
}

// validateDefinition checks the parsed file against the embedded schema.
func validateDefinition(def *Definition) error {
	doc, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var messages []string
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return aserrors.ConfigError{
			Message:    "configuration does not match the expected structure:\n  - " + strings.Join(messages, "\n  - "),
			Suggestion: "Supported keys: version, env_prefix, timeout_ms, endpoints.secretsmanager, endpoints.ssm",
		}
	}

	if def.Version != 0 {
		return aserrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set 'version: 0' at the top of your arnsub.yaml file",
		}
	}
	return nil
}

// GetEnvPrefix returns the configured variable prefix or the default.
func (d *Definition) GetEnvPrefix() string {
	if d.EnvPrefix == "" {
		return envbind.DefaultPrefix
	}
	return d.EnvPrefix
}

// GetTimeoutMs returns the configured request timeout in milliseconds.
func (d *Definition) GetTimeoutMs() int {
	if d.TimeoutMs <= 0 {
		return defaultTimeoutMs
	}
	return d.TimeoutMs
}

// CredentialsFromEnv reads the standard AWS credential variables. The
// access key pair is required; the session token is optional and only set
// for temporary credentials.
func CredentialsFromEnv() (sigv4.Credentials, error) {
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if accessKey == "" || secretKey == "" {
		return sigv4.Credentials{}, aserrors.UserError{
			Message:    "AWS credentials not found in environment",
			Suggestion: "Set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY (and AWS_SESSION_TOKEN for temporary credentials)",
		}
	}

	return sigv4.Credentials{
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
	}, nil
}
