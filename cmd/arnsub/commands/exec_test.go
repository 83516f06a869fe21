package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	aserrors "github.com/systmms/arnsub/internal/errors"
)

func TestExecCommand_NoCommand(t *testing.T) {
	cmd := NewExecCommand(testConfig())
	cmd.SetArgs([]string{})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	require.Error(t, err)

	var uerr aserrors.UserError
	require.ErrorAs(t, err, &uerr)
	assert.Contains(t, uerr.Message, "No command specified")
}

func TestExecCommand_NoARNsRunsDirectly(t *testing.T) {
	cmd := NewExecCommand(testConfig())
	cmd.SetArgs([]string{"--", "true"})
	cmd.SilenceUsage = true

	assert.NoError(t, cmd.Execute())
}

func TestExecCommand_MissingCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	t.Setenv("ARNSUB_SECRET", "${"+planTestARN+"}")

	cmd := NewExecCommand(testConfig())
	cmd.SetArgs([]string{"--", "true"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	require.Error(t, err)

	var uerr aserrors.UserError
	require.ErrorAs(t, err, &uerr)
	assert.Contains(t, uerr.Message, "credentials")
}
