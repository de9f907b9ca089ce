package execshell_test

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/standup/internal/execshell"
)

func TestOSCommandRunnerReportsExitCodes(testInstance *testing.T) {
	if _, lookupError := exec.LookPath("git"); lookupError != nil {
		testInstance.Skip("git executable not available")
	}

	runner := execshell.NewOSCommandRunner()

	versionResult, versionError := runner.Run(context.Background(), execshell.ShellCommand{
		Name:    execshell.CommandGit,
		Details: execshell.CommandDetails{Arguments: []string{"--version"}},
	})
	require.NoError(testInstance, versionError)
	require.Zero(testInstance, versionResult.ExitCode)
	require.Contains(testInstance, versionResult.StandardOutput, "git version")

	nonRepositoryDirectory := testInstance.TempDir()
	failureResult, failureError := runner.Run(context.Background(), execshell.ShellCommand{
		Name: execshell.CommandGit,
		Details: execshell.CommandDetails{
			Arguments:            []string{"log"},
			WorkingDirectory:     nonRepositoryDirectory,
			EnvironmentVariables: map[string]string{"GIT_CEILING_DIRECTORIES": filepath.Dir(nonRepositoryDirectory)},
		},
	})
	require.NoError(testInstance, failureError)
	require.NotZero(testInstance, failureResult.ExitCode)
	require.NotEmpty(testInstance, failureResult.StandardError)
}

func TestOSCommandRunnerReportsMissingExecutable(testInstance *testing.T) {
	runner := execshell.NewOSCommandRunner()

	_, runError := runner.Run(context.Background(), execshell.ShellCommand{Name: execshell.CommandName("standup-missing-executable")})

	require.Error(testInstance, runError)
}
