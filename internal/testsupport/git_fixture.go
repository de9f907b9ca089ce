// Package testsupport builds throwaway git repositories for tests.
package testsupport

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/standup/internal/execshell"
)

const (
	fixtureEmailConstant                  = "fixture@example.com"
	fixtureTimestampLayoutConstant        = "2006-01-02T15:04:05-07:00"
	gitExecutableNameConstant             = "git"
	gitConfigGlobalVariableConstant       = "GIT_CONFIG_GLOBAL"
	gitConfigNoSystemVariableConstant     = "GIT_CONFIG_NOSYSTEM"
	gitAuthorNameVariableConstant         = "GIT_AUTHOR_NAME"
	gitAuthorEmailVariableConstant        = "GIT_AUTHOR_EMAIL"
	gitAuthorDateVariableConstant         = "GIT_AUTHOR_DATE"
	gitCommitterNameVariableConstant      = "GIT_COMMITTER_NAME"
	gitCommitterEmailVariableConstant     = "GIT_COMMITTER_EMAIL"
	gitCommitterDateVariableConstant      = "GIT_COMMITTER_DATE"
	gitCeilingDirectoriesVariableConstant = "GIT_CEILING_DIRECTORIES"
	nullDeviceConstant                    = "/dev/null"
	enabledValueConstant                  = "1"
	fixtureDirectoryPermissionsConstant   = 0o755
)

// FixtureCommit describes one commit to record in a fixture repository.
type FixtureCommit struct {
	Author  string
	Message string
	When    time.Time
}

// RequireGit skips the test when no git executable is available.
func RequireGit(testInstance testing.TB) {
	testInstance.Helper()
	if _, lookupError := exec.LookPath(gitExecutableNameConstant); lookupError != nil {
		testInstance.Skip("git executable not available")
	}
}

// IsolatedEnvironment returns git environment variables that keep the user's and
// system's git configuration out of a test.
func IsolatedEnvironment(ceilingDirectory string) map[string]string {
	return map[string]string{
		gitConfigGlobalVariableConstant:       nullDeviceConstant,
		gitConfigNoSystemVariableConstant:     enabledValueConstant,
		gitCeilingDirectoriesVariableConstant: ceilingDirectory,
	}
}

// InitRepository creates a git repository at repositoryPath and records commits
// in order, using each commit's When as both author and committer date.
func InitRepository(testInstance testing.TB, repositoryPath string, commits ...FixtureCommit) {
	testInstance.Helper()

	require.NoError(testInstance, os.MkdirAll(repositoryPath, fixtureDirectoryPermissionsConstant))
	runGit(testInstance, repositoryPath, nil, "init", "--quiet")
	for _, commit := range commits {
		formattedWhen := commit.When.Format(fixtureTimestampLayoutConstant)
		runGit(testInstance, repositoryPath, map[string]string{
			gitAuthorNameVariableConstant:     commit.Author,
			gitAuthorEmailVariableConstant:    fixtureEmailConstant,
			gitAuthorDateVariableConstant:     formattedWhen,
			gitCommitterNameVariableConstant:  commit.Author,
			gitCommitterEmailVariableConstant: fixtureEmailConstant,
			gitCommitterDateVariableConstant:  formattedWhen,
		}, "-c", "commit.gpgsign=false", "commit", "--quiet", "--allow-empty", "-m", commit.Message)
	}
}

func runGit(testInstance testing.TB, workingDirectory string, extraEnvironment map[string]string, arguments ...string) {
	testInstance.Helper()

	environment := IsolatedEnvironment(filepath.Dir(workingDirectory))
	for variableName, variableValue := range extraEnvironment {
		environment[variableName] = variableValue
	}

	executionResult, runError := execshell.NewOSCommandRunner().Run(context.Background(), execshell.ShellCommand{
		Name: execshell.CommandGit,
		Details: execshell.CommandDetails{
			Arguments:            arguments,
			WorkingDirectory:     workingDirectory,
			EnvironmentVariables: environment,
		},
	})
	require.NoError(testInstance, runError)
	require.Zerof(testInstance, executionResult.ExitCode, "git %v failed: %s", arguments, executionResult.StandardError)
}
