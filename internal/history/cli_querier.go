package history

import (
	"context"
	"errors"
	"strings"

	"github.com/temirov/standup/internal/execshell"
)

const (
	gitLogSubcommandConstant          = "log"
	gitFixedStringsFlagConstant       = "--fixed-strings"
	gitAuthorFlagPrefixConstant       = "--author="
	gitSinceFlagPrefixConstant        = "--since="
	gitUntilFlagPrefixConstant        = "--until="
	gitPrettyFormatFlagConstant       = "--pretty=format:%an%x1f%s"
	gitNoColorFlagConstant            = "--no-color"
	gitTimestampLayoutConstant        = "2006-01-02 15:04:05 -0700"
	authorSummarySeparatorConstant    = "\x1f"
	outputLineSeparatorConstant       = "\n"
	gitExecutorMissingMessageConstant = "git executor not configured"
	gitTerminalPromptVariableConstant = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledConstant = "0"
)

// ErrGitExecutorNotConfigured indicates the CLI querier was constructed without a git executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CLIQuerier queries history by running git log in the repository.
type CLIQuerier struct {
	executor GitExecutor
}

// NewCLIQuerier constructs a CLIQuerier.
func NewCLIQuerier(executor GitExecutor) (*CLIQuerier, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &CLIQuerier{executor: executor}, nil
}

// QueryDay runs a single git log restricted to window. git matches --author as a
// substring of "name <email>", so lines from other authors are dropped here to
// keep the match exact on the name.
func (querier *CLIQuerier) QueryDay(executionContext context.Context, repositoryPath string, author string, window DayWindow) (string, error) {
	executionResult, executionError := querier.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            BuildLogArguments(author, window),
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: map[string]string{gitTerminalPromptVariableConstant: gitTerminalPromptDisabledConstant},
	})
	if executionError != nil {
		return "", RepositoryQueryError{RepositoryPath: repositoryPath, Cause: executionError}
	}

	return joinSummaryLines(parseAuthoredSummaries(executionResult.StandardOutput, author)), nil
}

// BuildLogArguments returns the git log arguments for author's commits inside window.
func BuildLogArguments(author string, window DayWindow) []string {
	return []string{
		gitLogSubcommandConstant,
		gitNoColorFlagConstant,
		gitFixedStringsFlagConstant,
		gitAuthorFlagPrefixConstant + author,
		gitSinceFlagPrefixConstant + window.Start.Format(gitTimestampLayoutConstant),
		gitUntilFlagPrefixConstant + window.End.Format(gitTimestampLayoutConstant),
		gitPrettyFormatFlagConstant,
	}
}

func parseAuthoredSummaries(rawOutput string, author string) []string {
	summaryLines := make([]string, 0)
	for _, outputLine := range strings.Split(rawOutput, outputLineSeparatorConstant) {
		authorName, summary, separatorFound := strings.Cut(outputLine, authorSummarySeparatorConstant)
		if !separatorFound || authorName != author {
			continue
		}
		summaryLines = append(summaryLines, strings.TrimRight(summary, "\r"))
	}
	return summaryLines
}
