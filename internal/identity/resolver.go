package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/standup/internal/execshell"
)

const (
	gitConfigSubcommandConstant                = "config"
	gitUserNameKeyConstant                     = "user.name"
	gitExecutorMissingMessageConstant          = "git executor not configured"
	identityEmptyMessageConstant               = "git user.name is empty"
	identityResolutionTemplateConstant         = "unable to resolve git identity: %v"
	identityResolutionWithHintTemplateConstant = "unable to resolve git identity (set it with `git config --global user.name \"Your Name\"` or pass --author): %v"
)

// ErrGitExecutorNotConfigured indicates the resolver was constructed without a git executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrIdentityEmpty indicates git reported an identity made only of whitespace.
var ErrIdentityEmpty = errors.New(identityEmptyMessageConstant)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// IdentityResolutionError reports that no author identity could be obtained.
type IdentityResolutionError struct {
	Cause error
}

// Error describes the resolution failure.
func (failure IdentityResolutionError) Error() string {
	var commandFailure execshell.CommandFailedError
	if errors.As(failure.Cause, &commandFailure) || errors.Is(failure.Cause, ErrIdentityEmpty) {
		return fmt.Sprintf(identityResolutionWithHintTemplateConstant, failure.Cause)
	}
	return fmt.Sprintf(identityResolutionTemplateConstant, failure.Cause)
}

// Unwrap exposes the underlying failure.
func (failure IdentityResolutionError) Unwrap() error {
	return failure.Cause
}

// Resolver looks up the configured author name.
type Resolver struct {
	executor       GitExecutor
	authorOverride string
}

// NewResolver constructs a Resolver. A non-empty authorOverride is returned
// verbatim without consulting git.
func NewResolver(executor GitExecutor, authorOverride string) (*Resolver, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &Resolver{executor: executor, authorOverride: strings.TrimSpace(authorOverride)}, nil
}

// ResolveIdentity returns the trimmed author name.
func (resolver *Resolver) ResolveIdentity(executionContext context.Context) (string, error) {
	if len(resolver.authorOverride) > 0 {
		return resolver.authorOverride, nil
	}

	executionResult, executionError := resolver.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments: []string{gitConfigSubcommandConstant, gitUserNameKeyConstant},
	})
	if executionError != nil {
		return "", IdentityResolutionError{Cause: executionError}
	}

	identity := strings.TrimSpace(executionResult.StandardOutput)
	if len(identity) == 0 {
		return "", IdentityResolutionError{Cause: ErrIdentityEmpty}
	}

	return identity, nil
}
