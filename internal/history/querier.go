package history

import (
	"context"
	"fmt"
	"strings"
)

const (
	repositoryQueryErrorTemplateConstant = "commit query for %s failed: %v"
	summaryLineSeparatorConstant         = "\n"
)

// Querier returns the newline-joined summary lines of author's commits inside
// window, trimmed. An empty string means no commits.
type Querier interface {
	QueryDay(executionContext context.Context, repositoryPath string, author string, window DayWindow) (string, error)
}

// RepositoryQueryError reports a failed history query for one repository.
type RepositoryQueryError struct {
	RepositoryPath string
	Cause          error
}

// Error describes the failed query.
func (failure RepositoryQueryError) Error() string {
	return fmt.Sprintf(repositoryQueryErrorTemplateConstant, failure.RepositoryPath, failure.Cause)
}

// Unwrap exposes the underlying failure.
func (failure RepositoryQueryError) Unwrap() error {
	return failure.Cause
}

func joinSummaryLines(summaryLines []string) string {
	return strings.TrimSpace(strings.Join(summaryLines, summaryLineSeparatorConstant))
}
