package history

import (
	"context"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/plumbing/storer"
)

const (
	paragraphSeparatorConstant = "\n\n"
	lineSeparatorConstant      = "\n"
	subjectJoinerConstant      = " "
)

// LibraryQuerier queries history in-process with go-git, without a git executable.
type LibraryQuerier struct{}

// NewLibraryQuerier constructs a LibraryQuerier.
func NewLibraryQuerier() *LibraryQuerier {
	return &LibraryQuerier{}
}

// QueryDay walks the commits reachable from HEAD, newest committer time first,
// and keeps those inside window whose author name equals author.
func (querier *LibraryQuerier) QueryDay(executionContext context.Context, repositoryPath string, author string, window DayWindow) (string, error) {
	repository, openError := git.PlainOpen(repositoryPath)
	if openError != nil {
		return "", RepositoryQueryError{RepositoryPath: repositoryPath, Cause: openError}
	}

	headReference, headError := repository.Head()
	if headError != nil {
		return "", RepositoryQueryError{RepositoryPath: repositoryPath, Cause: headError}
	}

	commitIterator, logError := repository.Log(&git.LogOptions{
		From:  headReference.Hash(),
		Order: git.LogOrderCommitterTime,
	})
	if logError != nil {
		return "", RepositoryQueryError{RepositoryPath: repositoryPath, Cause: logError}
	}
	defer commitIterator.Close()

	summaryLines := make([]string, 0)
	iterationError := commitIterator.ForEach(func(commit *object.Commit) error {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}

		committedAt := commit.Committer.When
		if committedAt.Before(window.Start) {
			return storer.ErrStop
		}
		if !window.Contains(committedAt) || commit.Author.Name != author {
			return nil
		}

		summaryLines = append(summaryLines, SummaryLine(commit.Message))
		return nil
	})
	if iterationError != nil {
		return "", RepositoryQueryError{RepositoryPath: repositoryPath, Cause: iterationError}
	}

	return joinSummaryLines(summaryLines), nil
}

// SummaryLine returns a commit message's subject the way git's %s placeholder
// does: the first paragraph with its line breaks folded into spaces.
func SummaryLine(message string) string {
	normalizedMessage := strings.TrimLeft(strings.ReplaceAll(message, "\r\n", lineSeparatorConstant), lineSeparatorConstant)
	firstParagraph, _, _ := strings.Cut(normalizedMessage, paragraphSeparatorConstant)

	subjectLines := make([]string, 0)
	for _, paragraphLine := range strings.Split(firstParagraph, lineSeparatorConstant) {
		trimmedLine := strings.TrimSpace(paragraphLine)
		if len(trimmedLine) > 0 {
			subjectLines = append(subjectLines, trimmedLine)
		}
	}
	return strings.Join(subjectLines, subjectJoinerConstant)
}
