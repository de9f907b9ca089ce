package report

import (
	"context"
	"errors"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/standup/internal/history"
)

const (
	loggerMissingMessageConstant      = "report builder logger not configured"
	querierMissingMessageConstant     = "report builder querier not configured"
	queryFailureLogMessageConstant    = "Repository history query failed; reporting no commits"
	logFieldRepositoryPathConstant    = "repository"
	logFieldDayOffsetConstant         = "day_offset"
	unboundedConcurrencyLimitConstant = 0
)

var (
	// ErrLoggerNotConfigured indicates the builder was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerMissingMessageConstant)
	// ErrQuerierNotConfigured indicates the builder was constructed without a history querier.
	ErrQuerierNotConfigured = errors.New(querierMissingMessageConstant)
)

// RepositoryResult is one repository's outcome for a day. A non-nil Failure
// renders exactly like an empty Commits.
type RepositoryResult struct {
	RepositoryPath string
	DisplayName    string
	Commits        string
	Failure        error
}

// DayReport holds every repository's result for one window in discovery order.
type DayReport struct {
	Window       history.DayWindow
	Repositories []RepositoryResult
}

// Empty reports whether no repository has commits for the day.
func (dayReport DayReport) Empty() bool {
	for _, repositoryResult := range dayReport.Repositories {
		if len(repositoryResult.Commits) > 0 {
			return false
		}
	}
	return true
}

// Builder fans out one history query per repository for a day.
type Builder struct {
	logger           *zap.Logger
	querier          history.Querier
	concurrencyLimit int
}

// NewBuilder constructs a Builder. A concurrencyLimit of zero or less leaves the fan-out unbounded.
func NewBuilder(logger *zap.Logger, querier history.Querier, concurrencyLimit int) (*Builder, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if querier == nil {
		return nil, ErrQuerierNotConfigured
	}
	if concurrencyLimit < unboundedConcurrencyLimitConstant {
		concurrencyLimit = unboundedConcurrencyLimitConstant
	}
	return &Builder{logger: logger, querier: querier, concurrencyLimit: concurrencyLimit}, nil
}

// BuildDay queries every repository for author's commits inside window and waits
// for all of them. Failures are recorded per repository and never cancel siblings.
func (builder *Builder) BuildDay(executionContext context.Context, window history.DayWindow, repositories []string, author string) DayReport {
	repositoryResults := make([]RepositoryResult, len(repositories))

	var queryGroup errgroup.Group
	if builder.concurrencyLimit > unboundedConcurrencyLimitConstant {
		queryGroup.SetLimit(builder.concurrencyLimit)
	}

	for repositoryIndex, repositoryPath := range repositories {
		queryGroup.Go(func() error {
			commits, queryError := builder.querier.QueryDay(executionContext, repositoryPath, author, window)
			repositoryResults[repositoryIndex] = RepositoryResult{
				RepositoryPath: repositoryPath,
				DisplayName:    filepath.Base(repositoryPath),
				Commits:        commits,
				Failure:        queryError,
			}
			if queryError != nil {
				repositoryResults[repositoryIndex].Commits = ""
				builder.logger.Debug(queryFailureLogMessageConstant,
					zap.String(logFieldRepositoryPathConstant, repositoryPath),
					zap.Int(logFieldDayOffsetConstant, window.Offset),
					zap.Error(queryError),
				)
			}
			return nil
		})
	}
	// Tasks always return nil; each query failure is recorded in its own result slot.
	_ = queryGroup.Wait()

	return DayReport{Window: window, Repositories: repositoryResults}
}
