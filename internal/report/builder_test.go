package report_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/standup/internal/history"
	"github.com/temirov/standup/internal/report"
)

const (
	testAuthorConstant          = "Ada Lovelace"
	alphaRepositoryConstant     = "/workspace/alpha"
	betaRepositoryConstant      = "/workspace/nested/beta"
	gammaRepositoryConstant     = "/workspace/gamma"
	queryFailureMessageConstant = "Repository history query failed; reporting no commits"
)

var errCorruptRepository = errors.New("object file is empty")

type scriptedQuerier struct {
	commitsByRepository  map[string]string
	failuresByRepository map[string]error
	delaysByRepository   map[string]time.Duration
	activeQueries        atomic.Int32
	maximumActiveQueries atomic.Int32
	mutex                sync.Mutex
	queriedAuthors       []string
}

func (querier *scriptedQuerier) QueryDay(_ context.Context, repositoryPath string, author string, _ history.DayWindow) (string, error) {
	activeQueries := querier.activeQueries.Add(1)
	defer querier.activeQueries.Add(-1)
	for {
		observedMaximum := querier.maximumActiveQueries.Load()
		if activeQueries <= observedMaximum || querier.maximumActiveQueries.CompareAndSwap(observedMaximum, activeQueries) {
			break
		}
	}

	querier.mutex.Lock()
	querier.queriedAuthors = append(querier.queriedAuthors, author)
	querier.mutex.Unlock()

	time.Sleep(querier.delaysByRepository[repositoryPath])

	if failure, failed := querier.failuresByRepository[repositoryPath]; failed {
		return "", history.RepositoryQueryError{RepositoryPath: repositoryPath, Cause: failure}
	}
	return querier.commitsByRepository[repositoryPath], nil
}

func TestNewBuilderValidatesDependencies(testInstance *testing.T) {
	_, loggerError := report.NewBuilder(nil, &scriptedQuerier{}, 0)
	require.ErrorIs(testInstance, loggerError, report.ErrLoggerNotConfigured)

	_, querierError := report.NewBuilder(zap.NewNop(), nil, 0)
	require.ErrorIs(testInstance, querierError, report.ErrQuerierNotConfigured)
}

func TestBuildDayKeepsDiscoveryOrderAndIsolatesFailures(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	querier := &scriptedQuerier{
		commitsByRepository: map[string]string{
			alphaRepositoryConstant: "Add parser\nFix lexer",
			gammaRepositoryConstant: "Write docs",
		},
		failuresByRepository: map[string]error{betaRepositoryConstant: errCorruptRepository},
		delaysByRepository: map[string]time.Duration{
			alphaRepositoryConstant: 30 * time.Millisecond,
			betaRepositoryConstant:  15 * time.Millisecond,
		},
	}
	builder, builderError := report.NewBuilder(zap.New(observedCore), querier, 0)
	require.NoError(testInstance, builderError)

	window := history.NewDayWindow(time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC), 2)
	dayReport := builder.BuildDay(context.Background(), window, []string{alphaRepositoryConstant, betaRepositoryConstant, gammaRepositoryConstant}, testAuthorConstant)

	require.Equal(testInstance, window, dayReport.Window)
	require.False(testInstance, dayReport.Empty())
	require.Len(testInstance, dayReport.Repositories, 3)

	require.Equal(testInstance, "alpha", dayReport.Repositories[0].DisplayName)
	require.Equal(testInstance, "Add parser\nFix lexer", dayReport.Repositories[0].Commits)
	require.NoError(testInstance, dayReport.Repositories[0].Failure)

	require.Equal(testInstance, "beta", dayReport.Repositories[1].DisplayName)
	require.Empty(testInstance, dayReport.Repositories[1].Commits)
	require.ErrorIs(testInstance, dayReport.Repositories[1].Failure, errCorruptRepository)

	require.Equal(testInstance, "gamma", dayReport.Repositories[2].DisplayName)
	require.Equal(testInstance, gammaRepositoryConstant, dayReport.Repositories[2].RepositoryPath)

	require.ElementsMatch(testInstance, []string{testAuthorConstant, testAuthorConstant, testAuthorConstant}, querier.queriedAuthors)

	failureLogs := observedLogs.FilterMessage(queryFailureMessageConstant).All()
	require.Len(testInstance, failureLogs, 1)
	require.Equal(testInstance, zapcore.DebugLevel, failureLogs[0].Level)
	require.Equal(testInstance, betaRepositoryConstant, failureLogs[0].ContextMap()["repository"])
	require.EqualValues(testInstance, 2, failureLogs[0].ContextMap()["day_offset"])
}

func TestBuildDayWithoutRepositoriesIsEmpty(testInstance *testing.T) {
	builder, builderError := report.NewBuilder(zap.NewNop(), &scriptedQuerier{}, 0)
	require.NoError(testInstance, builderError)

	dayReport := builder.BuildDay(context.Background(), history.NewDayWindow(time.Now(), 0), nil, testAuthorConstant)

	require.Empty(testInstance, dayReport.Repositories)
	require.True(testInstance, dayReport.Empty())
}

func TestBuildDayHonorsConcurrencyLimit(testInstance *testing.T) {
	repositories := []string{"/r/one", "/r/two", "/r/three", "/r/four", "/r/five", "/r/six"}
	delays := make(map[string]time.Duration, len(repositories))
	for _, repositoryPath := range repositories {
		delays[repositoryPath] = 10 * time.Millisecond
	}

	testCases := []struct {
		name             string
		concurrencyLimit int
		expectedMaximum  int32
	}{
		{name: "serial", concurrencyLimit: 1, expectedMaximum: 1},
		{name: "pair", concurrencyLimit: 2, expectedMaximum: 2},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			querier := &scriptedQuerier{delaysByRepository: delays}
			builder, builderError := report.NewBuilder(zap.NewNop(), querier, testCase.concurrencyLimit)
			require.NoError(testInstance, builderError)

			dayReport := builder.BuildDay(context.Background(), history.NewDayWindow(time.Now(), 0), repositories, testAuthorConstant)

			require.Len(testInstance, dayReport.Repositories, len(repositories))
			require.LessOrEqual(testInstance, querier.maximumActiveQueries.Load(), testCase.expectedMaximum)
		})
	}
}
