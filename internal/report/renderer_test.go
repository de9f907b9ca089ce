package report_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/standup/internal/history"
	"github.com/temirov/standup/internal/report"
)

type countingWriter struct {
	bytes.Buffer
	writeCount int
}

func (writer *countingWriter) Write(payload []byte) (int, error) {
	writer.writeCount++
	return writer.Buffer.Write(payload)
}

func TestRendererWritesDayBlocks(testInstance *testing.T) {
	window := history.NewDayWindow(time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC), 0)

	testCases := []struct {
		name           string
		repositories   []report.RepositoryResult
		expectedOutput string
	}{
		{
			name: "repositories_with_commits",
			repositories: []report.RepositoryResult{
				{DisplayName: "repoA", Commits: "Add parser\nFix lexer"},
				{DisplayName: "repoB"},
				{DisplayName: "repoC", Commits: "Write docs"},
			},
			expectedOutput: "\trepoA:\n\t\tAdd parser\n\t\tFix lexer\n\trepoC:\n\t\tWrite docs\n",
		},
		{
			name: "failures_render_as_empty",
			repositories: []report.RepositoryResult{
				{DisplayName: "repoA", Failure: errors.New("not a git repository")},
				{DisplayName: "repoB"},
			},
			expectedOutput: "\tNo commits found.\n",
		},
		{
			name:           "no_repositories",
			expectedOutput: "\tNo commits found.\n",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			outputWriter := &countingWriter{}
			renderer := report.NewRenderer(outputWriter)

			require.NoError(testInstance, renderer.RenderDay(report.DayReport{Window: window, Repositories: testCase.repositories}))

			require.Equal(testInstance, testCase.expectedOutput, outputWriter.String())
			require.Equal(testInstance, 1, outputWriter.writeCount)
		})
	}
}

func TestRendererWritesHeaderAndSeparator(testInstance *testing.T) {
	var outputBuffer bytes.Buffer
	renderer := report.NewRenderer(&outputBuffer)
	window := history.NewDayWindow(time.Date(2026, time.October, 19, 12, 0, 0, 0, time.Local), 1)

	require.NoError(testInstance, renderer.RenderHeader(window))
	require.NoError(testInstance, renderer.RenderDay(report.DayReport{Window: window}))
	require.NoError(testInstance, renderer.RenderSeparator())

	require.Equal(testInstance, "Sun Oct 18 2026\n\tNo commits found.\n\n", outputBuffer.String())
}
