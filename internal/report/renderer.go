package report

import (
	"bytes"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/temirov/standup/internal/history"
)

const (
	repositoryIndentConstant      = "\t"
	commitIndentConstant          = "\t\t"
	repositoryLabelSuffixConstant = ":"
	lineBreakConstant             = "\n"
	noCommitsMessageConstant      = "No commits found."
	placeholderColorConstant      = "8"
)

// Renderer writes day reports as indented text. The placeholder is grey only
// when the writer is a color-capable terminal.
type Renderer struct {
	writer           io.Writer
	placeholderStyle lipgloss.Style
}

// NewRenderer constructs a Renderer that writes to writer.
func NewRenderer(writer io.Writer) *Renderer {
	styleRenderer := lipgloss.NewRenderer(writer)
	return &Renderer{
		writer:           writer,
		placeholderStyle: styleRenderer.NewStyle().Foreground(lipgloss.Color(placeholderColorConstant)),
	}
}

// RenderHeader writes the calendar date the window represents.
func (renderer *Renderer) RenderHeader(window history.DayWindow) error {
	_, writeError := io.WriteString(renderer.writer, window.Label()+lineBreakConstant)
	return writeError
}

// RenderDay writes the day's repository blocks, or the placeholder when the day
// is empty, in a single write.
func (renderer *Renderer) RenderDay(dayReport DayReport) error {
	var dayBuffer bytes.Buffer

	if dayReport.Empty() {
		dayBuffer.WriteString(repositoryIndentConstant)
		dayBuffer.WriteString(renderer.placeholderStyle.Render(noCommitsMessageConstant))
		dayBuffer.WriteString(lineBreakConstant)
	}

	for _, repositoryResult := range dayReport.Repositories {
		if len(repositoryResult.Commits) == 0 {
			continue
		}
		dayBuffer.WriteString(repositoryIndentConstant + repositoryResult.DisplayName + repositoryLabelSuffixConstant + lineBreakConstant)
		indentedCommits := strings.ReplaceAll(repositoryResult.Commits, lineBreakConstant, lineBreakConstant+commitIndentConstant)
		dayBuffer.WriteString(commitIndentConstant + indentedCommits + lineBreakConstant)
	}

	_, writeError := renderer.writer.Write(dayBuffer.Bytes())
	return writeError
}

// RenderSeparator writes the blank line that closes a day block.
func (renderer *Renderer) RenderSeparator() error {
	_, writeError := io.WriteString(renderer.writer, lineBreakConstant)
	return writeError
}
