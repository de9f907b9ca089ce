// Package pathutils resolves user-supplied directory arguments.
package pathutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	tildeSymbolConstant                = "~"
	homeDirectoryErrorTemplateConstant = "resolve home directory for %q: %w"
)

// ErrHomeDirectoryUnavailable indicates the home directory lookup returned an empty path.
var ErrHomeDirectoryUnavailable = errors.New("home directory unavailable")

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// HomeExpander replaces a leading "~" path segment with the user's home directory.
type HomeExpander struct {
	homeDirectoryProvider HomeDirectoryProvider
}

// NewHomeExpander constructs a HomeExpander using the operating system lookup.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider constructs a HomeExpander with a custom provider.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{homeDirectoryProvider: provider}
}

// Expand resolves "~" and "~/rest" against the home directory. Other paths,
// including "~name/rest", are returned unchanged.
func (expander *HomeExpander) Expand(candidatePath string) (string, error) {
	remainder, hasTilde := strings.CutPrefix(candidatePath, tildeSymbolConstant)
	if !hasTilde {
		return candidatePath, nil
	}
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != filepath.Separator {
		return candidatePath, nil
	}

	homeDirectory, homeError := expander.homeDirectoryProvider()
	if homeError == nil && len(homeDirectory) == 0 {
		homeError = ErrHomeDirectoryUnavailable
	}
	if homeError != nil {
		return "", fmt.Errorf(homeDirectoryErrorTemplateConstant, candidatePath, homeError)
	}

	return filepath.Join(homeDirectory, remainder), nil
}
