package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

const (
	gitMetadataDirectoryNameConstant   = ".git"
	hiddenEntryPrefixConstant          = "."
	globDescendantsSuffixConstant      = "/**"
	minimumSearchDepthConstant         = 1
	rootRequiredMessageConstant        = "discovery root must be provided"
	rootNotDirectoryMessageConstant    = "discovery root is not a directory"
	invalidPatternTemplateConstant     = "invalid exclusion pattern %q"
	discoveryErrorTemplateConstant     = "repository discovery under %s failed: %v"
	unreadableDirectoryMessageConstant = "skipping unreadable directory"
	logFieldPathConstant               = "path"
)

// ErrRootRequired indicates an empty discovery root.
var ErrRootRequired = errors.New(rootRequiredMessageConstant)

// ErrRootNotDirectory indicates the discovery root exists but is not a directory.
var ErrRootNotDirectory = errors.New(rootNotDirectoryMessageConstant)

// DiscoveryError reports a failure of the search itself. Finding nothing is not an error.
type DiscoveryError struct {
	Root  string
	Cause error
}

// Error describes the failed search.
func (failure DiscoveryError) Error() string {
	return fmt.Sprintf(discoveryErrorTemplateConstant, failure.Root, failure.Cause)
}

// Unwrap exposes the underlying failure.
func (failure DiscoveryError) Unwrap() error {
	return failure.Cause
}

// FilesystemRepositoryDiscoverer locates git repositories on disk.
type FilesystemRepositoryDiscoverer struct {
	logger *zap.Logger
}

// NewFilesystemRepositoryDiscoverer constructs a repository discoverer backed by filepath.WalkDir.
func NewFilesystemRepositoryDiscoverer(logger *zap.Logger) *FilesystemRepositoryDiscoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilesystemRepositoryDiscoverer{logger: logger}
}

// DiscoverRepositories walks root and returns the absolute parent of every .git
// directory found at most maxDepth path segments below root, in walk order.
//
// Depths below one are treated as one, which only inspects root itself.
// Directories matching an exclusion pattern are pruned along with their
// subtrees. Hidden directories are not descended into.
func (discoverer *FilesystemRepositoryDiscoverer) DiscoverRepositories(root string, maxDepth int, excludePatterns []string) ([]string, error) {
	trimmedRoot := strings.TrimSpace(root)
	if len(trimmedRoot) == 0 {
		return nil, DiscoveryError{Root: root, Cause: ErrRootRequired}
	}

	absoluteRoot, absoluteError := filepath.Abs(trimmedRoot)
	if absoluteError != nil {
		return nil, DiscoveryError{Root: trimmedRoot, Cause: absoluteError}
	}

	rootInfo, statError := os.Stat(absoluteRoot)
	if statError != nil {
		return nil, DiscoveryError{Root: absoluteRoot, Cause: statError}
	}
	if !rootInfo.IsDir() {
		return nil, DiscoveryError{Root: absoluteRoot, Cause: ErrRootNotDirectory}
	}

	walkRoot, resolveError := resolveWalkRoot(absoluteRoot)
	if resolveError != nil {
		return nil, DiscoveryError{Root: absoluteRoot, Cause: resolveError}
	}

	exclusions, exclusionError := newExclusionMatcher(excludePatterns)
	if exclusionError != nil {
		return nil, DiscoveryError{Root: absoluteRoot, Cause: exclusionError}
	}

	searchDepth := maxDepth
	if searchDepth < minimumSearchDepthConstant {
		searchDepth = minimumSearchDepthConstant
	}

	walk := &repositoryWalk{
		logger:         discoverer.logger,
		exclusions:     exclusions,
		searchDepth:    searchDepth,
		logicalRoot:    walkRoot,
		repositories:   make([]string, 0),
		visitedTargets: map[string]struct{}{},
	}
	if realRoot, realRootError := filepath.EvalSymlinks(walkRoot); realRootError == nil {
		walk.visitedTargets[realRoot] = struct{}{}
	}

	if walkError := walk.walkDirectory(walkRoot, walkRoot, 0); walkError != nil {
		return nil, DiscoveryError{Root: absoluteRoot, Cause: walkError}
	}

	return walk.repositories, nil
}

// repositoryWalk carries the state of one discovery. Paths are reported under
// logicalRoot even when the walk has followed a symbolic link elsewhere.
type repositoryWalk struct {
	logger         *zap.Logger
	exclusions     exclusionMatcher
	searchDepth    int
	logicalRoot    string
	repositories   []string
	visitedTargets map[string]struct{}
}

// walkDirectory walks physicalDirectory, which appears at logicalDirectory and
// baseDepth segments below the discovery root.
func (walk *repositoryWalk) walkDirectory(physicalDirectory string, logicalDirectory string, baseDepth int) error {
	return filepath.WalkDir(physicalDirectory, func(path string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if path == physicalDirectory {
				return walkError
			}
			walk.logger.Debug(unreadableDirectoryMessageConstant, zap.String(logFieldPathConstant, path), zap.Error(walkError))
			if directoryEntry != nil && directoryEntry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if path == physicalDirectory {
			return nil
		}

		isSymbolicLink := directoryEntry.Type()&fs.ModeSymlink != 0
		if !directoryEntry.IsDir() && !isSymbolicLink {
			return nil
		}

		physicalRelativePath, relativeError := filepath.Rel(physicalDirectory, path)
		if relativeError != nil {
			return relativeError
		}
		logicalPath := filepath.Join(logicalDirectory, physicalRelativePath)
		rootRelativePath, rootRelativeError := filepath.Rel(walk.logicalRoot, logicalPath)
		if rootRelativeError != nil {
			return rootRelativeError
		}
		slashRelativePath := filepath.ToSlash(rootRelativePath)
		entryDepth := baseDepth + strings.Count(filepath.ToSlash(physicalRelativePath), "/") + 1

		if isSymbolicLink {
			return walk.followLink(path, logicalPath, slashRelativePath, directoryEntry.Name(), entryDepth)
		}

		return walk.visitDirectory(logicalPath, slashRelativePath, directoryEntry.Name(), entryDepth)
	})
}

// visitDirectory decides whether a real directory is a match, is pruned, or is descended into.
func (walk *repositoryWalk) visitDirectory(logicalPath string, slashRelativePath string, directoryName string, entryDepth int) error {
	if walk.exclusions.matches(slashRelativePath, directoryName) {
		return fs.SkipDir
	}

	if directoryName == gitMetadataDirectoryNameConstant {
		if entryDepth <= walk.searchDepth {
			walk.repositories = append(walk.repositories, filepath.Dir(logicalPath))
		}
		return fs.SkipDir
	}

	if strings.HasPrefix(directoryName, hiddenEntryPrefixConstant) {
		return fs.SkipDir
	}

	if entryDepth >= walk.searchDepth {
		return fs.SkipDir
	}

	return nil
}

// followLink applies the directory rules to a symbolic link that resolves to a
// directory and walks its target once per discovery.
func (walk *repositoryWalk) followLink(path string, logicalPath string, slashRelativePath string, linkName string, entryDepth int) error {
	targetInfo, statError := os.Stat(path)
	if statError != nil || !targetInfo.IsDir() {
		return nil
	}

	if walk.visitDirectory(logicalPath, slashRelativePath, linkName, entryDepth) != nil {
		return nil
	}

	realTarget, resolveError := filepath.EvalSymlinks(path)
	if resolveError != nil {
		walk.logger.Debug(unreadableDirectoryMessageConstant, zap.String(logFieldPathConstant, path), zap.Error(resolveError))
		return nil
	}
	if _, visited := walk.visitedTargets[realTarget]; visited {
		return nil
	}
	walk.visitedTargets[realTarget] = struct{}{}

	if linkedWalkError := walk.walkDirectory(realTarget, logicalPath, entryDepth); linkedWalkError != nil {
		walk.logger.Debug(unreadableDirectoryMessageConstant, zap.String(logFieldPathConstant, path), zap.Error(linkedWalkError))
	}
	return nil
}

// resolveWalkRoot follows a symlinked root because filepath.WalkDir does not
// descend into a root that is itself a link.
func resolveWalkRoot(absoluteRoot string) (string, error) {
	linkInfo, linkError := os.Lstat(absoluteRoot)
	if linkError != nil {
		return "", linkError
	}
	if linkInfo.Mode()&fs.ModeSymlink == 0 {
		return absoluteRoot, nil
	}
	return filepath.EvalSymlinks(absoluteRoot)
}

// exclusionMatcher evaluates doublestar globs against root-relative, slash-separated paths.
type exclusionMatcher struct {
	patterns []string
}

func newExclusionMatcher(rawPatterns []string) (exclusionMatcher, error) {
	patterns := make([]string, 0, len(rawPatterns)*2)
	for _, rawPattern := range rawPatterns {
		trimmedPattern := strings.TrimSpace(filepath.ToSlash(rawPattern))
		if len(trimmedPattern) == 0 {
			continue
		}
		if !doublestar.ValidatePattern(trimmedPattern) {
			return exclusionMatcher{}, fmt.Errorf(invalidPatternTemplateConstant, rawPattern)
		}
		patterns = append(patterns, trimmedPattern)

		// "dist/**" also names the dist directory itself.
		directoryPattern := strings.TrimSuffix(trimmedPattern, globDescendantsSuffixConstant)
		if directoryPattern != trimmedPattern && len(directoryPattern) > 0 {
			patterns = append(patterns, directoryPattern)
		}
	}
	return exclusionMatcher{patterns: patterns}, nil
}

// matches reports whether the directory's relative path or its own name matches any pattern.
func (matcher exclusionMatcher) matches(slashRelativePath string, directoryName string) bool {
	for _, pattern := range matcher.patterns {
		if pathMatched, _ := doublestar.Match(pattern, slashRelativePath); pathMatched {
			return true
		}
		if nameMatched, _ := doublestar.Match(pattern, directoryName); nameMatched {
			return true
		}
	}
	return false
}
