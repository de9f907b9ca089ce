// Package discovery locates git repositories beneath a directory, bounded by a
// depth limit and pruned by exclusion globs.
package discovery
