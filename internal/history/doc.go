// Package history computes calendar-day windows and queries a repository for
// the summary lines of commits an author made inside one window.
//
// Two backends implement Querier: CLIQuerier runs git log through the shell
// executor, LibraryQuerier reads the object database in-process with go-git.
package history
