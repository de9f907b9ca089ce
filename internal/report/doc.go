// Package report builds one day's per-repository commit digest concurrently and
// renders it as indented text.
package report
