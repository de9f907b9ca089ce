// Package utils holds the configuration loader and logger factory shared by
// the command-line entry point.
package utils
