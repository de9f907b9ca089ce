// Package cli builds the standup command: flag and configuration handling,
// logger setup, and wiring of the discovery, history and report packages.
package cli
