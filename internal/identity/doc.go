// Package identity resolves the author name whose commits standup reports.
package identity
