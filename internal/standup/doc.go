// Package standup orchestrates a standup run: resolve the author, discover
// repositories once, then build and render one report block per day.
package standup
