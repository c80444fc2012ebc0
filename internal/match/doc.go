// Package match provides the validated fixture record produced by the scraper.
//
// A Match is built once per table row with New, which rejects missing team or
// tournament names and unparseable dates or kickoff times with a *ValidationError.
// Matches without a published kickoff time are kept but never count as future
// fixtures, so they never reach the calendar.
package match
