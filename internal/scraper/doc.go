// Package scraper fetches the club's fixture page and turns its table into matches.
//
// Fetching is done by a Fetcher: HTTPFetcher issues a single GET with browser-like
// headers, BrowserFetcher renders the page in headless Chrome for sites that build
// the table client-side. Extractor locates the fixture table with goquery and returns
// the stripped text of every cell and link in each row. Builder maps those rows onto
// validated match.Match records, inferring home and away from the row's venue marker
// and skipping rows that fail validation.
package scraper
