// Package scraper provides HTTP fetching and HTML parsing for the HIM waste calendar.
//
// The scraper package fetches the public "tømmekalender" page for a single property
// from him.as and extracts the next pickup date for every waste category. The page
// lists one block per category in a fixed order; each block carries a Norwegian
// "day. month" label that is resolved against the current year.
package scraper
