// Package scraper provides HTTP fetching and HTML parsing for the MassDOT
// PROJIS project database.
//
// The PROJIS pages are served as loosely structured, sometimes malformed
// HTML. Parsing goes through a lenient tree builder that recovers from
// unclosed and misnested tags; extraction degrades field by field instead of
// failing, so a broken fragment in one record never loses the rest of the
// page. ParseListing reads the project listing table and ParseDetail reads a
// single project's detail page; the Scraper type wraps both with the HTTP
// fetches.
package scraper
