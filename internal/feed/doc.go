// Package feed downloads the FDIC institutions feed.
//
// Fetcher issues a GET against the configured URL, retrying transport
// failures and 429/5xx responses with linearly growing backoff, and stores
// the body under the downloads directory through files.Manager. Every
// attempt is counted in the banks_feed_fetch_attempts metric.
package feed
