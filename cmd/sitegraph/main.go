// Package main provides the sitegraph CLI.
//
// sitegraph crawls a website into links.json and serves an explorable graph
// of its pages with an SEO and accessibility scorecard.
//
// Usage:
//
//	sitegraph crawl https://example.com
//	sitegraph serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
