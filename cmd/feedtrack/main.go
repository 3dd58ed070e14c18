// Package main provides the entry point for the feedtrack CLI.
//
// feedtrack tracks student deliverables through staging and submission,
// lets supervisors attach feedback criteria, and asks a generative model
// whether a revision addresses them.
//
// Usage:
//
//	feedtrack upload --user 1 12 thesis-v2.pdf
//	feedtrack submit --user 1 12
//	feedtrack evaluate --user 2 12
//
// See --help for all available options.
package main

func main() {
	Execute()
}
