// Package report renders outlines and feedback criteria for people and tools.
//
// This package contains writers for different output formats:
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: GitHub Flavored Markdown for sharing with students
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
