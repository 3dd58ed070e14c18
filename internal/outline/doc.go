// Package outline reconstructs the section hierarchy of a document from a
// flat, scan-ordered stream of heading observations.
//
// A heading's nesting level is inferred from its font size: a larger font
// denotes a shallower heading. Build folds the observations into a tree in a
// single pass, keeping the chain of open ancestors reachable through parent
// pointers, and resolves the page range of every section:
//
//   - a section ends at the start page of the next heading at the same or a
//     shallower level
//   - sections still open at the end of the stream end at the last page of
//     the document
//
// The resulting tree is read-only. Walk, Flatten, Find and Print traverse it
// without mutating it, so a built outline may be shared between goroutines.
// Build itself is a pure function; BuildAll runs it for many documents
// concurrently.
package outline
