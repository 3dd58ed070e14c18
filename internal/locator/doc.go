// Package locator maps feedback criteria to the page ranges of a document
// that address them.
//
// The mapping itself is delegated to a PageLocator, typically a generative
// model. Locator sends it the flattened outline and the unmet criteria and
// keeps only ranges that refer to a requested criterion and fit inside the
// outline.
package locator
