// Package htmldom wraps a parsed HTML document with a lightweight cursor API.
//
// A Document is immutable after parsing. Cursors are cheap values referencing
// one element node inside one document; any number of cursors may point into
// the same tree. Navigation (select, parent, prev, nth) and extraction (attr,
// text, outer HTML) are the only operations the script evaluator needs.
package htmldom
