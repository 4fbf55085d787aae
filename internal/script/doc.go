// Package script compiles and evaluates the chained scraping mini-language
// used by workflow templates.
//
// A script is a non-empty chain of steps separated by dots, for example
//
//	select("div.video-title").val().trim().regex_match("[A-Z]+-\\d+")
//
// Steps come in four kinds: selectors (select, parent, prev, nth) move
// cursors; accessors (html, attr, val) turn a cursor into a string;
// transforms rewrite the string; conditions (equals, regex_match) filter the
// running elements. Compilation produces a typed pipeline: element-producing
// pipelines end on a selector and feed child nodes, value-producing pipelines
// end on an accessor, transform, or condition and emit strings.
//
// Arguments are quoted string literals with C-style escapes, bare integers,
// or ${name} placeholders resolved against the runtime environment during
// evaluation.
package script
