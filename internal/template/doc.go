// Package template loads YAML scraping workflows and runs them against live
// documents.
//
// A workflow file names an entrypoint URL (with ${var} placeholders bound
// from its env block) and a tree of nodes rooted at "main". Every node script
// is compiled at load time, so a malformed template fails startup rather than
// the first scrape. Running a workflow walks the tree depth-first: element
// nodes fan out over their matches, value nodes emit strings under their
// dotted path, and request nodes fetch the extracted URL and recurse on the
// fetched document.
package template
