// Package build runs the blog pipeline end to end: load, transform, graph,
// feed and render. All execution paths (CLI build, preview rebuilds, tests)
// go through Builder.Run.
package build
