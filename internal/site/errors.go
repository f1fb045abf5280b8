package site

import (
	"fmt"
	"path"
	"strings"
)

// DuplicateRouteError reports two sources that resolve to the same output
// file. Sources lists every claimant in claim order.
type DuplicateRouteError struct {
	Route   string
	Path    string
	Sources []string
}

func (e *DuplicateRouteError) Error() string {
	return fmt.Sprintf("duplicate route %s (output %s) claimed by %s", e.Route, e.Path, strings.Join(e.Sources, " and "))
}

// routeTable records which source claimed each output file. Files and the
// directories above them share one namespace, so a file may not sit where
// another claim needs a directory.
type routeTable struct {
	files map[string]string
	dirs  map[string]string
}

func newRouteTable() *routeTable {
	return &routeTable{files: make(map[string]string), dirs: make(map[string]string)}
}

// claimPage claims the index file a page route is written to.
func (t *routeTable) claimPage(route, source string) error {
	return t.claim(route, OutputPath(route), source)
}

// claimFile claims a generated artifact written verbatim at route.
func (t *routeTable) claimFile(route, source string) error {
	return t.claim(route, strings.Trim(route, "/"), source)
}

func (t *routeTable) claim(route, file, source string) error {
	conflict := func(prev string) error {
		return &DuplicateRouteError{Route: route, Path: file, Sources: []string{prev, source}}
	}
	if prev, ok := t.files[file]; ok {
		return conflict(prev)
	}
	if prev, ok := t.dirs[file]; ok {
		return conflict(prev)
	}
	for dir := path.Dir(file); dir != "."; dir = path.Dir(dir) {
		if prev, ok := t.files[dir]; ok {
			return conflict(prev)
		}
	}

	t.files[file] = source
	for dir := path.Dir(file); dir != "."; dir = path.Dir(dir) {
		if _, ok := t.dirs[dir]; !ok {
			t.dirs[dir] = source
		}
	}
	return nil
}
