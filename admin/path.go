// Package admin implements the store configuration editor: an in-memory
// draft of the whole collection mutated through typed nested paths and
// committed to the repository only on explicit save.
package admin

import (
	"fmt"
	"strconv"
	"strings"
)

// Step is one segment of a configuration path: either an object key or a
// product-list index.
type Step struct {
	key     string
	index   int
	isIndex bool
}

// Key returns a step addressing a named field or map entry.
func Key(k string) Step {
	return Step{key: k}
}

// Index returns a step addressing a position in the product list.
func Index(i int) Step {
	return Step{index: i, isIndex: true}
}

// IsIndex reports whether the step is a list index.
func (s Step) IsIndex() bool { return s.isIndex }

// KeyValue returns the key of a key step.
func (s Step) KeyValue() string { return s.key }

// IndexValue returns the index of an index step.
func (s Step) IndexValue() int { return s.index }

func (s Step) String() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.key
}

// Path addresses a location in the configuration tree. The first step is
// always the store identifier.
type Path []Step

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// ParsePath converts a dotted path string (as submitted by the admin
// console, e.g. "sachacacao.products.2.price") into typed steps. Numeric
// segments become index steps only in positions where the tree holds a
// list; everywhere else they stay keys, so a store named "7" still works.
func ParsePath(raw string) (Path, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty path")
	}

	segments := strings.Split(raw, ".")
	path := make(Path, 0, len(segments))
	for i, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("path %q has an empty segment", raw)
		}
		// Index positions exist only directly under a "products" field.
		// Position 0 is always the store identifier, so the field can
		// occur no earlier than position 1 and an index no earlier than
		// position 2; a store named "products" stays addressable.
		if i >= 2 && segments[i-1] == "products" {
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return nil, fmt.Errorf("path %q: product position %q is not a number", raw, seg)
			}
			path = append(path, Index(idx))
			continue
		}
		path = append(path, Key(seg))
	}
	return path, nil
}
