package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"slices"
)

//go:embed catalog.json
var embeddedCatalog []byte

// Catalog is an immutable, ID-indexed set of courses.
type Catalog struct {
	courses []Course
	byID    map[int]int
}

// New builds a catalog, rejecting duplicate IDs and malformed records.
func New(courses []Course) (*Catalog, error) {
	c := &Catalog{
		courses: slices.Clone(courses),
		byID:    make(map[int]int, len(courses)),
	}

	for i, course := range c.courses {
		if err := course.validate(); err != nil {
			return nil, err
		}
		if _, exists := c.byID[course.ID]; exists {
			return nil, fmt.Errorf("duplicate course ID %d", course.ID)
		}
		c.byID[course.ID] = i
	}

	return c, nil
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	courses, err := Decode(bytes.NewReader(embeddedCatalog))
	if err != nil {
		return nil, err
	}
	return New(courses)
}

// Open loads a catalog from path using loader, or the embedded catalog when path is empty.
func Open(ctx context.Context, loader Loader, path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	courses, err := loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}

	return New(courses)
}

// All returns every course in catalog order.
func (c *Catalog) All() []Course {
	return slices.Clone(c.courses)
}

// Get returns the course with the given ID.
func (c *Catalog) Get(id int) (Course, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Course{}, false
	}
	return c.courses[i], true
}

// Search ranks the catalog against query. See Rank.
func (c *Catalog) Search(query string) []Course {
	return Rank(query, c.courses)
}

// Len returns the number of courses.
func (c *Catalog) Len() int {
	return len(c.courses)
}
