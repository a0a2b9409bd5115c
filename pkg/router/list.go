package router

import (
	"fmt"
	"slices"
)

// List is the working copy of the layer list handed to Router.Update.
type List struct {
	layers []*Layer
	strict bool
}

// Len returns the number of layers.
func (l *List) Len() int {
	return len(l.layers)
}

// IndexOf returns the position of x, or -1.
func (l *List) IndexOf(x *Layer) int {
	return slices.Index(l.layers, x)
}

// Layers returns the current layers.
func (l *List) Layers() []*Layer {
	return slices.Clone(l.layers)
}

// InsertAt inserts layers so the first of them lands at index i. Nothing is
// inserted when any layer is rejected.
func (l *List) InsertAt(i int, layers ...*Layer) error {
	if i < 0 || i > len(l.layers) {
		return fmt.Errorf("insert at %d: index out of range [0,%d]", i, len(l.layers))
	}
	if err := l.checkConflicts(layers); err != nil {
		return err
	}
	l.layers = slices.Insert(l.layers, i, layers...)
	return nil
}

// RemoveRange removes n layers starting at i and returns them.
func (l *List) RemoveRange(i, n int) ([]*Layer, error) {
	if i < 0 || n < 0 || i+n > len(l.layers) {
		return nil, fmt.Errorf("remove [%d,%d): index out of range [0,%d]", i, i+n, len(l.layers))
	}
	removed := slices.Clone(l.layers[i : i+n])
	l.layers = slices.Delete(l.layers, i, i+n)
	return removed, nil
}

func (l *List) checkConflicts(layers []*Layer) error {
	if !l.strict {
		return nil
	}
	seen := make(map[string]bool, len(l.layers)+len(layers))
	for _, x := range l.layers {
		seen[x.String()] = true
	}
	for _, x := range layers {
		key := x.String()
		if seen[key] {
			return fmt.Errorf("%w: %s", ErrConflict, key)
		}
		seen[key] = true
	}
	return nil
}
