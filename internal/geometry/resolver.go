package geometry

import (
	"errors"
	"fmt"
)

var ErrNoElements = errors.New("source has no elements")

// IndexError reports an element index that does not exist in the tree.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("element index %d out of range (tree has %d elements)", e.Index, e.Len)
}

// Resolution is the geometry of a selected sub-region of a source.
type Resolution struct {
	// Elements is the filtered element list, in tree order.
	Elements []Element
	// RootBox is the box of the largest element of the whole tree. It is the
	// coordinate origin for every relative computation.
	RootBox Box
	// Selection is the union box of Elements, or RootBox when nothing was selected.
	Selection Box
	// Partial is true when an index filter narrowed the tree.
	Partial bool
}

// Resolve filters elements by indices and computes the root and selection boxes.
// Empty or nil indices select the whole tree.
func Resolve(elements []Element, indices []int) (Resolution, error) {
	if len(elements) == 0 {
		return Resolution{}, ErrNoElements
	}
	root := RootBox(elements)
	if len(indices) == 0 {
		return Resolution{Elements: elements, RootBox: root, Selection: root}, nil
	}

	want := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(elements) {
			return Resolution{}, &IndexError{Index: i, Len: len(elements)}
		}
		want[i] = struct{}{}
	}

	res := Resolution{RootBox: root, Partial: true}
	first := true
	for i, el := range elements {
		if _, ok := want[i]; !ok {
			continue
		}
		res.Elements = append(res.Elements, el)
		if first {
			res.Selection = el.Box
			first = false
			continue
		}
		res.Selection = res.Selection.Union(el.Box)
	}
	return res, nil
}

// RootBox returns the box of the element with the largest area. Ties keep the
// earliest element. Index 0 is not assumed to be the root.
func RootBox(elements []Element) Box {
	var root Box
	best := -1.0
	for _, el := range elements {
		if a := el.Box.Area(); a > best {
			best = a
			root = el.Box
		}
	}
	return root
}
