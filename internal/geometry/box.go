package geometry

import "math"

// Box is an axis-aligned bounding box in source pixel coordinates.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

func (b Box) Area() float64 {
	if b.W <= 0 || b.H <= 0 {
		return 0
	}
	return b.W * b.H
}

func (b Box) Right() float64  { return b.X + b.W }
func (b Box) Bottom() float64 { return b.Y + b.H }

// Union returns the smallest box containing both b and o.
func (b Box) Union(o Box) Box {
	minX := math.Min(b.X, o.X)
	minY := math.Min(b.Y, o.Y)
	maxX := math.Max(b.Right(), o.Right())
	maxY := math.Max(b.Bottom(), o.Bottom())
	return Box{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Element is one node of a captured design tree.
type Element struct {
	Tag    string            `json:"tag,omitempty"`
	Box    Box               `json:"boundingBox"`
	Styles map[string]string `json:"styles,omitempty"`
	Text   string            `json:"text,omitempty"`
}
