package raster

import (
	"testing"
)

func TestNewBoundingBox(t *testing.T) {
	if _, err := NewBoundingBox(0, 0, 10, 10); err != nil {
		t.Errorf("valid box rejected: %v", err)
	}
	if _, err := NewBoundingBox(10, 0, 0, 10); err == nil {
		t.Errorf("expected error for min-x > max-x")
	}
	if _, err := NewBoundingBox(0, 10, 10, 0); err == nil {
		t.Errorf("expected error for min-y > max-y")
	}
}

func TestBoundingBoxPad(t *testing.T) {
	box := BoundingBox{MinX: 10, MinY: 20, MaxX: 30, MaxY: 40}

	padded := box.Pad(5)
	expected := BoundingBox{MinX: 5, MinY: 15, MaxX: 35, MaxY: 45}
	if padded != expected {
		t.Errorf("pad failed, expecting %v, actual %v", expected, padded)
	}

	if box.Pad(0) != box {
		t.Errorf("zero pad changed the box: %v", box.Pad(0))
	}

	shrunk := box.Pad(-5)
	expected = BoundingBox{MinX: 15, MinY: 25, MaxX: 25, MaxY: 35}
	if shrunk != expected {
		t.Errorf("negative pad failed, expecting %v, actual %v", expected, shrunk)
	}
}

func TestBoundingBoxContains(t *testing.T) {
	outer := BoundingBox{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}

	tests := []struct {
		inner    BoundingBox
		expected bool
	}{
		{BoundingBox{10, 10, 90, 90}, true},
		{BoundingBox{0, 0, 100, 100}, true}, // inclusive on all sides
		{BoundingBox{-1, 10, 90, 90}, false},
		{BoundingBox{10, -1, 90, 90}, false},
		{BoundingBox{10, 10, 101, 90}, false},
		{BoundingBox{10, 10, 90, 101}, false},
		{BoundingBox{200, 200, 300, 300}, false},
	}
	for _, test := range tests {
		if actual := outer.Contains(test.inner); actual != test.expected {
			t.Errorf("contains %v: expecting %v, actual %v", test.inner, test.expected, actual)
		}
	}
}

func TestBoundingBoxIntersects(t *testing.T) {
	box := BoundingBox{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}

	if !box.Intersects(BoundingBox{5, 5, 15, 15}) {
		t.Errorf("overlapping boxes should intersect")
	}
	if !box.Intersects(BoundingBox{10, 0, 20, 10}) {
		t.Errorf("edge-touching boxes should intersect")
	}
	if box.Intersects(BoundingBox{11, 0, 20, 10}) {
		t.Errorf("disjoint boxes should not intersect")
	}
}
