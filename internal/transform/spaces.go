package transform

import "github.com/peterstace/simplefeatures/geom"

// Three spaces are involved in hit-testing a pointer:
//
//   - pointer space: normalised window coordinates, (0,0) top-left, (1,1)
//     bottom-right.
//   - viewport space: -1..1 on both axes with y up, after the viewport's
//     pan/zoom has been applied.
//   - image space: x spans -1..1 across the image width and y spans
//     -1/aspect..1/aspect, y up.

// PointerToClip maps a normalised pointer position to -1..1 with y flipped.
func PointerToClip(p geom.XY) geom.XY {
	return geom.XY{X: p.X*2 - 1, Y: 1 - p.Y*2}
}

// Apply transforms p as a point on the z=0 plane and performs the
// homogeneous divide. ok is false when w collapses to zero.
func Apply(m Mat4, p geom.XY) (geom.XY, bool) {
	v := m.Transform(V4{X: p.X, Y: p.Y, W: 1})
	if v.W == 0 {
		return geom.XY{}, false
	}
	return geom.XY{X: v.X / v.W, Y: v.Y / v.W}, true
}

// PointerToViewport carries a normalised pointer into viewport space using
// the viewport's current pan/zoom transform.
func PointerToViewport(p geom.XY, viewport Mat4) (geom.XY, bool) {
	return Apply(viewport, PointerToClip(p))
}

// ViewportToImage carries a viewport space point into the space of an image
// drawn with the given layout transform.
func ViewportToImage(p geom.XY, layout Mat4) (geom.XY, bool) {
	inv, ok := layout.Inverse()
	if !ok {
		return geom.XY{}, false
	}
	return Apply(inv, p)
}

// InsideImage reports whether an image space point lies within the bounds of
// an image of the given aspect ratio (width / height). Edges count as inside.
func InsideImage(p geom.XY, aspect float64) bool {
	if aspect <= 0 {
		return false
	}
	a := 1 / aspect
	return p.X >= -1 && p.X <= 1 && p.Y >= -a && p.Y <= a
}

// PointerToImage runs the full chain for one candidate image. hit reports
// whether the pointer lands inside the image.
func PointerToImage(pointer geom.XY, viewport, layout Mat4, aspect float64) (img geom.XY, hit bool) {
	vp, ok := PointerToViewport(pointer, viewport)
	if !ok {
		return geom.XY{}, false
	}
	img, ok = ViewportToImage(vp, layout)
	if !ok {
		return geom.XY{}, false
	}
	return img, InsideImage(img, aspect)
}
