// Package annotation wraps a canvas with the metadata stored alongside it in
// a bookmark.
package annotation

import (
	"github.com/framereview/annotations/internal/canvas"
)

// Annotation is the payload a bookmark carries.
type Annotation struct {
	Canvas  *canvas.Canvas
	IsLaser bool
}

// New returns an annotation with an empty canvas.
func New() *Annotation {
	return &Annotation{Canvas: canvas.New()}
}

// Clone returns a copy whose canvas can be mutated independently.
func (a *Annotation) Clone() *Annotation {
	if a == nil {
		return nil
	}
	return &Annotation{Canvas: a.Canvas.Clone(), IsLaser: a.IsLaser}
}

// Hash changes whenever the canvas does.
func (a *Annotation) Hash() uint64 {
	return a.Canvas.Hash()
}

// Equal compares canvas content and the laser flag.
func (a *Annotation) Equal(o *Annotation) bool {
	if a == nil || o == nil {
		return a == o
	}
	return a.IsLaser == o.IsLaser && a.Canvas.ContentEqual(o.Canvas)
}
