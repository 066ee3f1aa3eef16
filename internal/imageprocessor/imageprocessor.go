// Package imageprocessor locates the face in a photograph and turns the crop
// into the tensor layout the embedding network expects.
package imageprocessor

import (
	"context"
	"errors"
	"image"
)

// ErrNoFaceDetected is returned when an image contains no detectable face.
var ErrNoFaceDetected = errors.New("no face detected")

// FaceDetector exposes the subset of detection functionality used by feature extraction.
type FaceDetector interface {
	// DetectFace opens the image at path and returns the crop of its most
	// prominent face, or ErrNoFaceDetected.
	DetectFace(ctx context.Context, path string) (image.Image, error)
}

// LargestFace picks the rectangle with the biggest area. ok is false when rects is empty.
func LargestFace(rects []image.Rectangle) (face image.Rectangle, ok bool) {
	best := -1
	for _, r := range rects {
		if area := r.Dx() * r.Dy(); area > best {
			best = area
			face = r
			ok = true
		}
	}
	return face, ok
}

// ExpandRect grows r by margin pixels on every side and clips it to bounds.
func ExpandRect(r image.Rectangle, margin int, bounds image.Rectangle) image.Rectangle {
	if margin > 0 {
		r = image.Rect(r.Min.X-margin, r.Min.Y-margin, r.Max.X+margin, r.Max.Y+margin)
	}
	return r.Intersect(bounds)
}
