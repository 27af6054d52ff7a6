// Package compose merges live frames with the reference background
// according to a cloak mask.
package compose

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Composite returns a new frame that is background wherever the mask is
// set and the live frame everywhere else. Every output pixel is taken
// verbatim from one of the two inputs; there is no blending. The two
// masked contributions are pixel-disjoint, so adding them cannot
// overflow a channel. Inputs are not mutated; the caller owns the
// returned Mat.
func Composite(frame, mask, background gocv.Mat) (gocv.Mat, error) {
	if frame.Rows() != background.Rows() || frame.Cols() != background.Cols() {
		return gocv.Mat{}, fmt.Errorf("background size %dx%d does not match frame size %dx%d",
			background.Cols(), background.Rows(), frame.Cols(), frame.Rows())
	}
	if frame.Rows() != mask.Rows() || frame.Cols() != mask.Cols() {
		return gocv.Mat{}, fmt.Errorf("mask size %dx%d does not match frame size %dx%d",
			mask.Cols(), mask.Rows(), frame.Cols(), frame.Rows())
	}

	inv := gocv.NewMat()
	defer inv.Close()
	gocv.BitwiseNot(mask, &inv)

	bgPart := gocv.NewMat()
	defer bgPart.Close()
	gocv.BitwiseAndWithMask(background, background, &bgPart, mask)

	livePart := gocv.NewMat()
	defer livePart.Close()
	gocv.BitwiseAndWithMask(frame, frame, &livePart, inv)

	out := gocv.NewMat()
	gocv.Add(bgPart, livePart, &out)
	return out, nil
}

// MatchSize resizes the background to the frame's dimensions using area
// interpolation. The background is always the side that is resized; the
// live frame is authoritative for output resolution. The input is not
// mutated; the caller owns the returned Mat.
func MatchSize(background, frame gocv.Mat) gocv.Mat {
	resized := gocv.NewMat()
	gocv.Resize(background, &resized, image.Pt(frame.Cols(), frame.Rows()), 0, 0, gocv.InterpolationArea)
	return resized
}

// SameSize reports whether two Mats have identical dimensions.
func SameSize(a, b gocv.Mat) bool {
	return a.Rows() == b.Rows() && a.Cols() == b.Cols()
}
