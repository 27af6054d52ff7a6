// Package mask builds binary cloak masks from camera frames using
// HSV color thresholding and morphological cleanup.
package mask

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Range is one inclusive [lower, upper] interval in HSV space.
// Channel order is hue, saturation, value (OpenCV 8-bit scaling).
type Range struct {
	Lower gocv.Scalar
	Upper gocv.Scalar
}

// NewRange builds a Range from hue/saturation/value bound triples.
func NewRange(lower, upper [3]float64) Range {
	return Range{
		Lower: gocv.NewScalar(lower[0], lower[1], lower[2], 0),
		Upper: gocv.NewScalar(upper[0], upper[1], upper[2], 0),
	}
}

// DefaultRanges returns the tuned red-to-orange cloak intervals.
// Red wraps around the hue circle, so it needs two intervals
// (0-10 and 170-180); the third extends into reddish-orange (10-25).
func DefaultRanges() []Range {
	return []Range{
		NewRange([3]float64{0, 120, 70}, [3]float64{10, 255, 255}),
		NewRange([3]float64{170, 120, 70}, [3]float64{180, 255, 255}),
		NewRange([3]float64{10, 100, 70}, [3]float64{25, 255, 255}),
	}
}

// Segmenter produces cloak masks for frames already converted to HSV.
// The color ranges and morphology parameters are fixed at construction;
// Segment has no other state, so identical inputs give identical masks.
type Segmenter struct {
	ranges   []Range
	kernel   gocv.Mat
	openIter int
	growIter int
}

// NewSegmenter creates a Segmenter for the given color ranges.
// kernelSize is the side of the square structuring element, openIter the
// number of opening (erode+dilate) passes, growIter the number of extra
// dilation passes that slightly grow surviving regions so replaced areas
// fully cover the cloth edges.
func NewSegmenter(ranges []Range, kernelSize, openIter, growIter int) (*Segmenter, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("segmenter requires at least one color range")
	}
	if kernelSize <= 0 {
		kernelSize = 3
	}
	if openIter < 0 || growIter < 0 {
		return nil, fmt.Errorf("morphology iterations must not be negative (open=%d, grow=%d)", openIter, growIter)
	}

	return &Segmenter{
		ranges:   append([]Range(nil), ranges...),
		kernel:   gocv.GetStructuringElement(gocv.MorphRect, image.Pt(kernelSize, kernelSize)),
		openIter: openIter,
		growIter: growIter,
	}, nil
}

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (s *Segmenter) Close() error {
	return s.kernel.Close()
}

// ToHSV converts a BGR frame to HSV. The caller owns the returned Mat.
func ToHSV(frame gocv.Mat) gocv.Mat {
	hsv := gocv.NewMat()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)
	return hsv
}

// Segment builds the cloak mask for an HSV frame: one inRange threshold
// per configured interval, OR-combined, then an opening pass to drop
// isolated speckles and a final dilation to grow the surviving regions.
// The mask has the frame's dimensions, 255 where cloak, 0 elsewhere.
// A frame with no in-range pixels yields an all-zero mask; that is a
// valid result, not an error. The caller owns the returned Mat.
func (s *Segmenter) Segment(hsv gocv.Mat) gocv.Mat {
	m := gocv.NewMat()
	partial := gocv.NewMat()
	defer partial.Close()

	for i, r := range s.ranges {
		if i == 0 {
			gocv.InRangeWithScalar(hsv, r.Lower, r.Upper, &m)
			continue
		}
		gocv.InRangeWithScalar(hsv, r.Lower, r.Upper, &partial)
		gocv.BitwiseOr(m, partial, &m)
	}

	// Opening: erode to kill speckles, dilate to restore the large regions.
	for i := 0; i < s.openIter; i++ {
		gocv.Erode(m, &m, s.kernel)
	}
	for i := 0; i < s.openIter; i++ {
		gocv.Dilate(m, &m, s.kernel)
	}

	// Grow edges so the replacement slightly overshoots the cloth boundary.
	for i := 0; i < s.growIter; i++ {
		gocv.Dilate(m, &m, s.kernel)
	}

	return m
}

// Coverage returns the fraction of mask pixels that are set, in [0, 1].
func Coverage(m gocv.Mat) float64 {
	total := m.Rows() * m.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(m)) / float64(total)
}
