package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// solidHSV builds a rows x cols HSV Mat filled with one color.
func solidHSV(rows, cols int, h, s, v float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(h, s, v, 0), rows, cols, gocv.MatTypeCV8UC3)
}

// setHSV overwrites one pixel.
func setHSV(m *gocv.Mat, y, x int, h, s, v uint8) {
	m.SetUCharAt(y, x*3+0, h)
	m.SetUCharAt(y, x*3+1, s)
	m.SetUCharAt(y, x*3+2, v)
}

func newTestSegmenter(t *testing.T) *Segmenter {
	t.Helper()
	seg, err := NewSegmenter(DefaultRanges(), 3, 2, 1)
	require.NoError(t, err)
	t.Cleanup(func() { seg.Close() })
	return seg
}

func TestNewSegmenterValidation(t *testing.T) {
	_, err := NewSegmenter(nil, 3, 2, 1)
	assert.Error(t, err, "empty range list must be rejected")

	_, err = NewSegmenter(DefaultRanges(), 3, -1, 1)
	assert.Error(t, err, "negative iterations must be rejected")
}

func TestSegmentNoMatchingPixels(t *testing.T) {
	seg := newTestSegmenter(t)

	// Green hue with low saturation sits strictly outside every
	// configured interval.
	hsv := solidHSV(120, 160, 60, 40, 200)
	defer hsv.Close()

	m := seg.Segment(hsv)
	defer m.Close()

	assert.Equal(t, 120, m.Rows())
	assert.Equal(t, 160, m.Cols())
	assert.Equal(t, 0, gocv.CountNonZero(m), "mask must be all-false for out-of-range colors")
	assert.Equal(t, 0.0, Coverage(m))
}

func TestSegmentSolidBlockSurvivesCleanup(t *testing.T) {
	seg := newTestSegmenter(t)

	hsv := solidHSV(200, 200, 60, 40, 200)
	defer hsv.Close()

	// 50x50 in-range block at (20,20) plus one isolated noise pixel.
	for y := 20; y < 70; y++ {
		for x := 20; x < 70; x++ {
			setHSV(&hsv, y, x, 5, 200, 200)
		}
	}
	setHSV(&hsv, 150, 150, 5, 200, 200)

	m := seg.Segment(hsv)
	defer m.Close()

	// Opening removes speckles but must not shrink the block, and the
	// final dilation may only grow it.
	for y := 20; y < 70; y++ {
		for x := 20; x < 70; x++ {
			require.EqualValues(t, 255, m.GetUCharAt(y, x), "block pixel (%d,%d) must survive", y, x)
		}
	}
	assert.EqualValues(t, 0, m.GetUCharAt(150, 150), "isolated noise pixel must be removed")
	assert.EqualValues(t, 0, m.GetUCharAt(5, 5), "far background must stay unset")
}

func TestSegmentEdgeGrowth(t *testing.T) {
	seg := newTestSegmenter(t)

	hsv := solidHSV(100, 100, 60, 40, 200)
	defer hsv.Close()
	for y := 40; y < 60; y++ {
		for x := 40; x < 60; x++ {
			setHSV(&hsv, y, x, 5, 200, 200)
		}
	}

	m := seg.Segment(hsv)
	defer m.Close()

	// One grow pass with a 3x3 kernel extends the mask one pixel past
	// the block on every side.
	assert.EqualValues(t, 255, m.GetUCharAt(39, 50))
	assert.EqualValues(t, 255, m.GetUCharAt(60, 50))
	assert.EqualValues(t, 255, m.GetUCharAt(50, 39))
	assert.EqualValues(t, 255, m.GetUCharAt(50, 60))
	assert.EqualValues(t, 0, m.GetUCharAt(30, 50), "growth is bounded")
}

func TestSegmentHueWrapAround(t *testing.T) {
	seg := newTestSegmenter(t)

	tests := []struct {
		name    string
		h, s, v float64
		want    bool
	}{
		{name: "low red", h: 5, s: 200, v: 200, want: true},
		{name: "high red", h: 175, s: 200, v: 200, want: true},
		{name: "orange", h: 18, s: 150, v: 200, want: true},
		{name: "yellow", h: 30, s: 200, v: 200, want: false},
		{name: "dim red", h: 5, s: 200, v: 30, want: false},
		{name: "washed out red", h: 5, s: 50, v: 200, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hsv := solidHSV(50, 50, tt.h, tt.s, tt.v)
			defer hsv.Close()

			m := seg.Segment(hsv)
			defer m.Close()

			if tt.want {
				assert.Equal(t, 50*50, gocv.CountNonZero(m))
			} else {
				assert.Equal(t, 0, gocv.CountNonZero(m))
			}
		})
	}
}

func TestSegmentDeterministic(t *testing.T) {
	seg := newTestSegmenter(t)

	hsv := solidHSV(80, 80, 60, 40, 200)
	defer hsv.Close()
	for y := 30; y < 50; y++ {
		for x := 30; x < 50; x++ {
			setHSV(&hsv, y, x, 5, 200, 200)
		}
	}

	m1 := seg.Segment(hsv)
	defer m1.Close()
	m2 := seg.Segment(hsv)
	defer m2.Close()

	assert.Equal(t, m1.ToBytes(), m2.ToBytes(), "identical inputs must give identical masks")
}

func TestCoverage(t *testing.T) {
	full := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), 10, 10, gocv.MatTypeCV8UC1)
	defer full.Close()
	assert.Equal(t, 1.0, Coverage(full))

	empty := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC1)
	defer empty.Close()
	assert.Equal(t, 0.0, Coverage(empty))
}
