package background

import (
	"path/filepath"
	"testing"

	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// stubSource replays a scripted sequence of frames and read failures.
type stubSource struct {
	frames []*gocv.Mat // nil entry means a failed read
	next   int
	closed bool
}

func (s *stubSource) Read() (gocv.Mat, error) {
	if s.next >= len(s.frames) {
		return gocv.Mat{}, capture.ErrReadFailed
	}
	frame := s.frames[s.next]
	s.next++
	if frame == nil {
		return gocv.Mat{}, capture.ErrReadFailed
	}
	return frame.Clone(), nil
}

func (s *stubSource) Close() error {
	s.closed = true
	return nil
}

func solidFrame(value float64) *gocv.Mat {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(value, value, value, 0), 8, 8, gocv.MatTypeCV8UC3)
	return &m
}

func closeAll(frames []*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}

func TestAcquireMedianRejectsOutlier(t *testing.T) {
	outlier := solidFrame(100)
	// One frame differs sharply at a single pixel; the median must keep
	// the majority value.
	outlier.SetUCharAt(2, 3*3+1, 250)

	frames := []*gocv.Mat{solidFrame(100), solidFrame(100), outlier, solidFrame(100), solidFrame(100)}
	defer closeAll(frames)
	src := &stubSource{frames: frames}

	bg, err := Acquire(src, 5)
	require.NoError(t, err)
	defer bg.Close()

	assert.Equal(t, 8, bg.Rows())
	assert.Equal(t, 8, bg.Cols())
	assert.EqualValues(t, 100, bg.GetUCharAt(2, 3*3+1), "outlier pixel must be rejected")
	assert.EqualValues(t, 100, bg.GetUCharAt(0, 0))
}

func TestAcquireSkipsFailedReads(t *testing.T) {
	frames := []*gocv.Mat{nil, solidFrame(80), nil, solidFrame(80), solidFrame(80)}
	defer closeAll(frames)
	src := &stubSource{frames: frames}

	bg, err := Acquire(src, 5)
	require.NoError(t, err, "failed reads are skipped, not fatal")
	defer bg.Close()

	assert.EqualValues(t, 80, bg.GetUCharAt(4, 4*3))
}

func TestAcquireNoUsableFrames(t *testing.T) {
	src := &stubSource{}

	_, err := Acquire(src, 10)
	require.ErrorIs(t, err, ErrNoFrames)
}

func TestAcquireRejectsBadSampleCount(t *testing.T) {
	src := &stubSource{}
	_, err := Acquire(src, 0)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoFrames)
}

func TestMedianBytes(t *testing.T) {
	tests := []struct {
		name    string
		samples [][]byte
		want    []byte
	}{
		{
			name:    "odd count takes middle",
			samples: [][]byte{{10, 200}, {30, 100}, {20, 255}},
			want:    []byte{20, 200},
		},
		{
			name:    "even count averages middles",
			samples: [][]byte{{10}, {20}, {31}, {40}},
			want:    []byte{25}, // (20+31)/2 truncated
		},
		{
			name:    "single sample",
			samples: [][]byte{{7, 8, 9}},
			want:    []byte{7, 8, 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, medianBytes(tt.samples))
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bg.png")

	img := solidFrame(128)
	defer img.Close()
	img.SetUCharAt(1, 2*3+2, 42)

	require.NoError(t, Save(path, *img))

	loaded, err := Load(path)
	require.NoError(t, err)
	defer loaded.Close()

	// PNG is lossless, so every channel value survives exactly.
	assert.Equal(t, img.ToBytes(), loaded.ToBytes())
}

func TestLoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.png")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path, "diagnostic must name the missing resource")
}
