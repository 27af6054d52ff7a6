package output

import (
	"fmt"
	"strings"

	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/logger"
	"gocv.io/x/gocv"
)

// Recorder appends composited frames to a video file. The writer is
// created lazily on the first frame, once the output dimensions are
// known. Stop finalizes the file; skipping it leaves the recording
// truncated, so the session closes the recorder on every exit path.
type Recorder struct {
	path    string
	fps     float64
	writer  *gocv.VideoWriter
	frames  uint64
	running bool
}

// NewRecorder creates a recorder writing to path at the given frame
// rate. The codec follows the extension: mp4v for .mp4, XVID otherwise.
func NewRecorder(path string, fps float64) *Recorder {
	return &Recorder{path: path, fps: fps}
}

// Start marks the recorder active. The underlying writer is not opened
// until the first frame arrives.
func (r *Recorder) Start() error {
	if r.running {
		return fmt.Errorf("recorder already running")
	}
	r.running = true
	r.frames = 0
	return nil
}

// Stop finalizes the video file.
func (r *Recorder) Stop() error {
	if !r.running {
		return nil
	}
	r.running = false

	if r.writer == nil {
		return nil
	}
	err := r.writer.Close()
	r.writer = nil
	logger.WithComponent("recorder").Info().
		Str("path", r.path).
		Uint64("frames", r.frames).
		Msg("Recording finalized")
	return err
}

// WriteFrame appends one frame to the recording.
func (r *Recorder) WriteFrame(frame gocv.Mat) error {
	if !r.running {
		return fmt.Errorf("recorder not running")
	}

	if r.writer == nil {
		codec := "XVID"
		if strings.HasSuffix(strings.ToLower(r.path), ".mp4") {
			codec = "mp4v"
		}
		w, err := gocv.VideoWriterFile(r.path, codec, r.fps, frame.Cols(), frame.Rows(), true)
		if err != nil {
			return fmt.Errorf("failed to open video writer for %s: %w", r.path, err)
		}
		if !w.IsOpened() {
			w.Close()
			return fmt.Errorf("video writer for %s did not open", r.path)
		}
		r.writer = w
		logger.WithComponent("recorder").Info().
			Str("path", r.path).
			Str("codec", codec).
			Float64("fps", r.fps).
			Msgf("Recording %dx%d", frame.Cols(), frame.Rows())
	}

	if err := r.writer.Write(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	r.frames++
	return nil
}

// Name returns the output type name
func (r *Recorder) Name() string {
	return fmt.Sprintf("Video Recorder (%s)", r.path)
}

// IsRunning returns true if the recorder is active
func (r *Recorder) IsRunning() bool {
	return r.running
}
