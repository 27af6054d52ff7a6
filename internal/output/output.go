package output

import (
	"gocv.io/x/gocv"
)

// Output defines the interface for frame sinks.
// This allows us to swap between different destinations:
// - HighGUI window display
// - video file recording
// - MJPEG HTTP stream
type Output interface {
	// Start initializes the output mechanism
	Start() error

	// Stop cleanly shuts down the output, flushing anything buffered.
	// It must be safe to call on every exit path, including errors.
	Stop() error

	// WriteFrame sends one composited BGR frame to the output.
	// The frame is only valid for the duration of the call.
	WriteFrame(frame gocv.Mat) error

	// Name returns a human-readable name for this output type
	Name() string

	// IsRunning returns true if the output is currently active
	IsRunning() bool
}
