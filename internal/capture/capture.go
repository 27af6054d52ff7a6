package capture

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrReadFailed reports a single failed frame read. It is transient:
// the caller skips the tick and tries again on the next one.
var ErrReadFailed = errors.New("frame read failed")

// Source defines a stream of frames, such as a camera.
// All frames from one source share dimensions and channel order (BGR)
// for the duration of a session.
type Source interface {
	// Read returns the next frame. The caller owns the returned Mat and
	// must Close it. A failed read returns an error wrapping
	// ErrReadFailed and no Mat.
	Read() (gocv.Mat, error)

	// Close disconnects from the source and frees its resources.
	Close() error
}
