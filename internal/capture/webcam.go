package capture

import (
	"fmt"
	"time"

	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/logger"
	"gocv.io/x/gocv"
)

const (
	// warmupDelay gives the camera time to settle exposure and white
	// balance before the first frame is trusted.
	warmupDelay = time.Second

	// fallbackFPS is used when the device does not report a usable rate.
	fallbackFPS = 20.0
)

// Webcam is a Source backed by a local capture device. Every frame it
// delivers is mirrored horizontally for a natural selfie view, so the
// background acquirer and the live session share the same handedness.
type Webcam struct {
	cap      *gocv.VideoCapture
	deviceID int
}

// NewWebcam opens the capture device with the given index. The open is
// attempted with the DirectShow backend first (avoids long open delays
// on Windows) and falls back to the platform default. Failure to open
// is fatal for the session; there is no retry here.
func NewWebcam(deviceID int) (*Webcam, error) {
	cap, err := openDevice(deviceID)
	if err != nil {
		return nil, fmt.Errorf("could not open camera %d: %w", deviceID, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("camera %d is connected but not readable", deviceID)
	}

	logger.WithComponent("capture").Info().
		Int("device", deviceID).
		Msg("Camera opened, warming up")
	time.Sleep(warmupDelay)

	return &Webcam{cap: cap, deviceID: deviceID}, nil
}

func openDevice(deviceID int) (*gocv.VideoCapture, error) {
	cap, err := gocv.OpenVideoCaptureWithAPI(deviceID, gocv.VideoCaptureDshow)
	if err == nil && cap.IsOpened() {
		return cap, nil
	}
	if cap != nil {
		cap.Close()
	}
	return gocv.OpenVideoCapture(deviceID)
}

// Read returns the next mirrored frame.
func (w *Webcam) Read() (gocv.Mat, error) {
	frame := gocv.NewMat()
	if ok := w.cap.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		return gocv.Mat{}, fmt.Errorf("camera %d: %w", w.deviceID, ErrReadFailed)
	}
	gocv.Flip(frame, &frame, 1)
	return frame, nil
}

// FPS returns the device frame rate, or a sane default when the device
// does not report one.
func (w *Webcam) FPS() float64 {
	fps := w.cap.Get(gocv.VideoCaptureFPS)
	if fps <= 1 {
		return fallbackFPS
	}
	return fps
}

// Close releases the capture device.
func (w *Webcam) Close() error {
	return w.cap.Close()
}
