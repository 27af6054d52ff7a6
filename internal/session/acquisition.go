package session

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/background"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/capture"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/logger"
	"gocv.io/x/gocv"
)

// Acquisition is the background capture session: it previews the camera
// until the user triggers a capture with SPACE, then samples frames,
// reduces them to a median background image and writes it to disk.
// ESC exits without writing anything.
type Acquisition struct {
	source      capture.Source
	display     Display
	sampleCount int
	outputPath  string

	stop     chan struct{}
	stopOnce sync.Once
}

// NewAcquisition creates a background acquisition session. The session
// takes ownership of the source and releases it when Run returns.
func NewAcquisition(source capture.Source, display Display, sampleCount int, outputPath string) *Acquisition {
	return &Acquisition{
		source:      source,
		display:     display,
		sampleCount: sampleCount,
		outputPath:  outputPath,
		stop:        make(chan struct{}),
	}
}

// Stop requests a cooperative shutdown without writing a background.
func (a *Acquisition) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
}

// Run executes the acquisition loop. It returns nil both after a
// successful capture and after a user abort; a failed capture attempt
// (zero usable frames) is reported and the preview continues so the
// user can retry.
func (a *Acquisition) Run() error {
	log := logger.WithComponent("acquisition")
	defer a.cleanup()

	if err := a.display.Start(); err != nil {
		return fmt.Errorf("failed to open display: %w", err)
	}

	log.Info().Msg("Remove yourself from the frame (SPACE capture, ESC exit)")

	for {
		select {
		case <-a.stop:
			return nil
		default:
		}

		frame, err := a.source.Read()
		if err != nil {
			if errors.Is(err, capture.ErrReadFailed) {
				log.Debug().Err(err).Msg("Skipping unreadable frame")
				continue
			}
			return err
		}
		a.preview(frame)
		frame.Close()

		switch key := a.display.PollKey() & 0xff; key {
		case keyEsc:
			return nil
		case keySpace:
			done, err := a.capture()
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

// capture samples frames and writes the median background. It returns
// done=false when zero usable frames were collected so the preview loop
// lets the user retry.
func (a *Acquisition) capture() (bool, error) {
	log := logger.WithComponent("acquisition")
	log.Info().Int("samples", a.sampleCount).Msg("Capturing background, keep the scene still")

	bg, err := background.Acquire(a.source, a.sampleCount)
	if err != nil {
		if errors.Is(err, background.ErrNoFrames) {
			log.Warn().Msg("Failed to capture any frames, try again")
			return false, nil
		}
		return false, err
	}
	defer bg.Close()

	if err := background.Save(a.outputPath, bg); err != nil {
		return false, err
	}
	log.Info().Str("path", a.outputPath).Msg("Saved background")

	// Hold the result on screen briefly as confirmation.
	if err := a.display.WriteFrame(bg); err == nil {
		a.display.Pause(1000)
	}
	return true, nil
}

func (a *Acquisition) preview(frame gocv.Mat) {
	overlay := frame.Clone()
	defer overlay.Close()
	white := color.RGBA{R: 255, G: 255, B: 255}
	gocv.PutText(&overlay, "Remove yourself from frame", image.Pt(20, 35), gocv.FontHersheySimplex, 0.8, white, 2)
	gocv.PutText(&overlay, "Press SPACE to capture clean background", image.Pt(20, 70), gocv.FontHersheySimplex, 0.7, white, 2)
	gocv.PutText(&overlay, "ESC to exit", image.Pt(20, 105), gocv.FontHersheySimplex, 0.7, color.RGBA{R: 200, G: 200, B: 200}, 2)
	if err := a.display.WriteFrame(overlay); err != nil {
		logger.WithComponent("acquisition").Warn().Err(err).Msg("Display rejected frame")
	}
}

func (a *Acquisition) cleanup() {
	log := logger.WithComponent("acquisition")
	if err := a.display.Stop(); err != nil {
		log.Warn().Err(err).Msg("Failed to close display")
	}
	if err := a.source.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close source")
	}
}
