// Package session drives the interactive capture loops: the cloak
// compositing session and the background acquisition session.
package session

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"time"

	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/capture"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/compose"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/logger"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/mask"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/output"
	"gocv.io/x/gocv"
)

// Key codes understood by the sessions.
const (
	keyEsc      = 27
	keySpace    = 32
	keyQuit     = 'q'
	keySnapshot = 's'
)

// The loop is a two-state machine: it runs until a quit request (key or
// Stop call) moves it to stopped, and every exit path releases the
// source and finalizes the sinks.
type state int

const (
	stateRunning state = iota
	stateStopped
)

func (s state) String() string {
	if s == stateRunning {
		return "running"
	}
	return "stopped"
}

// Display is the interactive sink: it shows frames and reports key
// presses back to the loop.
type Display interface {
	output.Output

	// PollKey pumps GUI events and returns the pressed key, negative
	// when none.
	PollKey() int

	// Pause holds the current frame on screen for ms milliseconds.
	Pause(ms int)
}

// Status is a point-in-time summary of a cloak session, served by the
// HTTP status endpoint.
type Status struct {
	State          string  `json:"state"`
	Frames         uint64  `json:"frames"`
	FPS            float64 `json:"fps"`
	CloakCoverage  float64 `json:"cloak_coverage"`
	BackgroundPath string  `json:"background_path"`
}

// CloakParams collects the collaborators of a cloak session. The
// session takes ownership of Source, Segmenter and Background and
// releases them when Run returns.
type CloakParams struct {
	Source         capture.Source
	Segmenter      *mask.Segmenter
	Background     gocv.Mat
	BackgroundPath string
	Display        Display
	Sinks          []output.Output
	SnapshotDir    string
}

// Cloak is the compositing session: one synchronous loop that pulls a
// frame, segments the cloak, composites the background over it and
// hands the result to the sinks, once per capture tick.
type Cloak struct {
	source     capture.Source
	segmenter  *mask.Segmenter
	background gocv.Mat
	bgPath     string
	display    Display
	sinks      []output.Output

	snapshotDir string
	snapshotIdx int

	stop     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	state    state
	frames   uint64
	coverage float64
	started  time.Time
}

// NewCloak creates a cloak session.
func NewCloak(p CloakParams) *Cloak {
	return &Cloak{
		source:      p.Source,
		segmenter:   p.Segmenter,
		background:  p.Background,
		bgPath:      p.BackgroundPath,
		display:     p.Display,
		sinks:       p.Sinks,
		snapshotDir: p.SnapshotDir,
		snapshotIdx: 1,
		stop:        make(chan struct{}),
		state:       stateStopped,
	}
}

// Stop requests a cooperative shutdown. The loop notices on its next
// tick. Safe to call from any goroutine, more than once.
func (c *Cloak) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Status returns the current session status.
func (c *Cloak) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var fps float64
	if elapsed := time.Since(c.started).Seconds(); c.state == stateRunning && elapsed > 0 {
		fps = float64(c.frames) / elapsed
	}
	return Status{
		State:          c.state.String(),
		Frames:         c.frames,
		FPS:            fps,
		CloakCoverage:  c.coverage,
		BackgroundPath: c.bgPath,
	}
}

// Run executes the session loop until a quit request. It finalizes the
// display, the sinks, the source and the owned Mats on every exit path.
func (c *Cloak) Run() error {
	log := logger.WithComponent("session")
	defer c.cleanup()

	if err := c.display.Start(); err != nil {
		return fmt.Errorf("failed to open display: %w", err)
	}
	for _, s := range c.sinks {
		if err := s.Start(); err != nil {
			return fmt.Errorf("failed to start %s: %w", s.Name(), err)
		}
	}

	c.mu.Lock()
	c.state = stateRunning
	c.started = time.Now()
	c.mu.Unlock()

	log.Info().Msg("Wear something red and step into frame ('s' snapshot, 'q'/ESC quit)")

	for c.currentState() == stateRunning {
		select {
		case <-c.stop:
			c.setState(stateStopped)
			continue
		default:
		}

		frame, err := c.source.Read()
		if err != nil {
			if errors.Is(err, capture.ErrReadFailed) {
				// Transient: skip this tick, the session survives.
				log.Debug().Err(err).Msg("Skipping unreadable frame")
				continue
			}
			return err
		}

		out, coverage, err := c.processFrame(frame)
		frame.Close()
		if err != nil {
			return err
		}

		c.present(out)
		for _, s := range c.sinks {
			if err := s.WriteFrame(out); err != nil {
				log.Warn().Err(err).Str("sink", s.Name()).Msg("Sink rejected frame")
			}
		}

		c.mu.Lock()
		c.frames++
		c.coverage = coverage
		c.mu.Unlock()

		switch key := c.display.PollKey() & 0xff; key {
		case keyEsc, keyQuit:
			c.Stop()
		case keySnapshot:
			c.saveSnapshot(out)
		}
		out.Close()
	}

	return nil
}

// processFrame runs one tick of the core pipeline: a one-time
// background resize check, segmentation and compositing. The caller
// owns the returned frame.
func (c *Cloak) processFrame(frame gocv.Mat) (gocv.Mat, float64, error) {
	if !compose.SameSize(c.background, frame) {
		resized := compose.MatchSize(c.background, frame)
		logger.WithComponent("session").Info().
			Str("from", fmt.Sprintf("%dx%d", c.background.Cols(), c.background.Rows())).
			Str("to", fmt.Sprintf("%dx%d", frame.Cols(), frame.Rows())).
			Msg("Resized background to match camera frame")
		c.background.Close()
		c.background = resized
	}

	hsv := mask.ToHSV(frame)
	m := c.segmenter.Segment(hsv)
	hsv.Close()

	coverage := mask.Coverage(m)
	out, err := compose.Composite(frame, m, c.background)
	m.Close()
	if err != nil {
		return gocv.Mat{}, 0, err
	}
	return out, coverage, nil
}

// present shows the frame with the help caption. The caption goes on a
// copy so recorded and snapshot frames stay clean.
func (c *Cloak) present(out gocv.Mat) {
	overlay := out.Clone()
	defer overlay.Close()
	gocv.PutText(&overlay, "Invisible Cloak (Red)  |  's': snapshot  'q'/ESC: quit",
		image.Pt(20, 35), gocv.FontHersheySimplex, 0.7, color.RGBA{R: 255, G: 255, B: 255}, 2)
	if err := c.display.WriteFrame(overlay); err != nil {
		logger.WithComponent("session").Warn().Err(err).Msg("Display rejected frame")
	}
}

func (c *Cloak) saveSnapshot(out gocv.Mat) {
	name := filepath.Join(c.snapshotDir, fmt.Sprintf("snapshot_%02d.png", c.snapshotIdx))
	if ok := gocv.IMWrite(name, out); !ok {
		logger.WithComponent("session").Warn().Str("path", name).Msg("Failed to save snapshot")
		return
	}
	logger.WithComponent("session").Info().Str("path", name).Msg("Saved snapshot")
	c.snapshotIdx++
}

func (c *Cloak) currentState() state {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Cloak) setState(s state) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Cloak) cleanup() {
	log := logger.WithComponent("session")
	c.setState(stateStopped)

	for _, s := range c.sinks {
		if err := s.Stop(); err != nil {
			log.Warn().Err(err).Str("sink", s.Name()).Msg("Failed to stop sink")
		}
	}
	if err := c.display.Stop(); err != nil {
		log.Warn().Err(err).Msg("Failed to close display")
	}
	if err := c.segmenter.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close segmenter")
	}
	c.background.Close()
	if err := c.source.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close source")
	}
}
