package output

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Window displays frames in a HighGUI window and feeds key presses back
// to the session loop. WaitKey doubles as the GUI event pump, so the
// session must call PollKey once per tick even when it ignores the key.
type Window struct {
	title   string
	win     *gocv.Window
	running bool
}

// NewWindow creates a window output with the given title.
func NewWindow(title string) *Window {
	return &Window{title: title}
}

// Start opens the window.
func (w *Window) Start() error {
	if w.running {
		return fmt.Errorf("window %q already open", w.title)
	}
	w.win = gocv.NewWindow(w.title)
	w.running = true
	return nil
}

// Stop closes the window.
func (w *Window) Stop() error {
	if !w.running {
		return nil
	}
	w.running = false
	return w.win.Close()
}

// WriteFrame shows the frame.
func (w *Window) WriteFrame(frame gocv.Mat) error {
	if !w.running {
		return fmt.Errorf("window %q not open", w.title)
	}
	w.win.IMShow(frame)
	return nil
}

// PollKey pumps GUI events for one millisecond and returns the pressed
// key code, or a negative value when no key was pressed.
func (w *Window) PollKey() int {
	if !w.running {
		return -1
	}
	return w.win.WaitKey(1)
}

// Pause blocks for the given number of milliseconds while keeping the
// window responsive. Used to hold a confirmation image on screen.
func (w *Window) Pause(ms int) {
	if w.running {
		w.win.WaitKey(ms)
	}
}

// Name returns the output type name
func (w *Window) Name() string {
	return fmt.Sprintf("Window (%s)", w.title)
}

// IsRunning returns true if the window is open
func (w *Window) IsRunning() bool {
	return w.running
}
