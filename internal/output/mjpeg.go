package output

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/logger"
	"gocv.io/x/gocv"
)

// MJPEG streams composited frames as Motion JPEG over HTTP, so the
// effect can be previewed in a browser tab without the HighGUI window.
type MJPEG struct {
	running bool
	mu      sync.RWMutex

	// Connected clients
	clientsMu sync.RWMutex
	clients   map[chan []byte]struct{}

	// Stats
	frameCount uint64
	startTime  time.Time
}

// NewMJPEG creates a new MJPEG stream output.
// The HTTP handler is registered separately via Handler().
func NewMJPEG() *MJPEG {
	return &MJPEG{
		clients: make(map[chan []byte]struct{}),
	}
}

// Start initializes the MJPEG output
func (m *MJPEG) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("MJPEG output already running")
	}

	m.running = true
	m.startTime = time.Now()
	m.frameCount = 0

	logger.WithComponent("stream").Info().Msg("MJPEG output started")
	return nil
}

// Stop cleanly shuts down the output and disconnects all clients
func (m *MJPEG) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false

	m.clientsMu.Lock()
	for ch := range m.clients {
		close(ch)
	}
	m.clients = make(map[chan []byte]struct{})
	m.clientsMu.Unlock()

	logger.WithComponent("stream").Info().
		Uint64("frames", m.frameCount).
		Msg("MJPEG output stopped")
	return nil
}

// WriteFrame encodes the frame as JPEG and broadcasts it to all
// connected clients. Slow clients skip frames rather than stalling the
// capture loop.
func (m *MJPEG) WriteFrame(frame gocv.Mat) error {
	if !m.IsRunning() {
		return fmt.Errorf("MJPEG output not running")
	}

	m.clientsMu.RLock()
	clientCount := len(m.clients)
	m.clientsMu.RUnlock()
	if clientCount == 0 {
		// Nobody is watching; skip the encode entirely.
		return nil
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return fmt.Errorf("failed to encode JPEG: %w", err)
	}
	jpegData := make([]byte, len(buf.GetBytes()))
	copy(jpegData, buf.GetBytes())
	buf.Close()

	m.mu.Lock()
	m.frameCount++
	m.mu.Unlock()

	m.clientsMu.RLock()
	for ch := range m.clients {
		select {
		case ch <- jpegData:
		default:
			// Client is slow, skip this frame
		}
	}
	m.clientsMu.RUnlock()

	return nil
}

// Name returns the output type name
func (m *MJPEG) Name() string {
	return "MJPEG HTTP Stream"
}

// IsRunning returns true if the output is active
func (m *MJPEG) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// Handler returns an http.HandlerFunc serving the multipart MJPEG
// stream. Mount it at /stream or similar endpoint.
func (m *MJPEG) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Connection", "close")

		frameChan := make(chan []byte, 2)

		m.clientsMu.Lock()
		m.clients[frameChan] = struct{}{}
		clientCount := len(m.clients)
		m.clientsMu.Unlock()

		logger.WithComponent("stream").Info().
			Str("remote", r.RemoteAddr).
			Int("clients", clientCount).
			Msg("MJPEG client connected")

		defer func() {
			m.clientsMu.Lock()
			if _, ok := m.clients[frameChan]; ok {
				delete(m.clients, frameChan)
			}
			clientCount := len(m.clients)
			m.clientsMu.Unlock()
			logger.WithComponent("stream").Info().
				Str("remote", r.RemoteAddr).
				Int("clients", clientCount).
				Msg("MJPEG client disconnected")
		}()

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		for {
			select {
			case jpegData, ok := <-frameChan:
				if !ok {
					return
				}
				if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpegData)); err != nil {
					return
				}
				if _, err := w.Write(jpegData); err != nil {
					return
				}
				if _, err := fmt.Fprint(w, "\r\n"); err != nil {
					return
				}
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	}
}
