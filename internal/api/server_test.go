package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStatus struct {
	status session.Status
}

func (s *stubStatus) Status() session.Status { return s.status }

func TestHandleStatus(t *testing.T) {
	srv := NewServer(&stubStatus{status: session.Status{
		State:          "running",
		Frames:         42,
		FPS:            19.5,
		CloakCoverage:  0.12,
		BackgroundPath: "background.png",
	}}, nil)

	req := httptest.NewRequest("GET", "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got session.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "running", got.State)
	assert.EqualValues(t, 42, got.Frames)
	assert.Equal(t, "background.png", got.BackgroundPath)
}

func TestHandleHealth(t *testing.T) {
	srv := NewServer(&stubStatus{}, nil)

	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStreamRouteOnlyWithStream(t *testing.T) {
	srv := NewServer(&stubStatus{}, nil)

	req := httptest.NewRequest("GET", "/stream", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, 404, rec.Code, "no stream route when the MJPEG output is disabled")
}
