package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	mgr, err := NewManager(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config must be written on first run")

	cfg := mgr.Get()
	assert.Equal(t, 0, cfg.CameraIndex)
	assert.Equal(t, 60, cfg.SampleCount)
	assert.Equal(t, "background.png", cfg.BackgroundPath)
	require.Len(t, cfg.CloakRanges, 3, "red wraps the hue circle plus an orange extension")
	assert.Equal(t, [3]float64{0, 120, 70}, cfg.CloakRanges[0].Lower)
	assert.Equal(t, [3]float64{180, 255, 255}, cfg.CloakRanges[1].Upper)
	assert.Equal(t, 3, cfg.Morphology.KernelSize)
	assert.Equal(t, 2, cfg.Morphology.OpenIterations)
	assert.Equal(t, 1, cfg.Morphology.GrowIterations)
}

func TestManagerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	mgr, err := NewManager(path)
	require.NoError(t, err)

	mgr.SetCameraIndex(2)
	mgr.SetBackgroundPath("shots/bg.png")
	mgr.SetSampleCount(90)
	mgr.SetServerPort(9090)
	require.NoError(t, mgr.Save())

	reloaded, err := NewManager(path)
	require.NoError(t, err)

	cfg := reloaded.Get()
	assert.Equal(t, 2, cfg.CameraIndex)
	assert.Equal(t, "shots/bg.png", cfg.BackgroundPath)
	assert.Equal(t, 90, cfg.SampleCount)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, mgr.Get().CloakRanges, cfg.CloakRanges)
}

func TestLoadFillsGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	// A hand-edited config that only sets the camera.
	require.NoError(t, os.WriteFile(path, []byte("camera_index: 1\n"), 0644))

	mgr, err := NewManager(path)
	require.NoError(t, err)

	cfg := mgr.Get()
	assert.Equal(t, 1, cfg.CameraIndex)
	assert.NotEmpty(t, cfg.CloakRanges, "missing ranges fall back to defaults")
	assert.Equal(t, 3, cfg.Morphology.KernelSize)
	assert.Equal(t, 60, cfg.SampleCount)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestGetReturnsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	mgr, err := NewManager(path)
	require.NoError(t, err)

	cfg := mgr.Get()
	cfg.CloakRanges[0].Lower[0] = 99

	assert.Equal(t, float64(0), mgr.Get().CloakRanges[0].Lower[0], "mutating the copy must not touch the manager state")
}
