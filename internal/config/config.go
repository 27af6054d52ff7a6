package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/logger"
	"gopkg.in/yaml.v3"
)

// HSVRange is one inclusive [lower, upper] interval in HSV space.
// Channel order is hue, saturation, value (OpenCV 8-bit scaling:
// hue 0-180, saturation/value 0-255).
type HSVRange struct {
	Lower [3]float64 `json:"lower" yaml:"lower"`
	Upper [3]float64 `json:"upper" yaml:"upper"`
}

// MorphologyConfig controls mask cleanup after color thresholding
type MorphologyConfig struct {
	KernelSize     int `json:"kernel_size" yaml:"kernel_size"`
	OpenIterations int `json:"open_iterations" yaml:"open_iterations"`
	GrowIterations int `json:"grow_iterations" yaml:"grow_iterations"`
}

// ServerConfig represents the optional HTTP status/preview server
type ServerConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	Port    int  `json:"port" yaml:"port"`
}

// Config represents the application configuration
type Config struct {
	CameraIndex    int        `json:"camera_index" yaml:"camera_index"`
	BackgroundPath string     `json:"background_path" yaml:"background_path"`
	SampleCount    int        `json:"sample_count" yaml:"sample_count"`
	CloakRanges    []HSVRange `json:"cloak_ranges" yaml:"cloak_ranges"`

	Morphology  MorphologyConfig `json:"morphology" yaml:"morphology"`
	SnapshotDir string           `json:"snapshot_dir" yaml:"snapshot_dir"`
	Server      ServerConfig     `json:"server" yaml:"server"`
	LogLevel    string           `json:"log_level" yaml:"log_level"`
}

// Manager handles configuration
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configFile string) (*Manager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "invisible-cloak")
	defaultConfigPath := filepath.Join(configDir, "config.yaml")

	// Use provided config file or default
	actualConfigPath := defaultConfigPath
	if configFile != "" {
		actualConfigPath = configFile
	} else if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	m := &Manager{
		configPath: actualConfigPath,
	}

	if err := m.load(); err != nil {
		if os.IsNotExist(err) {
			// Config file not found, create it with defaults
			logger.WithComponent("config").Info().
				Str("path", m.configPath).
				Msg("Config file not found, creating new config")
			m.config = m.getDefaults()
			if err := m.Save(); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Int("cloak_ranges", len(m.config.CloakRanges)).
		Msg("Config loaded")

	return m, nil
}

// getDefaults returns default configuration.
//
// The HSV thresholds are empirically tuned for a bright, saturated red to
// reddish-orange cloth under indoor lighting. Red wraps around the hue
// circle, so it needs two intervals; the third extends into orange. The
// saturation/value floors keep skin tones and dim shadows out of the mask.
// They are configuration, not constants: retune per camera and lighting.
func (m *Manager) getDefaults() *Config {
	return &Config{
		CameraIndex:    0,
		BackgroundPath: "background.png",
		SampleCount:    60,
		CloakRanges: []HSVRange{
			{Lower: [3]float64{0, 120, 70}, Upper: [3]float64{10, 255, 255}},
			{Lower: [3]float64{170, 120, 70}, Upper: [3]float64{180, 255, 255}},
			{Lower: [3]float64{10, 100, 70}, Upper: [3]float64{25, 255, 255}},
		},
		Morphology: MorphologyConfig{
			KernelSize:     3,
			OpenIterations: 2,
			GrowIterations: 1,
		},
		SnapshotDir: ".",
		Server: ServerConfig{
			Enabled: false,
			Port:    8080,
		},
		LogLevel: "info",
	}
}

// load reads the configuration from disk
func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	// Fill gaps so a hand-edited config cannot leave the pipeline without
	// ranges or with a degenerate kernel
	defaults := m.getDefaults()
	if len(cfg.CloakRanges) == 0 {
		cfg.CloakRanges = defaults.CloakRanges
	}
	if cfg.Morphology.KernelSize <= 0 {
		cfg.Morphology.KernelSize = defaults.Morphology.KernelSize
	}
	if cfg.Morphology.OpenIterations < 0 {
		cfg.Morphology.OpenIterations = defaults.Morphology.OpenIterations
	}
	if cfg.Morphology.GrowIterations < 0 {
		cfg.Morphology.GrowIterations = defaults.Morphology.GrowIterations
	}
	if cfg.SampleCount <= 0 {
		cfg.SampleCount = defaults.SampleCount
	}
	if cfg.BackgroundPath == "" {
		cfg.BackgroundPath = defaults.BackgroundPath
	}
	if cfg.SnapshotDir == "" {
		cfg.SnapshotDir = defaults.SnapshotDir
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = defaults.Server.Port
	}

	m.mu.Lock()
	m.config = &cfg
	m.mu.Unlock()

	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := *m.config
	cfg.CloakRanges = append([]HSVRange(nil), m.config.CloakRanges...)
	return cfg
}

// GetConfigPath returns the path of the loaded config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// SetLogLevel overrides the configured log level
func (m *Manager) SetLogLevel(level string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.LogLevel = level
}

// SetCameraIndex overrides the configured capture device index
func (m *Manager) SetCameraIndex(index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.CameraIndex = index
}

// SetBackgroundPath overrides the configured background image path
func (m *Manager) SetBackgroundPath(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.BackgroundPath = path
}

// SetSampleCount overrides the number of frames sampled for the background
func (m *Manager) SetSampleCount(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.SampleCount = count
}

// SetServerPort overrides the status server port
func (m *Manager) SetServerPort(port int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Server.Port = port
	m.config.Server.Enabled = true
}
