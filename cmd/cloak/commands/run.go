package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/api"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/background"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/capture"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/config"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/logger"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/mask"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/output"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the invisible cloak session",
	Long: `Start the live compositing session. Requires a background image
captured beforehand with 'cloak background'.

Keys: 's' saves a snapshot of the composited frame, 'q' or ESC quits.`,
	Example: `  # Run with the default camera and background
  cloak run

  # Record the effect to a video file
  cloak run --save output.mp4

  # Expose the browser preview and status API on port 8080
  cloak run --serve`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("save", "", "record the composited output to this video file")
	runCmd.Flags().Bool("serve", false, "serve the HTTP status and MJPEG preview endpoints")
	runCmd.Flags().Int("port", 0, "status server port (default is 8080)")
	viper.BindPFlag("save_path", runCmd.Flags().Lookup("save"))
	viper.BindPFlag("server_enabled", runCmd.Flags().Lookup("serve"))
	viper.BindPFlag("server_port", runCmd.Flags().Lookup("port"))

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to initialize config manager: %w", err)
	}
	applyOverrides(configMgr)

	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, true)
	log := logger.WithComponent("run")
	log.Info().Str("config", configMgr.GetConfigPath()).Msg("Configuration loaded")

	// A missing background is fatal before any camera work happens.
	bg, err := background.Load(cfg.BackgroundPath)
	if err != nil {
		return err
	}

	webcam, err := capture.NewWebcam(cfg.CameraIndex)
	if err != nil {
		bg.Close()
		return err
	}

	segmenter, err := mask.NewSegmenter(cloakRanges(cfg),
		cfg.Morphology.KernelSize, cfg.Morphology.OpenIterations, cfg.Morphology.GrowIterations)
	if err != nil {
		bg.Close()
		webcam.Close()
		return err
	}

	var sinks []output.Output
	if savePath := viper.GetString("save_path"); savePath != "" {
		sinks = append(sinks, output.NewRecorder(savePath, webcam.FPS()))
	}

	var stream *output.MJPEG
	if cfg.Server.Enabled || viper.GetBool("server_enabled") {
		stream = output.NewMJPEG()
		sinks = append(sinks, stream)
	}

	sess := session.NewCloak(session.CloakParams{
		Source:         webcam,
		Segmenter:      segmenter,
		Background:     bg,
		BackgroundPath: cfg.BackgroundPath,
		Display:        output.NewWindow("Invisible Cloak"),
		Sinks:          sinks,
		SnapshotDir:    cfg.SnapshotDir,
	})

	if stream != nil {
		server := api.NewServer(sess, stream)
		go func() {
			if err := server.Start(cfg.Server.Port); err != nil {
				log.Error().Err(err).Msg("Status server stopped")
			}
		}()
	}

	// Ctrl+C stops the loop the same way the quit key does.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("Interrupt received, shutting down")
		sess.Stop()
	}()

	return sess.Run()
}

// applyOverrides copies explicitly set flags over the file config.
func applyOverrides(configMgr *config.Manager) {
	if viper.IsSet("camera_index") {
		if index := viper.GetInt("camera_index"); index >= 0 {
			configMgr.SetCameraIndex(index)
		}
	}
	if viper.IsSet("background_path") {
		if path := viper.GetString("background_path"); path != "" {
			configMgr.SetBackgroundPath(path)
		}
	}
	if viper.IsSet("log_level") {
		if level := viper.GetString("log_level"); level != "" {
			configMgr.SetLogLevel(level)
		}
	}
	if viper.IsSet("server_port") {
		if port := viper.GetInt("server_port"); port > 0 {
			configMgr.SetServerPort(port)
		}
	}
}

// cloakRanges converts the configured HSV intervals into mask ranges.
func cloakRanges(cfg config.Config) []mask.Range {
	ranges := make([]mask.Range, 0, len(cfg.CloakRanges))
	for _, r := range cfg.CloakRanges {
		ranges = append(ranges, mask.NewRange(r.Lower, r.Upper))
	}
	return ranges
}
