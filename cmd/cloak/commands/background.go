package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/capture"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/config"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/logger"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/output"
	"github.com/Sri-Ramapriyan/Invisible-cloak/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var backgroundCmd = &cobra.Command{
	Use:   "background",
	Short: "Capture the clean background image",
	Long: `Capture the reference background used by 'cloak run'. Step out of
the frame, then press SPACE; the command samples a burst of frames and
stores their per-pixel median, which suppresses sensor noise and brief
movement through the scene. ESC exits without writing.`,
	Example: `  # Capture with the defaults (60 samples, background.png)
  cloak background

  # Sample more frames on a noisy camera
  cloak background --frames 120

  # Write somewhere else
  cloak background --output shots/bg.png`,
	RunE: runBackground,
}

func init() {
	backgroundCmd.Flags().Int("frames", 0, "number of frames to sample for the median (default is 60)")
	backgroundCmd.Flags().String("output", "", "output image path (default is the configured background path)")
	viper.BindPFlag("sample_count", backgroundCmd.Flags().Lookup("frames"))
	viper.BindPFlag("output_path", backgroundCmd.Flags().Lookup("output"))

	rootCmd.AddCommand(backgroundCmd)
}

func runBackground(cmd *cobra.Command, args []string) error {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to initialize config manager: %w", err)
	}
	applyOverrides(configMgr)
	if viper.IsSet("sample_count") {
		if count := viper.GetInt("sample_count"); count > 0 {
			configMgr.SetSampleCount(count)
		}
	}

	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, true)

	outputPath := cfg.BackgroundPath
	if path := viper.GetString("output_path"); path != "" {
		outputPath = path
	}

	webcam, err := capture.NewWebcam(cfg.CameraIndex)
	if err != nil {
		return err
	}

	sess := session.NewAcquisition(webcam,
		output.NewWindow("Background Capture"), cfg.SampleCount, outputPath)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		sess.Stop()
	}()

	return sess.Run()
}
