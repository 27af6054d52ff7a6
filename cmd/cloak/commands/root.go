package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "cloak",
		Short: "Invisible cloak effect for your webcam",
		Long: `Invisible Cloak replaces red cloth in your webcam feed with a
previously captured background image, making the cloth appear to vanish.

Workflow:
  1. cloak background   capture a clean background (step out of frame)
  2. cloak run          wear something red and watch it disappear`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/invisible-cloak/config.yaml)")
	rootCmd.PersistentFlags().Int("camera", -1, "camera device index (default is 0)")
	rootCmd.PersistentFlags().String("background", "", "path to background image")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	// Bind flags to viper
	viper.BindPFlag("camera_index", rootCmd.PersistentFlags().Lookup("camera"))
	viper.BindPFlag("background_path", rootCmd.PersistentFlags().Lookup("background"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}
