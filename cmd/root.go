package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "mediascribe",
	Short: "Download remote media, extract audio and produce transcripts",
	Long: `mediascribe acquires a remote media item by its public id, extracts the
audio track and transcribes it with a local whisper binary or a remote
ASR service, persisting records and exposing progress over an HTTP API.`,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	configFile string
	dataDir    string
)

func init() {
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "data/config.json", "config file path")
	RootCmd.PersistentFlags().StringVar(&dataDir, "data", "data", "data directory")
}
