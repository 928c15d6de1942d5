// Command fwupdate decrypts, inspects, and delivers firmware archives to
// Z-Wave pool/spa controllers over a gateway broker, per the Z-Wave
// Manufacturer-Proprietary Command Class firmware transfer protocol.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/zwpool/fwupdate/internal/config"
)

var (
	debug bool
	cfg   config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fwupdate",
	Short: "Decrypt, inspect, and deliver Z-Wave pool/spa firmware archives",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := cfg.SlogLevel()
		if debug {
			level = slog.LevelDebug
		}
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		slog.SetDefault(slog.New(handler))
	},
}

func init() {
	var err error
	cfg, err = config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "fwupdate: %v\n", err)
	}

	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
