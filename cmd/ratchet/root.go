package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/ratchet"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "ratchet",
	Short: "Render, validate and prepare ratchet compute kernels",
	Long: `ratchet lists the static kernel catalogue, renders specialized GEMV
kernels, validates WGSL with naga and prepares pipelines on a GPU device.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var level slog.Level
		switch logLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelWarn
		}

		opts := &slog.HandlerOptions{Level: level}
		ratchet.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, opts)))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}
