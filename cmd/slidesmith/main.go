// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for SlideSmith. The serve command runs
// the HTTP server; the other commands are operator tools that share its
// configuration.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"slidesmith/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "slidesmith",
	Short: "AI-assisted social media carousel studio",
	Long: `SlideSmith turns a topic, a pasted text, a web page or a YouTube video
into a themed carousel of SVG slides, saves edits as they happen and
publishes carousels behind a share link and QR code.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "slidesmith.yaml", "config file path (optional)")
	rootCmd.AddCommand(serveCmd, migrateCmd, userCmd, renderCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and installs the default logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	slog.SetDefault(newLogger(cfg))
	return cfg, nil
}

// newLogger returns a JSON logger in production and a text logger
// otherwise, unless log.format says differently.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}
	if cfg.LogFormat() == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
