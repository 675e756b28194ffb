// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/i2c_bug/internal/app"
	"github.com/relabs-tech/i2c_bug/internal/config"
)

func _main(cmd *cobra.Command, args []string) {
	configPath, _ := cmd.Flags().GetString("config")
	addr, _ := cmd.Flags().GetString("addr")
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		log.SetLevel(log.DebugLevel)
	}

	if err := config.InitGlobal(configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunRegisterDebug(config.Get(), addr); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "register_debug",
	Short: "MPU6886 register debug tool",
	Long:  "Serves register-level read/write access to the MPU6886 over WebSocket (/ws) and live samples at /api/imu.",
	Run: func(cmd *cobra.Command, args []string) {
		_main(cmd, args)
	},
}

func main() {
	rootCmd.Flags().String("config", "", "path to configuration file (defaults when empty)")
	rootCmd.Flags().String("addr", "", "listen address, overrides REGISTER_DEBUG_PORT")
	rootCmd.Flags().Bool("debug", false, "toggle debug logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
