// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/i2c_bug/internal/app"
	"github.com/relabs-tech/i2c_bug/internal/config"
)

func _main(cmd *cobra.Command, args []string) {
	configPath, _ := cmd.Flags().GetString("config")
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		log.SetLevel(log.DebugLevel)
	}

	if err := config.InitGlobal(configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Any setup failure is fatal: the board is left as it is for inspection.
	if err := app.RunRepro(ctx, config.Get()); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "i2c_bug",
	Short: "reproduce the IMU/BLE shared I2C bus conflict",
	Long:  "Configures the MPU6886, advertises the BLE service and prints a heartbeat every second while polling the IMU.",
	Run: func(cmd *cobra.Command, args []string) {
		_main(cmd, args)
	},
}

func main() {
	rootCmd.Flags().String("config", "", "path to configuration file (defaults when empty)")
	rootCmd.Flags().Bool("debug", false, "toggle debug logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
