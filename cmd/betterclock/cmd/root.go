/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/betterclock/time/betterclock"
	"github.com/betterclock/time/discovery"
)

// RootCmd is a main entry point. It's exported so betterclock could be easily extended without touching core functionality.
var RootCmd = &cobra.Command{
	Use:   "betterclock",
	Short: "BetterClock LAN time client",
}

var verbose bool
var rootServerFlag string
var rootPortFlag int
var rootConfigFlag string
var rootClientIDFlag string

const rootServerFlagDesc = "server host or IP, skips discovery when set"

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	RootCmd.PersistentFlags().StringVarP(&rootServerFlag, "server", "S", "", rootServerFlagDesc)
	RootCmd.PersistentFlags().IntVarP(&rootPortFlag, "port", "p", betterclock.DefaultPort, "server API port")
	RootCmd.PersistentFlags().StringVarP(&rootConfigFlag, "config", "c", "", "path to a discovery config file")
	RootCmd.PersistentFlags().StringVar(&rootClientIDFlag, "client-id", betterclock.DefaultClientID, "client identity reported to the server")
}

// ConfigureVerbosity configures log verbosity based on parsed flags. Needs to be called by any subcommand.
func ConfigureVerbosity() {
	log.SetLevel(log.InfoLevel)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// discoveryConfig builds the effective discovery config from the config
// file (when given) and the port flag.
func discoveryConfig() (discovery.Config, error) {
	cfg := discovery.DefaultConfig()
	if rootConfigFlag != "" {
		var err error
		if cfg, err = discovery.ReadConfig(rootConfigFlag); err != nil {
			return cfg, fmt.Errorf("reading config %q: %w", rootConfigFlag, err)
		}
	}
	if RootCmd.PersistentFlags().Changed("port") {
		cfg.Port = rootPortFlag
	}
	return cfg, nil
}

// connect builds a session, either against the explicit --server endpoint
// or via LAN discovery.
func connect(ctx context.Context) (*betterclock.Client, error) {
	opts := []betterclock.ClientOption{betterclock.WithClientID(rootClientIDFlag)}
	if rootServerFlag != "" {
		return betterclock.Connect(rootServerFlag, rootPortFlag, opts...)
	}
	cfg, err := discoveryConfig()
	if err != nil {
		return nil, err
	}
	return betterclock.ConnectAuto(ctx, cfg, opts...)
}

// Execute is the main entry point for CLI interface
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
