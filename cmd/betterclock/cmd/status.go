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

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/betterclock/time/betterclock"
)

var statusIPInfoFlag bool

func init() {
	RootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusIPInfoFlag, "ip-info", false, "also collect device IP info including public IP")
}

func statusRun(ipInfo bool) error {
	ctx := context.Background()
	client, err := connect(ctx)
	if err != nil {
		return err
	}

	healthy, err := client.Healthz(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	health := color.GreenString("ok")
	if !healthy {
		health = color.RedString("unhealthy")
	}

	state, err := client.GetState(ctx)
	if err != nil {
		return err
	}

	info := client.GetConnectionInfo()
	fmt.Printf("Server:   %s (ip=%s, local=%v) health=%s\n", info.BaseURL, info.ConnectionIP, info.Local, health)
	fmt.Printf("Time:     %s (%s)\n", state.Runtime.ISOLocal, state.Runtime.SourceLabel)
	fmt.Printf("Started:  %s\n", betterclock.FormatUnixMsLocal(state.ServerStartedUnixMs))
	fmt.Printf("Clients:  %d seen, %d requests total\n", state.ClientsSeen, state.TotalRequests)
	fmt.Printf("Traffic:  in=%s out=%s (%s/s in, %s/s out this session)\n",
		betterclock.FormatBytesAuto(float64(state.TotalInBytes)),
		betterclock.FormatBytesAuto(float64(state.TotalOutBytes)),
		betterclock.FormatBytesAuto(state.SessionInBytesPerSec),
		betterclock.FormatBytesAuto(state.SessionOutBytesPerSec),
	)
	if state.Runtime.WarningEnabled {
		fmt.Printf("Warnings: %d active, %d armed, %d triggered\n",
			state.Runtime.WarningActiveCount, state.Runtime.ArmedCount, state.Runtime.TriggeredCount)
	}

	if ipInfo {
		device := client.GetDeviceIPInfo(ctx, true)
		fmt.Printf("Device:   host=%s lan=%s resolved=%s public=%s\n",
			device.Hostname, device.LANIP, device.ResolvedLocalIP, device.PublicIP)
	}
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server health, time source and traffic counters",
	Run: func(c *cobra.Command, args []string) {
		ConfigureVerbosity()

		if err := statusRun(statusIPInfoFlag); err != nil {
			log.Fatal(err)
		}
	},
}
