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

	"github.com/betterclock/time/discovery"
)

var scanFullFlag bool

func init() {
	RootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVarP(&scanFullFlag, "full", "f", false, "run every discovery stage instead of stopping at the first hit")
}

func scanRun(fullScan bool) error {
	cfg, err := discoveryConfig()
	if err != nil {
		return err
	}
	report, err := discovery.Scan(context.Background(), cfg, fullScan)
	if err != nil {
		return err
	}
	fmt.Println(discovery.FormatScanReport(report))
	if report.Selected == nil {
		fmt.Println(color.RedString("no server discovered"))
		return nil
	}
	fmt.Println(color.GreenString("server at %s", report.Selected.BaseURL))
	return nil
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Probe the LAN for a BetterClock server and print the stage report",
	Run: func(c *cobra.Command, args []string) {
		ConfigureVerbosity()

		if err := scanRun(scanFullFlag); err != nil {
			log.Fatal(err)
		}
	},
}
