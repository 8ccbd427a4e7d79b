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
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var watchIntervalFlag time.Duration
var watchCountFlag int

func init() {
	RootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVarP(&watchIntervalFlag, "interval", "i", time.Second, "poll interval")
	watchCmd.Flags().IntVarP(&watchCountFlag, "count", "n", 0, "number of polls, 0 means forever")
}

func watchRun(interval time.Duration, count int) error {
	ctx := context.Background()
	client, err := connect(ctx)
	if err != nil {
		return err
	}
	log.Infof("watching %s as %s/%s", client.BaseURL(), client.ClientID(), client.InstanceID())

	for i := 0; count <= 0 || i < count; i++ {
		if i > 0 {
			time.Sleep(interval)
		}
		snapshot, err := client.GetCorrectedTime(ctx)
		if err != nil {
			log.Errorf("poll failed: %v", err)
			continue
		}
		fmt.Printf("%s  rtt=%7.3fms offset=%+8.3fms desync=%+8.3fms source=%s\n",
			snapshot.CorrectedISOLocal,
			snapshot.RTTMs,
			snapshot.OffsetMs,
			snapshot.DesyncMs,
			snapshot.State.Runtime.SourceLabel,
		)
	}
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll corrected time from the server and print one line per sample",
	Run: func(c *cobra.Command, args []string) {
		ConfigureVerbosity()

		if err := watchRun(watchIntervalFlag, watchCountFlag); err != nil {
			log.Fatal(err)
		}
	},
}
