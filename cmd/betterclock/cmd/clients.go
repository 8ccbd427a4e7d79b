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

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/betterclock/time/betterclock"
)

func init() {
	RootCmd.AddCommand(clientsCmd)
}

func formatMaybeMs(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *v)
}

func clientsRun() error {
	ctx := context.Background()
	client, err := connect(ctx)
	if err != nil {
		return err
	}
	clients, err := client.GetClients(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{
		"id", "instance", "ip", "requests", "rtt(ms)", "offset(ms)", "desync(ms)", "last seen", "in", "out",
	})
	for _, entry := range clients.Clients {
		table.Append([]string{
			entry.ID,
			entry.InstanceID,
			entry.IP,
			fmt.Sprintf("%d", entry.RequestCount),
			formatMaybeMs(entry.LastRTTMs),
			formatMaybeMs(entry.LastOffsetMs),
			formatMaybeMs(entry.LastDesyncMs),
			betterclock.FormatUnixMsLocal(entry.LastSeenUnixMs),
			betterclock.FormatBytesAuto(float64(entry.TotalInBytes)),
			betterclock.FormatBytesAuto(float64(entry.TotalOutBytes)),
		})
	}
	table.Render()
	fmt.Printf("%d clients\n", clients.Count)
	return nil
}

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List the clients the server currently tracks",
	Run: func(c *cobra.Command, args []string) {
		ConfigureVerbosity()

		if err := clientsRun(); err != nil {
			log.Fatal(err)
		}
	},
}
