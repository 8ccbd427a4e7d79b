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
	"bytes"
	"testing"

	"github.com/olekukonko/tablewriter"
	"github.com/stretchr/testify/require"
)

func TestFormatMaybeMs(t *testing.T) {
	require.Equal(t, "-", formatMaybeMs(nil))
	v := 12.3456
	require.Equal(t, "12.346", formatMaybeMs(&v))
	zero := 0.0
	require.Equal(t, "0.000", formatMaybeMs(&zero))
}

func TestClientsTableRenders(t *testing.T) {
	buf := &bytes.Buffer{}
	table := tablewriter.NewWriter(buf)
	table.Header([]string{
		"id", "instance", "ip", "requests", "rtt(ms)", "offset(ms)", "desync(ms)", "last seen", "in", "out",
	})
	table.Append([]string{
		"go-time-lib", "go-0102030405", "192.168.1.50", "5", "4.200", "-", "-", "--", "1.50 KB", "512 B",
	})
	table.Render()

	out := buf.String()
	require.Contains(t, out, "go-time-lib")
	require.Contains(t, out, "192.168.1.50")
	require.Contains(t, out, "1.50 KB")
}
