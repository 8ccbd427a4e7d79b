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

package betterclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatBytesAuto(t *testing.T) {
	require.Equal(t, "0 B", FormatBytesAuto(0))
	require.Equal(t, "512 B", FormatBytesAuto(512))
	require.Equal(t, "1.00 KB", FormatBytesAuto(1024))
	require.Equal(t, "1.50 KB", FormatBytesAuto(1536))
	require.Equal(t, "1.00 MB", FormatBytesAuto(1024*1024))
	require.Equal(t, "2.00 GB", FormatBytesAuto(2*1024*1024*1024))
	require.Equal(t, "0 B", FormatBytesAuto(-10))
}

func TestFormatUnixMsLocal(t *testing.T) {
	require.Equal(t, "--", FormatUnixMsLocal(0))
	ts := time.Date(2024, 3, 15, 10, 30, 45, 123_000_000, time.Local)
	require.Equal(t, "2024-03-15 10:30:45.123", FormatUnixMsLocal(ts.UnixMilli()))
}

func TestFormatISOLocalMs(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 30, 45, 123_000_000, time.Local)
	require.Equal(t, "2024-03-15T10:30:45.123", formatISOLocalMs(ts))
}

func TestFormatTime12h(t *testing.T) {
	require.Equal(t, "12:05:00 AM", formatTime12h(time.Date(2024, 1, 1, 0, 5, 0, 0, time.Local)))
	require.Equal(t, "11:59:59 AM", formatTime12h(time.Date(2024, 1, 1, 11, 59, 59, 0, time.Local)))
	require.Equal(t, "12:00:00 PM", formatTime12h(time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)))
	require.Equal(t, "01:15:30 PM", formatTime12h(time.Date(2024, 1, 1, 13, 15, 30, 0, time.Local)))
	require.Equal(t, "11:00:00 PM", formatTime12h(time.Date(2024, 1, 1, 23, 0, 0, 0, time.Local)))
}

func TestFormatDateText(t *testing.T) {
	require.Equal(t, "Friday, March 15 2024", formatDateText(time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)))
}
